package dto

import (
	"time"

	"github.com/noah-isme/internship-portal-api/internal/models"
)

// Supervisor and company review decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
	DecisionOpen    = "open"
	DecisionAccept  = "accept"
)

// SubmitApplicationRequest payload for a student applying to a job posting.
// SupervisorID overrides the supervisor recorded on the student's profile.
type SubmitApplicationRequest struct {
	JobID        string  `json:"jobId" validate:"required"`
	CoverLetter  string  `json:"coverLetter" validate:"required,max=5000"`
	ResumeURL    *string `json:"resumeUrl" validate:"omitempty,url"`
	SupervisorID *string `json:"supervisorId" validate:"omitempty"`
}

// SupervisorReviewRequest captures the supervisor decision. Feedback is
// mandatory when rejecting.
type SupervisorReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

// ResubmitApplicationRequest carries the corrected fields after a rejection.
type ResubmitApplicationRequest struct {
	CoverLetter *string `json:"coverLetter" validate:"omitempty,min=1,max=5000"`
	ResumeURL   *string `json:"resumeUrl" validate:"omitempty,url"`
}

// CompanyReviewRequest captures the company decision. "open" moves an
// approved application into company review.
type CompanyReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=open accept reject"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

// ScheduleInterviewRequest describes interview details.
type ScheduleInterviewRequest struct {
	ScheduledAt time.Time            `json:"scheduledAt" validate:"required"`
	Mode        models.InterviewMode `json:"mode" validate:"required,oneof=onsite online"`
	Location    string               `json:"location" validate:"required,max=500"`
	Notes       string               `json:"notes" validate:"max=2000"`
}

// AssignSupervisorRequest assigns or reassigns the academic supervisor.
type AssignSupervisorRequest struct {
	SupervisorID string `json:"supervisorId" validate:"required"`
}

// ApplicationQuery mirrors supported listing filters.
type ApplicationQuery struct {
	Status []models.ApplicationStatus
	JobID  string
	Limit  int
	Offset int
}
