package models

import "time"

// SupervisorStatus tracks the academic supervisor's decision.
type SupervisorStatus string

const (
	SupervisorStatusPending  SupervisorStatus = "pending"
	SupervisorStatusApproved SupervisorStatus = "approved"
	SupervisorStatusRejected SupervisorStatus = "rejected"
)

// CompanyStatus tracks the hiring company's decision.
type CompanyStatus string

const (
	CompanyStatusPending            CompanyStatus = "pending"
	CompanyStatusInterviewScheduled CompanyStatus = "interview_scheduled"
	CompanyStatusHired              CompanyStatus = "hired"
	CompanyStatusRejected           CompanyStatus = "rejected"
)

// ApplicationStatus is the persisted workflow state. Every transition is a
// conditional update keyed on the expected current value.
type ApplicationStatus string

const (
	ApplicationStatusSubmitted          ApplicationStatus = "submitted"
	ApplicationStatusSupervisorRejected ApplicationStatus = "supervisor_rejected"
	ApplicationStatusSupervisorApproved ApplicationStatus = "supervisor_approved"
	ApplicationStatusCompanyReview      ApplicationStatus = "company_review"
	ApplicationStatusInterviewScheduled ApplicationStatus = "interview_scheduled"
	ApplicationStatusApproved           ApplicationStatus = "approved"
	ApplicationStatusRejected           ApplicationStatus = "rejected"
)

// Terminal reports whether no further transitions are accepted.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// Valid reports whether s is a known workflow state.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusSubmitted, ApplicationStatusSupervisorRejected, ApplicationStatusSupervisorApproved,
		ApplicationStatusCompanyReview, ApplicationStatusInterviewScheduled, ApplicationStatusApproved,
		ApplicationStatusRejected:
		return true
	}
	return false
}

// InterviewMode enumerates how an interview is held.
type InterviewMode string

const (
	InterviewModeOnsite InterviewMode = "onsite"
	InterviewModeOnline InterviewMode = "online"
)

// Application is a student's request to intern for a job posting.
type Application struct {
	ID                   string            `db:"id" json:"id"`
	StudentID            string            `db:"student_id" json:"studentId"`
	SupervisorID         *string           `db:"supervisor_id" json:"supervisorId,omitempty"`
	CompanyID            string            `db:"company_id" json:"companyId"`
	JobID                string            `db:"job_id" json:"jobId"`
	CoverLetter          string            `db:"cover_letter" json:"coverLetter"`
	ResumeURL            *string           `db:"resume_url" json:"resumeUrl,omitempty"`
	SupervisorStatus     SupervisorStatus  `db:"supervisor_status" json:"supervisorStatus"`
	CompanyStatus        CompanyStatus     `db:"company_status" json:"companyStatus"`
	OverallStatus        ApplicationStatus `db:"overall_status" json:"overallStatus"`
	Feedback             *string           `db:"feedback" json:"feedback,omitempty"`
	CompanyFeedback      *string           `db:"company_feedback" json:"companyFeedback,omitempty"`
	ResubmissionCount    int               `db:"resubmission_count" json:"resubmissionCount"`
	InterviewAt          *time.Time        `db:"interview_at" json:"interviewAt,omitempty"`
	InterviewMode        *InterviewMode    `db:"interview_mode" json:"interviewMode,omitempty"`
	InterviewLocation    *string           `db:"interview_location" json:"interviewLocation,omitempty"`
	InterviewNotes       *string           `db:"interview_notes" json:"interviewNotes,omitempty"`
	SubmittedAt          time.Time         `db:"submitted_at" json:"submittedAt"`
	SupervisorReviewedAt *time.Time        `db:"supervisor_reviewed_at" json:"supervisorReviewedAt,omitempty"`
	ResubmittedAt        *time.Time        `db:"resubmitted_at" json:"resubmittedAt,omitempty"`
	CompanyReviewedAt    *time.Time        `db:"company_reviewed_at" json:"companyReviewedAt,omitempty"`
	InterviewScheduledAt *time.Time        `db:"interview_scheduled_at" json:"interviewScheduledAt,omitempty"`
	HiredAt              *time.Time        `db:"hired_at" json:"hiredAt,omitempty"`
	RejectedAt           *time.Time        `db:"rejected_at" json:"rejectedAt,omitempty"`
	CreatedAt            time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time         `db:"updated_at" json:"updatedAt"`
}

// AssignedTo reports whether supervisorID is the assigned supervisor.
func (a *Application) AssignedTo(supervisorID string) bool {
	return a != nil && a.SupervisorID != nil && *a.SupervisorID == supervisorID
}

// Hired reports whether the application reached the hired terminal state.
func (a *Application) Hired() bool {
	return a != nil && a.OverallStatus == ApplicationStatusApproved && a.CompanyStatus == CompanyStatusHired
}

// ApplicationFilter constrains listing queries.
type ApplicationFilter struct {
	StudentID    string
	SupervisorID string
	CompanyID    string
	JobID        string
	Status       []ApplicationStatus
	Limit        int
	Offset       int
}
