package dto

import "time"

// CreateSupervisorEvaluationRequest scores six criteria from 1 to 10.
type CreateSupervisorEvaluationRequest struct {
	ApplicationID   string  `json:"applicationId" validate:"required"`
	TechnicalSkills int     `json:"technicalSkills" validate:"required,min=1,max=10"`
	ProblemSolving  int     `json:"problemSolving" validate:"required,min=1,max=10"`
	Communication   int     `json:"communication" validate:"required,min=1,max=10"`
	Teamwork        int     `json:"teamwork" validate:"required,min=1,max=10"`
	Professionalism int     `json:"professionalism" validate:"required,min=1,max=10"`
	Initiative      int     `json:"initiative" validate:"required,min=1,max=10"`
	Comments        *string `json:"comments" validate:"omitempty,max=2000"`
}

// CompanyCriterionInput is one scored line submitted by a company.
type CompanyCriterionInput struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Score    float64  `json:"score" validate:"gte=0"`
	MaxScore *float64 `json:"maxScore" validate:"omitempty,gt=0"`
}

// CreateCompanyEvaluationRequest carries a company's intern assessment.
// MaxMarks, when set, overrides the sum of per-criterion maxima.
type CreateCompanyEvaluationRequest struct {
	ApplicationID string                  `json:"applicationId" validate:"required"`
	Criteria      []CompanyCriterionInput `json:"criteria" validate:"required,min=1,dive"`
	MaxMarks      *float64                `json:"maxMarks" validate:"omitempty,gt=0"`
	Comments      *string                 `json:"comments" validate:"omitempty,max=2000"`
}

// FinalResult is the combined grade derived from both evaluations.
type FinalResult struct {
	SupervisorMarks int    `json:"supervisorMarks"`
	CompanyMarks    int    `json:"companyMarks"`
	TotalMarks      int    `json:"totalMarks"`
	Grade           string `json:"grade"`
}

// FinalEvaluationItem is one row of the supervisor release list.
type FinalEvaluationItem struct {
	ApplicationID           string       `json:"applicationId"`
	StudentID               string       `json:"studentId"`
	StudentName             string       `json:"studentName"`
	StudentEmail            string       `json:"studentEmail"`
	RollNumber              string       `json:"rollNumber,omitempty"`
	Department              string       `json:"department,omitempty"`
	CompanyID               string       `json:"companyId"`
	JobTitle                string       `json:"jobTitle,omitempty"`
	HasSupervisorEvaluation bool         `json:"hasSupervisorEvaluation"`
	HasCompanyEvaluation    bool         `json:"hasCompanyEvaluation"`
	Result                  *FinalResult `json:"result,omitempty"`
	Sent                    bool         `json:"sent"`
	SentAt                  *time.Time   `json:"sentAt,omitempty"`
	SentBy                  *string      `json:"sentBy,omitempty"`
}

// SupervisorFinalEvaluations groups a supervisor's hired interns by release state.
type SupervisorFinalEvaluations struct {
	ReadyToSend         []FinalEvaluationItem `json:"readyToSend"`
	AlreadySent         []FinalEvaluationItem `json:"alreadySent"`
	AwaitingEvaluations []FinalEvaluationItem `json:"awaitingEvaluations"`
}

// SentResult is returned by the release and view-sent operations.
type SentResult struct {
	ApplicationID  string      `json:"applicationId"`
	StudentID      string      `json:"studentId"`
	Result         FinalResult `json:"result"`
	SentAt         time.Time   `json:"sentAt"`
	SentBy         string      `json:"sentBy"`
	EmailDelivered *bool       `json:"emailDelivered,omitempty"`
}

// Student result visibility states.
const (
	ResultStatusPending  = "pending"
	ResultStatusReleased = "released"
)

// StudentResultView is what a student sees. Marks are present only once released.
type StudentResultView struct {
	Status     string       `json:"status"`
	Message    string       `json:"message"`
	Result     *FinalResult `json:"result,omitempty"`
	ReleasedAt *time.Time   `json:"releasedAt,omitempty"`
}

// ExportQuery selects the rendering format of the release list.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
