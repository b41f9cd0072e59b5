package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Supervisor evaluation criteria are each scored 1 to 10.
const (
	SupervisorCriterionMin = 1
	SupervisorCriterionMax = 10
)

// DefaultCompanyMaxMarks applies when a company evaluation omits its scale.
const DefaultCompanyMaxMarks = 40

// SupervisorEvaluation is the academic supervisor's assessment, one per
// (student, supervisor). The final result fields are written once on release.
type SupervisorEvaluation struct {
	ID                string     `db:"id" json:"id"`
	StudentID         string     `db:"student_id" json:"studentId"`
	SupervisorID      string     `db:"supervisor_id" json:"supervisorId"`
	ApplicationID     string     `db:"application_id" json:"applicationId"`
	TechnicalSkills   int        `db:"technical_skills" json:"technicalSkills"`
	ProblemSolving    int        `db:"problem_solving" json:"problemSolving"`
	Communication     int        `db:"communication" json:"communication"`
	Teamwork          int        `db:"teamwork" json:"teamwork"`
	Professionalism   int        `db:"professionalism" json:"professionalism"`
	Initiative        int        `db:"initiative" json:"initiative"`
	TotalMarks        int        `db:"total_marks" json:"totalMarks"`
	Comments          *string    `db:"comments" json:"comments,omitempty"`
	FinalResultSent   bool       `db:"final_result_sent" json:"finalResultSent"`
	FinalResultSentAt *time.Time `db:"final_result_sent_at" json:"finalResultSentAt,omitempty"`
	FinalResultSentBy *string    `db:"final_result_sent_by" json:"finalResultSentBy,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// CompanyCriterion is a single scored line of a company evaluation.
type CompanyCriterion struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"maxScore"`
}

// CompanyCriteria is stored as JSONB.
type CompanyCriteria []CompanyCriterion

// Value implements driver.Valuer.
func (c CompanyCriteria) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *CompanyCriteria) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("company criteria: unsupported type %T", value)
	}
}

// CompanyEvaluation is the hiring company's assessment of an intern, one
// per application. MaxMarks is nullable; absent means the default scale.
type CompanyEvaluation struct {
	ID            string          `db:"id" json:"id"`
	ApplicationID string          `db:"application_id" json:"applicationId"`
	StudentID     string          `db:"student_id" json:"studentId"`
	CompanyID     string          `db:"company_id" json:"companyId"`
	Criteria      CompanyCriteria `db:"criteria" json:"criteria"`
	TotalMarks    float64         `db:"total_marks" json:"totalMarks"`
	MaxMarks      *float64        `db:"max_marks" json:"maxMarks,omitempty"`
	Comments      *string         `db:"comments" json:"comments,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}
