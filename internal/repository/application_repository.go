package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-portal-api/internal/models"
)

const applicationColumns = `id, student_id, supervisor_id, company_id, job_id, cover_letter, resume_url,
       supervisor_status, company_status, overall_status, feedback, company_feedback, resubmission_count,
       interview_at, interview_mode, interview_location, interview_notes,
       submitted_at, supervisor_reviewed_at, resubmitted_at, company_reviewed_at, interview_scheduled_at,
       hired_at, rejected_at, created_at, updated_at`

// transitionColumns lists the columns a workflow transition may write.
var transitionColumns = map[string]struct{}{
	"supervisor_id":          {},
	"cover_letter":           {},
	"resume_url":             {},
	"feedback":               {},
	"company_feedback":       {},
	"interview_at":           {},
	"interview_mode":         {},
	"interview_location":     {},
	"interview_notes":        {},
	"supervisor_reviewed_at": {},
	"resubmitted_at":         {},
	"company_reviewed_at":    {},
	"interview_scheduled_at": {},
	"hired_at":               {},
	"rejected_at":            {},
}

// ApplicationRepository persists internship applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application in the submitted state.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = now
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	if app.SupervisorStatus == "" {
		app.SupervisorStatus = models.SupervisorStatusPending
	}
	if app.CompanyStatus == "" {
		app.CompanyStatus = models.CompanyStatusPending
	}
	if app.OverallStatus == "" {
		app.OverallStatus = models.ApplicationStatusSubmitted
	}
	const query = `INSERT INTO applications
	(id, student_id, supervisor_id, company_id, job_id, cover_letter, resume_url, supervisor_status, company_status,
	 overall_status, resubmission_count, submitted_at, created_at, updated_at)
	VALUES (:id, :student_id, :supervisor_id, :company_id, :job_id, :cover_letter, :resume_url, :supervisor_status, :company_status,
	 :overall_status, :resubmission_count, :submitted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// GetByID fetches an application by identifier.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return &app, nil
}

// FindOpenByStudentAndJob returns the student's non-terminal application for a job.
func (r *ApplicationRepository) FindOpenByStudentAndJob(ctx context.Context, studentID, jobID string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications
	WHERE student_id = $1 AND job_id = $2 AND overall_status NOT IN ('approved', 'rejected')
	ORDER BY submitted_at DESC LIMIT 1`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, studentID, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find open application: %w", err)
	}
	return &app, nil
}

// FindHiredByStudent returns the student's most recent hired application.
func (r *ApplicationRepository) FindHiredByStudent(ctx context.Context, studentID string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications
	WHERE student_id = $1 AND overall_status = 'approved'
	ORDER BY hired_at DESC NULLS LAST LIMIT 1`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find hired application: %w", err)
	}
	return &app, nil
}

// List returns applications matching the filter (latest first).
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT ` + applicationColumns + ` FROM applications`)

	conditions := make([]string, 0, 5)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.SupervisorID != "" {
		args = append(args, filter.SupervisorID)
		conditions = append(conditions, fmt.Sprintf("supervisor_id = $%d", len(args)))
	}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)))
	}
	if filter.JobID != "" {
		args = append(args, filter.JobID)
		conditions = append(conditions, fmt.Sprintf("job_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("overall_status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY submitted_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// ApplicationTransition describes a conditional state change. The update only
// applies while the persisted overall status is one of From.
type ApplicationTransition struct {
	ID                    string
	From                  []models.ApplicationStatus
	To                    models.ApplicationStatus
	SupervisorStatus      models.SupervisorStatus
	CompanyStatus         models.CompanyStatus
	IncrementResubmission bool
	// ExpectedSupervisorID, when set, also requires the row to still be
	// assigned to that supervisor.
	ExpectedSupervisorID  string
	Fields                map[string]interface{}
	At                    time.Time
}

// Transition applies the change atomically. It returns sql.ErrNoRows when the
// application is missing or no longer in an expected state.
func (r *ApplicationRepository) Transition(ctx context.Context, t ApplicationTransition) error {
	if len(t.From) == 0 {
		return fmt.Errorf("transition application %s: no expected state", t.ID)
	}
	if t.At.IsZero() {
		t.At = time.Now().UTC()
	}
	args := map[string]interface{}{
		"id":             t.ID,
		"overall_status": t.To,
		"updated_at":     t.At,
	}
	setParts := []string{"overall_status = :overall_status", "updated_at = :updated_at"}
	if t.SupervisorStatus != "" {
		setParts = append(setParts, "supervisor_status = :supervisor_status")
		args["supervisor_status"] = t.SupervisorStatus
	}
	if t.CompanyStatus != "" {
		setParts = append(setParts, "company_status = :company_status")
		args["company_status"] = t.CompanyStatus
	}
	if t.IncrementResubmission {
		setParts = append(setParts, "resubmission_count = resubmission_count + 1")
	}

	columns := make([]string, 0, len(t.Fields))
	for column := range t.Fields {
		if _, ok := transitionColumns[column]; !ok {
			return fmt.Errorf("transition application %s: column %q is not writable", t.ID, column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		setParts = append(setParts, fmt.Sprintf("%s = :%s", column, column))
		args[column] = t.Fields[column]
	}

	placeholders := make([]string, len(t.From))
	for i, status := range t.From {
		key := fmt.Sprintf("from_%d", i)
		placeholders[i] = ":" + key
		args[key] = status
	}

	query := fmt.Sprintf("UPDATE applications SET %s WHERE id = :id AND overall_status IN (%s)",
		strings.Join(setParts, ", "),
		strings.Join(placeholders, ", "),
	)
	if t.ExpectedSupervisorID != "" {
		query += " AND supervisor_id = :expected_supervisor_id"
		args["expected_supervisor_id"] = t.ExpectedSupervisorID
	}
	result, err := r.db.NamedExecContext(ctx, query, args)
	if err != nil {
		return fmt.Errorf("transition application: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check application transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
