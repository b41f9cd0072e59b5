package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/internship-portal-api/internal/models"
)

const supervisorEvaluationColumns = `id, student_id, supervisor_id, application_id, technical_skills, problem_solving,
       communication, teamwork, professionalism, initiative, total_marks, comments,
       final_result_sent, final_result_sent_at, final_result_sent_by, created_at, updated_at`

const companyEvaluationColumns = `id, application_id, student_id, company_id, criteria, total_marks, max_marks, comments, created_at`

// EvaluationRepository persists supervisor and company evaluations.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// CreateSupervisorEvaluation inserts a supervisor evaluation. The (student,
// supervisor) pair is unique; violations surface as pq unique errors.
func (r *EvaluationRepository) CreateSupervisorEvaluation(ctx context.Context, eval *models.SupervisorEvaluation) error {
	if eval.ID == "" {
		eval.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if eval.CreatedAt.IsZero() {
		eval.CreatedAt = now
	}
	eval.UpdatedAt = now
	const query = `INSERT INTO supervisor_evaluations
	(id, student_id, supervisor_id, application_id, technical_skills, problem_solving, communication, teamwork,
	 professionalism, initiative, total_marks, comments, final_result_sent, created_at, updated_at)
	VALUES (:id, :student_id, :supervisor_id, :application_id, :technical_skills, :problem_solving, :communication, :teamwork,
	 :professionalism, :initiative, :total_marks, :comments, FALSE, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, eval); err != nil {
		return fmt.Errorf("create supervisor evaluation: %w", err)
	}
	return nil
}

// GetSupervisorEvaluation fetches the evaluation for a (student, supervisor) pair.
func (r *EvaluationRepository) GetSupervisorEvaluation(ctx context.Context, studentID, supervisorID string) (*models.SupervisorEvaluation, error) {
	query := `SELECT ` + supervisorEvaluationColumns + ` FROM supervisor_evaluations WHERE student_id = $1 AND supervisor_id = $2`
	var eval models.SupervisorEvaluation
	if err := r.db.GetContext(ctx, &eval, query, studentID, supervisorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get supervisor evaluation: %w", err)
	}
	return &eval, nil
}

// ListSupervisorEvaluations returns every evaluation written by a supervisor.
func (r *EvaluationRepository) ListSupervisorEvaluations(ctx context.Context, supervisorID string) ([]models.SupervisorEvaluation, error) {
	query := `SELECT ` + supervisorEvaluationColumns + ` FROM supervisor_evaluations WHERE supervisor_id = $1 ORDER BY created_at DESC`
	var evals []models.SupervisorEvaluation
	if err := r.db.SelectContext(ctx, &evals, query, supervisorID); err != nil {
		return nil, fmt.Errorf("list supervisor evaluations: %w", err)
	}
	return evals, nil
}

// MarkResultSent flips final_result_sent once. It returns sql.ErrNoRows when
// the result was already sent or the evaluation does not exist.
func (r *EvaluationRepository) MarkResultSent(ctx context.Context, id, sentBy string, sentAt time.Time) error {
	const query = `UPDATE supervisor_evaluations
	SET final_result_sent = TRUE, final_result_sent_at = $2, final_result_sent_by = $3, updated_at = $2
	WHERE id = $1 AND final_result_sent = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, sentAt, sentBy)
	if err != nil {
		return fmt.Errorf("mark final result sent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check final result rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateCompanyEvaluation inserts a company evaluation, unique per application.
func (r *EvaluationRepository) CreateCompanyEvaluation(ctx context.Context, eval *models.CompanyEvaluation) error {
	if eval.ID == "" {
		eval.ID = uuid.NewString()
	}
	if eval.CreatedAt.IsZero() {
		eval.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO company_evaluations (id, application_id, student_id, company_id, criteria, total_marks, max_marks, comments, created_at)
	VALUES (:id, :application_id, :student_id, :company_id, :criteria, :total_marks, :max_marks, :comments, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, eval); err != nil {
		return fmt.Errorf("create company evaluation: %w", err)
	}
	return nil
}

// GetCompanyEvaluationByApplication fetches the company evaluation of an application.
func (r *EvaluationRepository) GetCompanyEvaluationByApplication(ctx context.Context, applicationID string) (*models.CompanyEvaluation, error) {
	query := `SELECT ` + companyEvaluationColumns + ` FROM company_evaluations WHERE application_id = $1`
	var eval models.CompanyEvaluation
	if err := r.db.GetContext(ctx, &eval, query, applicationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get company evaluation: %w", err)
	}
	return &eval, nil
}

// ListCompanyEvaluations returns company evaluations for the given applications.
func (r *EvaluationRepository) ListCompanyEvaluations(ctx context.Context, applicationIDs []string) ([]models.CompanyEvaluation, error) {
	if len(applicationIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + companyEvaluationColumns + ` FROM company_evaluations WHERE application_id = ANY($1)`
	var evals []models.CompanyEvaluation
	if err := r.db.SelectContext(ctx, &evals, query, pq.Array(applicationIDs)); err != nil {
		return nil, fmt.Errorf("list company evaluations: %w", err)
	}
	return evals, nil
}
