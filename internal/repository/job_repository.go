package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-portal-api/internal/models"
)

// JobRepository reads company job postings.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs the repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// GetByID fetches a posting by identifier.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.JobPosting, error) {
	const query = `SELECT id, company_id, title, location, start_date, end_date, active, created_at FROM job_postings WHERE id = $1`
	var job models.JobPosting
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get job posting: %w", err)
	}
	return &job, nil
}
