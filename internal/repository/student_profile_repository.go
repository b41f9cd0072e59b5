package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-portal-api/internal/models"
)

const studentProfileColumns = `id, user_id, email, full_name, roll_number, department, semester, supervisor_id, created_at, updated_at`

// StudentProfileRepository persists detailed student profiles.
type StudentProfileRepository struct {
	db *sqlx.DB
}

// NewStudentProfileRepository constructs the repository.
func NewStudentProfileRepository(db *sqlx.DB) *StudentProfileRepository {
	return &StudentProfileRepository{db: db}
}

// GetByID matches either the profile id or the linked account id.
func (r *StudentProfileRepository) GetByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	query := `SELECT ` + studentProfileColumns + ` FROM student_profiles WHERE id = $1 OR user_id = $1 LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get student profile: %w", err)
	}
	return &profile, nil
}

// GetByEmail performs a case-insensitive exact match.
func (r *StudentProfileRepository) GetByEmail(ctx context.Context, email string) (*models.StudentProfile, error) {
	query := `SELECT ` + studentProfileColumns + ` FROM student_profiles WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get student profile by email: %w", err)
	}
	return &profile, nil
}

// CreateIfAbsent inserts the profile unless one already exists for the same
// email. It reports whether a row was written.
func (r *StudentProfileRepository) CreateIfAbsent(ctx context.Context, profile *models.StudentProfile) (bool, error) {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO student_profiles (id, user_id, email, full_name, roll_number, department, semester, supervisor_id, created_at, updated_at)
	VALUES (:id, :user_id, :email, :full_name, :roll_number, :department, :semester, :supervisor_id, :created_at, :updated_at)
	ON CONFLICT DO NOTHING`
	result, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return false, fmt.Errorf("create student profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check student profile insert rows: %w", err)
	}
	return rows > 0, nil
}
