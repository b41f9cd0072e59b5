package models

import "time"

// StudentProfile is the detailed student record keyed by email.
type StudentProfile struct {
	ID           string    `db:"id" json:"id"`
	UserID       *string   `db:"user_id" json:"userId,omitempty"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"fullName"`
	RollNumber   string    `db:"roll_number" json:"rollNumber"`
	Department   string    `db:"department" json:"department"`
	Semester     int       `db:"semester" json:"semester"`
	SupervisorID *string   `db:"supervisor_id" json:"supervisorId,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// IdentitySource marks where a resolved identity came from.
type IdentitySource string

const (
	IdentitySourceProfile IdentitySource = "profile"
	IdentitySourceAccount IdentitySource = "account"
)

// StudentIdentity is the profile-shaped view returned by the identity resolver.
// AccountID links back to the generic account when one is known.
type StudentIdentity struct {
	ID           string         `json:"id"`
	AccountID    string         `json:"accountId,omitempty"`
	Email        string         `json:"email"`
	FullName     string         `json:"fullName"`
	RollNumber   string         `json:"rollNumber,omitempty"`
	Department   string         `json:"department,omitempty"`
	Semester     int            `json:"semester,omitempty"`
	SupervisorID *string        `json:"supervisorId,omitempty"`
	Source       IdentitySource `json:"source"`
}

// Persisted reports whether the identity is backed by a detailed profile row.
func (i *StudentIdentity) Persisted() bool {
	return i != nil && i.Source == IdentitySourceProfile
}
