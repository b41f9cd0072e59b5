package models

import "time"

// JobPosting is a company's published internship position. Start and end
// dates feed the result email and are never synthesized when missing.
type JobPosting struct {
	ID        string     `db:"id" json:"id"`
	CompanyID string     `db:"company_id" json:"companyId"`
	Title     string     `db:"title" json:"title"`
	Location  string     `db:"location" json:"location"`
	StartDate *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"endDate,omitempty"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}
