package project

import "time"

// Project is a portfolio entry shown on the marketing site.
type Project struct {
	ID          string
	Slug        string
	Title       string
	Category    string
	Client      *string
	Location    *string
	Year        *int
	Description *string
	CoverURL    *string
	Published   bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
