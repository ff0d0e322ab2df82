package project

import (
	"strings"

	"github.com/bimworks/portal-backend/internal/pkg/validator"
)

type CreateProjectRequest struct {
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Client      *string `json:"client,omitempty"`
	Location    *string `json:"location,omitempty"`
	Year        *int    `json:"year,omitempty"`
	Description *string `json:"description,omitempty"`
	Published   bool    `json:"published"`
}

func (r *CreateProjectRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
	if !validator.IsValidSlug(r.Slug) {
		errs.Add("slug", "slug must contain lowercase letters, digits and dashes")
	}
	errs.Required("title", r.Title)
	errs.Required("category", r.Category)
	if r.Year != nil && (*r.Year < 1900 || *r.Year > 2100) {
		errs.Add("year", "year is out of range")
	}

	return errs.Err()
}

type UpdateProjectRequest struct {
	Slug        *string `json:"slug,omitempty"`
	Title       *string `json:"title,omitempty"`
	Category    *string `json:"category,omitempty"`
	Client      *string `json:"client,omitempty"`
	Location    *string `json:"location,omitempty"`
	Year        *int    `json:"year,omitempty"`
	Description *string `json:"description,omitempty"`
	Published   *bool   `json:"published,omitempty"`
}

func (r *UpdateProjectRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Slug != nil {
		s := strings.ToLower(strings.TrimSpace(*r.Slug))
		r.Slug = &s
		if !validator.IsValidSlug(s) {
			errs.Add("slug", "slug must contain lowercase letters, digits and dashes")
		}
	}
	if r.Title != nil && validator.IsEmpty(*r.Title) {
		errs.Add("title", "title must not be empty")
	}
	if r.Category != nil && validator.IsEmpty(*r.Category) {
		errs.Add("category", "category must not be empty")
	}
	if r.Year != nil && (*r.Year < 1900 || *r.Year > 2100) {
		errs.Add("year", "year is out of range")
	}

	return errs.Err()
}

type ProjectFilter struct {
	Category      *string
	Search        *string
	PublishedOnly bool
	Page          int
	Limit         int
}

func (f *ProjectFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 12
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

type ProjectResponse struct {
	ID          string  `json:"id"`
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Client      *string `json:"client,omitempty"`
	Location    *string `json:"location,omitempty"`
	Year        *int    `json:"year,omitempty"`
	Description *string `json:"description,omitempty"`
	CoverURL    *string `json:"cover_url,omitempty"`
	Published   bool    `json:"published"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type ListProjectResponse struct {
	Projects   []ProjectResponse `json:"projects"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}
