package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/domain/project"
	"github.com/bimworks/portal-backend/internal/pkg/database"
)

type projectRepositoryImpl struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) project.ProjectRepository {
	return &projectRepositoryImpl{db: db}
}

const projectColumns = `
	id, slug, title, category, client, location, year, description, cover_url, published,
	COALESCE(created_by::text, ''), created_at, updated_at
`

func scanProject(row interface{ Scan(dest ...any) error }) (project.Project, error) {
	var p project.Project
	err := row.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Category, &p.Client, &p.Location, &p.Year, &p.Description, &p.CoverURL, &p.Published,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func projectError(err error) error {
	if isUniqueViolation(err, "projects_slug_key") {
		return project.ErrSlugExists
	}
	err = mapError(err)
	if errors.Is(err, gateway.ErrNotFound) {
		return project.ErrProjectNotFound
	}
	return err
}

func (r *projectRepositoryImpl) Create(ctx context.Context, p project.Project) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO projects (slug, title, category, client, location, year, description, published, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid)
		RETURNING ` + projectColumns

	created, err := scanProject(q.QueryRow(ctx, query,
		p.Slug, p.Title, p.Category, p.Client, p.Location, p.Year, p.Description, p.Published, p.CreatedBy,
	))
	if err != nil {
		return project.Project{}, projectError(err)
	}
	return created, nil
}

func (r *projectRepositoryImpl) GetByID(ctx context.Context, id string) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanProject(q.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return project.Project{}, projectError(err)
	}
	return p, nil
}

func (r *projectRepositoryImpl) GetBySlug(ctx context.Context, slug string) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanProject(q.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = $1`, slug))
	if err != nil {
		return project.Project{}, projectError(err)
	}
	return p, nil
}

func (r *projectRepositoryImpl) List(ctx context.Context, filter project.ProjectFilter) ([]project.Project, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if filter.PublishedOnly {
		conditions = append(conditions, "published")
	}
	if filter.Category != nil && *filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *filter.Category)
		argIdx++
	}
	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR client ILIKE $%d OR location ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM projects WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", mapError(err))
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT %s
		FROM projects
		WHERE %s
		ORDER BY year DESC NULLS LAST, created_at DESC
		LIMIT $%d OFFSET $%d
	`, projectColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", mapError(err))
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	return projects, total, nil
}

func (r *projectRepositoryImpl) Update(ctx context.Context, p project.Project) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE projects
		SET slug = $1, title = $2, category = $3, client = $4, location = $5, year = $6,
			description = $7, published = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING ` + projectColumns

	updated, err := scanProject(q.QueryRow(ctx, query,
		p.Slug, p.Title, p.Category, p.Client, p.Location, p.Year, p.Description, p.Published, p.ID,
	))
	if err != nil {
		return project.Project{}, projectError(err)
	}
	return updated, nil
}

func (r *projectRepositoryImpl) UpdateCoverURL(ctx context.Context, id, url string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE projects SET cover_url = $1, updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return projectError(err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}

func (r *projectRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return projectError(err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}
