package postgresql

import (
	"context"
	"errors"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/domain/whitelist"
	"github.com/bimworks/portal-backend/internal/pkg/database"
)

type whitelistRepositoryImpl struct {
	db *database.DB
}

func NewWhitelistRepository(db *database.DB) whitelist.WhitelistRepository {
	return &whitelistRepositoryImpl{db: db}
}

const whitelistColumns = `id, host(ip_address), label, is_active, created_by, created_at, updated_at`

func scanEntry(row interface{ Scan(dest ...any) error }) (whitelist.Entry, error) {
	var e whitelist.Entry
	err := row.Scan(&e.ID, &e.IPAddress, &e.Label, &e.IsActive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func whitelistError(err error) error {
	if isUniqueViolation(err, "ip_whitelist_ip_address_key") {
		return whitelist.ErrEntryExists
	}
	err = mapError(err)
	if errors.Is(err, gateway.ErrNotFound) {
		return whitelist.ErrEntryNotFound
	}
	return err
}

func (r *whitelistRepositoryImpl) IsActive(ctx context.Context, ip string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var active bool
	query := `SELECT EXISTS(SELECT 1 FROM ip_whitelist WHERE ip_address = $1::inet AND is_active)`
	if err := q.QueryRow(ctx, query, ip).Scan(&active); err != nil {
		return false, mapError(err)
	}
	return active, nil
}

func (r *whitelistRepositoryImpl) Create(ctx context.Context, entry whitelist.Entry) (whitelist.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO ip_whitelist (ip_address, label, is_active, created_by)
		VALUES ($1::inet, $2, $3, $4)
		RETURNING ` + whitelistColumns

	created, err := scanEntry(q.QueryRow(ctx, query, entry.IPAddress, entry.Label, entry.IsActive, entry.CreatedBy))
	if err != nil {
		return whitelist.Entry{}, whitelistError(err)
	}
	return created, nil
}

func (r *whitelistRepositoryImpl) GetByID(ctx context.Context, id string) (whitelist.Entry, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanEntry(q.QueryRow(ctx, `SELECT `+whitelistColumns+` FROM ip_whitelist WHERE id = $1`, id))
	if err != nil {
		return whitelist.Entry{}, whitelistError(err)
	}
	return e, nil
}

func (r *whitelistRepositoryImpl) List(ctx context.Context, activeOnly bool) ([]whitelist.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + whitelistColumns + `
		FROM ip_whitelist
		WHERE ($1 = FALSE OR is_active)
		ORDER BY created_at DESC
	`
	rows, err := q.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	entries := []whitelist.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, mapError(rows.Err())
}

func (r *whitelistRepositoryImpl) SetActive(ctx context.Context, id string, active bool) (whitelist.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE ip_whitelist
		SET is_active = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + whitelistColumns

	e, err := scanEntry(q.QueryRow(ctx, query, active, id))
	if err != nil {
		return whitelist.Entry{}, whitelistError(err)
	}
	return e, nil
}

func (r *whitelistRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM ip_whitelist WHERE id = $1`, id)
	if err != nil {
		return whitelistError(err)
	}
	if tag.RowsAffected() == 0 {
		return whitelist.ErrEntryNotFound
	}
	return nil
}
