package whitelist

import "context"

type WhitelistRepository interface {
	// IsActive reports whether ip matches an active entry.
	IsActive(ctx context.Context, ip string) (bool, error)
	Create(ctx context.Context, entry Entry) (Entry, error)
	GetByID(ctx context.Context, id string) (Entry, error)
	List(ctx context.Context, activeOnly bool) ([]Entry, error)
	SetActive(ctx context.Context, id string, active bool) (Entry, error)
	Delete(ctx context.Context, id string) error
}
