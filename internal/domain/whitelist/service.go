package whitelist

import (
	"context"

	"github.com/bimworks/portal-backend/internal/domain/auth"
)

type WhitelistService interface {
	Create(ctx context.Context, actor auth.Principal, req CreateEntryRequest) (EntryResponse, error)
	List(ctx context.Context, actor auth.Principal) ([]EntryResponse, error)
	SetActive(ctx context.Context, actor auth.Principal, id string, req SetActiveRequest) (EntryResponse, error)
	Delete(ctx context.Context, actor auth.Principal, id string) error
}
