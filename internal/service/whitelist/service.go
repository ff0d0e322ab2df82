package whitelist

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/domain/whitelist"
)

type WhitelistServiceImpl struct {
	whitelist.WhitelistRepository
}

func NewWhitelistService(repo whitelist.WhitelistRepository) *WhitelistServiceImpl {
	return &WhitelistServiceImpl{WhitelistRepository: repo}
}

func toResponse(e whitelist.Entry) whitelist.EntryResponse {
	return whitelist.EntryResponse{
		ID:        e.ID,
		IPAddress: e.IPAddress,
		Label:     e.Label,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

// Create implements whitelist.WhitelistService.
func (s *WhitelistServiceImpl) Create(ctx context.Context, actor auth.Principal, req whitelist.CreateEntryRequest) (whitelist.EntryResponse, error) {
	if !actor.Can(user.PermissionWhitelistManage) {
		return whitelist.EntryResponse{}, user.ErrAdminAccessRequired
	}
	if err := req.Validate(); err != nil {
		return whitelist.EntryResponse{}, err
	}

	// Store the canonical form so "::ffff:10.0.0.1" and "10.0.0.1" collide.
	addr := netip.MustParseAddr(req.IPAddress).Unmap()

	entry, err := s.WhitelistRepository.Create(ctx, whitelist.Entry{
		IPAddress: addr.String(),
		Label:     req.Label,
		IsActive:  true,
		CreatedBy: &actor.UserID,
	})
	if err != nil {
		return whitelist.EntryResponse{}, err
	}

	slog.Info("ip whitelisted", "ip", entry.IPAddress, "by", actor.UserID)
	return toResponse(entry), nil
}

// List implements whitelist.WhitelistService.
func (s *WhitelistServiceImpl) List(ctx context.Context, actor auth.Principal) ([]whitelist.EntryResponse, error) {
	if !actor.Can(user.PermissionWhitelistManage) {
		return nil, user.ErrAdminAccessRequired
	}

	entries, err := s.WhitelistRepository.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list whitelist: %w", err)
	}

	responses := make([]whitelist.EntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, toResponse(e))
	}
	return responses, nil
}

// SetActive implements whitelist.WhitelistService.
func (s *WhitelistServiceImpl) SetActive(ctx context.Context, actor auth.Principal, id string, req whitelist.SetActiveRequest) (whitelist.EntryResponse, error) {
	if !actor.Can(user.PermissionWhitelistManage) {
		return whitelist.EntryResponse{}, user.ErrAdminAccessRequired
	}
	if err := req.Validate(); err != nil {
		return whitelist.EntryResponse{}, err
	}

	entry, err := s.WhitelistRepository.SetActive(ctx, id, *req.IsActive)
	if err != nil {
		return whitelist.EntryResponse{}, err
	}
	return toResponse(entry), nil
}

// Delete implements whitelist.WhitelistService.
func (s *WhitelistServiceImpl) Delete(ctx context.Context, actor auth.Principal, id string) error {
	if !actor.Can(user.PermissionWhitelistManage) {
		return user.ErrAdminAccessRequired
	}
	return s.WhitelistRepository.Delete(ctx, id)
}

var _ whitelist.WhitelistService = (*WhitelistServiceImpl)(nil)
