package whitelist

import (
	"context"
	"testing"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/domain/whitelist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	whitelist.WhitelistRepository
	entries []whitelist.Entry
}

func (f *fakeRepo) Create(_ context.Context, e whitelist.Entry) (whitelist.Entry, error) {
	for _, existing := range f.entries {
		if existing.IPAddress == e.IPAddress {
			return whitelist.Entry{}, whitelist.ErrEntryExists
		}
	}
	e.ID = "entry-1"
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeRepo) List(_ context.Context, _ bool) ([]whitelist.Entry, error) {
	return f.entries, nil
}

func (f *fakeRepo) SetActive(_ context.Context, id string, active bool) (whitelist.Entry, error) {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].IsActive = active
			return f.entries[i], nil
		}
	}
	return whitelist.Entry{}, whitelist.ErrEntryNotFound
}

var admin = auth.Principal{UserID: "admin-1", Role: user.RoleAdmin}

func TestCreate(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewWhitelistService(repo)
	ctx := context.Background()

	resp, err := svc.Create(ctx, admin, whitelist.CreateEntryRequest{IPAddress: " ::ffff:10.0.0.7 "})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", resp.IPAddress)
	assert.True(t, resp.IsActive)
	require.NotNil(t, repo.entries[0].CreatedBy)
	assert.Equal(t, "admin-1", *repo.entries[0].CreatedBy)

	_, err = svc.Create(ctx, admin, whitelist.CreateEntryRequest{IPAddress: "10.0.0.7"})
	assert.ErrorIs(t, err, gateway.ErrConflict)

	_, err = svc.Create(ctx, admin, whitelist.CreateEntryRequest{IPAddress: "10.0.0.300"})
	assert.Error(t, err)

	_, err = svc.Create(ctx, auth.Principal{UserID: "u", Role: user.RoleEmployee}, whitelist.CreateEntryRequest{IPAddress: "10.0.0.8"})
	assert.ErrorIs(t, err, gateway.ErrForbidden)
}

func TestSetActive(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewWhitelistService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, whitelist.CreateEntryRequest{IPAddress: "192.168.1.10"})
	require.NoError(t, err)

	off := false
	resp, err := svc.SetActive(ctx, admin, "entry-1", whitelist.SetActiveRequest{IsActive: &off})
	require.NoError(t, err)
	assert.False(t, resp.IsActive)

	_, err = svc.SetActive(ctx, admin, "entry-1", whitelist.SetActiveRequest{})
	assert.Error(t, err)

	_, err = svc.SetActive(ctx, admin, "missing", whitelist.SetActiveRequest{IsActive: &off})
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	list, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
