package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/auth"
)

// TokenJobs keeps the refresh_tokens table small.
type TokenJobs struct {
	refreshTokenRepo auth.RefreshTokenRepository
	retention        time.Duration
	now              func() time.Time
}

// NewTokenJobs purges tokens that expired or were revoked more than
// retention ago.
func NewTokenJobs(refreshTokenRepo auth.RefreshTokenRepository, retention time.Duration) *TokenJobs {
	return &TokenJobs{
		refreshTokenRepo: refreshTokenRepo,
		retention:        retention,
		now:              time.Now,
	}
}

func (j *TokenJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("purge_refresh_tokens", 6*time.Hour, j.PurgeRefreshTokens)
}

func (j *TokenJobs) PurgeRefreshTokens(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)
	n, err := j.refreshTokenRepo.PurgeExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge refresh tokens: %w", err)
	}
	if n > 0 {
		slog.Info("Cron: purged refresh tokens", "count", n, "before", cutoff)
	}
	return nil
}
