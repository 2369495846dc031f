package service

import (
	"context"
	"time"

	"github.com/sangkips/billing-core/internal/domain/repository"
	"github.com/sangkips/billing-core/pkg/logger"
	"github.com/sirupsen/logrus"
)

// IdempotencyJanitor periodically removes expired idempotency keys
type IdempotencyJanitor struct {
	repo     repository.IdempotencyRepository
	interval time.Duration
	logger   *logrus.Logger
}

// NewIdempotencyJanitor creates a new janitor
func NewIdempotencyJanitor(repo repository.IdempotencyRepository, interval time.Duration, log *logrus.Logger) *IdempotencyJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &IdempotencyJanitor{repo: repo, interval: interval, logger: log}
}

// Sweep deletes every key that expired before now
func (j *IdempotencyJanitor) Sweep(ctx context.Context, now time.Time) (int64, error) {
	n, err := j.repo.DeleteExpired(ctx, now)
	if err != nil {
		logger.LogError(j.logger, "idempotency", "Sweep", "Failed to delete expired idempotency keys", nil, err)
		return 0, err
	}
	if n > 0 {
		j.logger.WithField("deleted", n).Info("expired idempotency keys removed")
	}
	return n, nil
}

// Run sweeps on every tick until ctx is cancelled
func (j *IdempotencyJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			_, _ = j.Sweep(ctx, now)
		}
	}
}
