package repository

import (
	"context"
	"time"

	"github.com/sangkips/billing-core/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves an idempotency key by its key string and actor
	GetByKey(ctx context.Context, key string, actor string) (*entity.IdempotencyKey, error)
	// Create stores a new idempotency key
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes keys that expired before now and reports how many went
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
