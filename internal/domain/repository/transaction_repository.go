package repository

import (
	"context"
	"time"

	"github.com/sangkips/billing-core/internal/domain/entity"
)

// TransactionCursor marks the last ledger entry already returned.
// Listings are newest first, so the next page holds strictly older entries.
type TransactionCursor struct {
	CreatedAt time.Time
	Sequence  int64
}

// TransactionRepository defines the interface for the append-only ledger
type TransactionRepository interface {
	// Create appends a record; ErrDuplicate if the idempotency key is taken for the account
	Create(ctx context.Context, record *entity.TransactionRecord) error
	// FindByIdempotencyKey returns nil, nil when no record carries the key
	FindByIdempotencyKey(ctx context.Context, account entity.AccountRef, key string) (*entity.TransactionRecord, error)
	// ListPage returns up to limit records after the cursor ordered by created_at DESC, sequence DESC
	ListPage(ctx context.Context, account entity.AccountRef, after *TransactionCursor, limit int) ([]entity.TransactionRecord, error)
}
