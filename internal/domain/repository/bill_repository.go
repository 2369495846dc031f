package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BillRepository defines the interface for bill persistence
type BillRepository interface {
	// Create stores a new bill with its items
	Create(ctx context.Context, bill *entity.Bill) error
	// GetByID returns nil, nil when the bill does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	// ListByAccount returns every bill of the account, oldest first
	ListByAccount(ctx context.Context, account entity.AccountRef) ([]entity.Bill, error)
	// ListOutstanding returns bills with a positive due amount ordered by
	// created_at then bill id. Inside a transaction the rows stay locked until commit.
	ListOutstanding(ctx context.Context, account entity.AccountRef) ([]entity.Bill, error)
	// UpdateSettlement writes the settlement fields of bill only if its stored
	// due amount still equals previousDue, otherwise it returns ErrStaleBill
	UpdateSettlement(ctx context.Context, bill *entity.Bill, previousDue decimal.Decimal) error
}
