package repository

import (
	"context"
	"errors"

	"github.com/sangkips/billing-core/internal/domain/entity"
	domainRepo "github.com/sangkips/billing-core/internal/domain/repository"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new ledger repository
func NewTransactionRepository(db *gorm.DB) domainRepo.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, record *entity.TransactionRecord) error {
	err := conn(ctx, r.db).Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainRepo.ErrDuplicate
	}
	return err
}

func (r *transactionRepository) FindByIdempotencyKey(ctx context.Context, account entity.AccountRef, key string) (*entity.TransactionRecord, error) {
	var record entity.TransactionRecord
	err := conn(ctx, r.db).
		Scopes(AccountScope(account)).
		Where("idempotency_key = ?", key).
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &record, err
}

func (r *transactionRepository) ListPage(ctx context.Context, account entity.AccountRef, after *domainRepo.TransactionCursor, limit int) ([]entity.TransactionRecord, error) {
	query := conn(ctx, r.db).Scopes(AccountScope(account))

	// Keyset pagination: strictly older than the cursor
	if after != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND sequence < ?)",
			after.CreatedAt, after.CreatedAt, after.Sequence,
		)
	}

	var records []entity.TransactionRecord
	err := query.
		Order("created_at DESC, sequence DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
