package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/billing-core/internal/domain/entity"
	domainRepo "github.com/sangkips/billing-core/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *gorm.DB) domainRepo.BillRepository {
	return &billRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *billRepository) Create(ctx context.Context, bill *entity.Bill) error {
	err := conn(ctx, r.db).Create(bill).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainRepo.ErrDuplicate
	}
	return err
}

func (r *billRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := conn(ctx, r.db).
		Preload("Items", orderedItems).
		Where("id = ?", id).
		First(&bill).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) ListByAccount(ctx context.Context, account entity.AccountRef) ([]entity.Bill, error) {
	var bills []entity.Bill
	err := conn(ctx, r.db).
		Scopes(AccountScope(account)).
		Preload("Items", orderedItems).
		Order("created_at ASC, id ASC").
		Find(&bills).Error
	return bills, err
}

func (r *billRepository) ListOutstanding(ctx context.Context, account entity.AccountRef) ([]entity.Bill, error) {
	query := conn(ctx, r.db).
		Scopes(AccountScope(account)).
		Where("due_amount > 0")

	// Hold the rows until the surrounding transaction ends
	if inTransaction(ctx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var bills []entity.Bill
	err := query.
		Preload("Items", orderedItems).
		Order("created_at ASC, id ASC").
		Find(&bills).Error
	return bills, err
}

func (r *billRepository) UpdateSettlement(ctx context.Context, bill *entity.Bill, previousDue decimal.Decimal) error {
	result := conn(ctx, r.db).
		Model(&entity.Bill{}).
		Where("id = ? AND due_amount = ?", bill.ID, previousDue).
		Updates(map[string]interface{}{
			"paid_amount":    bill.PaidAmount,
			"due_amount":     bill.DueAmount,
			"payment_status": bill.PaymentStatus,
			"payment_method": bill.PaymentMethod,
			"transaction_id": bill.TransactionID,
			"updated_at":     bill.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrStaleBill
	}
	return nil
}
