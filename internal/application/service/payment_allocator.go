package service

import (
	"context"

	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/sangkips/billing-core/pkg/apperror"
	"github.com/shopspring/decimal"
)

// PaymentAllocator spreads a payment across outstanding bills, oldest first.
// Each bill is either paid off or receives whatever is left of the payment.
type PaymentAllocator struct {
	bills *BillStore
}

// NewPaymentAllocator creates a new payment allocator
func NewPaymentAllocator(bills *BillStore) *PaymentAllocator {
	return &PaymentAllocator{bills: bills}
}

// Allocate settles amount against the account's outstanding bills and returns
// what landed on each bill. If the bills cannot absorb the whole amount it
// returns an overpayment error; the caller's transaction must then be discarded.
func (a *PaymentAllocator) Allocate(ctx context.Context, account entity.AccountRef, amount decimal.Decimal, method enum.PaymentMethod, transactionID string) ([]entity.RelatedBill, error) {
	outstanding, err := a.bills.ListOutstanding(ctx, account)
	if err != nil {
		return nil, err
	}

	remaining := amount
	related := make([]entity.RelatedBill, 0, len(outstanding))
	for _, bill := range outstanding {
		if !remaining.IsPositive() {
			break
		}

		applied := decimal.Min(remaining, bill.DueAmount)
		updated, err := a.bills.ApplySettlement(ctx, bill.ID, applied, method, transactionID)
		if err != nil {
			return nil, err
		}

		related = append(related, entity.RelatedBill{
			BillID:        updated.ID,
			BillNumber:    updated.BillNumber,
			AmountApplied: applied,
		})
		remaining = remaining.Sub(applied)
	}

	if remaining.IsPositive() {
		return nil, apperror.NewOverpaymentError(amount, amount.Sub(remaining))
	}
	return related, nil
}
