package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/billing-core/internal/domain/entity"
	domainRepo "github.com/sangkips/billing-core/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type billRepository struct {
	store *Store
}

func (r *billRepository) Create(ctx context.Context, bill *entity.Bill) error {
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	for i := range bill.Items {
		if bill.Items[i].ID == uuid.Nil {
			bill.Items[i].ID = uuid.New()
		}
		bill.Items[i].BillID = bill.ID
	}

	if u := unitFrom(ctx); u != nil {
		if _, ok := u.bills[bill.ID]; ok {
			return domainRepo.ErrDuplicate
		}
		u.bills[bill.ID] = &pendingBill{bill: bill.Clone(), created: true}
		u.order = append(u.order, bill.ID)
		return nil
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bills[bill.ID]; ok {
		return domainRepo.ErrDuplicate
	}
	if _, ok := s.numbers[bill.BillNumber]; ok {
		return domainRepo.ErrDuplicate
	}
	s.bills[bill.ID] = bill.Clone()
	s.numbers[bill.BillNumber] = bill.ID
	return nil
}

func (r *billRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	if u := unitFrom(ctx); u != nil {
		if p, ok := u.bills[id]; ok {
			return p.bill.Clone(), nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.bills[id]
	if !ok {
		return nil, nil
	}
	return b.Clone(), nil
}

func (r *billRepository) ListByAccount(ctx context.Context, account entity.AccountRef) ([]entity.Bill, error) {
	if !account.IsValid() {
		return nil, nil
	}
	return r.store.visibleBills(ctx, account), nil
}

func (r *billRepository) ListOutstanding(ctx context.Context, account entity.AccountRef) ([]entity.Bill, error) {
	if !account.IsValid() {
		return nil, nil
	}
	all := r.store.visibleBills(ctx, account)
	out := all[:0]
	for _, b := range all {
		if b.IsOutstanding() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *billRepository) UpdateSettlement(ctx context.Context, bill *entity.Bill, previousDue decimal.Decimal) error {
	if u := unitFrom(ctx); u != nil {
		if p, ok := u.bills[bill.ID]; ok {
			if !p.bill.DueAmount.Equal(previousDue) {
				return domainRepo.ErrStaleBill
			}
			applySettlementFields(p.bill, bill)
			return nil
		}

		r.store.mu.RLock()
		current, ok := r.store.bills[bill.ID]
		var staged *entity.Bill
		if ok {
			staged = current.Clone()
		}
		r.store.mu.RUnlock()

		if !ok || !staged.DueAmount.Equal(previousDue) {
			return domainRepo.ErrStaleBill
		}
		applySettlementFields(staged, bill)
		u.bills[bill.ID] = &pendingBill{bill: staged, baseDue: previousDue}
		u.order = append(u.order, bill.ID)
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.bills[bill.ID]
	if !ok || !current.DueAmount.Equal(previousDue) {
		return domainRepo.ErrStaleBill
	}
	applySettlementFields(current, bill)
	return nil
}

// applySettlementFields copies only the fields a settlement may change
func applySettlementFields(dst, src *entity.Bill) {
	c := src.Clone()
	dst.PaidAmount = c.PaidAmount
	dst.DueAmount = c.DueAmount
	dst.PaymentStatus = c.PaymentStatus
	dst.PaymentMethod = c.PaymentMethod
	dst.TransactionID = c.TransactionID
	dst.UpdatedAt = c.UpdatedAt
}
