package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/sangkips/billing-core/internal/domain/enum"
	domainRepo "github.com/sangkips/billing-core/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var account = entity.AccountRef{ID: "42", Type: enum.AccountTypeDealer}

func newBill(number string, price string, at time.Time) *entity.Bill {
	b := &entity.Bill{
		AccountID:   account.ID,
		AccountType: account.Type,
		BillNumber:  number,
		CreatedAt:   at,
		Items: []entity.BillItem{
			{ItemName: "Valve", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString(price)},
		},
	}
	b.Recalculate()
	return b
}

func settle(t *testing.T, b *entity.Bill, amount string) decimal.Decimal {
	t.Helper()
	previousDue := b.DueAmount
	if err := b.ApplySettlement(decimal.RequireFromString(amount), enum.PaymentMethodCash, "TXN-1", time.Now()); err != nil {
		t.Fatalf("ApplySettlement() error = %v", err)
	}
	return previousDue
}

func TestWithinTransactionRollsBackOnError(t *testing.T) {
	store := NewStore()
	bills := store.Bills()
	txns := store.Transactions()
	ctx := context.Background()

	bill := newBill("B-1", "100", time.Now())
	if err := bills.Create(ctx, bill); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	boom := errors.New("boom")
	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		staged := bill.Clone()
		previousDue := settle(t, staged, "40")
		if err := bills.UpdateSettlement(ctx, staged, previousDue); err != nil {
			return err
		}
		if err := txns.Create(ctx, &entity.TransactionRecord{
			TransactionID:  "TXN-1",
			AccountID:      account.ID,
			AccountType:    account.Type,
			Amount:         decimal.NewFromInt(40),
			IdempotencyKey: "k1",
			CreatedAt:      time.Now(),
		}); err != nil {
			return err
		}

		// Writes are visible inside the transaction
		inside, _ := bills.GetByID(ctx, bill.ID)
		if !inside.DueAmount.Equal(decimal.NewFromInt(60)) {
			t.Errorf("due inside transaction = %s, want 60", inside.DueAmount)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTransaction() error = %v, want boom", err)
	}

	got, _ := bills.GetByID(ctx, bill.ID)
	if !got.DueAmount.Equal(decimal.NewFromInt(100)) || got.PaymentStatus != enum.PaymentStatusPending {
		t.Errorf("bill after rollback = due %s %s, want due 100 pending", got.DueAmount, got.PaymentStatus)
	}
	page, _ := txns.ListPage(ctx, account, nil, 10)
	if len(page) != 0 {
		t.Errorf("ledger after rollback has %d records, want 0", len(page))
	}
}

func TestCommitRejectsStaleBill(t *testing.T) {
	store := NewStore()
	bills := store.Bills()
	ctx := context.Background()

	bill := newBill("B-1", "100", time.Now())
	if err := bills.Create(ctx, bill); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		staged := bill.Clone()
		previousDue := settle(t, staged, "30")
		if err := bills.UpdateSettlement(ctx, staged, previousDue); err != nil {
			return err
		}

		// Another writer settles the same bill outside this transaction
		other := bill.Clone()
		otherDue := settle(t, other, "10")
		return bills.UpdateSettlement(context.Background(), other, otherDue)
	})
	if !errors.Is(err, domainRepo.ErrStaleBill) {
		t.Fatalf("WithinTransaction() error = %v, want ErrStaleBill", err)
	}

	got, _ := bills.GetByID(ctx, bill.ID)
	if !got.DueAmount.Equal(decimal.NewFromInt(90)) {
		t.Errorf("due = %s, want 90 from the committed writer only", got.DueAmount)
	}
}

func TestUpdateSettlementRejectsWrongPreviousDue(t *testing.T) {
	store := NewStore()
	bills := store.Bills()
	ctx := context.Background()

	bill := newBill("B-1", "100", time.Now())
	if err := bills.Create(ctx, bill); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	staged := bill.Clone()
	settle(t, staged, "10")
	if err := bills.UpdateSettlement(ctx, staged, decimal.NewFromInt(55)); !errors.Is(err, domainRepo.ErrStaleBill) {
		t.Errorf("UpdateSettlement() error = %v, want ErrStaleBill", err)
	}
}

func TestListOutstandingOldestFirst(t *testing.T) {
	store := NewStore()
	bills := store.Bills()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	newer := newBill("B-2", "50", base.Add(time.Hour))
	older := newBill("B-1", "80", base)
	paid := newBill("B-0", "0", base.Add(-time.Hour))
	other := newBill("B-3", "10", base)
	other.AccountType = enum.AccountTypeCustomer
	for _, b := range []*entity.Bill{newer, older, paid, other} {
		if err := bills.Create(ctx, b); err != nil {
			t.Fatalf("Create(%s) error = %v", b.BillNumber, err)
		}
	}

	out, err := bills.ListOutstanding(ctx, account)
	if err != nil {
		t.Fatalf("ListOutstanding() error = %v", err)
	}
	if len(out) != 2 || out[0].BillNumber != "B-1" || out[1].BillNumber != "B-2" {
		t.Errorf("outstanding = %v, want [B-1 B-2]", numbers(out))
	}

	all, _ := bills.ListByAccount(ctx, account)
	if len(all) != 3 || all[0].BillNumber != "B-0" {
		t.Errorf("all bills = %v, want B-0 first", numbers(all))
	}
}

func TestTransactionIdempotencyKeyIsUniquePerAccount(t *testing.T) {
	store := NewStore()
	txns := store.Transactions()
	ctx := context.Background()

	record := func(id string, acct entity.AccountRef) *entity.TransactionRecord {
		return &entity.TransactionRecord{
			TransactionID:  id,
			AccountID:      acct.ID,
			AccountType:    acct.Type,
			Amount:         decimal.NewFromInt(1),
			IdempotencyKey: "same-key",
			CreatedAt:      time.Now(),
		}
	}

	if err := txns.Create(ctx, record("T1", account)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := txns.Create(ctx, record("T2", account)); !errors.Is(err, domainRepo.ErrDuplicate) {
		t.Errorf("second record with same key: error = %v, want ErrDuplicate", err)
	}

	customer := entity.AccountRef{ID: account.ID, Type: enum.AccountTypeCustomer}
	if err := txns.Create(ctx, record("T3", customer)); err != nil {
		t.Errorf("same key on another account: error = %v", err)
	}

	found, _ := txns.FindByIdempotencyKey(ctx, account, "same-key")
	if found == nil || found.TransactionID != "T1" {
		t.Errorf("FindByIdempotencyKey() = %v, want T1", found)
	}
}

func TestListPageKeysetOrder(t *testing.T) {
	store := NewStore()
	txns := store.Transactions()
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Two records share a timestamp; sequence breaks the tie
	for i, ts := range []time.Time{at, at, at.Add(time.Second)} {
		if err := txns.Create(ctx, &entity.TransactionRecord{
			TransactionID:  string(rune('A' + i)),
			Sequence:       int64(i + 1),
			AccountID:      account.ID,
			AccountType:    account.Type,
			Amount:         decimal.NewFromInt(1),
			IdempotencyKey: string(rune('a' + i)),
			CreatedAt:      ts,
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	first, _ := txns.ListPage(ctx, account, nil, 2)
	if len(first) != 2 || first[0].TransactionID != "C" || first[1].TransactionID != "B" {
		t.Fatalf("first page = %v, want [C B]", ids(first))
	}
	last := first[1]
	rest, _ := txns.ListPage(ctx, account, &domainRepo.TransactionCursor{CreatedAt: last.CreatedAt, Sequence: last.Sequence}, 2)
	if len(rest) != 1 || rest[0].TransactionID != "A" {
		t.Errorf("second page = %v, want [A]", ids(rest))
	}
}

func numbers(bills []entity.Bill) []string {
	out := make([]string, 0, len(bills))
	for _, b := range bills {
		out = append(out, b.BillNumber)
	}
	return out
}

func ids(records []entity.TransactionRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.TransactionID)
	}
	return out
}

func TestListOutstandingSameInstantOrdersByID(t *testing.T) {
	store := NewStore()
	bills := store.Bills()
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, number := range []string{"B-1", "B-2", "B-3"} {
		if err := bills.Create(ctx, newBill(number, "10", at)); err != nil {
			t.Fatalf("Create(%s) error = %v", number, err)
		}
	}

	out, err := bills.ListOutstanding(ctx, account)
	if err != nil {
		t.Fatalf("ListOutstanding() error = %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("outstanding = %d bills, want 3", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i-1].ID.String() >= out[i].ID.String() {
			t.Errorf("bills %s and %s are not in id order", out[i-1].ID, out[i].ID)
		}
	}
}

func TestLedgerRecordsAreIsolatedFromCallers(t *testing.T) {
	store := NewStore()
	txns := store.Transactions()
	ctx := context.Background()

	amount := decimal.NewFromInt(10)
	in := &entity.TransactionRecord{
		TransactionID:  "T1",
		Sequence:       1,
		AccountID:      account.ID,
		AccountType:    account.Type,
		Amount:         amount,
		PaymentMethod:  enum.PaymentMethodCheque,
		PaymentDetails: entity.PaymentDetails{ChequeNumber: "000123", ChequeAmount: &amount},
		IdempotencyKey: "k1",
		CreatedAt:      time.Now(),
	}
	if err := txns.Create(ctx, in); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Neither the caller's input nor returned copies may reach the stored entry
	*in.PaymentDetails.ChequeAmount = decimal.NewFromInt(1)
	found, _ := txns.FindByIdempotencyKey(ctx, account, "k1")
	*found.PaymentDetails.ChequeAmount = decimal.NewFromInt(999)
	page, _ := txns.ListPage(ctx, account, nil, 10)
	*page[0].PaymentDetails.ChequeAmount = decimal.NewFromInt(999)

	again, _ := txns.FindByIdempotencyKey(ctx, account, "k1")
	if got := *again.PaymentDetails.ChequeAmount; !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("stored cheque_amount = %s, want 10", got)
	}
}
