package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/sangkips/billing-core/internal/infrastructure/lock"
	"github.com/sangkips/billing-core/internal/infrastructure/memory"
	"github.com/sangkips/billing-core/pkg/logger"
	"github.com/sangkips/billing-core/pkg/utils"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// stepClock advances one second per reading so creation order is unambiguous
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// mapCache is a SummaryCache kept in a map
type mapCache struct {
	mu   sync.Mutex
	data map[string]entity.BillsSummary
	sets int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]entity.BillsSummary)}
}

func (c *mapCache) Get(_ context.Context, account entity.AccountRef) (*entity.BillsSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.data[account.Key()]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (c *mapCache) Set(_ context.Context, account entity.AccountRef, summary entity.BillsSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[account.Key()] = summary
	c.sets++
	return nil
}

func (c *mapCache) Delete(_ context.Context, account entity.AccountRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, account.Key())
	return nil
}

type fixture struct {
	store   *memory.Store
	bills   *BillStore
	ledger  *TransactionLedger
	locker  *lock.Locker
	cache   *mapCache
	billing *BillingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithClock(t, newStepClock().Now)
}

// newFixtureWithClock builds the fixture around now, which stamps bills and ledger entries
func newFixtureWithClock(t *testing.T, now func() time.Time) *fixture {
	t.Helper()

	ids, err := utils.NewIDGenerator(1)
	if err != nil {
		t.Fatalf("NewIDGenerator() error = %v", err)
	}

	store := memory.NewStore()
	f := &fixture{
		store:  store,
		bills:  NewBillStore(store.Bills(), ids, now),
		ledger: NewTransactionLedger(store.Transactions(), ids, 2, now),
		locker: lock.NewLocker(nil, time.Second, 2*time.Second, logger.Discard()),
		cache:  newMapCache(),
	}
	f.billing = NewBillingService(BillingServiceDeps{
		Transactor: store.Transactor(),
		Bills:      f.bills,
		Allocator:  NewPaymentAllocator(f.bills),
		Validator:  NewPaymentValidator(),
		Ledger:     f.ledger,
		Locker:     f.locker,
		Cache:      f.cache,
		Logger:     logger.Discard(),
	})
	return f
}

var customer = entity.AccountRef{ID: "cust-1", Type: enum.AccountTypeCustomer}

// createBill creates a bill with one item per price
func (f *fixture) createBill(t *testing.T, account entity.AccountRef, discount string, prices ...string) *entity.Bill {
	t.Helper()
	items := make([]BillItemInput, 0, len(prices))
	for _, p := range prices {
		items = append(items, BillItemInput{ItemName: "Item " + p, Quantity: dec("1"), UnitPrice: dec(p)})
	}
	bill, err := f.billing.CreateBill(context.Background(), &CreateBillInput{
		Account:  account,
		Items:    items,
		Discount: dec(discount),
		Actor:    "tester@example.com",
	})
	if err != nil {
		t.Fatalf("CreateBill() error = %v", err)
	}
	return bill
}

func (f *fixture) pay(account entity.AccountRef, amount string, key string) (*BulkPaymentResult, error) {
	return f.billing.ProcessBulkPayment(context.Background(), &BulkPaymentInput{
		Account:        account,
		Amount:         dec(amount),
		Method:         enum.PaymentMethodCash,
		IdempotencyKey: key,
		Actor:          "tester@example.com",
	})
}

func (f *fixture) bill(t *testing.T, bill *entity.Bill) *entity.Bill {
	t.Helper()
	got, err := f.bills.GetBill(context.Background(), bill.ID)
	if err != nil {
		t.Fatalf("GetBill() error = %v", err)
	}
	return got
}

// assertBalanced checks paid + due == total for every bill of the account
func (f *fixture) assertBalanced(t *testing.T, account entity.AccountRef) {
	t.Helper()
	bills, err := f.store.Bills().ListByAccount(context.Background(), account)
	if err != nil {
		t.Fatalf("ListByAccount() error = %v", err)
	}
	for _, b := range bills {
		if err := b.CheckBalance(); err != nil {
			t.Errorf("bill %s out of balance: %v", b.BillNumber, err)
		}
	}
}

func (f *fixture) history(t *testing.T, account entity.AccountRef) []entity.TransactionRecord {
	t.Helper()
	var records []entity.TransactionRecord
	for record, err := range f.ledger.History(context.Background(), account) {
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		records = append(records, record)
	}
	return records
}

func assertAmounts(t *testing.T, b *entity.Bill, paid, due string, status enum.PaymentStatus) {
	t.Helper()
	if !b.PaidAmount.Equal(dec(paid)) || !b.DueAmount.Equal(dec(due)) || b.PaymentStatus != status {
		t.Errorf("bill %s = paid %s due %s %s, want paid %s due %s %s",
			b.BillNumber, b.PaidAmount, b.DueAmount, b.PaymentStatus, paid, due, status)
	}
}
