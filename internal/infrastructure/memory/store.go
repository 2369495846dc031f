package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/billing-core/internal/domain/entity"
	domainRepo "github.com/sangkips/billing-core/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type ctxKey string

const txKey ctxKey = "memory_tx"

// Store keeps bills, ledger entries and idempotency keys in process memory.
// It backs local runs and tests with the same contracts as the database.
type Store struct {
	mu        sync.RWMutex
	bills     map[uuid.UUID]*entity.Bill
	numbers   map[string]uuid.UUID
	txns      map[string]*entity.TransactionRecord
	idemKeys  map[string]*entity.IdempotencyKey
	lastKeyID uint
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		bills:    make(map[uuid.UUID]*entity.Bill),
		numbers:  make(map[string]uuid.UUID),
		txns:     make(map[string]*entity.TransactionRecord),
		idemKeys: make(map[string]*entity.IdempotencyKey),
	}
}

// pendingBill is a bill write buffered in a transaction together with the
// due amount it was read at, so commit can detect a concurrent writer
type pendingBill struct {
	bill    *entity.Bill
	baseDue decimal.Decimal
	created bool
}

// unit is the write-set of one open transaction
type unit struct {
	bills map[uuid.UUID]*pendingBill
	order []uuid.UUID
	txns  []*entity.TransactionRecord
}

func newUnit() *unit {
	return &unit{bills: make(map[uuid.UUID]*pendingBill)}
}

func unitFrom(ctx context.Context) *unit {
	u, _ := ctx.Value(txKey).(*unit)
	return u
}

// WithinTransaction buffers every write made through ctx and publishes them
// together when fn succeeds
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if unitFrom(ctx) != nil {
		return fn(ctx)
	}

	u := newUnit()
	if err := fn(context.WithValue(ctx, txKey, u)); err != nil {
		return err
	}
	return s.commit(u)
}

func (s *Store) commit(u *unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole write-set before touching anything
	for _, id := range u.order {
		p := u.bills[id]
		if p.created {
			if _, taken := s.numbers[p.bill.BillNumber]; taken {
				return domainRepo.ErrDuplicate
			}
			continue
		}
		current, ok := s.bills[id]
		if !ok || !current.DueAmount.Equal(p.baseDue) {
			return domainRepo.ErrStaleBill
		}
	}
	for _, rec := range u.txns {
		if err := s.checkTransactionLocked(rec); err != nil {
			return err
		}
	}

	for _, id := range u.order {
		p := u.bills[id]
		s.bills[id] = p.bill.Clone()
		s.numbers[p.bill.BillNumber] = id
	}
	for _, rec := range u.txns {
		s.txns[rec.TransactionID] = rec.Clone()
	}
	return nil
}

// Transactor exposes the store's transaction support
func (s *Store) Transactor() domainRepo.Transactor {
	return s
}

// Bills returns the bill repository view of the store
func (s *Store) Bills() domainRepo.BillRepository {
	return &billRepository{store: s}
}

// Transactions returns the ledger repository view of the store
func (s *Store) Transactions() domainRepo.TransactionRepository {
	return &transactionRepository{store: s}
}

// IdempotencyKeys returns the idempotency repository view of the store
func (s *Store) IdempotencyKeys() domainRepo.IdempotencyRepository {
	return &idempotencyRepository{store: s}
}

// visibleBills returns copies of the account's bills as seen from ctx,
// overlaying the open transaction's writes on committed state
func (s *Store) visibleBills(ctx context.Context, account entity.AccountRef) []entity.Bill {
	u := unitFrom(ctx)

	s.mu.RLock()
	out := make([]entity.Bill, 0)
	for id, b := range s.bills {
		if b.AccountID != account.ID || b.AccountType != account.Type {
			continue
		}
		if u != nil {
			if p, ok := u.bills[id]; ok {
				out = append(out, *p.bill.Clone())
				continue
			}
		}
		out = append(out, *b.Clone())
	}
	s.mu.RUnlock()

	if u != nil {
		for _, id := range u.order {
			p := u.bills[id]
			if p.created && p.bill.AccountID == account.ID && p.bill.AccountType == account.Type {
				out = append(out, *p.bill.Clone())
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
