package memory

import (
	"context"
	"sort"

	"github.com/sangkips/billing-core/internal/domain/entity"
	domainRepo "github.com/sangkips/billing-core/internal/domain/repository"
)

type transactionRepository struct {
	store *Store
}

// checkTransactionLocked rejects a record whose id or idempotency key is
// already committed. Callers hold s.mu.
func (s *Store) checkTransactionLocked(record *entity.TransactionRecord) error {
	if _, ok := s.txns[record.TransactionID]; ok {
		return domainRepo.ErrDuplicate
	}
	for _, t := range s.txns {
		if t.IdempotencyKey == record.IdempotencyKey &&
			t.AccountID == record.AccountID && t.AccountType == record.AccountType {
			return domainRepo.ErrDuplicate
		}
	}
	return nil
}

func (r *transactionRepository) Create(ctx context.Context, record *entity.TransactionRecord) error {
	if u := unitFrom(ctx); u != nil {
		for _, t := range u.txns {
			if t.TransactionID == record.TransactionID ||
				(t.IdempotencyKey == record.IdempotencyKey && t.Account() == record.Account()) {
				return domainRepo.ErrDuplicate
			}
		}
		r.store.mu.RLock()
		err := r.store.checkTransactionLocked(record)
		r.store.mu.RUnlock()
		if err != nil {
			return err
		}
		u.txns = append(u.txns, record.Clone())
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.checkTransactionLocked(record); err != nil {
		return err
	}
	r.store.txns[record.TransactionID] = record.Clone()
	return nil
}

func (r *transactionRepository) FindByIdempotencyKey(ctx context.Context, account entity.AccountRef, key string) (*entity.TransactionRecord, error) {
	if u := unitFrom(ctx); u != nil {
		for _, t := range u.txns {
			if t.IdempotencyKey == key && t.Account() == account {
				return t.Clone(), nil
			}
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, t := range r.store.txns {
		if t.IdempotencyKey == key && t.Account() == account {
			return t.Clone(), nil
		}
	}
	return nil, nil
}

func (r *transactionRepository) ListPage(ctx context.Context, account entity.AccountRef, after *domainRepo.TransactionCursor, limit int) ([]entity.TransactionRecord, error) {
	if !account.IsValid() || limit <= 0 {
		return nil, nil
	}

	r.store.mu.RLock()
	all := make([]entity.TransactionRecord, 0)
	for _, t := range r.store.txns {
		if t.Account() == account {
			all = append(all, *t.Clone())
		}
	}
	r.store.mu.RUnlock()

	if u := unitFrom(ctx); u != nil {
		for _, t := range u.txns {
			if t.Account() == account {
				all = append(all, *t.Clone())
			}
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].Sequence > all[j].Sequence
	})

	out := make([]entity.TransactionRecord, 0, limit)
	for _, t := range all {
		if after != nil {
			older := t.CreatedAt.Before(after.CreatedAt) ||
				(t.CreatedAt.Equal(after.CreatedAt) && t.Sequence < after.Sequence)
			if !older {
				continue
			}
		}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
