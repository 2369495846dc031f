package memory

import (
	"context"
	"time"

	"github.com/sangkips/billing-core/internal/domain/entity"
	domainRepo "github.com/sangkips/billing-core/internal/domain/repository"
)

type idempotencyRepository struct {
	store *Store
}

func idemMapKey(actor, key string) string {
	return actor + "\x00" + key
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key string, actor string) (*entity.IdempotencyKey, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ikey, ok := r.store.idemKeys[idemMapKey(actor, key)]
	if !ok {
		return nil, nil
	}
	c := *ikey
	return &c, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	k := idemMapKey(ikey.Actor, ikey.Key)
	if _, ok := r.store.idemKeys[k]; ok {
		return domainRepo.ErrDuplicate
	}
	r.store.lastKeyID++
	ikey.ID = r.store.lastKeyID
	if ikey.CreatedAt.IsZero() {
		ikey.CreatedAt = time.Now()
	}
	c := *ikey
	r.store.idemKeys[k] = &c
	return nil
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for k, ikey := range r.store.idemKeys {
		if ikey.ExpiresAt.Before(now) {
			delete(r.store.idemKeys, k)
			n++
		}
	}
	return n, nil
}
