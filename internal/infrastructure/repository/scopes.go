package repository

import (
	"context"

	"github.com/sangkips/billing-core/internal/domain/entity"
	"gorm.io/gorm"
)

type ctxKey string

// txKey is the context key for the gorm transaction opened by the Transactor
const txKey ctxKey = "gorm_tx"

// conn returns the transaction bound to ctx, or db when there is none
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// inTransaction reports whether ctx carries an open transaction
func inTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey).(*gorm.DB)
	return ok
}

// AccountScope returns a GORM scope that filters by account.
// Every bill and ledger query goes through it so one account never reads another's rows.
func AccountScope(account entity.AccountRef) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !account.IsValid() {
			// Fail-safe: return no results if the account is incomplete
			return db.Where("1 = 0")
		}
		return db.Where("account_id = ? AND account_type = ?", account.ID, account.Type)
	}
}
