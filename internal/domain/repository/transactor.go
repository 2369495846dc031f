package repository

import "context"

// Transactor runs fn as one atomic unit. Repository calls made with the ctx
// passed to fn join the unit; nothing they write is visible to other readers
// until fn returns nil. A non-nil error discards every write.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
