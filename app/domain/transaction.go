package domain

import "context"

// Transactor runs fn in one storage transaction. Repositories called with the ctx passed
// to fn join that transaction; any error from fn rolls everything back.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Unlock releases a lock obtained from OrderLocker.
type Unlock func(ctx context.Context) error

// OrderLocker provides mutual exclusion scoped to one order identifier.
// Lock returns ErrConflict when another caller holds the lock.
type OrderLocker interface {
	Lock(ctx context.Context, orderID string) (Unlock, error)
}
