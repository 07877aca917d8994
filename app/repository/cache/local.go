package cache

import (
	"context"
	"fmt"
	"storefront-service/app/domain"
	"sync"
)

type localLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker locks orders within one process.
func NewLocalLocker() domain.OrderLocker {
	return &localLocker{held: make(map[string]struct{})}
}

func (l *localLocker) Lock(_ context.Context, orderID string) (domain.Unlock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[orderID]; busy {
		return nil, fmt.Errorf("%w: order %s is being updated", domain.ErrConflict, orderID)
	}
	l.held[orderID] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, orderID)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
