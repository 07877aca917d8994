// Package memstore implements the storefront repositories on an in-memory go-memdb
// database. Write transactions are serialized by go-memdb, which gives WithTransaction the
// same all-or-nothing and isolation guarantees the Postgres repositories get from row locks.
package memstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-memdb"
)

const (
	tableProducts  = "products"
	tableOrders    = "orders"
	tableMovements = "stock_movements"
	tableUsers     = "users"
	tableWishlist  = "wishlist_items"
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableProducts: {
				Name: tableProducts,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
				},
			},
			tableOrders: {
				Name: tableOrders,
				Indexes: map[string]*memdb.IndexSchema{
					"id":         {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "OrderID"}},
					"user_email": {Name: "user_email", AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "UserEmail", Lowercase: true}},
				},
			},
			tableMovements: {
				Name: tableMovements,
				Indexes: map[string]*memdb.IndexSchema{
					"id":         {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
					"product_id": {Name: "product_id", Indexer: &memdb.IntFieldIndex{Field: "ProductID"}},
				},
			},
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*memdb.IndexSchema{
					"id":    {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"email": {Name: "email", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true}},
				},
			},
			tableWishlist: {
				Name: tableWishlist,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
						&memdb.StringFieldIndex{Field: "UserID"},
						&memdb.IntFieldIndex{Field: "ProductID"},
					}}},
					"user_id":    {Name: "user_id", Indexer: &memdb.StringFieldIndex{Field: "UserID"}},
					"product_id": {Name: "product_id", Indexer: &memdb.IntFieldIndex{Field: "ProductID"}},
				},
			},
		},
	}
}

type txnKey struct{}

type Store struct {
	db *memdb.MemDB

	productSeq  atomic.Int64
	orderSeq    atomic.Int64
	movementSeq atomic.Int64
	wishlistSeq atomic.Int64

	now func() time.Time
}

func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// WithTransaction runs fn in one write transaction. Nested calls join the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txnKey{}).(*memdb.Txn); ok {
		return fn(ctx)
	}

	txn := s.db.Txn(true)
	if err := fn(context.WithValue(ctx, txnKey{}, txn)); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

// read returns the caller's transaction when there is one, otherwise a read-only snapshot.
func (s *Store) read(ctx context.Context) *memdb.Txn {
	if txn, ok := ctx.Value(txnKey{}).(*memdb.Txn); ok {
		return txn
	}
	return s.db.Txn(false)
}

// write runs fn in the caller's transaction, or in a fresh one committed on success.
func (s *Store) write(ctx context.Context, fn func(txn *memdb.Txn) error) error {
	if txn, ok := ctx.Value(txnKey{}).(*memdb.Txn); ok {
		return fn(txn)
	}

	txn := s.db.Txn(true)
	if err := fn(txn); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

func inTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txnKey{}).(*memdb.Txn)
	return ok
}

func logErr(ctx context.Context, where, step string, err error) error {
	slog.ErrorContext(ctx, where, step, err)
	return err
}
