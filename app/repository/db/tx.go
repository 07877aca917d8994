package db

import (
	"context"
	"database/sql"
	"log/slog"
	"storefront-service/app/domain"
	"storefront-service/pkg"
)

type txKey struct{}

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type transactor struct {
	conn *sql.DB
}

func NewTransactor(db *sql.DB) domain.Transactor {
	return &transactor{db}
}

func (t *transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, t.conn, fn)
}

// withTx joins the transaction already carried by ctx, or begins a new one.
func withTx(ctx context.Context, conn *sql.DB, fn func(ctx context.Context) error) error {
	if inTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		slog.ErrorContext(ctx, "[transactor] WithTransaction", "beginTx", err)
		return err
	}

	return pkg.WithTransaction(tx, func() error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func inTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

func executorFrom(ctx context.Context, conn *sql.DB) executor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return conn
}
