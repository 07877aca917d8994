package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"storefront-service/app/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const productColumns = `id, name, sku, category, image, description, price,
	stock_quantity, reserved_stock, min_stock_threshold, version, created_at, updated_at`

type productRepository struct {
	conn *sql.DB
}

func NewProductRepository(db *sql.DB) domain.ProductRepository {
	return &productRepository{db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *domain.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.Image, &p.Description, &p.Price,
		&p.StockQuantity, &p.ReservedStock, &p.MinStockThreshold, &p.Version, &p.CreatedAt, &p.UpdatedAt)
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (name, sku, category, image, description, price,
		stock_quantity, reserved_stock, min_stock_threshold)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, version, created_at, updated_at`

	err := executorFrom(ctx, r.conn).QueryRowContext(ctx, query,
		product.Name, product.SKU, product.Category, product.Image, product.Description, product.Price,
		product.StockQuantity, product.ReservedStock, product.MinStockThreshold,
	).Scan(&product.ID, &product.Version, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] Create", "queryRowContext", err)
		return mapCheckViolation(err)
	}

	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var product domain.Product
	err := scanProduct(executorFrom(ctx, r.conn).QueryRowContext(ctx, query, id), &product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return product, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
		slog.ErrorContext(ctx, "[productRepository] GetByID", "queryRowContext", err)
		return product, err
	}

	return product, nil
}

func (r *productRepository) query(ctx context.Context, where string, args ...any) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ` + where + ` ORDER BY created_at DESC, id DESC`

	rows, err := executorFrom(ctx, r.conn).QueryContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] query", "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := scanProduct(rows, &product); err != nil {
			slog.ErrorContext(ctx, "[productRepository] query", "scan", err)
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[productRepository] query", "rowError", err)
		return nil, err
	}

	return products, nil
}

func (r *productRepository) GetList(ctx context.Context) ([]domain.Product, error) {
	return r.query(ctx, "")
}

func (r *productRepository) GetLowStock(ctx context.Context) ([]domain.Product, error) {
	return r.query(ctx, "WHERE stock_quantity - reserved_stock <= min_stock_threshold")
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `UPDATE products
	SET name = $1, sku = $2, category = $3, image = $4, description = $5, price = $6, updated_at = now()
	WHERE id = $7
	RETURNING ` + productColumns

	err := scanProduct(executorFrom(ctx, r.conn).QueryRowContext(ctx, query,
		product.Name, product.SKU, product.Category, product.Image, product.Description, product.Price, product.ID,
	), product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: product %d", domain.ErrNotFound, product.ID)
		}
		slog.ErrorContext(ctx, "[productRepository] Update", "queryRowContext", err)
		return err
	}

	return nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	res, err := executorFrom(ctx, r.conn).ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] Delete", "execContext", err)
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] Delete", "rowsAffected", err)
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}

	return nil
}

// LockForUpdate locks the rows in id order so concurrent callers cannot deadlock.
func (r *productRepository) LockForUpdate(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	if !inTransaction(ctx) {
		return nil, fmt.Errorf("%w: LockForUpdate outside transaction", domain.ErrInternal)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := executorFrom(ctx, r.conn).QueryContext(ctx, query, ids)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] LockForUpdate", "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	products := make(map[int64]domain.Product, len(ids))
	for rows.Next() {
		var product domain.Product
		if err := scanProduct(rows, &product); err != nil {
			slog.ErrorContext(ctx, "[productRepository] LockForUpdate", "scan", err)
			return nil, err
		}
		products[product.ID] = product
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[productRepository] LockForUpdate", "rowError", err)
		return nil, err
	}

	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
	}

	return products, nil
}

func (r *productRepository) UpdateCounters(ctx context.Context, product *domain.Product) error {
	if product.StockQuantity < 0 || product.ReservedStock < 0 || product.ReservedStock > product.StockQuantity {
		return fmt.Errorf("%w: product %d counters out of range", domain.ErrInsufficientStock, product.ID)
	}

	query := `UPDATE products
	SET stock_quantity = $1, reserved_stock = $2, min_stock_threshold = $3, version = version + 1, updated_at = now()
	WHERE id = $4 AND version = $5
	RETURNING version, updated_at`

	err := executorFrom(ctx, r.conn).QueryRowContext(ctx, query,
		product.StockQuantity, product.ReservedStock, product.MinStockThreshold, product.ID, product.Version,
	).Scan(&product.Version, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: product %d changed since version %d", domain.ErrConflict, product.ID, product.Version)
		}
		slog.ErrorContext(ctx, "[productRepository] UpdateCounters", "queryRowContext", err)
		return mapCheckViolation(err)
	}

	return nil
}

var counterConstraints = map[string]bool{
	"products_stock_quantity_check": true,
	"products_reserved_stock_check": true,
	"products_reserved_le_stock":    true,
}

// mapCheckViolation turns a broken CHECK constraint into a domain error.
func mapCheckViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23514" {
		return err
	}
	if counterConstraints[pgErr.ConstraintName] {
		return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, pgErr.ConstraintName)
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.ConstraintName)
}
