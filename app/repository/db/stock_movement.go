package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"storefront-service/app/domain"
	"strings"
)

type stockMovementRepository struct {
	conn *sql.DB
}

func NewStockMovementRepository(db *sql.DB) domain.StockMovementRepository {
	return &stockMovementRepository{db}
}

func (r *stockMovementRepository) Create(ctx context.Context, movements []domain.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	valuePlaceholders := []string{}
	valueArgs := []any{}
	for i, m := range movements {
		valuePlaceholders = append(valuePlaceholders, fmt.Sprintf("($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4))
		valueArgs = append(valueArgs, m.ProductID, m.Kind, m.Quantity, m.OrderID)
	}

	query := fmt.Sprintf(`INSERT INTO stock_movements (product_id, kind, quantity, order_id) VALUES %s RETURNING id, created_at`,
		strings.Join(valuePlaceholders, ", "))

	rows, err := executorFrom(ctx, r.conn).QueryContext(ctx, query, valueArgs...)
	if err != nil {
		slog.ErrorContext(ctx, "[stockMovementRepository] Create", "queryContext", err)
		return err
	}
	defer rows.Close()

	for i := 0; rows.Next() && i < len(movements); i++ {
		if err := rows.Scan(&movements[i].ID, &movements[i].CreatedAt); err != nil {
			slog.ErrorContext(ctx, "[stockMovementRepository] Create", "scan", err)
			return err
		}
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[stockMovementRepository] Create", "rowError", err)
		return err
	}

	return nil
}

func (r *stockMovementRepository) GetByProductID(ctx context.Context, productID int64) ([]domain.StockMovement, error) {
	query := `SELECT id, product_id, kind, quantity, order_id, created_at
	FROM stock_movements WHERE product_id = $1 ORDER BY id`

	rows, err := executorFrom(ctx, r.conn).QueryContext(ctx, query, productID)
	if err != nil {
		slog.ErrorContext(ctx, "[stockMovementRepository] GetByProductID", "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	var movements []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Kind, &m.Quantity, &m.OrderID, &m.CreatedAt); err != nil {
			slog.ErrorContext(ctx, "[stockMovementRepository] GetByProductID", "scan", err)
			return nil, err
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[stockMovementRepository] GetByProductID", "rowError", err)
		return nil, err
	}

	return movements, nil
}
