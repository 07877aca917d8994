package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"storefront-service/app/domain"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const orderColumns = `id, order_id, date, status, subtotal, shipping, tax, total,
	tracking_number, user_id, user_email, user_name, shipping_address, version, created_at, updated_at`

type orderRepository struct {
	conn *sql.DB
}

func NewOrderRepository(db *sql.DB) domain.OrderRepository {
	return &orderRepository{db}
}

func scanOrder(row rowScanner, o *domain.Order) error {
	var address []byte
	if err := row.Scan(&o.ID, &o.OrderID, &o.Date, &o.Status, &o.Subtotal, &o.Shipping, &o.Tax,
		&o.Total, &o.TrackingNumber, &o.UserID, &o.UserEmail, &o.UserName, &address, &o.Version,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}
	return json.Unmarshal(address, &o.ShippingAddress)
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] Create", "marshalAddress", err)
		return err
	}

	return withTx(ctx, r.conn, func(ctx context.Context) error {
		exec := executorFrom(ctx, r.conn)

		query := `INSERT INTO orders (order_id, date, status, subtotal, shipping, tax, total,
			tracking_number, user_id, user_email, user_name, shipping_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, version, created_at, updated_at`

		err := exec.QueryRowContext(ctx, query,
			order.OrderID, order.Date, order.Status, order.Subtotal, order.Shipping, order.Tax,
			order.Total, order.TrackingNumber, order.UserID, order.UserEmail, order.UserName, address,
		).Scan(&order.ID, &order.Version, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("%w: order %s already exists", domain.ErrConflict, order.OrderID)
			}
			slog.ErrorContext(ctx, "[orderRepository] Create", "insertOrder", err)
			return err
		}

		if len(order.Items) == 0 {
			return nil
		}

		valuePlaceholders := []string{}
		valueArgs := []any{}
		for i, item := range order.Items {
			n := i * 6
			valuePlaceholders = append(valuePlaceholders,
				fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6))
			valueArgs = append(valueArgs, order.ID, i, item.ProductID, item.Name, item.Quantity, item.Price)
		}

		itemsQuery := fmt.Sprintf(`INSERT INTO order_items (order_pk, position, product_id, name, quantity, price) VALUES %s`,
			strings.Join(valuePlaceholders, ", "))
		if _, err := exec.ExecContext(ctx, itemsQuery, valueArgs...); err != nil {
			slog.ErrorContext(ctx, "[orderRepository] Create", "insertItems", err)
			return err
		}

		return nil
	})
}

// loadItems fills Items for every order in one query.
func (r *orderRepository) loadItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[int64]int, len(orders))
	ids := make([]int64, 0, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		ids = append(ids, o.ID)
	}

	query := `SELECT order_pk, product_id, name, quantity, price
	FROM order_items WHERE order_pk = ANY($1) ORDER BY order_pk, position`

	rows, err := executorFrom(ctx, r.conn).QueryContext(ctx, query, ids)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] loadItems", "queryContext", err)
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderPK int64
			item    domain.OrderItem
		)
		if err := rows.Scan(&orderPK, &item.ProductID, &item.Name, &item.Quantity, &item.Price); err != nil {
			slog.ErrorContext(ctx, "[orderRepository] loadItems", "scan", err)
			return err
		}
		i := index[orderPK]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[orderRepository] loadItems", "rowError", err)
		return err
	}

	return nil
}

func (r *orderRepository) GetByOrderID(ctx context.Context, orderID string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	var order domain.Order
	if err := scanOrder(executorFrom(ctx, r.conn).QueryRowContext(ctx, query, orderID), &order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
		}
		slog.ErrorContext(ctx, "[orderRepository] GetByOrderID", "queryRowContext", err)
		return order, err
	}

	orders := []domain.Order{order}
	if err := r.loadItems(ctx, orders); err != nil {
		return order, err
	}

	return orders[0], nil
}

func (r *orderRepository) GetList(ctx context.Context, param domain.GetListOrderRequest) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}

	switch {
	case param.UserID != "" && param.UserEmail != "":
		query += ` WHERE (user_id = $1 OR lower(user_email) = lower($2))`
		args = append(args, param.UserID, param.UserEmail)
	case param.UserID != "":
		query += ` WHERE user_id = $1`
		args = append(args, param.UserID)
	case param.UserEmail != "":
		query += ` WHERE lower(user_email) = lower($1)`
		args = append(args, param.UserEmail)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := executorFrom(ctx, r.conn).QueryContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] GetList", "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := scanOrder(rows, &order); err != nil {
			slog.ErrorContext(ctx, "[orderRepository] GetList", "scan", err)
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[orderRepository] GetList", "rowError", err)
		return nil, err
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error {
	query := `UPDATE orders
	SET status = $1, tracking_number = $2, version = version + 1, updated_at = now()
	WHERE order_id = $3 AND status = $4 AND version = $5
	RETURNING version, updated_at`

	exec := executorFrom(ctx, r.conn)
	err := exec.QueryRowContext(ctx, query, order.Status, order.TrackingNumber, order.OrderID, expected, order.Version).
		Scan(&order.Version, &order.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		slog.ErrorContext(ctx, "[orderRepository] UpdateStatus", "queryRowContext", err)
		return err
	}

	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE order_id = $1)`, order.OrderID).
		Scan(&exists); err != nil {
		slog.ErrorContext(ctx, "[orderRepository] UpdateStatus", "exists", err)
		return err
	}
	if !exists {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, order.OrderID)
	}
	return fmt.Errorf("%w: order %s is no longer %s at version %d", domain.ErrConflict, order.OrderID, expected, order.Version)
}

func (r *orderRepository) Delete(ctx context.Context, orderID string) error {
	res, err := executorFrom(ctx, r.conn).ExecContext(ctx, `DELETE FROM orders WHERE order_id = $1`, orderID)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] Delete", "execContext", err)
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] Delete", "rowsAffected", err)
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}

	return nil
}

func (r *orderRepository) CountOpenByProductID(ctx context.Context, productID int64) (int64, error) {
	query := `SELECT COUNT(DISTINCT o.id)
	FROM orders o
	JOIN order_items i ON i.order_pk = o.id
	WHERE i.product_id = $1 AND o.status = $2`

	var count int64
	if err := executorFrom(ctx, r.conn).QueryRowContext(ctx, query, productID, domain.OrderStatusProcessing).
		Scan(&count); err != nil {
		slog.ErrorContext(ctx, "[orderRepository] CountOpenByProductID", "queryRowContext", err)
		return 0, err
	}

	return count, nil
}
