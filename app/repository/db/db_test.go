package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"storefront-service/app/domain"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_DSN and starts every test from empty tables.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	conn, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn))
	_, err = conn.ExecContext(ctx, `TRUNCATE wishlist_items, users, stock_movements, order_items, orders, products RESTART IDENTITY`)
	require.NoError(t, err)
	return conn
}

func newProduct(stock int64) *domain.Product {
	return &domain.Product{
		Name:              "Ring",
		Category:          "rings",
		Image:             "ring.png",
		Description:       "Gold ring",
		Price:             decimal.RequireFromString("25.00"),
		StockQuantity:     stock,
		MinStockThreshold: domain.DefaultMinStockThreshold,
	}
}

func TestProductRepository_LockAndUpdateCounters(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	products := NewProductRepository(conn)
	tx := NewTransactor(conn)

	p := newProduct(10)
	require.NoError(t, products.Create(ctx, p))

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := products.LockForUpdate(ctx, []int64{p.ID})
		if err != nil {
			return err
		}
		row := locked[p.ID]
		row.ReservedStock = 3
		return products.UpdateCounters(ctx, &row)
	})
	require.NoError(t, err)

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ReservedStock)
	assert.Equal(t, int64(1), got.Version)

	stale := *p
	stale.ReservedStock = 1
	assert.ErrorIs(t, products.UpdateCounters(ctx, &stale), domain.ErrConflict)
}

func TestProductRepository_RollbackOnError(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	products := NewProductRepository(conn)
	movements := NewStockMovementRepository(conn)
	tx := NewTransactor(conn)

	p := newProduct(10)
	require.NoError(t, products.Create(ctx, p))

	boom := errors.New("boom")
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := products.LockForUpdate(ctx, []int64{p.ID})
		if err != nil {
			return err
		}
		row := locked[p.ID]
		row.ReservedStock = 5
		if err := products.UpdateCounters(ctx, &row); err != nil {
			return err
		}
		if err := movements.Create(ctx, []domain.StockMovement{{ProductID: p.ID, Kind: domain.LedgerReserve, Quantity: 5}}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ReservedStock)

	history, err := movements.GetByProductID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestProductRepository_LockMissing(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	products := NewProductRepository(conn)

	err := NewTransactor(conn).WithTransaction(ctx, func(ctx context.Context) error {
		_, err := products.LockForUpdate(ctx, []int64{404})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderRepository_Lifecycle(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	products := NewProductRepository(conn)
	orders := NewOrderRepository(conn)

	p := newProduct(10)
	require.NoError(t, products.Create(ctx, p))

	uid := "user-1"
	order := &domain.Order{
		OrderID:       "ORD-1",
		Date:          time.Now().UTC(),
		Status:        domain.OrderStatusProcessing,
		Subtotal:      decimal.RequireFromString("50.00"),
		Shipping:      decimal.RequireFromString("10.00"),
		Tax:           decimal.RequireFromString("4.00"),
		Total:         decimal.RequireFromString("64.00"),
		Items:         []domain.OrderItem{{ProductID: p.ID, Name: p.Name, Quantity: 2, Price: p.Price}},
		UserID:        &uid,
		UserEmail:     "Ann@Shop.io",
		UserName:      "Ann",
		ShippingAddress: domain.ShippingAddress{
			FirstName: "Ann", LastName: "Lee", Phone: "1", Address: "Main 1",
			City: "Town", State: "ST", ZipCode: "12345", Country: "US",
		},
	}
	require.NoError(t, orders.Create(ctx, order))
	assert.NotZero(t, order.ID)

	dup := *order
	assert.ErrorIs(t, orders.Create(ctx, &dup), domain.ErrConflict)

	got, err := orders.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, p.ID, got.Items[0].ProductID)
	assert.True(t, got.Items[0].Price.Equal(p.Price))
	assert.Equal(t, "64.00", got.Total.StringFixed(2))
	assert.Equal(t, "Town", got.ShippingAddress.City)

	list, err := orders.GetList(ctx, domain.GetListOrderRequest{UserEmail: "ann@shop.io"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = orders.GetList(ctx, domain.GetListOrderRequest{UserID: "user-1", UserEmail: "other@shop.io"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = orders.GetList(ctx, domain.GetListOrderRequest{UserID: "user-2"})
	require.NoError(t, err)
	assert.Empty(t, list)

	open, err := orders.CountOpenByProductID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), open)

	first, second := got, got
	first.Status = domain.OrderStatusShipped
	require.NoError(t, orders.UpdateStatus(ctx, &first, domain.OrderStatusProcessing))
	second.Status = domain.OrderStatusShipped
	assert.ErrorIs(t, orders.UpdateStatus(ctx, &second, domain.OrderStatusProcessing), domain.ErrConflict)

	missing := domain.Order{OrderID: "ORD-404", Status: domain.OrderStatusShipped}
	assert.ErrorIs(t, orders.UpdateStatus(ctx, &missing, domain.OrderStatusProcessing), domain.ErrNotFound)

	require.NoError(t, orders.Delete(ctx, "ORD-1"))
	_, err = orders.GetByOrderID(ctx, "ORD-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_ProfileAndWishlist(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	products := NewProductRepository(conn)
	users := NewUserRepository(conn)

	p := newProduct(1)
	require.NoError(t, products.Create(ctx, p))

	user := &domain.User{ID: "user-1", Name: "Ann", Email: "Ann@Shop.io", PasswordHash: "x", Role: domain.UserRoleCustomer}
	require.NoError(t, users.Create(ctx, user))
	dup := &domain.User{ID: "user-2", Name: "Ann", Email: "ann@shop.io", PasswordHash: "x", Role: domain.UserRoleCustomer}
	assert.ErrorIs(t, users.Create(ctx, dup), domain.ErrConflict)

	user.Mobile = "555"
	require.NoError(t, users.UpdateProfile(ctx, user))
	got, err := users.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "555", got.Mobile)

	require.NoError(t, users.AddWishlistItem(ctx, "user-1", p.ID))
	require.NoError(t, users.AddWishlistItem(ctx, "user-1", p.ID))
	assert.ErrorIs(t, users.AddWishlistItem(ctx, "user-1", 404), domain.ErrNotFound)

	ids, err := users.GetWishlist(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []int64{p.ID}, ids)

	require.NoError(t, products.Delete(ctx, p.ID))
	ids, err = users.GetWishlist(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = users.GetWishlist(ctx, "user-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
