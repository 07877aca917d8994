package usecase

import (
	"context"
	"errors"
	"storefront-service/app/domain"
	"storefront-service/app/repository/cache"
	"storefront-service/app/repository/memstore"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []domain.StockMessage
	err  error
}

func (f *fakePublisher) PublishStockAvailable(_ context.Context, data domain.StockMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, data)
	return f.err
}

func (f *fakePublisher) messages() []domain.StockMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.StockMessage(nil), f.msgs...)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.OrderNotification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, n domain.OrderNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeNotifier) notifications() []domain.OrderNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OrderNotification(nil), f.sent...)
}

var testPricing = domain.PricingRules{
	FreeShippingThreshold: decimal.NewFromInt(100),
	ShippingFee:           decimal.NewFromInt(10),
	TaxRate:               decimal.RequireFromString("0.08"),
}

type fixture struct {
	store       *memstore.Store
	products    domain.ProductRepository
	orders      domain.OrderRepository
	movements   domain.StockMovementRepository
	users       domain.UserRepository
	locker      domain.OrderLocker
	publisher   *fakePublisher
	notifier    *fakeNotifier
	orderUC     domain.OrderUsecase
	productUC   domain.ProductUsecase
	inventoryUC domain.InventoryUsecase
	fulfillment domain.FulfillmentUsecase
	userUC      domain.UserUsecase
}

func newFixture(t *testing.T, machine domain.StateMachine) *fixture {
	t.Helper()
	store, err := memstore.New()
	require.NoError(t, err)

	f := &fixture{
		store:     store,
		products:  memstore.NewProductRepository(store),
		orders:    memstore.NewOrderRepository(store),
		movements: memstore.NewStockMovementRepository(store),
		users:     memstore.NewUserRepository(store),
		locker:    cache.NewLocalLocker(),
		publisher: &fakePublisher{},
		notifier:  &fakeNotifier{},
	}
	f.orderUC = NewOrderUsecase(store, f.orders, f.products, f.movements, f.locker, f.publisher, f.notifier, testPricing)
	f.productUC = NewProductUsecase(store, f.products, f.orders, f.publisher)
	f.inventoryUC = NewInventoryUsecase(store, f.products, f.movements, f.publisher)
	f.fulfillment = NewFulfillmentUsecase(store, f.orders, f.products, f.movements, f.locker, f.publisher, f.notifier, machine)
	f.userUC = NewUserUsecase(store, f.users, f.products)
	f.userUC.(*userUsecase).hashCost = bcrypt.MinCost
	return f
}

func (f *fixture) addProduct(t *testing.T, name string, priceCents, stock int64) domain.Product {
	t.Helper()
	p, err := f.productUC.Create(context.Background(), domain.ProductCreateRequest{
		Name:          name,
		Category:      "rings",
		Image:         name + ".png",
		Description:   name,
		Price:         cents(priceCents),
		StockQuantity: stock,
	})
	require.NoError(t, err)
	return *p
}

func (f *fixture) product(t *testing.T, id int64) domain.Product {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func testAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FirstName: "Ann",
		LastName:  "Lee",
		Phone:     "555-0100",
		Address:   "1 Main St",
		City:      "Springfield",
		State:     "IL",
		ZipCode:   "62701",
		Country:   "US",
	}
}

func (f *fixture) placeOrder(t *testing.T, orderID string, items ...domain.OrderItemRequest) domain.Order {
	t.Helper()
	o, err := f.orderUC.CreateOrder(context.Background(), domain.OrderCreateRequest{
		OrderID:         orderID,
		Items:           items,
		UserEmail:       "ann@shop.io",
		UserName:        "Ann",
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)
	return *o
}

func (f *fixture) countMovements(t *testing.T, productID int64, kind domain.LedgerAction) int {
	t.Helper()
	history, err := f.movements.GetByProductID(context.Background(), productID)
	require.NoError(t, err)
	n := 0
	for _, m := range history {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

func cents(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

func isConflict(err error) bool {
	return errors.Is(err, domain.ErrConflict)
}
