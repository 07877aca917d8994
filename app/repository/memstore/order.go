package memstore

import (
	"context"
	"fmt"
	"sort"
	"storefront-service/app/domain"
	"strings"

	"github.com/hashicorp/go-memdb"
)

type orderRepository struct {
	store *Store
}

func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{store}
}

// cloneOrder detaches slices and pointers from the stored row.
func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.TrackingNumber != nil {
		tn := *o.TrackingNumber
		o.TrackingNumber = &tn
	}
	if o.UserID != nil {
		uid := *o.UserID
		o.UserID = &uid
	}
	return o
}

func getOrder(txn *memdb.Txn, orderID string) (domain.Order, error) {
	raw, err := txn.First(tableOrders, "id", orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if raw == nil {
		return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return cloneOrder(*raw.(*domain.Order)), nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		existing, err := txn.First(tableOrders, "id", order.OrderID)
		if err != nil {
			return logErr(ctx, "[memOrderRepository] Create", "first", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: order %s already exists", domain.ErrConflict, order.OrderID)
		}

		now := r.store.now()
		order.ID = r.store.orderSeq.Add(1)
		order.CreatedAt = now
		order.UpdatedAt = now
		row := cloneOrder(*order)
		if err := txn.Insert(tableOrders, &row); err != nil {
			return logErr(ctx, "[memOrderRepository] Create", "insert", err)
		}
		return nil
	})
}

func (r *orderRepository) GetByOrderID(ctx context.Context, orderID string) (domain.Order, error) {
	return getOrder(r.store.read(ctx), orderID)
}

func (r *orderRepository) GetList(ctx context.Context, param domain.GetListOrderRequest) ([]domain.Order, error) {
	txn := r.store.read(ctx)

	var (
		it  memdb.ResultIterator
		err error
	)
	if param.UserEmail != "" && param.UserID == "" {
		it, err = txn.Get(tableOrders, "user_email", strings.ToLower(param.UserEmail))
	} else {
		it, err = txn.Get(tableOrders, "id")
	}
	if err != nil {
		return nil, logErr(ctx, "[memOrderRepository] GetList", "get", err)
	}

	var orders []domain.Order
	for raw := it.Next(); raw != nil; raw = it.Next() {
		o := raw.(*domain.Order)
		if param.Matches(*o) {
			orders = append(orders, cloneOrder(*o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error {
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		current, err := getOrder(txn, order.OrderID)
		if err != nil {
			return err
		}
		if current.Status != expected || current.Version != order.Version {
			return fmt.Errorf("%w: order %s is %s (version %d), expected %s (version %d)",
				domain.ErrConflict, order.OrderID, current.Status, current.Version, expected, order.Version)
		}

		current.Status = order.Status
		current.TrackingNumber = order.TrackingNumber
		current.Version++
		current.UpdatedAt = r.store.now()
		row := cloneOrder(current)
		if err := txn.Insert(tableOrders, &row); err != nil {
			return logErr(ctx, "[memOrderRepository] UpdateStatus", "insert", err)
		}
		*order = current
		return nil
	})
}

func (r *orderRepository) Delete(ctx context.Context, orderID string) error {
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		n, err := txn.DeleteAll(tableOrders, "id", orderID)
		if err != nil {
			return logErr(ctx, "[memOrderRepository] Delete", "deleteAll", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
		}
		return nil
	})
}

func (r *orderRepository) CountOpenByProductID(ctx context.Context, productID int64) (int64, error) {
	it, err := r.store.read(ctx).Get(tableOrders, "id")
	if err != nil {
		return 0, logErr(ctx, "[memOrderRepository] CountOpenByProductID", "get", err)
	}

	var count int64
	for raw := it.Next(); raw != nil; raw = it.Next() {
		o := raw.(*domain.Order)
		if !o.Status.IsOpen() {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				count++
				break
			}
		}
	}
	return count, nil
}
