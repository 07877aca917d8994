package memstore

import (
	"context"
	"fmt"
	"sort"
	"storefront-service/app/domain"

	"github.com/hashicorp/go-memdb"
)

type productRepository struct {
	store *Store
}

func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{store}
}

func getProduct(txn *memdb.Txn, id int64) (domain.Product, error) {
	raw, err := txn.First(tableProducts, "id", id)
	if err != nil {
		return domain.Product{}, err
	}
	if raw == nil {
		return domain.Product{}, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return *raw.(*domain.Product), nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		now := r.store.now()
		product.ID = r.store.productSeq.Add(1)
		product.CreatedAt = now
		product.UpdatedAt = now
		row := *product
		if err := txn.Insert(tableProducts, &row); err != nil {
			return logErr(ctx, "[memProductRepository] Create", "insert", err)
		}
		return nil
	})
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	return getProduct(r.store.read(ctx), id)
}

func (r *productRepository) list(ctx context.Context, keep func(domain.Product) bool) ([]domain.Product, error) {
	it, err := r.store.read(ctx).Get(tableProducts, "id")
	if err != nil {
		return nil, logErr(ctx, "[memProductRepository] list", "get", err)
	}

	var products []domain.Product
	for raw := it.Next(); raw != nil; raw = it.Next() {
		p := *raw.(*domain.Product)
		if keep == nil || keep(p) {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID > products[j].ID
		}
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (r *productRepository) GetList(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, nil)
}

func (r *productRepository) GetLowStock(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, domain.Product.IsLowStock)
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		current, err := getProduct(txn, product.ID)
		if err != nil {
			return err
		}
		current.Name = product.Name
		current.SKU = product.SKU
		current.Category = product.Category
		current.Image = product.Image
		current.Description = product.Description
		current.Price = product.Price
		current.UpdatedAt = r.store.now()
		if err := txn.Insert(tableProducts, &current); err != nil {
			return logErr(ctx, "[memProductRepository] Update", "insert", err)
		}
		*product = current
		return nil
	})
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		n, err := txn.DeleteAll(tableProducts, "id", id)
		if err != nil {
			return logErr(ctx, "[memProductRepository] Delete", "deleteAll", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
		if _, err := txn.DeleteAll(tableWishlist, "product_id", id); err != nil {
			return logErr(ctx, "[memProductRepository] Delete", "deleteWishlist", err)
		}
		return nil
	})
}

func (r *productRepository) LockForUpdate(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	if !inTransaction(ctx) {
		return nil, fmt.Errorf("%w: LockForUpdate outside transaction", domain.ErrInternal)
	}
	txn := r.store.read(ctx)
	out := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		p, err := getProduct(txn, id)
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

func (r *productRepository) UpdateCounters(ctx context.Context, product *domain.Product) error {
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		current, err := getProduct(txn, product.ID)
		if err != nil {
			return err
		}
		if current.Version != product.Version {
			return fmt.Errorf("%w: product %d version %d, expected %d", domain.ErrConflict, product.ID, current.Version, product.Version)
		}
		if product.StockQuantity < 0 || product.ReservedStock < 0 || product.ReservedStock > product.StockQuantity {
			return fmt.Errorf("%w: product %d counters out of range", domain.ErrInsufficientStock, product.ID)
		}
		current.StockQuantity = product.StockQuantity
		current.ReservedStock = product.ReservedStock
		current.MinStockThreshold = product.MinStockThreshold
		current.Version++
		current.UpdatedAt = r.store.now()
		if err := txn.Insert(tableProducts, &current); err != nil {
			return logErr(ctx, "[memProductRepository] UpdateCounters", "insert", err)
		}
		*product = current
		return nil
	})
}
