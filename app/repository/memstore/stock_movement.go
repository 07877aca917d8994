package memstore

import (
	"context"
	"sort"
	"storefront-service/app/domain"

	"github.com/hashicorp/go-memdb"
)

type stockMovementRepository struct {
	store *Store
}

func NewStockMovementRepository(store *Store) domain.StockMovementRepository {
	return &stockMovementRepository{store}
}

func (r *stockMovementRepository) Create(ctx context.Context, movements []domain.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		now := r.store.now()
		for i := range movements {
			movements[i].ID = r.store.movementSeq.Add(1)
			movements[i].CreatedAt = now
			row := movements[i]
			if err := txn.Insert(tableMovements, &row); err != nil {
				return logErr(ctx, "[memStockMovementRepository] Create", "insert", err)
			}
		}
		return nil
	})
}

func (r *stockMovementRepository) GetByProductID(ctx context.Context, productID int64) ([]domain.StockMovement, error) {
	it, err := r.store.read(ctx).Get(tableMovements, "product_id", productID)
	if err != nil {
		return nil, logErr(ctx, "[memStockMovementRepository] GetByProductID", "get", err)
	}

	var movements []domain.StockMovement
	for raw := it.Next(); raw != nil; raw = it.Next() {
		movements = append(movements, *raw.(*domain.StockMovement))
	}
	sort.Slice(movements, func(i, j int) bool { return movements[i].ID < movements[j].ID })
	return movements, nil
}
