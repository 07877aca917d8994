package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"storefront-service/app/domain"
)

type inventoryUsecase struct {
	transactor   domain.Transactor
	productRepo  domain.ProductRepository
	movementRepo domain.StockMovementRepository
	publisher    domain.BrokerPublisher
}

func NewInventoryUsecase(transactor domain.Transactor, productRepo domain.ProductRepository,
	movementRepo domain.StockMovementRepository, publisher domain.BrokerPublisher) domain.InventoryUsecase {
	return &inventoryUsecase{transactor, productRepo, movementRepo, publisher}
}

func (u *inventoryUsecase) GetInventory(ctx context.Context, productID int64) (domain.InventoryResponse, error) {
	product, err := u.productRepo.GetByID(ctx, productID)
	if err != nil {
		slog.ErrorContext(ctx, "[inventoryUsecase] GetInventory", "getByID", err)
		return domain.InventoryResponse{}, err
	}
	return domain.NewInventoryResponse(product), nil
}

// AdjustInventory sets absolute counters under a row lock. Omitted fields keep their value.
func (u *inventoryUsecase) AdjustInventory(ctx context.Context, productID int64, req domain.InventoryUpdateRequest) (domain.InventoryResponse, error) {
	if req.StockQuantity == nil && req.MinStockThreshold == nil {
		return domain.InventoryResponse{}, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	var product domain.Product
	err := u.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := u.productRepo.LockForUpdate(ctx, []int64{productID})
		if err != nil {
			return err
		}
		product = locked[productID]
		before := product.StockQuantity

		stock := product.StockQuantity
		if req.StockQuantity != nil {
			stock = *req.StockQuantity
		}
		if err := product.Adjust(stock, req.MinStockThreshold); err != nil {
			return err
		}

		if err := u.productRepo.UpdateCounters(ctx, &product); err != nil {
			return err
		}
		return u.movementRepo.Create(ctx, []domain.StockMovement{{
			ProductID: productID,
			Kind:      domain.LedgerAdjust,
			Quantity:  product.StockQuantity - before,
		}})
	})
	if err != nil {
		slog.ErrorContext(ctx, "[inventoryUsecase] AdjustInventory", "transaction", err)
		return domain.InventoryResponse{}, err
	}

	publishStock(ctx, u.publisher, []domain.Product{product})
	slog.InfoContext(ctx, "[inventoryUsecase] AdjustInventory", "product_id", productID, "stock", product.StockQuantity)
	return domain.NewInventoryResponse(product), nil
}

func (u *inventoryUsecase) GetLowStock(ctx context.Context) ([]domain.InventoryResponse, error) {
	products, err := u.productRepo.GetLowStock(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[inventoryUsecase] GetLowStock", "getLowStock", err)
		return nil, err
	}

	out := make([]domain.InventoryResponse, 0, len(products))
	for _, p := range products {
		out = append(out, domain.NewInventoryResponse(p))
	}
	return out, nil
}

func (u *inventoryUsecase) GetMovements(ctx context.Context, productID int64) ([]domain.StockMovement, error) {
	if _, err := u.productRepo.GetByID(ctx, productID); err != nil {
		slog.ErrorContext(ctx, "[inventoryUsecase] GetMovements", "getByID", err)
		return nil, err
	}

	movements, err := u.movementRepo.GetByProductID(ctx, productID)
	if err != nil {
		slog.ErrorContext(ctx, "[inventoryUsecase] GetMovements", "getByProductID", err)
		return nil, err
	}
	return movements, nil
}
