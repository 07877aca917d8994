package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"storefront-service/app/domain"
)

type productUsecase struct {
	transactor  domain.Transactor
	productRepo domain.ProductRepository
	orderRepo   domain.OrderRepository
	publisher   domain.BrokerPublisher
}

func NewProductUsecase(transactor domain.Transactor, productRepo domain.ProductRepository, orderRepo domain.OrderRepository,
	publisher domain.BrokerPublisher) domain.ProductUsecase {
	return &productUsecase{transactor, productRepo, orderRepo, publisher}
}

func (u *productUsecase) Create(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	product := domain.Product{
		Name:              req.Name,
		SKU:               req.SKU,
		Category:          req.Category,
		Image:             req.Image,
		Description:       req.Description,
		Price:             req.Price,
		StockQuantity:     req.StockQuantity,
		MinStockThreshold: domain.DefaultMinStockThreshold,
	}
	if !domain.ValidPrice(product.Price) {
		return nil, fmt.Errorf("%w: price must be positive with at most two decimals", domain.ErrValidation)
	}
	if req.MinStockThreshold != nil {
		product.MinStockThreshold = *req.MinStockThreshold
	}
	if product.StockQuantity < 0 || product.MinStockThreshold < 0 {
		return nil, fmt.Errorf("%w: stock and threshold must not be negative", domain.ErrValidation)
	}

	if err := u.productRepo.Create(ctx, &product); err != nil {
		slog.ErrorContext(ctx, "[productUsecase] Create", "create", err)
		return nil, err
	}

	publishStock(ctx, u.publisher, []domain.Product{product})
	slog.InfoContext(ctx, "[productUsecase] Create", "product_id", product.ID)
	return &product, nil
}

func (u *productUsecase) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	product, err := u.productRepo.GetByID(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "[productUsecase] GetByID", "getByID", err)
		return domain.Product{}, err
	}
	return product, nil
}

func (u *productUsecase) GetList(ctx context.Context) ([]domain.Product, error) {
	products, err := u.productRepo.GetList(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[productUsecase] GetList", "getList", err)
		return nil, err
	}
	return products, nil
}

// Update changes descriptive fields only. Counters go through the inventory endpoints.
func (u *productUsecase) Update(ctx context.Context, id int64, req domain.ProductUpdateRequest) (*domain.Product, error) {
	product := domain.Product{
		ID:          id,
		Name:        req.Name,
		SKU:         req.SKU,
		Category:    req.Category,
		Image:       req.Image,
		Description: req.Description,
		Price:       req.Price,
	}
	if !domain.ValidPrice(product.Price) {
		return nil, fmt.Errorf("%w: price must be positive with at most two decimals", domain.ErrValidation)
	}
	if err := u.productRepo.Update(ctx, &product); err != nil {
		slog.ErrorContext(ctx, "[productUsecase] Update", "update", err)
		return nil, err
	}
	return &product, nil
}

// Delete removes a product that no Processing order references. The product row is
// locked first, so a checkout reserving it either commits before the count or fails after
// the delete.
func (u *productUsecase) Delete(ctx context.Context, id int64) error {
	err := u.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := u.productRepo.LockForUpdate(ctx, []int64{id}); err != nil {
			return err
		}

		open, err := u.orderRepo.CountOpenByProductID(ctx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: product %d is referenced by %d processing orders", domain.ErrConflict, id, open)
		}

		return u.productRepo.Delete(ctx, id)
	})
	if err != nil {
		slog.ErrorContext(ctx, "[productUsecase] Delete", "transaction", err)
		return err
	}

	slog.InfoContext(ctx, "[productUsecase] Delete", "product_id", id)
	return nil
}
