package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"storefront-service/app/domain"
	"strings"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/crypto/bcrypt"
)

type userUsecase struct {
	transactor  domain.Transactor
	userRepo    domain.UserRepository
	productRepo domain.ProductRepository
	hashCost    int
}

func NewUserUsecase(transactor domain.Transactor, userRepo domain.UserRepository, productRepo domain.ProductRepository) domain.UserUsecase {
	return &userUsecase{
		transactor:  transactor,
		userRepo:    userRepo,
		productRepo: productRepo,
		hashCost:    bcrypt.DefaultCost,
	}
}

// Register creates a customer account. Accounts are never created with the admin role.
func (u *userUsecase) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), u.hashCost)
	if err != nil {
		slog.ErrorContext(ctx, "[userUsecase] Register", "hashPassword", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		slog.ErrorContext(ctx, "[userUsecase] Register", "newID", err)
		return nil, err
	}

	user := domain.User{
		ID:           id.String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.UserRoleCustomer,
	}
	if err := u.userRepo.Create(ctx, &user); err != nil {
		slog.ErrorContext(ctx, "[userUsecase] Register", "create", err)
		return nil, err
	}

	slog.InfoContext(ctx, "[userUsecase] Register", "user_id", user.ID)
	return &user, nil
}

func (u *userUsecase) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "[userUsecase] GetProfile", "getByID", err)
		return domain.User{}, err
	}
	return user, nil
}

func (u *userUsecase) UpdateProfile(ctx context.Context, userID string, req domain.ProfileUpdateRequest) (*domain.User, error) {
	var user domain.User
	err := u.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := u.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return fmt.Errorf("%w: name must not be empty", domain.ErrValidation)
			}
			current.Name = name
		}
		if req.Mobile != nil {
			current.Mobile = *req.Mobile
		}
		if req.Address != nil {
			current.Address = *req.Address
		}
		user = current
		return u.userRepo.UpdateProfile(ctx, &user)
	})
	if err != nil {
		slog.ErrorContext(ctx, "[userUsecase] UpdateProfile", "transaction", err)
		return nil, err
	}
	return &user, nil
}

func (u *userUsecase) GetWishlist(ctx context.Context, userID string) ([]domain.Product, error) {
	ids, err := u.userRepo.GetWishlist(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "[userUsecase] GetWishlist", "getWishlist", err)
		return nil, err
	}
	return u.products(ctx, ids)
}

// UpdateWishlist adds or removes one product and returns the resulting wishlist.
func (u *userUsecase) UpdateWishlist(ctx context.Context, userID string, req domain.WishlistUpdateRequest) ([]domain.Product, error) {
	var ids []int64
	err := u.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		switch req.Action {
		case domain.WishlistAdd:
			if _, err := u.productRepo.GetByID(ctx, req.ProductID); err != nil {
				return err
			}
			if err := u.userRepo.AddWishlistItem(ctx, userID, req.ProductID); err != nil {
				return err
			}
		case domain.WishlistRemove:
			if err := u.userRepo.RemoveWishlistItem(ctx, userID, req.ProductID); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown wishlist action %q", domain.ErrValidation, req.Action)
		}

		var err error
		ids, err = u.userRepo.GetWishlist(ctx, userID)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "[userUsecase] UpdateWishlist", "transaction", err)
		return nil, err
	}

	slog.InfoContext(ctx, "[userUsecase] UpdateWishlist", "user_id", userID, "action", req.Action, "product_id", req.ProductID)
	return u.products(ctx, ids)
}

// products resolves wishlist ids, skipping products deleted in the meantime.
func (u *userUsecase) products(ctx context.Context, ids []int64) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, err := u.productRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			slog.ErrorContext(ctx, "[userUsecase] products", "getByID", err)
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
