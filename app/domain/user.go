package domain

import (
	"context"
	"time"
)

const (
	UserRoleCustomer = "user"
	UserRoleAdmin    = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Mobile       string    `json:"mobile"`
	Address      string    `json:"address"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	// bcrypt ignores everything past 72 bytes.
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ProfileUpdateRequest changes only the fields that are present.
type ProfileUpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Mobile  *string `json:"mobile"`
	Address *string `json:"address"`
}

type WishlistAction string

const (
	WishlistAdd    WishlistAction = "add"
	WishlistRemove WishlistAction = "remove"
)

type WishlistUpdateRequest struct {
	ProductID int64          `json:"product_id" validate:"required,gt=0"`
	Action    WishlistAction `json:"action" validate:"required,oneof=add remove"`
}

type UserRepository interface {
	// Create fails with ErrConflict when the email is taken, ignoring case.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (User, error)
	UpdateProfile(ctx context.Context, user *User) error

	// Adding a listed product or removing an unlisted one is a no-op.
	AddWishlistItem(ctx context.Context, userID string, productID int64) error
	RemoveWishlistItem(ctx context.Context, userID string, productID int64) error
	// GetWishlist returns product ids in the order they were added.
	GetWishlist(ctx context.Context, userID string) ([]int64, error)
}

type UserUsecase interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	GetProfile(ctx context.Context, userID string) (User, error)
	UpdateProfile(ctx context.Context, userID string, req ProfileUpdateRequest) (*User, error)
	GetWishlist(ctx context.Context, userID string) ([]Product, error)
	UpdateWishlist(ctx context.Context, userID string, req WishlistUpdateRequest) ([]Product, error)
}
