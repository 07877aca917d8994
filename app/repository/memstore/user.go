package memstore

import (
	"context"
	"fmt"
	"sort"
	"storefront-service/app/domain"
	"strings"

	"github.com/hashicorp/go-memdb"
)

type wishlistItem struct {
	UserID    string
	ProductID int64
	Seq       int64
}

type userRepository struct {
	store *Store
}

func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{store}
}

func getUser(txn *memdb.Txn, id string) (domain.User, error) {
	raw, err := txn.First(tableUsers, "id", id)
	if err != nil {
		return domain.User{}, err
	}
	if raw == nil {
		return domain.User{}, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return *raw.(*domain.User), nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		existing, err := txn.First(tableUsers, "email", strings.ToLower(user.Email))
		if err != nil {
			return logErr(ctx, "[memUserRepository] Create", "first", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: email %s already registered", domain.ErrConflict, user.Email)
		}

		now := r.store.now()
		user.CreatedAt = now
		user.UpdatedAt = now
		row := *user
		if err := txn.Insert(tableUsers, &row); err != nil {
			return logErr(ctx, "[memUserRepository] Create", "insert", err)
		}
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return getUser(r.store.read(ctx), id)
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		current, err := getUser(txn, user.ID)
		if err != nil {
			return err
		}
		current.Name = user.Name
		current.Mobile = user.Mobile
		current.Address = user.Address
		current.UpdatedAt = r.store.now()
		if err := txn.Insert(tableUsers, &current); err != nil {
			return logErr(ctx, "[memUserRepository] UpdateProfile", "insert", err)
		}
		*user = current
		return nil
	})
}

func (r *userRepository) AddWishlistItem(ctx context.Context, userID string, productID int64) error {
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		if _, err := getUser(txn, userID); err != nil {
			return err
		}
		if _, err := getProduct(txn, productID); err != nil {
			return err
		}

		existing, err := txn.First(tableWishlist, "id", userID, productID)
		if err != nil {
			return logErr(ctx, "[memUserRepository] AddWishlistItem", "first", err)
		}
		if existing != nil {
			return nil
		}

		row := wishlistItem{UserID: userID, ProductID: productID, Seq: r.store.wishlistSeq.Add(1)}
		if err := txn.Insert(tableWishlist, &row); err != nil {
			return logErr(ctx, "[memUserRepository] AddWishlistItem", "insert", err)
		}
		return nil
	})
}

func (r *userRepository) RemoveWishlistItem(ctx context.Context, userID string, productID int64) error {
	return r.store.write(ctx, func(txn *memdb.Txn) error {
		if _, err := getUser(txn, userID); err != nil {
			return err
		}
		if _, err := txn.DeleteAll(tableWishlist, "id", userID, productID); err != nil {
			return logErr(ctx, "[memUserRepository] RemoveWishlistItem", "deleteAll", err)
		}
		return nil
	})
}

func (r *userRepository) GetWishlist(ctx context.Context, userID string) ([]int64, error) {
	txn := r.store.read(ctx)
	if _, err := getUser(txn, userID); err != nil {
		return nil, err
	}

	it, err := txn.Get(tableWishlist, "user_id", userID)
	if err != nil {
		return nil, logErr(ctx, "[memUserRepository] GetWishlist", "get", err)
	}

	var items []wishlistItem
	for raw := it.Next(); raw != nil; raw = it.Next() {
		items = append(items, *raw.(*wishlistItem))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids, nil
}
