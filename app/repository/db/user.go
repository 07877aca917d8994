package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"storefront-service/app/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, name, email, password_hash, role, mobile, address, created_at, updated_at`

type userRepository struct {
	conn *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{db}
}

func scanUser(row rowScanner, u *domain.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Mobile, &u.Address,
		&u.CreatedAt, &u.UpdatedAt)
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, name, email, password_hash, role, mobile, address)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at, updated_at`

	err := executorFrom(ctx, r.conn).QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.Mobile, user.Address,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: email %s already registered", domain.ErrConflict, user.Email)
		}
		slog.ErrorContext(ctx, "[userRepository] Create", "queryRowContext", err)
		return mapCheckViolation(err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user domain.User
	if err := scanUser(executorFrom(ctx, r.conn).QueryRowContext(ctx, query, id), &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
		}
		slog.ErrorContext(ctx, "[userRepository] GetByID", "queryRowContext", err)
		return user, err
	}

	return user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET name = $1, mobile = $2, address = $3, updated_at = now()
	WHERE id = $4
	RETURNING ` + userColumns

	err := scanUser(executorFrom(ctx, r.conn).QueryRowContext(ctx, query,
		user.Name, user.Mobile, user.Address, user.ID,
	), user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: user %s", domain.ErrNotFound, user.ID)
		}
		slog.ErrorContext(ctx, "[userRepository] UpdateProfile", "queryRowContext", err)
		return err
	}

	return nil
}

func (r *userRepository) AddWishlistItem(ctx context.Context, userID string, productID int64) error {
	query := `INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2)
	ON CONFLICT (user_id, product_id) DO NOTHING`

	if _, err := executorFrom(ctx, r.conn).ExecContext(ctx, query, userID, productID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.ConstraintName)
		}
		slog.ErrorContext(ctx, "[userRepository] AddWishlistItem", "execContext", err)
		return err
	}

	return nil
}

func (r *userRepository) RemoveWishlistItem(ctx context.Context, userID string, productID int64) error {
	if err := r.exists(ctx, userID); err != nil {
		return err
	}

	query := `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`
	if _, err := executorFrom(ctx, r.conn).ExecContext(ctx, query, userID, productID); err != nil {
		slog.ErrorContext(ctx, "[userRepository] RemoveWishlistItem", "execContext", err)
		return err
	}

	return nil
}

func (r *userRepository) GetWishlist(ctx context.Context, userID string) ([]int64, error) {
	if err := r.exists(ctx, userID); err != nil {
		return nil, err
	}

	query := `SELECT product_id FROM wishlist_items WHERE user_id = $1 ORDER BY seq`
	rows, err := executorFrom(ctx, r.conn).QueryContext(ctx, query, userID)
	if err != nil {
		slog.ErrorContext(ctx, "[userRepository] GetWishlist", "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.ErrorContext(ctx, "[userRepository] GetWishlist", "scan", err)
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[userRepository] GetWishlist", "rowError", err)
		return nil, err
	}

	return ids, nil
}

func (r *userRepository) exists(ctx context.Context, userID string) error {
	var found bool
	err := executorFrom(ctx, r.conn).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&found)
	if err != nil {
		slog.ErrorContext(ctx, "[userRepository] exists", "queryRowContext", err)
		return err
	}
	if !found {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return nil
}
