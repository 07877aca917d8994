package pkg

import (
	"database/sql"
	"errors"
	"fmt"
)

// WithTransaction commits tx when fn succeeds and rolls it back otherwise.
// The error from fn is preserved for errors.Is checks.
func WithTransaction(tx *sql.Tx, fn func() error) error {
	if err := fn(); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rollbackErr))
		}
		return err
	}
	return tx.Commit()
}
