package store

import (
	"database/sql"
	"fmt"

	"github.com/jonesrussell/threadsync/internal/domain"
)

// persistence wraps a storage error so callers can classify it with
// errors.Is(err, domain.ErrPersistenceFailed) while keeping the cause chain.
func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistenceFailed, op, err)
}

// notFound wraps domain.ErrNotFound with the missing key.
func notFound(what, key string) error {
	return fmt.Errorf("%s %q: %w", what, key, domain.ErrNotFound)
}

// execRequireRows validates that an ExecContext result affected at least one
// row, returning notFoundErr when it affected none.
func execRequireRows(result sql.Result, notFoundErr error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return persistence("failed to get rows affected", err)
	}

	if n == 0 {
		return notFoundErr
	}

	return nil
}
