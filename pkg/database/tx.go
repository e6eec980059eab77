package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/wmesaf/basicschool-api/pkg/errors"
)

// WithinTx runs fn inside a single transaction. Every multi-statement
// mutation in the system goes through this helper: begin, run all
// statements, commit — or roll back on the first failure. A rollback
// failure is surfaced alongside the original error, never swallowed.
func WithinTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "begin transaction")
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return appErrors.Wrap(
				fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err),
				appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "transaction rollback failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "commit transaction")
	}

	return nil
}
