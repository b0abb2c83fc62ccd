package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/utafrali/readrate/pkg/errors"
)

// RunInTx runs fn inside a transaction at the server default isolation
// (READ COMMITTED); callers take explicit row locks where they need them.
// The transaction is rolled back unless fn returns nil and the commit
// succeeds.
//
// Failures to begin or commit, and connection failures surfacing from fn,
// are reported as STORE_UNAVAILABLE. Any other error from fn is returned
// unchanged.
func RunInTx(ctx context.Context, db Pool, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return apperrors.StoreUnavailable(fmt.Errorf("begin tx: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) && isConnectionError(err) {
			return apperrors.StoreUnavailable(err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.StoreUnavailable(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}
