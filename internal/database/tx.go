package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// maxTxAttempts bounds transparent retries of serializable transactions.
const maxTxAttempts = 5

// RunSerializable executes fn inside a serializable transaction and
// commits it. When PostgreSQL aborts the transaction because its read
// set changed before commit, the whole function is retried; fn must
// therefore be safe to run more than once. Any other error rolls back
// and is returned as-is, so domain validation failures pass through
// with no persisted side effects.
func (db *DB) RunSerializable(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = db.runSerializableOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		db.logger.Debug("tx_conflict",
			fmt.Sprintf("Serialization conflict, retrying (attempt %d/%d)", attempt, maxTxAttempts),
			"", nil)
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", maxTxAttempts, err)
}

func (db *DB) runSerializableOnce(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// isSerializationFailure reports whether err is a serialization failure
// or deadlock, the two conditions worth a transparent retry.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
