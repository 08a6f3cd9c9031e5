package db

import (
	"context"
	"database/sql"
	"errors"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner runs fn inside a single transaction. fn returning an error rolls
// everything back; the transaction is the only unit of atomicity in the engine.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q Querier) error) error
}

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
)

var ErrConflict = apperror.New(apperror.CodeConflict, "concurrent update, please retry")

type txRunner struct {
	db   *sql.DB
	opts *sql.TxOptions
}

func NewTxRunner(db *sql.DB) TxRunner {
	// READ COMMITTED rather than SERIALIZABLE: row locks
	// (SELECT ... FOR UPDATE) on the cart and variant rows give the per-variant
	// ordering, and each statement reads the latest committed state under the
	// lock. See "Isolation" in DESIGN.md.
	return &txRunner{db: db, opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted}}
}

func (r *txRunner) WithTx(ctx context.Context, fn func(q Querier) error) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "db"),
		zap.String("method", "WithTx"),
	)

	tx, err := r.db.BeginTx(ctx, r.opts)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return mapError(err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			} else {
				log.Debug("transaction rolled back")
			}
		}
	}()

	if err := fn(tx); err != nil {
		return mapError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", zap.Error(err))
		return mapError(err)
	}
	committed = true

	return nil
}

// mapError turns lock and serialization failures into CONFLICT and leaves
// domain errors untouched.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgQueryCanceled:
			return apperror.Wrap(apperror.CodeConflict, ErrConflict.Message, err)
		}
	}
	return err
}
