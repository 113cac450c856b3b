package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civic_reporter/internal/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DefaultTimeout bounds a backend call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

const pgUniqueViolation = "23505"

type base struct {
	db      DB
	timeout time.Duration
}

func newBase(db DB, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return base{db: db, timeout: timeout}
}

func (b base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// withTx runs fn in a transaction, committing on success and rolling back on
// any error.
func (b base) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := b.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// classify attaches an error kind to a driver error so callers can tell a
// timeout from an outage without seeing backend messages.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if xerrors.KindOf(err) != xerrors.KindInternal {
		return fmt.Errorf("%s: %w", op, err)
	}
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, xerrors.Wrap(xerrors.ErrTimeout, err))
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return fmt.Errorf("%s: %w", op, xerrors.Wrap(xerrors.New(xerrors.KindConflict, "record already exists"), err))
	default:
		return fmt.Errorf("%s: %w", op, xerrors.Wrap(xerrors.ErrBackendUnavailable, err))
	}
}
