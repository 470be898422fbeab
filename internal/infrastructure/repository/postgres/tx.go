package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txContextKey struct{}

// querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx. Repositories
// resolve it per call, so the same repository works inside and outside a
// transaction.
type querier interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sqlxResult, error)
}

type sqlxResult interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}

type dbQuerier struct{ db *sqlx.DB }

func (q dbQuerier) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return q.db.GetContext(ctx, dest, query, args...)
}

func (q dbQuerier) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return q.db.SelectContext(ctx, dest, query, args...)
}

func (q dbQuerier) ExecContext(ctx context.Context, query string, args ...any) (sqlxResult, error) {
	return q.db.ExecContext(ctx, query, args...)
}

type txQuerier struct{ tx *sqlx.Tx }

func (q txQuerier) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return q.tx.GetContext(ctx, dest, query, args...)
}

func (q txQuerier) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return q.tx.SelectContext(ctx, dest, query, args...)
}

func (q txQuerier) ExecContext(ctx context.Context, query string, args ...any) (sqlxResult, error) {
	return q.tx.ExecContext(ctx, query, args...)
}

func queryerFor(ctx context.Context, db *sqlx.DB) querier {
	if tx, ok := ctx.Value(txContextKey{}).(*sqlx.Tx); ok {
		return txQuerier{tx: tx}
	}
	return dbQuerier{db: db}
}

// TxRunner opens one database transaction and carries it down through the
// context, so every repository call inside fn joins it.
type TxRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(*sqlx.Tx); ok {
		// Already inside a transaction; nested calls join it.
		return fn(ctx)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
