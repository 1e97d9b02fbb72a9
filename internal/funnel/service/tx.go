package service

import (
	"context"
	"database/sql"
	"fmt"

	platformtx "hirefunnel/pkg/platform/tx"
)

// TxRunner provides the transactional boundary around a record commit and its
// outbox append. SQL-backed deployments wrap a database transaction; memory
// stores run the callback directly.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type noTx struct{}

func (noTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// SQLTxRunner runs callbacks inside a database transaction carried on the
// context for participating stores.
type SQLTxRunner struct {
	db *sql.DB
}

func NewSQLTxRunner(db *sql.DB) *SQLTxRunner {
	return &SQLTxRunner{db: db}
}

func (r *SQLTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(platformtx.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
