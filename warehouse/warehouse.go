package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flowsmith/engine/logger"
	"go.uber.org/zap"
)

// Warehouse executes transactional SQL batches against the columnar store.
// The whole batch commits or none of it does; this is the property that makes
// wholesale run retry safe.
type Warehouse interface {
	RunTransaction(ctx context.Context, batch []string) error
}

type SQLWarehouse struct {
	db *sql.DB
}

var _ Warehouse = new(SQLWarehouse)

func (w *SQLWarehouse) RunTransaction(ctx context.Context, batch []string) error {
	if len(batch) == 0 {
		return fmt.Errorf("empty statement batch")
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting warehouse transaction: %w", err)
	}
	for i, stmt := range batch {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("error rolling back warehouse transaction", zap.Error(rbErr))
			}
			return fmt.Errorf("error executing statement %d of %d: %w", i+1, len(batch), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing warehouse transaction: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for host level setup such as seeding
// source tables.
func (w *SQLWarehouse) DB() *sql.DB {
	return w.db
}

func (w *SQLWarehouse) Close() error {
	return w.db.Close()
}
