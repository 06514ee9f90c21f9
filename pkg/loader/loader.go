// Package loader drives batched, transactional loading of flattened rows
// into Postgres. The duplicate-handling strategy is pluggable per destination
// table via ConflictPolicy.
package loader

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/quriousri/foxglove/pkg/database"
	"github.com/quriousri/foxglove/pkg/tracing"
)

// Stats is the run audit for one load. TotalEntries counts every expanded
// row handed to the driver; Inserted + Duplicates + Updated + Skipped +
// Errors accounts for all of them at the end of a run.
type Stats struct {
	TotalRecords int `json:"totalRecords"`
	TotalEntries int `json:"totalEntries"`
	Inserted     int `json:"inserted"`
	Duplicates   int `json:"duplicates"`
	Updated      int `json:"updated"`
	Skipped      int `json:"skipped"`
	Errors       int `json:"errors"`
}

// Outcome is what a policy reports for one applied batch.
type Outcome struct {
	Inserted   int
	Duplicates int
	Updated    int
}

// ConflictPolicy decides how a batch of rows meets existing data: check
// before writing, upsert atomically, or anything else a destination needs.
// Apply runs inside a transaction carried on ctx; it must not commit or
// roll back itself.
type ConflictPolicy[T any] interface {
	Name() string
	BatchSize() int
	Apply(ctx context.Context, rows []T) (Outcome, error)
	KeyOf(row T) string
}

// Driver accumulates rows and flushes them through its policy, one
// transaction per batch. A failed batch is rolled back and counted as
// errors; the run continues with the next batch.
type Driver[T any] struct {
	db     database.DB
	logger ectologger.Logger
	policy ConflictPolicy[T]
	batch  []T
	stats  Stats
}

// NewDriver creates a driver for the given policy.
func NewDriver[T any](db database.DB, logger ectologger.Logger, policy ConflictPolicy[T]) *Driver[T] {
	return &Driver[T]{
		db:     db,
		logger: logger,
		policy: policy,
		batch:  make([]T, 0, policy.BatchSize()),
	}
}

// Push queues a row, flushing when the batch reaches the policy's size.
func (d *Driver[T]) Push(ctx context.Context, row T) error {
	d.stats.TotalEntries++
	d.batch = append(d.batch, row)
	if len(d.batch) >= d.policy.BatchSize() {
		return d.Flush(ctx)
	}
	return nil
}

// Flush applies any queued rows in a single transaction. On policy failure
// the transaction is rolled back, every row of the batch is counted as an
// error, and Flush returns nil so the caller keeps going.
func (d *Driver[T]) Flush(ctx context.Context) error {
	if len(d.batch) == 0 {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "loader.Driver.Flush")
	defer span.End()

	rows := d.batch
	d.batch = make([]T, 0, d.policy.BatchSize())

	txCtx, tx, err := d.db.GetTx(ctx, nil)
	if err != nil {
		// fatal for the run, so the batch is not counted as errors
		d.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"policy":     d.policy.Name(),
			"batch_size": len(rows),
		}).Error("Failed to begin load transaction")
		return err
	}

	outcome, err := d.policy.Apply(txCtx, rows)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			d.logger.WithContext(ctx).WithError(rbErr).Error("Failed to roll back load transaction")
		}
		d.stats.Errors += len(rows)
		d.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"policy":     d.policy.Name(),
			"batch_size": len(rows),
			"first_key":  d.policy.KeyOf(rows[0]),
		}).Error("Failed to apply batch, rolled back and continuing")
		return nil
	}

	if err := tx.Commit(ctx); err != nil {
		d.stats.Errors += len(rows)
		d.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"policy":     d.policy.Name(),
			"batch_size": len(rows),
		}).Error("Failed to commit load transaction")
		return nil
	}

	d.stats.Inserted += outcome.Inserted
	d.stats.Duplicates += outcome.Duplicates
	d.stats.Updated += outcome.Updated
	return nil
}

// MarkSkipped counts a row that was rejected before reaching the policy.
func (d *Driver[T]) MarkSkipped() {
	d.stats.TotalEntries++
	d.stats.Skipped++
}

// AddRecords accumulates the source-record count, which can arrive in
// increments when the source is sharded.
func (d *Driver[T]) AddRecords(n int) {
	d.stats.TotalRecords += n
}

// Stats returns the audit counters accumulated so far.
func (d *Driver[T]) Stats() Stats {
	return d.stats
}
