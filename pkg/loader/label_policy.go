package loader

import (
	"context"

	"github.com/quriousri/foxglove/internal/repositories/label"
	"github.com/quriousri/foxglove/pkg/models"
)

// DefaultLabelBatchSize is the upsert batch size used when the config does
// not override it.
const DefaultLabelBatchSize = 1000

// LabelStore is the persistence surface the label policy needs.
type LabelStore interface {
	BatchUpsert(ctx context.Context, rows []models.LabelRow) (label.UpsertOutcome, error)
}

// LabelPolicy handles label rows with a single atomic upsert per batch.
// Unchanged rows are silent no-ops in the database and are not counted as
// inserts or updates.
type LabelPolicy struct {
	store     LabelStore
	batchSize int
	onApplied func(ctx context.Context, outcome label.UpsertOutcome)
}

// NewLabelPolicy creates the atomic-upsert policy. onApplied is optional;
// when set it is invoked after each successful batch with the keys that were
// created or updated.
func NewLabelPolicy(store LabelStore, batchSize int, onApplied func(ctx context.Context, outcome label.UpsertOutcome)) *LabelPolicy {
	if batchSize <= 0 {
		batchSize = DefaultLabelBatchSize
	}
	return &LabelPolicy{
		store:     store,
		batchSize: batchSize,
		onApplied: onApplied,
	}
}

func (p *LabelPolicy) Name() string {
	return "label-atomic-upsert"
}

func (p *LabelPolicy) BatchSize() int {
	return p.batchSize
}

func (p *LabelPolicy) KeyOf(row models.LabelRow) string {
	return row.Key()
}

func (p *LabelPolicy) Apply(ctx context.Context, rows []models.LabelRow) (Outcome, error) {
	result, err := p.store.BatchUpsert(ctx, rows)
	if err != nil {
		return Outcome{}, err
	}
	if p.onApplied != nil {
		p.onApplied(ctx, result)
	}
	return Outcome{Inserted: result.Inserted, Updated: result.Updated}, nil
}
