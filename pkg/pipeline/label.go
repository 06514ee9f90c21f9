package pipeline

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/quriousri/foxglove/internal/repositories/label"
	"github.com/quriousri/foxglove/pkg/database"
	"github.com/quriousri/foxglove/pkg/events"
	"github.com/quriousri/foxglove/pkg/fetch"
	"github.com/quriousri/foxglove/pkg/flatten"
	"github.com/quriousri/foxglove/pkg/loader"
	"github.com/quriousri/foxglove/pkg/models"
	"github.com/quriousri/foxglove/pkg/tracing"
)

// LabelConfig carries the label module's knobs.
type LabelConfig struct {
	ShardBaseURL string
	MetadataURL  string
	BatchSize    int
	ShardLimit   int
}

// ShardFetcher streams label shards through a handler.
type ShardFetcher interface {
	FetchLabelShards(ctx context.Context, baseURL, metadataURL string, shardLimit int, handler fetch.ShardHandler) error
}

// LabelModule loads structured product labels shard by shard. Rows missing
// any of the three key identifiers fail validation and are skipped; the rest
// are upserted in batches.
type LabelModule struct {
	cfg      LabelConfig
	db       database.DB
	fetcher  ShardFetcher
	store    loader.LabelStore
	emitter  *events.Emitter
	validate *validator.Validate
	logger   ectologger.Logger
}

// NewLabelModule creates the label pipeline module. emitter may be nil.
func NewLabelModule(cfg LabelConfig, db database.DB, fetcher ShardFetcher, store loader.LabelStore, emitter *events.Emitter, logger ectologger.Logger) *LabelModule {
	return &LabelModule{
		cfg:      cfg,
		db:       db,
		fetcher:  fetcher,
		store:    store,
		emitter:  emitter,
		validate: validator.New(),
		logger:   logger,
	}
}

func (m *LabelModule) Name() string {
	return "label"
}

func (m *LabelModule) Run(ctx context.Context, runID string) (loader.Stats, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.LabelModule.Run")
	defer span.End()

	initial := m.tableCount(ctx)

	var onApplied func(ctx context.Context, outcome label.UpsertOutcome)
	if m.emitter != nil {
		onApplied = func(ctx context.Context, outcome label.UpsertOutcome) {
			m.emitter.EmitLabelEvents(ctx, runID, outcome.CreatedKeys, outcome.UpdatedKeys)
		}
	}

	driver := loader.NewDriver[models.LabelRow](m.db, m.logger, loader.NewLabelPolicy(m.store, m.cfg.BatchSize, onApplied))

	err := m.fetcher.FetchLabelShards(ctx, m.cfg.ShardBaseURL, m.cfg.MetadataURL, m.cfg.ShardLimit,
		func(ctx context.Context, records []models.LabelRecord) error {
			driver.AddRecords(len(records))
			for _, record := range records {
				row := flatten.NewLabelRow(record)
				if err := m.validate.Struct(row); err != nil {
					driver.MarkSkipped()
					continue
				}
				if err := driver.Push(ctx, row); err != nil {
					return err
				}
			}
			// flush per shard so a shard's rows never straddle its archive
			// being deleted
			return driver.Flush(ctx)
		})
	if err != nil {
		return driver.Stats(), err
	}

	stats := driver.Stats()
	final := m.tableCount(ctx)
	m.logger.WithContext(ctx).WithFields(map[string]any{
		"initial_count": initial,
		"final_count":   final,
		"delta":         final - initial,
		"inserted":      stats.Inserted,
		"updated":       stats.Updated,
		"skipped":       stats.Skipped,
	}).Info("Label table counts")

	return stats, nil
}

func (m *LabelModule) tableCount(ctx context.Context) int {
	counter, ok := m.store.(Counter)
	if !ok {
		return -1
	}
	count, err := counter.Count(ctx)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).Warn("Failed to count labels")
		return -1
	}
	return count
}
