package pipeline

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/quriousri/foxglove/pkg/database"
	"github.com/quriousri/foxglove/pkg/events"
	"github.com/quriousri/foxglove/pkg/flatten"
	"github.com/quriousri/foxglove/pkg/loader"
	"github.com/quriousri/foxglove/pkg/models"
	"github.com/quriousri/foxglove/pkg/tracing"
)

// RegistrationConfig carries the registration module's knobs.
type RegistrationConfig struct {
	BulkURL    string
	TrialLimit int
}

// BulkFetcher supplies the raw registration records.
type BulkFetcher interface {
	FetchDrugRecords(ctx context.Context, url string) ([]models.DrugRecord, error)
}

// RegistrationModule loads drugs@FDA registration records, expanding each
// into one row per (submission, product) pair.
type RegistrationModule struct {
	cfg     RegistrationConfig
	db      database.DB
	fetcher BulkFetcher
	store   loader.AssessmentStore
	emitter *events.Emitter
	logger  ectologger.Logger
}

// Counter exposes the destination row count for before/after auditing.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// NewRegistrationModule creates the registration pipeline module. emitter may
// be nil.
func NewRegistrationModule(cfg RegistrationConfig, db database.DB, fetcher BulkFetcher, store loader.AssessmentStore, emitter *events.Emitter, logger ectologger.Logger) *RegistrationModule {
	return &RegistrationModule{
		cfg:     cfg,
		db:      db,
		fetcher: fetcher,
		store:   store,
		emitter: emitter,
		logger:  logger,
	}
}

func (m *RegistrationModule) Name() string {
	return "registration"
}

func (m *RegistrationModule) Run(ctx context.Context, runID string) (loader.Stats, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.RegistrationModule.Run")
	defer span.End()

	initial := m.tableCount(ctx)

	records, err := m.fetcher.FetchDrugRecords(ctx, m.cfg.BulkURL)
	if err != nil {
		return loader.Stats{}, err
	}

	if m.cfg.TrialLimit > 0 && len(records) > m.cfg.TrialLimit {
		m.logger.WithContext(ctx).WithFields(map[string]any{"limit": m.cfg.TrialLimit}).Info("Trial limit set, truncating records")
		records = records[:m.cfg.TrialLimit]
	}

	var onInserted func(ctx context.Context, a *models.Assessment)
	if m.emitter != nil {
		onInserted = func(ctx context.Context, a *models.Assessment) {
			m.emitter.EmitAssessmentCreated(ctx, runID, a)
		}
	}

	driver := loader.NewDriver[models.Assessment](m.db, m.logger, loader.NewRegistrationPolicy(m.store, onInserted))
	driver.AddRecords(len(records))

	total := flatten.TotalEntries(records)
	progressEvery := total / 20
	if progressEvery < 1 {
		progressEvery = 1
	}
	m.logger.WithContext(ctx).WithFields(map[string]any{
		"records": len(records),
		"entries": total,
	}).Info("Expanding registration records")

	processed := 0
	for _, record := range records {
		for _, entry := range flatten.Expand(record) {
			row := flatten.NewAssessment(record, entry.Submission, entry.Product)
			if err := driver.Push(ctx, row); err != nil {
				return driver.Stats(), err
			}
			processed++
			if processed%progressEvery == 0 {
				m.logger.WithContext(ctx).WithFields(map[string]any{
					"processed": processed,
					"total":     total,
					"percent":   processed * 100 / total,
				}).Info("Registration load progress")
			}
		}
	}

	if err := driver.Flush(ctx); err != nil {
		return driver.Stats(), err
	}

	stats := driver.Stats()
	final := m.tableCount(ctx)
	m.logger.WithContext(ctx).WithFields(map[string]any{
		"initial_count": initial,
		"final_count":   final,
		"delta":         final - initial,
		"inserted":      stats.Inserted,
	}).Info("Registration table counts")

	return stats, nil
}

func (m *RegistrationModule) tableCount(ctx context.Context) int {
	counter, ok := m.store.(Counter)
	if !ok {
		return -1
	}
	count, err := counter.Count(ctx)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).Warn("Failed to count assessments")
		return -1
	}
	return count
}
