// Package pipeline wires fetching, flattening and loading into runnable
// modules, one per destination table.
package pipeline

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/quriousri/foxglove/pkg/events"
	"github.com/quriousri/foxglove/pkg/loader"
	"github.com/quriousri/foxglove/pkg/tracing"
)

// Module is one loadable dataset. Run owns the full fetch-flatten-load cycle
// and reports the audit counters for the run.
type Module interface {
	Name() string
	Run(ctx context.Context, runID string) (loader.Stats, error)
}

// Registry runs registered modules in order. A failing module does not stop
// the ones after it; Run reports all failures at the end.
type Registry struct {
	modules []Module
	logger  ectologger.Logger
	emitter *events.Emitter
}

// NewRegistry creates a registry. emitter may be nil when event emission is
// disabled.
func NewRegistry(logger ectologger.Logger, emitter *events.Emitter) *Registry {
	return &Registry{
		logger:  logger,
		emitter: emitter,
	}
}

// Register adds a module to the run order.
func (r *Registry) Register(m Module) {
	r.modules = append(r.modules, m)
}

// Run executes every registered module.
func (r *Registry) Run(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Registry.Run")
	defer span.End()

	var failed []string
	for _, module := range r.modules {
		runID := uuid.NewString()
		log := r.logger.WithContext(ctx).WithFields(map[string]any{
			"module": module.Name(),
			"run_id": runID,
		})
		log.Infof("Starting %s pipeline", module.Name())

		if r.emitter != nil {
			r.emitter.EmitRunStarted(ctx, runID, module.Name())
		}

		stats, err := module.Run(ctx, runID)
		if err != nil {
			log.WithError(err).Errorf("Pipeline %s failed", module.Name())
			failed = append(failed, module.Name())
			continue
		}

		log.WithFields(map[string]any{
			"total_records": stats.TotalRecords,
			"total_entries": stats.TotalEntries,
			"inserted":      stats.Inserted,
			"duplicates":    stats.Duplicates,
			"updated":       stats.Updated,
			"skipped":       stats.Skipped,
			"errors":        stats.Errors,
		}).Infof("Pipeline %s completed", module.Name())

		if r.emitter != nil {
			r.emitter.EmitRunCompleted(ctx, runID, module.Name(), stats)
		}
	}

	if len(failed) > 0 {
		return errors.Errorf("pipelines failed: %v", failed)
	}
	return nil
}
