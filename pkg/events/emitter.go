// Package events handles event emission for pipeline runs and stored rows.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/quriousri/foxglove/pkg/kafka"
	"github.com/quriousri/foxglove/pkg/loader"
	"github.com/quriousri/foxglove/pkg/models"
	"github.com/quriousri/foxglove/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes load lifecycle events. Emission is best-effort: a
// publish failure is logged but never fails the load itself.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitRunStarted emits a run.started event for a pipeline module.
func (e *Emitter) EmitRunStarted(ctx context.Context, runID, module string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunStarted")
	defer span.End()

	event := &kafka.LoadEvent{
		EventType: "run.started",
		EventID:   uuid.NewString(),
		RunID:     runID,
		Module:    module,
	}

	if err := e.producer.PublishLoadEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.started event")
	}
}

// EmitRunCompleted emits a run.completed event carrying the module's stats.
func (e *Emitter) EmitRunCompleted(ctx context.Context, runID, module string, stats loader.Stats) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	event := &kafka.LoadEvent{
		EventType: "run.completed",
		EventID:   uuid.NewString(),
		RunID:     runID,
		Module:    module,
		Stats:     &stats,
	}

	if err := e.producer.PublishLoadEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.completed event")
	}
}

// EmitLabelEvents emits label.created and label.updated events for one
// flushed batch, published together.
func (e *Emitter) EmitLabelEvents(ctx context.Context, runID string, createdKeys, updatedKeys []string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitLabelEvents")
	defer span.End()

	batch := make([]*kafka.LoadEvent, 0, len(createdKeys)+len(updatedKeys))
	for _, key := range createdKeys {
		batch = append(batch, &kafka.LoadEvent{
			EventType: "label.created",
			EventID:   uuid.NewString(),
			RunID:     runID,
			Module:    "label",
			Key:       key,
		})
	}
	for _, key := range updatedKeys {
		batch = append(batch, &kafka.LoadEvent{
			EventType: "label.updated",
			EventID:   uuid.NewString(),
			RunID:     runID,
			Module:    "label",
			Key:       key,
		})
	}
	if len(batch) == 0 {
		return
	}

	if err := e.producer.PublishLoadEvents(ctx, batch); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit label events batch")
	}
}

// EmitAssessmentCreated emits an assessment.created event for a newly
// inserted registration row.
func (e *Emitter) EmitAssessmentCreated(ctx context.Context, runID string, a *models.Assessment) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAssessmentCreated")
	defer span.End()

	data, err := json.Marshal(map[string]any{
		"schema_version":      SchemaVersion,
		"id":                  a.ID,
		"registration_number": a.RegistrationNumber,
		"product_name":        a.ProductName,
		"submission_type":     a.SubmissionType,
		"submission_number":   a.SubmissionNumber,
	})
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to marshal assessment.created event")
		return
	}

	event := &kafka.LoadEvent{
		EventType: "assessment.created",
		EventID:   uuid.NewString(),
		RunID:     runID,
		Module:    "registration",
		Key:       a.NaturalKey().String(),
		Data:      data,
	}

	if err := e.producer.PublishLoadEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit assessment.created event")
	}
}
