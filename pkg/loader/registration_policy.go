package loader

import (
	"context"

	"github.com/pkg/errors"

	"github.com/quriousri/foxglove/pkg/models"
)

// AssessmentStore is the persistence surface the registration policy needs.
type AssessmentStore interface {
	Exists(ctx context.Context, key models.AssessmentKey) (bool, error)
	OldestID(ctx context.Context, key models.AssessmentKey) (int64, error)
	Insert(ctx context.Context, a *models.Assessment) (int64, error)
}

// RegistrationPolicy handles registration rows by checking the natural key
// before inserting. Rows that match an existing row are counted as
// duplicates and attributed to the oldest stored id; the stored row is
// never modified. Batch size is one: each row commits independently so a
// failure affects only itself.
type RegistrationPolicy struct {
	store      AssessmentStore
	onInserted func(ctx context.Context, a *models.Assessment)
}

// NewRegistrationPolicy creates the check-then-insert policy. onInserted is
// optional; when set it is invoked after each successful insert.
func NewRegistrationPolicy(store AssessmentStore, onInserted func(ctx context.Context, a *models.Assessment)) *RegistrationPolicy {
	return &RegistrationPolicy{
		store:      store,
		onInserted: onInserted,
	}
}

func (p *RegistrationPolicy) Name() string {
	return "registration-check-then-insert"
}

func (p *RegistrationPolicy) BatchSize() int {
	return 1
}

func (p *RegistrationPolicy) KeyOf(row models.Assessment) string {
	return row.NaturalKey().String()
}

func (p *RegistrationPolicy) Apply(ctx context.Context, rows []models.Assessment) (Outcome, error) {
	var outcome Outcome
	for i := range rows {
		row := &rows[i]
		key := row.NaturalKey()

		exists, err := p.store.Exists(ctx, key)
		if err != nil {
			return outcome, err
		}

		if exists {
			// The existence check just matched, so a missing row here means
			// the lookup and the check disagree. That is a failure, not a
			// duplicate.
			if _, err := p.store.OldestID(ctx, key); err != nil {
				return outcome, errors.Wrapf(err, "duplicate detected for %s but no row resolved", key.String())
			}
			outcome.Duplicates++
			continue
		}

		if _, err := p.store.Insert(ctx, row); err != nil {
			return outcome, err
		}
		outcome.Inserted++

		if p.onInserted != nil {
			p.onInserted(ctx, row)
		}
	}
	return outcome, nil
}
