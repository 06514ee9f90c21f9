// Package label persists drug-label rows with an atomic upsert keyed on
// (spl_id, spl_set_id, registration_number).
package label

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/quriousri/foxglove/pkg/database"
	"github.com/quriousri/foxglove/pkg/models"
	"github.com/quriousri/foxglove/pkg/tracing"
)

const table = "source.usa_drug_label"

// UpsertOutcome reports how many rows of a batch were newly inserted and how
// many updated an existing row, with the keys of each. Rows whose descriptive
// fields were unchanged appear in neither: the change guard makes them no-ops.
type UpsertOutcome struct {
	Inserted    int
	Updated     int
	CreatedKeys []string
	UpdatedKeys []string
}

// Repository handles label persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new label repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// BatchUpsert writes a batch of label rows in a single atomic statement.
// On key collision the mutable descriptive fields are overwritten and
// updated_at touched, but only when at least one of those fields actually
// differs from the stored value. (xmax = 0) distinguishes inserts from
// updates in the returned rows. Safe under concurrent writers.
func (r *Repository) BatchUpsert(ctx context.Context, rows []models.LabelRow) (UpsertOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "label.Repository.BatchUpsert")
	defer span.End()

	var outcome UpsertOutcome
	if len(rows) == 0 {
		return outcome, nil
	}

	const columnsPerRow = 7
	valueClauses := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*columnsPerRow)
	for i, row := range rows {
		base := i * columnsPerRow
		valueClauses = append(valueClauses, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args,
			row.SplID,
			row.SplSetID,
			row.RegistrationNumber,
			row.GenericNameLabel,
			row.ManufacturerLabel,
			row.BrandName,
			row.IndicationsAndUsage,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO %[1]s (
			spl_id, spl_set_id, registration_number,
			generic_name_label, manufacturer_label, brand_name, indications_and_usage
		) VALUES %[2]s
		ON CONFLICT (spl_id, spl_set_id, registration_number)
		DO UPDATE SET
			generic_name_label = EXCLUDED.generic_name_label,
			manufacturer_label = EXCLUDED.manufacturer_label,
			brand_name = EXCLUDED.brand_name,
			indications_and_usage = EXCLUDED.indications_and_usage,
			updated_at = CURRENT_TIMESTAMP
		WHERE (
			%[1]s.generic_name_label IS DISTINCT FROM EXCLUDED.generic_name_label OR
			%[1]s.manufacturer_label IS DISTINCT FROM EXCLUDED.manufacturer_label OR
			%[1]s.brand_name IS DISTINCT FROM EXCLUDED.brand_name OR
			%[1]s.indications_and_usage IS DISTINCT FROM EXCLUDED.indications_and_usage
		)
		RETURNING spl_id, spl_set_id, registration_number, (xmax = 0) AS inserted
	`, table, strings.Join(valueClauses, ", "))

	q := database.Querier(ctx, r.db)
	result, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(rows),
			"first_key":  rows[0].Key(),
		}).Error("Failed to batch upsert labels")
		return outcome, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to batch upsert labels: %v", err)
	}
	defer result.Close()

	for result.Next() {
		var row struct {
			SplID              string `db:"spl_id"`
			SplSetID           string `db:"spl_set_id"`
			RegistrationNumber string `db:"registration_number"`
			Inserted           bool   `db:"inserted"`
		}
		if err := result.StructScan(&row); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to scan upsert result row")
			return outcome, httperror.NewHTTPError(http.StatusInternalServerError, "failed to scan upsert result")
		}
		key := row.SplID + "/" + row.SplSetID + "/" + row.RegistrationNumber
		if row.Inserted {
			outcome.Inserted++
			outcome.CreatedKeys = append(outcome.CreatedKeys, key)
		} else {
			outcome.Updated++
			outcome.UpdatedKeys = append(outcome.UpdatedKeys, key)
		}
	}
	if err := result.Err(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed reading upsert results")
		return outcome, httperror.NewHTTPError(http.StatusInternalServerError, "failed reading upsert results")
	}

	return outcome, nil
}

// GetByKey retrieves a stored label by its unique key.
func (r *Repository) GetByKey(ctx context.Context, splID, splSetID, registrationNumber string) (*models.StoredLabel, error) {
	ctx, span := tracing.StartSpan(ctx, "label.Repository.GetByKey")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "spl_id", "spl_set_id", "registration_number", "generic_name_label", "manufacturer_label", "brand_name", "indications_and_usage", "created_at", "updated_at")
	sb.From(table)
	sb.Where(
		sb.Equal("spl_id", splID),
		sb.Equal("spl_set_id", splSetID),
		sb.Equal("registration_number", registrationNumber),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var stored models.StoredLabel
	q := database.Querier(ctx, r.db)
	if err := q.GetContext(ctx, &stored, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "label %s/%s/%s not found", splID, splSetID, registrationNumber)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"spl_id": splID, "spl_set_id": splSetID}).Error("Failed to get label")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get label")
	}
	return &stored, nil
}

// Count returns the total number of stored labels.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "label.Repository.Count")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(table)

	query, args := sb.Build()
	var count int
	q := database.Querier(ctx, r.db)
	if err := q.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count labels")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count labels")
	}
	return count, nil
}
