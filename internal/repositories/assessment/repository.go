// Package assessment persists flattened registration rows with
// check-then-insert duplicate detection on the natural key.
package assessment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/quriousri/foxglove/pkg/database"
	"github.com/quriousri/foxglove/pkg/models"
	"github.com/quriousri/foxglove/pkg/tracing"
)

const table = "drug.drug_predicate_assessments"

var insertColumns = []string{
	"country_of_origin",
	"product_name",
	"ingredient_name",
	"registration_number",
	"registration_holder",
	"manufacturer",
	"generic_name",
	"reference_drug",
	"dosage_form",
	"strength",
	"route_administration",
	"marketing_status",
	"approval_date",
	"application_type",
	"submission_type",
	"submission_number",
	"submission_date",
	"json_data",
	"created_at",
	"updated_at",
}

// Repository handles assessment persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new assessment repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Exists reports whether a row matching the natural key is already stored.
// All components compare exactly except submission_date, which is null-safe:
// two rows with no date match on that component.
func (r *Repository) Exists(ctx context.Context, key models.AssessmentKey) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "assessment.Repository.Exists")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(table)
	sb.Where(r.naturalKeyConditions(sb, key)...)

	query, args := sb.Build()
	var count int
	q := database.Querier(ctx, r.db)
	if err := q.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"natural_key": key.String()}).Error("Failed to check for duplicate assessment")
		return false, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to check for duplicate assessment: %v", err)
	}
	return count > 0, nil
}

// OldestID returns the id of the oldest stored row matching the natural key.
// A not-found result after Exists reported true is a resolver error; callers
// must treat it as a failure, not a duplicate.
func (r *Repository) OldestID(ctx context.Context, key models.AssessmentKey) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "assessment.Repository.OldestID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id")
	sb.From(table)
	sb.Where(r.naturalKeyConditions(sb, key)...)
	sb.OrderBy("id ASC")
	sb.Limit(1)

	query, args := sb.Build()
	var id int64
	q := database.Querier(ctx, r.db)
	if err := q.GetContext(ctx, &id, query, args...); err != nil {
		if database.IsNoRows(err) {
			return 0, httperror.NewHTTPErrorf(http.StatusNotFound, "no assessment matches natural key %s", key.String())
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"natural_key": key.String()}).Error("Failed to look up assessment by natural key")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to look up assessment")
	}
	return id, nil
}

// Insert stores a new assessment and returns its generated id. The surrogate
// id is assigned here once and never mutated by later duplicate submissions.
func (r *Repository) Insert(ctx context.Context, a *models.Assessment) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "assessment.Repository.Insert")
	defer span.End()

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols(insertColumns...)
	ib.Values(
		a.CountryOfOrigin,
		a.ProductName,
		a.IngredientName,
		a.RegistrationNumber,
		a.RegistrationHolder,
		a.Manufacturer,
		a.GenericName,
		a.ReferenceDrug,
		a.DosageForm,
		a.Strength,
		a.RouteAdministration,
		a.MarketingStatus,
		a.ApprovalDate,
		a.ApplicationType,
		a.SubmissionType,
		a.SubmissionNumber,
		a.SubmissionDate,
		a.JSONData,
		sqlbuilder.Raw("CURRENT_TIMESTAMP"),
		sqlbuilder.Raw("CURRENT_TIMESTAMP"),
	)
	ib.Returning("id")

	query, args := ib.Build()
	var id int64
	q := database.Querier(ctx, r.db)
	if err := q.GetContext(ctx, &id, query, args...); err != nil {
		log := r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"registration_number": a.RegistrationNumber,
			"product_name":        a.ProductName,
		})
		switch {
		case database.IsValueTooLong(err):
			log.WithFields(fieldLengths(a)).Error("Failed to insert assessment: value too long for column")
		case database.IsUniqueViolation(err):
			// a concurrent writer won the check-then-insert race
			log.WithFields(map[string]any{"natural_key": a.NaturalKey().String()}).Error("Failed to insert assessment: unique violation")
		default:
			log.Error("Failed to insert assessment")
		}
		return 0, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to insert assessment: %v", err)
	}

	a.ID = id
	return id, nil
}

// Count returns the total number of stored assessments.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "assessment.Repository.Count")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(table)

	query, args := sb.Build()
	var count int
	q := database.Querier(ctx, r.db)
	if err := q.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count assessments")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count assessments")
	}
	return count, nil
}

func (r *Repository) naturalKeyConditions(sb *sqlbuilder.SelectBuilder, key models.AssessmentKey) []string {
	conditions := []string{
		sb.Equal("registration_number", key.RegistrationNumber),
		sb.Equal("product_name", key.ProductName),
		sb.Equal("submission_type", key.SubmissionType),
		sb.Equal("submission_number", key.SubmissionNumber),
		sb.Equal("strength", key.Strength),
		sb.Equal("dosage_form", key.DosageForm),
	}
	if key.SubmissionDate != nil {
		conditions = append(conditions, fmt.Sprintf("submission_date IS NOT DISTINCT FROM %s", sb.Var(*key.SubmissionDate)))
	} else {
		conditions = append(conditions, sb.IsNull("submission_date"))
	}
	return conditions
}

// fieldLengths reports per-column value lengths to diagnose width violations.
func fieldLengths(a *models.Assessment) map[string]any {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	fields := map[string]string{
		"product_name":         a.ProductName,
		"ingredient_name":      a.IngredientName,
		"registration_number":  a.RegistrationNumber,
		"registration_holder":  a.RegistrationHolder,
		"manufacturer":         deref(a.Manufacturer),
		"generic_name":         deref(a.GenericName),
		"reference_drug":       a.ReferenceDrug,
		"dosage_form":          a.DosageForm,
		"strength":             a.Strength,
		"route_administration": a.RouteAdministration,
		"marketing_status":     a.MarketingStatus,
		"application_type":     deref(a.ApplicationType),
		"submission_type":      a.SubmissionType,
		"submission_number":    a.SubmissionNumber,
		"submission_date":      deref(a.SubmissionDate),
	}
	lengths := make(map[string]any, len(fields))
	for column, value := range fields {
		lengths[column+"_len"] = len(value)
	}
	return lengths
}
