package label_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quriousri/foxglove/internal/repositories/label"
	"github.com/quriousri/foxglove/pkg/database"
	"github.com/quriousri/foxglove/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "quriousri"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

func strPtr(s string) *string {
	return &s
}

func newTestRow(splID string) models.LabelRow {
	return models.LabelRow{
		SplID:               splID,
		SplSetID:            "set-" + splID,
		RegistrationNumber:  "NDA" + splID[:8],
		GenericNameLabel:    strPtr("aspirin"),
		ManufacturerLabel:   strPtr("ACME MFG"),
		BrandName:           strPtr("BRANDA"),
		IndicationsAndUsage: strPtr("For relief of minor aches."),
	}
}

func TestLabelRepository_UpsertLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := label.NewRepository(db, getTestLogger())
	ctx := context.Background()

	row := newTestRow(uuid.NewString())

	// first write inserts
	outcome, err := repo.BatchUpsert(ctx, []models.LabelRow{row})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Inserted)
	assert.Equal(t, 0, outcome.Updated)
	assert.Equal(t, []string{row.Key()}, outcome.CreatedKeys)
	assert.Empty(t, outcome.UpdatedKeys)

	stored, err := repo.GetByKey(ctx, row.SplID, row.SplSetID, row.RegistrationNumber)
	require.NoError(t, err)
	assert.Equal(t, "aspirin", *stored.GenericNameLabel)
	firstUpdatedAt := stored.UpdatedAt

	// identical write is a silent no-op: no insert, no update, no timestamp
	// churn
	outcome, err = repo.BatchUpsert(ctx, []models.LabelRow{row})
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Inserted)
	assert.Equal(t, 0, outcome.Updated)

	stored, err = repo.GetByKey(ctx, row.SplID, row.SplSetID, row.RegistrationNumber)
	require.NoError(t, err)
	assert.Equal(t, firstUpdatedAt, stored.UpdatedAt)

	// changed descriptive field updates in place
	changed := row
	changed.GenericNameLabel = strPtr("acetylsalicylic acid")
	outcome, err = repo.BatchUpsert(ctx, []models.LabelRow{changed})
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Inserted)
	assert.Equal(t, 1, outcome.Updated)
	assert.Equal(t, []string{row.Key()}, outcome.UpdatedKeys)
	assert.Empty(t, outcome.CreatedKeys)

	stored, err = repo.GetByKey(ctx, row.SplID, row.SplSetID, row.RegistrationNumber)
	require.NoError(t, err)
	assert.Equal(t, "acetylsalicylic acid", *stored.GenericNameLabel)
	assert.True(t, stored.UpdatedAt.After(firstUpdatedAt))
}

func TestLabelRepository_BatchMixesInsertsAndUpdates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := label.NewRepository(db, getTestLogger())
	ctx := context.Background()

	existing := newTestRow(uuid.NewString())
	_, err := repo.BatchUpsert(ctx, []models.LabelRow{existing})
	require.NoError(t, err)

	existing.BrandName = strPtr("BRANDB")
	fresh := newTestRow(uuid.NewString())

	outcome, err := repo.BatchUpsert(ctx, []models.LabelRow{existing, fresh})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Inserted)
	assert.Equal(t, 1, outcome.Updated)
}

func TestLabelRepository_NullFieldsRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := label.NewRepository(db, getTestLogger())
	ctx := context.Background()

	row := newTestRow(uuid.NewString())
	row.GenericNameLabel = nil
	row.IndicationsAndUsage = nil

	_, err := repo.BatchUpsert(ctx, []models.LabelRow{row})
	require.NoError(t, err)

	stored, err := repo.GetByKey(ctx, row.SplID, row.SplSetID, row.RegistrationNumber)
	require.NoError(t, err)
	assert.Nil(t, stored.GenericNameLabel)
	assert.Nil(t, stored.IndicationsAndUsage)

	// nil to value counts as a change
	row.GenericNameLabel = strPtr("aspirin")
	outcome, err := repo.BatchUpsert(ctx, []models.LabelRow{row})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Updated)
}

func TestLabelRepository_GetByKeyNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := label.NewRepository(db, getTestLogger())

	_, err := repo.GetByKey(context.Background(), "missing", "missing", "missing")
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestLabelRepository_EmptyBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := label.NewRepository(db, getTestLogger())

	outcome, err := repo.BatchUpsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, label.UpsertOutcome{}, outcome)
}
