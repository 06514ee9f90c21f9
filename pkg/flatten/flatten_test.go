package flatten

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quriousri/foxglove/pkg/models"
)

func testRecord(subs, prods int) models.DrugRecord {
	rec := models.DrugRecord{
		ApplicationNumber: "NDA021234",
		SponsorName:       "ACME PHARMA",
	}
	for i := 0; i < subs; i++ {
		rec.Submissions = append(rec.Submissions, models.Submission{
			SubmissionType:       "ORIG",
			SubmissionNumber:     string(rune('1' + i)),
			SubmissionStatusDate: "20240115",
		})
	}
	for i := 0; i < prods; i++ {
		rec.Products = append(rec.Products, models.Product{
			ProductNumber: string(rune('1' + i)),
			BrandName:     "BRAND" + string(rune('A'+i)),
			DosageForm:    "TABLET",
			ActiveIngredients: []models.ActiveIngredient{
				{Name: "ASPIRIN", Strength: "50MG"},
			},
		})
	}
	return rec
}

func TestExpand_CrossProduct(t *testing.T) {
	tests := []struct {
		name  string
		subs  int
		prods int
		want  int
	}{
		{"2x3", 2, 3, 6},
		{"1x1", 1, 1, 1},
		{"no submissions", 0, 3, 0},
		{"no products", 2, 0, 0},
		{"both empty", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := Expand(testRecord(tt.subs, tt.prods))
			assert.Len(t, entries, tt.want)
		})
	}
}

func TestExpand_OrderingIsDeterministic(t *testing.T) {
	rec := testRecord(2, 3)

	first := Expand(rec)
	second := Expand(rec)
	require.Equal(t, first, second)

	// submissions outer, products inner, source order preserved
	require.Len(t, first, 6)
	assert.Equal(t, "1", first[0].Submission.SubmissionNumber)
	assert.Equal(t, "1", first[0].Product.ProductNumber)
	assert.Equal(t, "2", first[1].Product.ProductNumber)
	assert.Equal(t, "3", first[2].Product.ProductNumber)
	assert.Equal(t, "2", first[3].Submission.SubmissionNumber)
	assert.Equal(t, "1", first[3].Product.ProductNumber)
}

func TestTotalEntries(t *testing.T) {
	records := []models.DrugRecord{
		testRecord(2, 3),
		testRecord(0, 5),
		testRecord(4, 0),
		testRecord(1, 1),
	}
	assert.Equal(t, 7, TotalEntries(records))
}

func TestNewAssessment(t *testing.T) {
	rec := testRecord(1, 1)
	rec.OpenFDA = models.OpenFDA{
		GenericName:      models.FlexStrings{"aspirin"},
		ManufacturerName: models.FlexStrings{"ACME MFG", "OTHER MFG"},
	}

	a := NewAssessment(rec, rec.Submissions[0], rec.Products[0])

	assert.Equal(t, models.CountryOfOriginUSA, a.CountryOfOrigin)
	assert.Equal(t, "BRANDA", a.ProductName)
	assert.Equal(t, "ASPIRIN", a.IngredientName)
	assert.Equal(t, "ASPIRIN-50MG", a.Strength)
	assert.Equal(t, "NDA021234", a.RegistrationNumber)
	assert.Equal(t, "ACME PHARMA", a.RegistrationHolder)
	require.NotNil(t, a.ApplicationType)
	assert.Equal(t, "NDA", *a.ApplicationType)
	require.NotNil(t, a.SubmissionDate)
	assert.Equal(t, "15-01-2024", *a.SubmissionDate)
	require.NotNil(t, a.GenericName)
	assert.Equal(t, "aspirin", *a.GenericName)
	require.NotNil(t, a.Manufacturer)
	assert.Equal(t, "ACME MFG", *a.Manufacturer)
	assert.Equal(t, "No", a.ReferenceDrug)

	// audit snapshot always carries the originating context
	snap := a.JSONData.GetValue()
	assert.Equal(t, "NDA021234", snap.ApplicationNumber)
	assert.Equal(t, "ACME PHARMA", snap.SponsorName)
	assert.Equal(t, rec.Submissions[0], snap.Submission)
	assert.Equal(t, rec.Products[0], snap.Product)
	require.NotNil(t, snap.OpenFDA)
}

func TestNewAssessment_SparseRecord(t *testing.T) {
	rec := models.DrugRecord{
		ApplicationNumber: "021234",
		Submissions:       []models.Submission{{SubmissionType: "SUPPL", SubmissionNumber: "4"}},
		Products:          []models.Product{{BrandName: "BARE"}},
	}

	a := NewAssessment(rec, rec.Submissions[0], rec.Products[0])

	assert.Nil(t, a.ApplicationType)
	assert.Nil(t, a.SubmissionDate)
	assert.Nil(t, a.GenericName)
	assert.Nil(t, a.Manufacturer)
	assert.Equal(t, "", a.Strength)
	assert.Equal(t, "No", a.ReferenceDrug)

	snap := a.JSONData.GetValue()
	assert.Nil(t, snap.OpenFDA)
	assert.Equal(t, "021234", snap.ApplicationNumber)
}

func TestNewLabelRow(t *testing.T) {
	rec := models.LabelRecord{
		SplID:    "spl-1",
		SplSetID: "set-1",
		OpenFDA: models.OpenFDA{
			ApplicationNumber: models.FlexStrings{"NDA021234"},
			GenericName:       models.FlexStrings{"aspirin"},
			ManufacturerName:  models.FlexStrings{"ACME MFG"},
			BrandName:         models.FlexStrings{"BRANDA"},
		},
		IndicationsAndUsage: models.FlexStrings{"For relief of minor aches."},
	}

	row := NewLabelRow(rec)

	assert.Equal(t, "spl-1", row.SplID)
	assert.Equal(t, "set-1", row.SplSetID)
	assert.Equal(t, "NDA021234", row.RegistrationNumber)
	require.NotNil(t, row.GenericNameLabel)
	assert.Equal(t, "aspirin", *row.GenericNameLabel)
	require.NotNil(t, row.IndicationsAndUsage)
	assert.Equal(t, "For relief of minor aches.", *row.IndicationsAndUsage)
}

func TestNewLabelRow_MissingIdentifiers(t *testing.T) {
	row := NewLabelRow(models.LabelRecord{SplSetID: "set-1"})
	assert.Equal(t, "", row.SplID)
	assert.Equal(t, "", row.RegistrationNumber)

	row = NewLabelRow(models.LabelRecord{SplID: "spl-1", SplSetID: "set-1"})
	assert.Equal(t, "", row.RegistrationNumber)
	assert.Nil(t, row.BrandName)
}

func TestNewLabelRow_Truncation(t *testing.T) {
	long := strings.Repeat("x", 500)
	rec := models.LabelRecord{
		SplID:    long,
		SplSetID: long,
		OpenFDA: models.OpenFDA{
			ApplicationNumber: models.FlexStrings{long},
			GenericName:       models.FlexStrings{long},
		},
	}

	row := NewLabelRow(rec)

	assert.Len(t, row.SplID, 225)
	assert.Len(t, row.SplSetID, 225)
	assert.Len(t, row.RegistrationNumber, 100)
	require.NotNil(t, row.GenericNameLabel)
	assert.Len(t, *row.GenericNameLabel, 255)
}
