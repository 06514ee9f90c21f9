package flatten

import (
	"github.com/quriousri/foxglove/pkg/database"
	"github.com/quriousri/foxglove/pkg/models"
	"github.com/quriousri/foxglove/pkg/normalizers"
)

// NewAssessment builds the flattened destination row for one
// (record, submission, product) triple. All field extraction is total; the
// audit snapshot is always populated regardless of which scalar extractions
// produced values.
func NewAssessment(record models.DrugRecord, sub models.Submission, prod models.Product) models.Assessment {
	var openFDA *models.OpenFDA
	if !record.OpenFDA.IsEmpty() {
		o := record.OpenFDA
		openFDA = &o
	}

	referenceDrug := prod.ReferenceDrug
	if referenceDrug == "" {
		referenceDrug = "No"
	}

	snapshot := models.AssessmentSnapshot{
		ApplicationNumber: record.ApplicationNumber,
		ProductNumber:     prod.ProductNumber,
		Submission:        sub,
		Product:           prod,
		OpenFDA:           openFDA,
		SponsorName:       record.SponsorName,
	}

	return models.Assessment{
		CountryOfOrigin:     models.CountryOfOriginUSA,
		ProductName:         prod.BrandName,
		IngredientName:      normalizers.JoinIngredientNames(prod.ActiveIngredients),
		RegistrationNumber:  record.ApplicationNumber,
		RegistrationHolder:  record.SponsorName,
		Manufacturer:        normalizers.FirstOrNull(record.OpenFDA.ManufacturerName),
		GenericName:         normalizers.FirstOrNull(record.OpenFDA.GenericName),
		ReferenceDrug:       referenceDrug,
		DosageForm:          prod.DosageForm,
		Strength:            normalizers.JoinIngredientStrengths(prod.ActiveIngredients),
		RouteAdministration: prod.Route,
		MarketingStatus:     prod.MarketingStatus,
		ApplicationType:     normalizers.ApplicationTypePrefix(record.ApplicationNumber),
		SubmissionType:      sub.SubmissionType,
		SubmissionNumber:    sub.SubmissionNumber,
		SubmissionDate:      normalizers.FormatSubmissionDate(sub.SubmissionStatusDate),
		JSONData:            database.NewJSONB(snapshot),
	}
}
