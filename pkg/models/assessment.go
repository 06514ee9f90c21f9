package models

import (
	"fmt"
	"time"

	"github.com/quriousri/foxglove/pkg/database"
)

// CountryOfOriginUSA is the lookup code for the United States in the shared
// country_of_origin reference table.
const CountryOfOriginUSA = 6

// Assessment is one flattened (submission, product) fact destined for
// drug.drug_predicate_assessments. Field order matches the table schema.
type Assessment struct {
	ID                  int64                              `json:"id" db:"id"`
	CountryOfOrigin     int                                `json:"country_of_origin" db:"country_of_origin"`
	ProductName         string                             `json:"product_name" db:"product_name"`
	IngredientName      string                             `json:"ingredient_name" db:"ingredient_name"`
	RegistrationNumber  string                             `json:"registration_number" db:"registration_number"`
	RegistrationHolder  string                             `json:"registration_holder" db:"registration_holder"`
	Manufacturer        *string                            `json:"manufacturer,omitempty" db:"manufacturer"`
	GenericName         *string                            `json:"generic_name,omitempty" db:"generic_name"`
	ReferenceDrug       string                             `json:"reference_drug" db:"reference_drug"`
	DosageForm          string                             `json:"dosage_form" db:"dosage_form"`
	Strength            string                             `json:"strength" db:"strength"`
	RouteAdministration string                             `json:"route_administration" db:"route_administration"`
	MarketingStatus     string                             `json:"marketing_status" db:"marketing_status"`
	ApprovalDate        *string                            `json:"approval_date,omitempty" db:"approval_date"`
	ApplicationType     *string                            `json:"application_type,omitempty" db:"application_type"`
	SubmissionType      string                             `json:"submission_type" db:"submission_type"`
	SubmissionNumber    string                             `json:"submission_number" db:"submission_number"`
	SubmissionDate      *string                            `json:"submission_date,omitempty" db:"submission_date"`
	JSONData            database.JSONB[AssessmentSnapshot] `json:"json_data" db:"json_data"`
	CreatedAt           time.Time                          `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time                          `json:"updated_at" db:"updated_at"`
}

// AssessmentSnapshot is the audit payload stored alongside every row. It
// always embeds the originating submission, product, and application context,
// independent of which scalar extractions succeeded.
type AssessmentSnapshot struct {
	ApplicationNumber string     `json:"application_number"`
	ProductNumber     string     `json:"product_number"`
	Submission        Submission `json:"submission"`
	Product           Product    `json:"product"`
	OpenFDA           *OpenFDA   `json:"openfda"`
	SponsorName       string     `json:"sponsor_name"`
}

// AssessmentKey is the natural key identifying a logical
// registration-submission-product fact. All components compare exactly except
// SubmissionDate, which is null-safe: two rows with no date match on that
// component.
type AssessmentKey struct {
	RegistrationNumber string
	ProductName        string
	SubmissionType     string
	SubmissionNumber   string
	SubmissionDate     *string
	Strength           string
	DosageForm         string
}

// NaturalKey derives the duplicate-detection key for the row.
func (a *Assessment) NaturalKey() AssessmentKey {
	return AssessmentKey{
		RegistrationNumber: a.RegistrationNumber,
		ProductName:        a.ProductName,
		SubmissionType:     a.SubmissionType,
		SubmissionNumber:   a.SubmissionNumber,
		SubmissionDate:     a.SubmissionDate,
		Strength:           a.Strength,
		DosageForm:         a.DosageForm,
	}
}

func (k AssessmentKey) String() string {
	date := "<null>"
	if k.SubmissionDate != nil {
		date = *k.SubmissionDate
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s", k.RegistrationNumber, k.ProductName, k.SubmissionType, k.SubmissionNumber, date)
}
