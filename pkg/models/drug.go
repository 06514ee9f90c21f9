// Package models defines the raw bulk-data records and the destination row shapes.
package models

import "encoding/json"

// FlexStrings absorbs openFDA auxiliary fields, which are inconsistently
// encoded as a scalar string or an array of strings across records. Values
// that are neither decode to nil rather than failing the whole record.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*f = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexStrings{s}
		return nil
	}
	*f = nil
	return nil
}

// OpenFDA holds the auxiliary cross-reference block attached to drug and
// label records.
type OpenFDA struct {
	ApplicationNumber FlexStrings `json:"application_number,omitempty"`
	BrandName         FlexStrings `json:"brand_name,omitempty"`
	GenericName       FlexStrings `json:"generic_name,omitempty"`
	ManufacturerName  FlexStrings `json:"manufacturer_name,omitempty"`
	ProductNDC        FlexStrings `json:"product_ndc,omitempty"`
	Route             FlexStrings `json:"route,omitempty"`
	SubstanceName     FlexStrings `json:"substance_name,omitempty"`
}

// IsEmpty reports whether no auxiliary data was present on the record.
func (o OpenFDA) IsEmpty() bool {
	return len(o.ApplicationNumber) == 0 && len(o.BrandName) == 0 &&
		len(o.GenericName) == 0 && len(o.ManufacturerName) == 0 &&
		len(o.ProductNDC) == 0 && len(o.Route) == 0 && len(o.SubstanceName) == 0
}

// DrugRecord is one raw application record from the regulatory bulk snapshot.
// A record with no submissions or no products expands to zero rows.
type DrugRecord struct {
	ApplicationNumber string       `json:"application_number"`
	SponsorName       string       `json:"sponsor_name"`
	Submissions       []Submission `json:"submissions,omitempty"`
	Products          []Product    `json:"products,omitempty"`
	OpenFDA           OpenFDA      `json:"openfda,omitempty"`
}

// Submission is one procedural filing under an application.
type Submission struct {
	SubmissionType       string `json:"submission_type"`
	SubmissionNumber     string `json:"submission_number"`
	SubmissionStatus     string `json:"submission_status,omitempty"`
	SubmissionStatusDate string `json:"submission_status_date,omitempty"` // 8-digit YYYYMMDD when present
	ReviewPriority       string `json:"review_priority,omitempty"`
	SubmissionClassCode  string `json:"submission_class_code,omitempty"`
}

// Product is one product variant covered by an application.
type Product struct {
	ProductNumber     string             `json:"product_number"`
	BrandName         string             `json:"brand_name"`
	DosageForm        string             `json:"dosage_form"`
	Route             string             `json:"route,omitempty"`
	MarketingStatus   string             `json:"marketing_status,omitempty"`
	ReferenceDrug     string             `json:"reference_drug,omitempty"` // "Yes" or "No"
	ReferenceStandard string             `json:"reference_standard,omitempty"`
	TECode            string             `json:"te_code,omitempty"`
	ActiveIngredients []ActiveIngredient `json:"active_ingredients,omitempty"`
}

// ActiveIngredient is a (name, strength) pair on a product.
type ActiveIngredient struct {
	Name     string `json:"name"`
	Strength string `json:"strength,omitempty"`
}
