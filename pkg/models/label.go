package models

import "time"

// LabelRecord is one raw structured product label from the label bulk shards.
type LabelRecord struct {
	SplID               string      `json:"id"`
	SplSetID            string      `json:"set_id"`
	Version             string      `json:"version,omitempty"`
	EffectiveTime       string      `json:"effective_time,omitempty"`
	IndicationsAndUsage FlexStrings `json:"indications_and_usage,omitempty"`
	OpenFDA             OpenFDA     `json:"openfda,omitempty"`
}

// LabelRow is the destination shape for source.usa_drug_label. The validate
// tags enforce the validity gate: rows missing any of the three key
// identifiers are skipped before they reach storage.
type LabelRow struct {
	SplID               string  `json:"spl_id" db:"spl_id" validate:"required,max=225"`
	SplSetID            string  `json:"spl_set_id" db:"spl_set_id" validate:"required,max=225"`
	RegistrationNumber  string  `json:"registration_number" db:"registration_number" validate:"required,max=100"`
	GenericNameLabel    *string `json:"generic_name_label,omitempty" db:"generic_name_label" validate:"omitempty,max=255"`
	ManufacturerLabel   *string `json:"manufacturer_label,omitempty" db:"manufacturer_label" validate:"omitempty,max=255"`
	BrandName           *string `json:"brand_name,omitempty" db:"brand_name" validate:"omitempty,max=255"`
	IndicationsAndUsage *string `json:"indications_and_usage,omitempty" db:"indications_and_usage"`
}

// LabelKey identifies a label row for logging.
func (r LabelRow) Key() string {
	return r.SplID + "/" + r.SplSetID + "/" + r.RegistrationNumber
}

// StoredLabel is a persisted label row.
type StoredLabel struct {
	ID int64 `json:"id" db:"id"`
	LabelRow
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
