package flatten

import (
	"github.com/quriousri/foxglove/pkg/models"
	"github.com/quriousri/foxglove/pkg/normalizers"
)

// Column widths in source.usa_drug_label.
const (
	maxSplIDLen              = 225
	maxRegistrationNumberLen = 100
	maxLabelFieldLen         = 255
)

// NewLabelRow shapes a raw label record into its destination row, truncating
// oversize values to their column widths. It does not gate validity; callers
// validate the result and skip rows missing the key identifiers.
func NewLabelRow(rec models.LabelRecord) models.LabelRow {
	registrationNumber := ""
	if v := normalizers.FirstOrNull(rec.OpenFDA.ApplicationNumber); v != nil {
		registrationNumber = *v
	}

	return models.LabelRow{
		SplID:               truncate(rec.SplID, maxSplIDLen),
		SplSetID:            truncate(rec.SplSetID, maxSplIDLen),
		RegistrationNumber:  truncate(registrationNumber, maxRegistrationNumberLen),
		GenericNameLabel:    truncatePtr(normalizers.FirstOrNull(rec.OpenFDA.GenericName), maxLabelFieldLen),
		ManufacturerLabel:   truncatePtr(normalizers.FirstOrNull(rec.OpenFDA.ManufacturerName), maxLabelFieldLen),
		BrandName:           truncatePtr(normalizers.FirstOrNull(rec.OpenFDA.BrandName), maxLabelFieldLen),
		IndicationsAndUsage: normalizers.FirstOrNull(rec.IndicationsAndUsage),
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func truncatePtr(s *string, max int) *string {
	if s == nil {
		return nil
	}
	t := truncate(*s, max)
	return &t
}
