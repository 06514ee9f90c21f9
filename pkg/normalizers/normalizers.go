// Package normalizers provides the pure field transformations applied while
// flattening raw regulatory records. Every function is total: malformed input
// degrades to nil or empty, never to an error.
package normalizers

import (
	"regexp"
	"strings"

	"github.com/quriousri/foxglove/pkg/models"
)

var applicationTypeRe = regexp.MustCompile(`^([A-Z]+)`)

// ReformatDate converts an 8-digit YYYYMMDD date to YYYY-MM-DD. Anything that
// is not exactly 8 characters fails closed to nil. The split is positional;
// no calendar validation is performed.
func ReformatDate(raw string) *string {
	if len(raw) != 8 {
		return nil
	}
	out := raw[:4] + "-" + raw[4:6] + "-" + raw[6:8]
	return &out
}

// FormatSubmissionDate converts an 8-digit YYYYMMDD date to the DD-MM-YYYY
// form stored in the submission_date column. Same fail-closed rule as
// ReformatDate.
func FormatSubmissionDate(raw string) *string {
	if len(raw) != 8 {
		return nil
	}
	out := raw[6:8] + "-" + raw[4:6] + "-" + raw[:4]
	return &out
}

// JoinIngredientStrengths renders active ingredients as "NAME-STRENGTH"
// pairs joined with ", ". Ingredients with a name but no strength contribute
// just the name; nameless ingredients are dropped. Input order is preserved.
func JoinIngredientStrengths(ingredients []models.ActiveIngredient) string {
	if len(ingredients) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		switch {
		case ing.Name != "" && ing.Strength != "":
			parts = append(parts, ing.Name+"-"+ing.Strength)
		case ing.Name != "":
			parts = append(parts, ing.Name)
		}
	}
	return strings.Join(parts, ", ")
}

// JoinIngredientNames renders active ingredient names joined with ", ",
// preserving input order.
func JoinIngredientNames(ingredients []models.ActiveIngredient) string {
	if len(ingredients) == 0 {
		return ""
	}
	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.Name != "" {
			names = append(names, ing.Name)
		}
	}
	return strings.Join(names, ", ")
}

// ApplicationTypePrefix extracts the leading run of uppercase letters from a
// registration number ("NDA021234" -> "NDA"). Returns nil when the number is
// empty or starts with a non-letter.
func ApplicationTypePrefix(registrationNumber string) *string {
	if registrationNumber == "" {
		return nil
	}
	match := applicationTypeRe.FindStringSubmatch(registrationNumber)
	if match == nil {
		return nil
	}
	return &match[1]
}

// FirstOrNull picks the first value of a scalar-or-array openFDA field, or
// nil when the field is absent or empty.
func FirstOrNull(values models.FlexStrings) *string {
	if len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
