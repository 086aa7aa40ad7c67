// pkg/cleanse/operations.go
package cleanse

import (
	"strings"

	"github.com/retail-dw/conformance/pkg/model"
)

// Code-to-label lookup tables. Unmapped or blank input falls back to the
// n/a sentinel rather than raising an error, matching source behavior.

var maritalStatusLabels = map[string]string{
	"S": "Single",
	"M": "Married",
}

var genderLabels = map[string]string{
	"F": "Female",
	"M": "Male",
}

var countryLabels = map[string]string{
	"DE":  "Germany",
	"US":  "United States",
	"USA": "United States",
}

// extraIDPrefix is the known non-numeric prefix carried by ERP
// supplementary customer ids.
const extraIDPrefix = "NAS"

// trimField trims surrounding whitespace and records an operation when
// the value changed
func trimField(value, entity, field, rowKey string, ops *[]model.CleansingOperation) string {
	trimmed := strings.TrimSpace(value)
	if trimmed != value {
		*ops = append(*ops, model.NewCleansingOperation(
			entity, field, rowKey, "whitespace_trim", "surrounding_whitespace", value, trimmed))
	}
	return trimmed
}

// mapCode standardizes a single-letter code through a lookup table.
// Blank or unmapped input becomes the n/a sentinel.
func mapCode(value string, labels map[string]string, entity, field, rowKey string, ops *[]model.CleansingOperation) string {
	normalized := strings.ToUpper(strings.TrimSpace(value))

	label, ok := labels[normalized]
	if !ok {
		label = model.NotAvailable
	}

	if label != value {
		reason := "code_mapped"
		if !ok {
			reason = "unmapped_code"
		}
		*ops = append(*ops, model.NewCleansingOperation(
			entity, field, rowKey, "code_standardization", reason, value, label))
	}

	return label
}

// stripNonAlphanumeric removes separator characters from an identifier so
// it matches the customer master's business key format
func stripNonAlphanumeric(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripIDPrefix removes the known ERP id prefix when present
func stripIDPrefix(id string) string {
	trimmed := strings.TrimSpace(id)
	if strings.HasPrefix(trimmed, extraIDPrefix) {
		return trimmed[len(extraIDPrefix):]
	}
	return trimmed
}

// normalizeCountry maps country codes to full names. Blank input becomes
// the n/a sentinel; unknown values pass through trimmed.
func normalizeCountry(country string) string {
	trimmed := strings.TrimSpace(country)
	if trimmed == "" {
		return model.NotAvailable
	}

	if label, ok := countryLabels[strings.ToUpper(trimmed)]; ok {
		return label
	}

	return trimmed
}

func countryReason(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "blank_country"
	}
	return "code_mapped"
}

// standardizeGenderText standardizes free-text gender values
// (case-insensitive, trimmed). Anything outside the known forms becomes
// the n/a sentinel.
func standardizeGenderText(gender string) string {
	switch strings.ToUpper(strings.TrimSpace(gender)) {
	case "F", "FEMALE":
		return "Female"
	case "M", "MALE":
		return "Male"
	default:
		return model.NotAvailable
	}
}
