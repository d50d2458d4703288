package profile

import (
	"regexp"
	"strings"
	"time"

	"datalens/models"
)

// DefaultSampleSize is how many non-blank values type inference examines
// per column. Configurable via PROFILE_SAMPLE_SIZE; the value itself is
// inherited behavior, not an invariant.
const DefaultSampleSize = 50

var numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// dateLayouts is the lenient set of calendar formats accepted during
// inference, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// InferType classifies a column from its first sampleSize non-blank
// values. All-numeric wins over all-date; anything else is string, as is
// a column with no non-blank values at all.
//
// The decision is deliberately sample-based: a column whose first
// sampleSize non-blank values are numeric is classified number even if
// later values are not.
func InferType(values []string, sampleSize int) models.ColumnType {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	sample := make([]string, 0, sampleSize)
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		sample = append(sample, v)
		if len(sample) == sampleSize {
			break
		}
	}

	if len(sample) == 0 {
		return models.ColumnString
	}

	allNumeric := true
	for _, v := range sample {
		if !isNumeric(v) {
			allNumeric = false
			break
		}
	}
	if allNumeric {
		return models.ColumnNumber
	}

	allDates := true
	for _, v := range sample {
		if !isDate(v) {
			allDates = false
			break
		}
	}
	if allDates {
		return models.ColumnDate
	}

	return models.ColumnString
}

// isNumeric reports whether the value matches the numeric pattern after
// normalizing a single decimal comma to a decimal point.
func isNumeric(v string) bool {
	return numericPattern.MatchString(normalizeDecimal(v))
}

// normalizeDecimal rewrites "3,14" as "3.14". Values with more than one
// comma or a mixed comma/point notation are left alone and fail the
// numeric match.
func normalizeDecimal(v string) string {
	v = strings.TrimSpace(v)
	if strings.Count(v, ",") == 1 && !strings.Contains(v, ".") {
		return strings.Replace(v, ",", ".", 1)
	}
	return v
}

// isDate reports whether the value parses under any accepted layout.
func isDate(v string) bool {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
