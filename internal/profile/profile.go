// Package profile implements single-pass column profiling over an
// in-memory table: per-column type inference and missing-value counts,
// the dataset-level aggregate, and category frequency tallies.
package profile

import (
	"strings"

	"datalens/models"
)

// Profiler profiles tables using configurable sampling constants.
type Profiler struct {
	SampleSize int
}

// NewProfiler creates a profiler. sampleSize <= 0 falls back to the
// default.
func NewProfiler(sampleSize int) *Profiler {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Profiler{SampleSize: sampleSize}
}

// Profile produces one ColumnProfile per header position and the
// dataset-level summary. It never fails on well-formed tabular input:
// absent cells count as empty text and a fully empty column comes back
// as string with MissingCount equal to the row count.
func (p *Profiler) Profile(headers []string, rows [][]string) ([]models.ColumnProfile, models.DatasetSummary) {
	profiles := make([]models.ColumnProfile, 0, len(headers))
	summary := models.DatasetSummary{
		RowCount:    len(rows),
		ColumnCount: len(headers),
	}

	for i, name := range headers {
		values := columnValues(rows, i)

		missing := 0
		for _, v := range values {
			if strings.TrimSpace(v) == "" {
				missing++
			}
		}

		inferred := InferType(values, p.SampleSize)

		profiles = append(profiles, models.ColumnProfile{
			Name:         name,
			InferredType: inferred,
			MissingCount: missing,
		})

		summary.TotalMissing += missing
		switch inferred {
		case models.ColumnNumber:
			summary.NumericColumns++
		case models.ColumnDate:
			summary.DateColumns++
		default:
			summary.CategoricalColumns++
		}
	}

	return profiles, summary
}

// columnValues gathers column i across all rows, substituting empty text
// for absent cells in short rows.
func columnValues(rows [][]string, i int) []string {
	values := make([]string, len(rows))
	for r, row := range rows {
		if i < len(row) {
			values[r] = row[i]
		}
	}
	return values
}
