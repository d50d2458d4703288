package profile

import (
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"datalens/models"
)

// EnrichNumeric attaches descriptive statistics to every number column
// profile. Values that fail to parse (possible past the inference
// sample) are skipped rather than failing the column.
func EnrichNumeric(profiles []models.ColumnProfile, rows [][]string) {
	for i := range profiles {
		if profiles[i].InferredType != models.ColumnNumber {
			continue
		}
		data := numericColumn(rows, i)
		if len(data) == 0 {
			continue
		}

		mean, err := stats.Mean(data)
		if err != nil {
			continue
		}
		stdDev, _ := stats.StandardDeviation(data)
		min, _ := stats.Min(data)
		max, _ := stats.Max(data)
		median, _ := stats.Median(data)

		profiles[i].Numeric = &models.NumericSummary{
			Mean:   mean,
			StdDev: stdDev,
			Min:    min,
			Max:    max,
			Median: median,
		}
	}
}

// Correlations computes Pearson correlation for every pair of number
// columns over the rows where both cells parse, and returns the topN
// pairs by absolute correlation.
func Correlations(profiles []models.ColumnProfile, headers []string, rows [][]string, topN int) []models.CorrelatedPair {
	numeric := make([]int, 0, len(profiles))
	for i, p := range profiles {
		if p.InferredType == models.ColumnNumber {
			numeric = append(numeric, i)
		}
	}
	if len(numeric) < 2 {
		return nil
	}

	pairs := make([]models.CorrelatedPair, 0)
	for a := 0; a < len(numeric); a++ {
		for b := a + 1; b < len(numeric); b++ {
			x, y := alignedColumns(rows, numeric[a], numeric[b])
			if len(x) < 3 {
				continue
			}
			r := stat.Correlation(x, y, nil)
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, models.CorrelatedPair{
				ColumnA:     headers[numeric[a]],
				ColumnB:     headers[numeric[b]],
				Correlation: r,
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].Correlation) > math.Abs(pairs[j].Correlation)
	})
	if topN > 0 && len(pairs) > topN {
		pairs = pairs[:topN]
	}
	return pairs
}

// numericColumn extracts the parseable values of column i.
func numericColumn(rows [][]string, i int) []float64 {
	data := make([]float64, 0, len(rows))
	for _, row := range rows {
		if i >= len(row) {
			continue
		}
		if v, ok := parseNumber(row[i]); ok {
			data = append(data, v)
		}
	}
	return data
}

// alignedColumns extracts rows where both columns parse as numbers.
func alignedColumns(rows [][]string, a, b int) ([]float64, []float64) {
	x := make([]float64, 0, len(rows))
	y := make([]float64, 0, len(rows))
	for _, row := range rows {
		if a >= len(row) || b >= len(row) {
			continue
		}
		va, okA := parseNumber(row[a])
		vb, okB := parseNumber(row[b])
		if okA && okB {
			x = append(x, va)
			y = append(y, vb)
		}
	}
	return x, y
}

func parseNumber(v string) (float64, bool) {
	normalized := normalizeDecimal(v)
	if !numericPattern.MatchString(normalized) {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
