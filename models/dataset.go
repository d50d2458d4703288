package models

// ColumnType classifies the values of one column. The set is closed;
// profiling always assigns exactly one of the three variants.
type ColumnType string

const (
	ColumnNumber ColumnType = "number"
	ColumnDate   ColumnType = "date"
	ColumnString ColumnType = "string"
)

// NumericSummary holds descriptive statistics for a number column.
type NumericSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// ColumnProfile is the per-column result of profiling: inferred type plus
// missing-value count. Numeric is only set for number columns.
type ColumnProfile struct {
	Name         string          `json:"name"`
	InferredType ColumnType      `json:"inferredType"`
	MissingCount int             `json:"missingCount"`
	Numeric      *NumericSummary `json:"numeric,omitempty"`
}

// DatasetSummary aggregates all column profiles for one table.
// NumericColumns + CategoricalColumns + DateColumns == ColumnCount and
// TotalMissing equals the sum of the per-column missing counts.
type DatasetSummary struct {
	RowCount           int `json:"rowCount"`
	ColumnCount        int `json:"columnCount"`
	NumericColumns     int `json:"numericColumns"`
	CategoricalColumns int `json:"categoricalColumns"`
	DateColumns        int `json:"dateColumns"`
	TotalMissing       int `json:"totalMissing"`
}

// CategoryTally is one frequency-chart entry for a chosen column.
type CategoryTally struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CorrelatedPair names two number columns and their Pearson correlation
// over rows where both values parse.
type CorrelatedPair struct {
	ColumnA     string  `json:"columnA"`
	ColumnB     string  `json:"columnB"`
	Correlation float64 `json:"correlation"`
}

// InsightRequest is the POST /api/insights payload. Only computed
// statistics and the visible preview sample are forwarded, never the full
// raw dataset.
type InsightRequest struct {
	DatasetSummary  *DatasetSummary  `json:"datasetSummary"`
	ColumnSummaries []ColumnProfile  `json:"columnSummaries"`
	SampleRows      [][]string       `json:"sampleRows"`
	Correlations    []CorrelatedPair `json:"correlations,omitempty"`
}

// InsightResult is the exact reply shape required from the model: a
// single JSON object with these three text fields and nothing else.
type InsightResult struct {
	Overview        string `json:"overview"`
	KeyFindings     string `json:"keyFindings"`
	Recommendations string `json:"recommendations"`
}
