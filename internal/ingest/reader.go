package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is the parsed form of one uploaded file: a header row plus data
// rows. Rows may be shorter than the header; absent cells are treated as
// empty text downstream.
type Table struct {
	Headers   []string
	Rows      [][]string
	Truncated bool
}

// Reader parses delimiter-separated text and xlsx workbooks into tables.
type Reader struct {
	MaxDataRows int
}

// NewReader creates a reader that discards data rows beyond maxDataRows.
func NewReader(maxDataRows int) *Reader {
	return &Reader{MaxDataRows: maxDataRows}
}

// ReadTable parses the uploaded file based on its extension. The first
// row is the header, empty lines are skipped, and rows beyond the cap are
// silently discarded (Truncated is set so callers can surface it).
func (r *Reader) ReadTable(src io.Reader, filename string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	log.Printf("[Ingest] Reading %s file: %s", ext, filename)

	switch ext {
	case ".xlsx":
		// Only the OOXML format; legacy OLE .xls workbooks are not
		// supported by the workbook parser.
		return r.readWorkbook(src)
	case ".csv", ".tsv", ".txt", "":
		return r.readDelimited(src, ext)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

// readDelimited parses delimiter-separated text. The delimiter is sniffed
// from the header line unless the extension pins it.
func (r *Reader) readDelimited(src io.Reader, ext string) (*Table, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	delimiter := ','
	if ext == ".tsv" {
		delimiter = '\t'
	} else {
		delimiter = sniffDelimiter(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // ragged rows are handled as absent cells
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var table Table
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse row: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}
		if table.Headers == nil {
			table.Headers = record
			continue
		}
		if len(table.Rows) >= r.MaxDataRows {
			table.Truncated = true
			continue
		}
		table.Rows = append(table.Rows, record)
	}

	if table.Headers == nil {
		return nil, fmt.Errorf("file contains no header row")
	}

	log.Printf("[Ingest] Parsed %d columns, %d data rows (delimiter %q, truncated=%t)",
		len(table.Headers), len(table.Rows), string(delimiter), table.Truncated)
	return &table, nil
}

// readWorkbook parses the first sheet of an xlsx workbook.
func (r *Reader) readWorkbook(src io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook contains no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	var table Table
	for _, record := range rows {
		if isBlankRecord(record) {
			continue
		}
		if table.Headers == nil {
			table.Headers = record
			continue
		}
		if len(table.Rows) >= r.MaxDataRows {
			table.Truncated = true
			continue
		}
		table.Rows = append(table.Rows, record)
	}

	if table.Headers == nil {
		return nil, fmt.Errorf("workbook contains no header row")
	}

	log.Printf("[Ingest] Parsed %d columns, %d data rows from sheet %s (truncated=%t)",
		len(table.Headers), len(table.Rows), sheets[0], table.Truncated)
	return &table, nil
}

// sniffDelimiter picks the candidate delimiter occurring most often in
// the header line. Defaults to comma.
func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}

	best := ','
	bestCount := bytes.Count(line, []byte{','})
	for _, candidate := range []byte{';', '\t', '|'} {
		if count := bytes.Count(line, []byte{candidate}); count > bestCount {
			best = rune(candidate)
			bestCount = count
		}
	}
	return best
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
