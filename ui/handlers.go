package ui

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"datalens/ai"
	apperrors "datalens/internal/errors"
	"datalens/internal/profile"
	"datalens/models"
)

var allowedExtensions = []string{".csv", ".tsv", ".txt", ".xlsx"}

// handleIndex renders the single-page UI.
func (s *Server) handleIndex(c *gin.Context) {
	snap := s.currentSnapshot()

	data := gin.H{
		"HasData":     snap != nil,
		"PreviewRows": s.cfg.Ingest.PreviewRows,
	}
	if snap != nil {
		data["Headers"] = snap.Table.Headers
		data["Rows"] = previewRows(snap, s.cfg.Ingest.PreviewRows)
		data["Profiles"] = snap.Profiles
		data["Summary"] = snap.Summary
		data["Truncated"] = snap.Table.Truncated
	}

	s.renderTemplate(c, "index.html", data)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleUpload accepts a tabular file, profiles it and installs a fresh
// snapshot. Profiling never fails on well-formed tabular input, so the
// only error paths here are upload validation and parsing.
func (s *Server) handleUpload(c *gin.Context) {
	log.Printf("[handleUpload] Starting file upload process")

	file, header, err := c.Request.FormFile("dataset")
	if err != nil {
		log.Printf("[handleUpload] FAILED - No file uploaded: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded", "code": apperrors.CodeInvalidInput})
		return
	}
	defer file.Close()

	if header.Size > s.cfg.Ingest.MaxFileSize {
		log.Printf("[handleUpload] FAILED - File too large: %d bytes", header.Size)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("File size (%.1f MB) exceeds the %d MB limit",
				float64(header.Size)/(1024*1024), s.cfg.Ingest.MaxFileSize/(1024*1024)),
			"code": apperrors.CodeInvalidInput,
		})
		return
	}

	filename := header.Filename
	if !hasAllowedExtension(filename) {
		log.Printf("[handleUpload] FAILED - Invalid file extension: %s", filename)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Only delimited text (.csv, .tsv, .txt) and Excel (.xlsx) files are allowed",
			"code":  apperrors.CodeInvalidInput,
		})
		return
	}

	if contentType := header.Header.Get("Content-Type"); contentType != "" &&
		!strings.Contains(contentType, "csv") && !strings.Contains(contentType, "excel") &&
		!strings.Contains(contentType, "spreadsheet") && !strings.Contains(contentType, "text") &&
		!strings.Contains(contentType, "octet-stream") {
		// Browsers are unreliable about MIME types, so log rather than reject.
		log.Printf("[handleUpload] WARNING - Unexpected MIME type: %s for file: %s", contentType, filename)
	}

	table, err := s.reader.ReadTable(file, filename)
	if err != nil {
		log.Printf("[handleUpload] FAILED - Parsing failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to parse file: %v", err), "code": apperrors.CodeInvalidInput})
		return
	}

	profiles, summary := s.profiler.Profile(table.Headers, table.Rows)
	profile.EnrichNumeric(profiles, table.Rows)
	correlations := profile.Correlations(profiles, table.Headers, table.Rows, correlationPairs)

	snap := &Snapshot{
		ID:           uuid.New().String(),
		Table:        table,
		Profiles:     profiles,
		Summary:      summary,
		Correlations: correlations,
		UploadedAt:   time.Now(),
	}
	s.replaceSnapshot(snap)

	log.Printf("[handleUpload] Snapshot %s installed: %d columns, %d rows, %d missing",
		snap.ID, summary.ColumnCount, summary.RowCount, summary.TotalMissing)

	c.JSON(http.StatusOK, gin.H{
		"snapshotId":   snap.ID,
		"headers":      table.Headers,
		"previewRows":  previewRows(snap, s.cfg.Ingest.PreviewRows),
		"profiles":     profiles,
		"summary":      summary,
		"correlations": correlations,
		"truncated":    table.Truncated,
	})
}

// handleCategories returns the frequency tallies for one column of the
// current snapshot. An unknown column yields an empty list, not an error.
func (s *Server) handleCategories(c *gin.Context) {
	column := c.Query("column")
	if column == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "column query parameter is required", "code": apperrors.CodeInvalidInput})
		return
	}

	snap := s.currentSnapshot()
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no dataset uploaded", "code": apperrors.CodeNotFound})
		return
	}

	tallies := profile.TopCategories(snap.Table.Headers, snap.Table.Rows, column, s.cfg.Profile.TopCategories)
	c.JSON(http.StatusOK, gin.H{"column": column, "tallies": tallies})
}

// handleInsights forwards the computed statistics to the model provider
// and returns the parsed three-section result. Error classes map onto
// distinct status codes and error codes; nothing is retried here.
func (s *Server) handleInsights(c *gin.Context) {
	var req models.InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err), "code": apperrors.CodeInvalidInput})
		return
	}

	// Collapse duplicate in-flight generations for the same snapshot.
	key := "adhoc"
	if snap := s.currentSnapshot(); snap != nil {
		key = snap.ID
	}

	value, err, shared := s.insightGroup.Do(key, func() (interface{}, error) {
		return s.agent.GenerateInsights(c.Request.Context(), &req)
	})
	if shared {
		log.Printf("[handleInsights] Reused in-flight insight generation for snapshot %s", key)
	}
	if err != nil {
		s.renderInsightError(c, err)
		return
	}

	result := value.(*models.InsightResult)
	c.JSON(http.StatusOK, newInsightView(result))
}

// renderInsightError maps agent failures onto the error taxonomy: input
// errors are the caller's fault, parse failures are surfaced distinctly
// from upstream ones, and raw model output never reaches the client.
func (s *Server) renderInsightError(c *gin.Context, err error) {
	var parseErr *ai.ParseError
	var upstreamErr *ai.UpstreamError
	var noContent *ai.NoContentError

	switch {
	case apperrors.GetCode(err) == apperrors.CodeInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": apperrors.CodeInvalidInput})
	case errors.As(err, &parseErr):
		log.Printf("[handleInsights] Parse failure, offending content logged above")
		c.JSON(http.StatusBadGateway, gin.H{"error": "The model reply did not match the required format. Please try again.", "code": apperrors.CodeParseError})
	case errors.As(err, &noContent):
		c.JSON(http.StatusBadGateway, gin.H{"error": "The model returned no content. Please try again.", "code": apperrors.CodeExternalService})
	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": upstreamErr.Error(), "code": apperrors.CodeExternalService})
	default:
		log.Printf("[handleInsights] Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Insight generation failed", "code": apperrors.CodeInternalError})
	}
}

// previewRows returns the rows visible in the table preview.
func previewRows(snap *Snapshot, limit int) [][]string {
	rows := snap.Table.Rows
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func hasAllowedExtension(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
