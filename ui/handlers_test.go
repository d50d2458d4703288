package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/ai"
	"datalens/internal/config"
	apperrors "datalens/internal/errors"
	"datalens/models"
)

// stubAgent lets handler tests script the insight outcome.
type stubAgent struct {
	result *models.InsightResult
	err    error
	calls  int
}

func (s *stubAgent) GenerateInsights(ctx context.Context, req *models.InsightRequest) (*models.InsightResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if req.DatasetSummary == nil {
		return nil, apperrors.InvalidInput("datasetSummary is required")
	}
	return s.result, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AI:     config.AIConfig{OpenAIKey: "test", OpenAIModel: "gpt-4o-mini", PromptsDir: "./prompts"},
		Server: config.ServerConfig{Port: "8080", GinMode: gin.TestMode},
		Profile: config.ProfileConfig{
			SampleSize:    50,
			TopCategories: 15,
		},
		Ingest: config.IngestConfig{
			MaxDataRows: 5000,
			PreviewRows: 19,
			MaxFileSize: 25 * 1024 * 1024,
		},
	}
}

func newTestServer(t *testing.T, agent InsightGenerator) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server, err := NewServer(testConfig(), agent)
	require.NoError(t, err)
	return server
}

func uploadCSV(t *testing.T, server *Server, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("dataset", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

func TestUploadAndProfile(t *testing.T) {
	server := newTestServer(t, &stubAgent{})

	w := uploadCSV(t, server, "people.csv", "age,city\n34,Oslo\n,Oslo\n29,Bergen\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		SnapshotID  string                 `json:"snapshotId"`
		Headers     []string               `json:"headers"`
		PreviewRows [][]string             `json:"previewRows"`
		Profiles    []models.ColumnProfile `json:"profiles"`
		Summary     models.DatasetSummary  `json:"summary"`
		Truncated   bool                   `json:"truncated"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.SnapshotID)
	assert.Equal(t, []string{"age", "city"}, resp.Headers)
	assert.Len(t, resp.PreviewRows, 3)

	require.Len(t, resp.Profiles, 2)
	assert.Equal(t, models.ColumnNumber, resp.Profiles[0].InferredType)
	assert.Equal(t, 1, resp.Profiles[0].MissingCount)
	assert.Equal(t, models.ColumnString, resp.Profiles[1].InferredType)

	assert.Equal(t, 3, resp.Summary.RowCount)
	assert.Equal(t, resp.Summary.ColumnCount,
		resp.Summary.NumericColumns+resp.Summary.CategoricalColumns+resp.Summary.DateColumns)
}

func TestUploadReplacesSnapshot(t *testing.T) {
	server := newTestServer(t, &stubAgent{})

	uploadCSV(t, server, "a.csv", "x\n1\n")
	first := server.currentSnapshot()
	require.NotNil(t, first)

	uploadCSV(t, server, "b.csv", "y\nfoo\n")
	second := server.currentSnapshot()
	require.NotNil(t, second)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []string{"y"}, second.Table.Headers)
}

func TestUploadRejectsExtension(t *testing.T) {
	server := newTestServer(t, &stubAgent{})

	w := uploadCSV(t, server, "malware.exe", "x\n1\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeInvalidInput)
}

func TestUploadRejectsLegacyWorkbook(t *testing.T) {
	server := newTestServer(t, &stubAgent{})

	w := uploadCSV(t, server, "report.xls", "x\n1\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeInvalidInput)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	server := newTestServer(t, &stubAgent{})

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/upload", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoriesEndpoint(t *testing.T) {
	server := newTestServer(t, &stubAgent{})
	uploadCSV(t, server, "people.csv", "age,city\n34,Oslo\n,Oslo\n29,Bergen\n")

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/categories?column=city", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Column  string                 `json:"column"`
		Tallies []models.CategoryTally `json:"tallies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tallies, 2)
	assert.Equal(t, models.CategoryTally{Category: "Oslo", Count: 2}, resp.Tallies[0])
	assert.Equal(t, models.CategoryTally{Category: "Bergen", Count: 1}, resp.Tallies[1])
}

func TestCategoriesUnknownColumnIsEmpty(t *testing.T) {
	server := newTestServer(t, &stubAgent{})
	uploadCSV(t, server, "people.csv", "city\nOslo\n")

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/categories?column=country", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tallies []models.CategoryTally `json:"tallies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Tallies)
}

func TestCategoriesWithoutDataset(t *testing.T) {
	server := newTestServer(t, &stubAgent{})

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/categories?column=city", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeNotFound)
}

func postInsights(server *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/insights", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

func TestInsightsSuccess(t *testing.T) {
	agent := &stubAgent{result: &models.InsightResult{
		Overview:        "Small dataset.",
		KeyFindings:     "- one missing age",
		Recommendations: "Collect more rows.",
	}}
	server := newTestServer(t, agent)

	body := `{"datasetSummary":{"rowCount":3,"columnCount":2,"numericColumns":1,"categoricalColumns":1,"dateColumns":0,"totalMissing":1},"columnSummaries":[{"name":"age","inferredType":"number","missingCount":1},{"name":"city","inferredType":"string","missingCount":0}],"sampleRows":[["34","Oslo"]]}`
	w := postInsights(server, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view InsightView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Small dataset.", view.Overview)
	assert.Contains(t, view.HTML.KeyFindings, "<li>")
	assert.Equal(t, 1, agent.calls)
}

func TestInsightsInputErrorIs400(t *testing.T) {
	server := newTestServer(t, &stubAgent{})

	// Missing datasetSummary: rejected without contacting the provider.
	w := postInsights(server, `{"columnSummaries":[{"name":"age","inferredType":"number","missingCount":0}],"sampleRows":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeInvalidInput)
}

func TestInsightsMalformedBodyIs400(t *testing.T) {
	server := newTestServer(t, &stubAgent{})
	w := postInsights(server, "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsightsParseErrorIs502(t *testing.T) {
	agent := &stubAgent{err: &ai.ParseError{Content: "not json"}}
	server := newTestServer(t, agent)

	w := postInsights(server, `{"datasetSummary":{"rowCount":1,"columnCount":1},"columnSummaries":[{"name":"x","inferredType":"string","missingCount":0}],"sampleRows":[]}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeParseError)
	// Raw model output stays server-side.
	assert.NotContains(t, w.Body.String(), "not json")
}

func TestInsightsUpstreamErrorIs502(t *testing.T) {
	agent := &stubAgent{err: &ai.UpstreamError{StatusCode: 500, Message: "provider down"}}
	server := newTestServer(t, agent)

	w := postInsights(server, `{"datasetSummary":{"rowCount":1,"columnCount":1},"columnSummaries":[{"name":"x","inferredType":"string","missingCount":0}],"sampleRows":[]}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeExternalService)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t, &stubAgent{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIndexRendersWithoutData(t *testing.T) {
	server := newTestServer(t, &stubAgent{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Dataset Insights")
}
