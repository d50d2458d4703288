// Package ui exposes the web surface: upload, preview, category chart
// data and insight generation. All derived state lives in one in-memory
// snapshot replaced atomically per upload; nothing is persisted.
package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"datalens/internal/config"
	"datalens/internal/ingest"
	"datalens/internal/profile"
	"datalens/models"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// correlationPairs is how many top correlated numeric pairs are kept per
// snapshot for the insight payload.
const correlationPairs = 5

// InsightGenerator is the single outbound dependency of the UI layer.
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, req *models.InsightRequest) (*models.InsightResult, error)
}

// Snapshot holds everything derived from one uploaded file. A new upload
// builds a complete replacement before it becomes visible to handlers.
type Snapshot struct {
	ID           string
	Table        *ingest.Table
	Profiles     []models.ColumnProfile
	Summary      models.DatasetSummary
	Correlations []models.CorrelatedPair
	UploadedAt   time.Time
}

// Server is the web server for the dataset insight UI.
type Server struct {
	router    *gin.Engine
	cfg       *config.Config
	agent     InsightGenerator
	reader    *ingest.Reader
	profiler  *profile.Profiler
	templates *template.Template

	mu       sync.RWMutex
	snapshot *Snapshot

	// Collapses concurrent insight generations for the same snapshot.
	// The UI also disables the trigger while a request is pending.
	insightGroup singleflight.Group
}

// NewServer creates and wires the web server.
func NewServer(cfg *config.Config, agent InsightGenerator) (*Server, error) {
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"minInt": func(a, b int) int {
			if a < b {
				return a
			}
			return b
		},
		"pct": func(part, total int) string {
			if total == 0 {
				return "0%"
			}
			return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
		},
	}

	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.Default(),
		cfg:       cfg,
		agent:     agent,
		reader:    ingest.NewReader(cfg.Ingest.MaxDataRows),
		profiler:  profile.NewProfiler(cfg.Profile.SampleSize),
		templates: templates,
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.StaticFS("/static", staticFS())

	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)

	s.router.POST("/api/datasets/upload", s.handleUpload)
	s.router.GET("/api/datasets/categories", s.handleCategories)
	s.router.POST("/api/insights", s.handleInsights)
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	log.Printf("[Server] Starting dataset insight server on %s", addr)
	return s.router.Run(addr)
}

func staticFS() http.FileSystem {
	sub, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// currentSnapshot returns the active snapshot, or nil before any upload.
func (s *Server) currentSnapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// replaceSnapshot swaps in a fresh snapshot. Everything derived from the
// previous upload (profiles, summary, chart data, insights held by the
// client) is superseded at once.
func (s *Server) replaceSnapshot(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}
