// Package main provides the analysis API server. It exposes the deal
// graph, loop/cycle/hub results, null-model comparison and weight
// sensitivity over HTTP, backed by either in-memory or PostgreSQL
// storage with an optional ClickHouse sink for null-model trials.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"circularity-lab/internal/analysis"
	"circularity-lab/internal/domain"
	"circularity-lab/internal/graph"
	"circularity-lab/internal/nullmodel"
	"circularity-lab/internal/observability"
	"circularity-lab/internal/report"
	"circularity-lab/internal/sensitivity"
	"circularity-lab/internal/storage"
	chstore "circularity-lab/internal/storage/clickhouse"
	"circularity-lab/internal/storage/memory"
	"circularity-lab/internal/storage/migrations"
	pgstore "circularity-lab/internal/storage/postgres"
)

// Server wires the analyzer to the HTTP surface.
type Server struct {
	analyzer *analysis.Analyzer
	logger   *log.Logger

	started time.Time
}

func main() {
	// Missing .env just means system environment only.
	_ = godotenv.Load()

	addr := flag.String("addr", envString("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for null-model trials")
	useMemory := flag.Bool("use-memory", envBool("USE_MEMORY", false), "Use in-memory storage instead of PostgreSQL")
	loadFixtures := flag.Bool("load-fixtures", false, "Seed the sample deal universe on startup (memory mode)")
	maxCycleLength := flag.Int("max-cycle-length", 5, "Cycle enumeration depth bound (3-5)")
	skipPartnerships := flag.Bool("skip-partnerships", false, "Leave undirected partnership deals out of the graph")
	verbose := flag.Bool("verbose", envBool("VERBOSE", false), "Verbose pipeline logging")

	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "server",
	})

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	companyStore, dealStore, trialStore, cleanup, err := createStores(ctx, logger, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatal("Failed to create stores", "err", err)
	}
	defer cleanup()

	if *loadFixtures {
		if err := analysis.LoadFixtures(ctx, companyStore, dealStore); err != nil {
			logger.Fatal("Failed to load fixtures", "err", err)
		}
		logger.Info("Loaded sample universe")
	}

	partnerships := graph.PartnershipBidirectional
	if *skipPartnerships {
		partnerships = graph.PartnershipSkip
	}

	server := &Server{
		analyzer: analysis.New(analysis.Options{
			CompanyStore:   companyStore,
			DealStore:      dealStore,
			TrialStore:     trialStore,
			MaxCycleLength: *maxCycleLength,
			Partnerships:   partnerships,
			Verbose:        *verbose,
		}),
		logger:  logger,
		started: time.Now(),
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Shutting down", "signal", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error", "err", err)
		}
		cancel()
	}()

	logger.Info("Listening", "addr", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server error", "err", err)
	}
	logger.Info("Shutdown complete")
}

// createStores builds the storage layer, running migrations against
// real backends.
func createStores(ctx context.Context, logger *log.Logger, postgresDSN, clickhouseDSN string, useMemory bool) (storage.CompanyStore, storage.DealStore, storage.TrialStore, func(), error) {
	if useMemory {
		return memory.NewCompanyStore(), memory.NewDealStore(), nil, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	var trialStore storage.TrialStore
	cleanup := func() { pool.Close() }

	if clickhouseDSN != "" {
		chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		trialStore = chstore.NewTrialStore(chConn)
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	} else {
		logger.Info("No ClickHouse DSN, null-model trials will not be persisted")
	}

	return pgstore.NewCompanyStore(pool), pgstore.NewDealStore(pool), trialStore, cleanup, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/api/analysis", s.handleAnalysis)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/nullmodel", s.handleNullModel)
	mux.HandleFunc("/api/sensitivity", s.handleSensitivity)

	return mux
}

// handleAnalysis runs the deterministic pipeline and returns the full
// result. Filter dimensions come from query parameters.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), filter)
	if err != nil {
		s.logger.Error("Analysis failed", "err", err)
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"nodes":      result.Graph.Nodes,
		"edges":      result.Graph.Edges,
		"dealsById":  result.Graph.DealsByID,
		"dataErrors": result.Graph.DataErrors,
		"loops":      result.Loops,
		"cycles":     result.Cycles,
		"hubs":       result.HubScores,
	})
}

// handleReport renders the Markdown report for the current data.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), filter)
	if err != nil {
		s.logger.Error("Analysis failed", "err", err)
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, report.RenderMarkdown(result.Graph, result.Loops, result.Cycles, result.HubScores, nil, nil))
}

type nullModelRequest struct {
	Iterations int   `json:"iterations"`
	Seed       int64 `json:"seed"`
	MaxLength  int   `json:"maxLength"`
}

// handleNullModel runs the configuration-model comparison.
func (s *Server) handleNullModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req nullModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), domain.Filter{})
	if err != nil {
		s.logger.Error("Analysis failed", "err", err)
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}

	cmp, runID, err := s.analyzer.CompareToNull(r.Context(), result.Graph, nullmodel.Options{
		Iterations: req.Iterations,
		Seed:       req.Seed,
		MaxLength:  req.MaxLength,
	})
	if err != nil {
		s.logger.Error("Null model failed", "err", err)
		http.Error(w, "null model failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"runId":           runID,
		"seed":            cmp.Seed,
		"iterations":      cmp.Iterations,
		"completedTrials": cmp.CompletedTrials,
		"warning":         cmp.Warning,
		"comparisons":     cmp.Comparisons,
	})
}

type sensitivityRequest struct {
	Schemes []domain.WeightScheme `json:"schemes"`
}

// handleSensitivity re-scores the detected structures under
// alternative weight schemes. An empty body uses the built-ins.
func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	schemes := req.Schemes
	if len(schemes) == 0 {
		schemes = sensitivity.DefaultAlternatives()
	}

	result, err := s.analyzer.Analyze(r.Context(), domain.Filter{})
	if err != nil {
		s.logger.Error("Analysis failed", "err", err)
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, s.analyzer.RunSensitivity(result.Graph, result, schemes))
}

// filterFromQuery builds a deal filter from query parameters:
// dealTypes, flowTypes (comma-separated), minConfidence, from, to (Unix ms).
func filterFromQuery(r *http.Request) (domain.Filter, error) {
	var f domain.Filter
	q := r.URL.Query()

	for _, raw := range splitList(q.Get("dealTypes")) {
		dt := domain.DealType(strings.ToUpper(raw))
		if !dt.IsValid() {
			return f, fmt.Errorf("unknown deal type %q", raw)
		}
		f.DealTypes = append(f.DealTypes, dt)
	}
	for _, raw := range splitList(q.Get("flowTypes")) {
		ft := domain.FlowType(strings.ToUpper(raw))
		if !ft.IsValid() {
			return f, fmt.Errorf("unknown flow type %q", raw)
		}
		f.FlowTypes = append(f.FlowTypes, ft)
	}

	var err error
	if f.MinConfidence, err = intParam(q.Get("minConfidence")); err != nil {
		return f, fmt.Errorf("invalid minConfidence")
	}
	if f.DateFrom, err = int64Param(q.Get("from")); err != nil {
		return f, fmt.Errorf("invalid from")
	}
	if f.DateTo, err = int64Param(q.Get("to")); err != nil {
		return f, fmt.Errorf("invalid to")
	}
	return f, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func int64Param(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
