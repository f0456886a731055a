// Package main provides a one-shot analysis run: build the graph,
// detect structures, optionally run the null model and sensitivity
// checks, and write JSON plus a Markdown report to the output dir.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"circularity-lab/internal/analysis"
	"circularity-lab/internal/domain"
	"circularity-lab/internal/nullmodel"
	"circularity-lab/internal/report"
	"circularity-lab/internal/sensitivity"
	"circularity-lab/internal/storage"
	chstore "circularity-lab/internal/storage/clickhouse"
	"circularity-lab/internal/storage/memory"
	"circularity-lab/internal/storage/migrations"
	pgstore "circularity-lab/internal/storage/postgres"
)

func main() {
	// Missing .env just means system environment only.
	_ = godotenv.Load()

	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for null-model trials")
	useFixtures := flag.Bool("use-fixtures", false, "Use the in-memory sample universe instead of a database")
	dealTypes := flag.String("deal-types", "", "Comma-separated deal type filter")
	flowTypes := flag.String("flow-types", "", "Comma-separated flow type filter")
	minConfidence := flag.Int("min-confidence", 0, "Minimum deal confidence (1-5, 0 disables)")
	maxCycleLength := flag.Int("max-cycle-length", 5, "Cycle enumeration depth bound (3-5)")
	runNull := flag.Bool("null-model", false, "Run the configuration-model significance check")
	iterations := flag.Int("iterations", nullmodel.DefaultIterations, "Null model trial count")
	seed := flag.Int64("seed", 0, "Null model RNG seed (0 seeds from entropy)")
	runSens := flag.Bool("sensitivity", false, "Run the weight sensitivity check")
	schemesPath := flag.String("schemes", "", "YAML file with alternative weight schemes")
	verbose := flag.Bool("verbose", false, "Verbose pipeline logging")

	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "analyze",
	})

	if !*useFixtures && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-fixtures for demo data)")
	}

	filter, err := buildFilter(*dealTypes, *flowTypes, *minConfidence)
	if err != nil {
		logger.Fatal("Invalid filter", "err", err)
	}

	ctx := context.Background()

	companyStore, dealStore, trialStore, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useFixtures)
	if err != nil {
		logger.Fatal("Failed to create stores", "err", err)
	}
	defer cleanup()

	analyzer := analysis.New(analysis.Options{
		CompanyStore:   companyStore,
		DealStore:      dealStore,
		TrialStore:     trialStore,
		MaxCycleLength: *maxCycleLength,
		Verbose:        *verbose,
	})

	result, err := analyzer.Analyze(ctx, filter)
	if err != nil {
		logger.Fatal("Analysis failed", "err", err)
	}
	logger.Info("Analysis complete",
		"nodes", len(result.Graph.Nodes),
		"edges", len(result.Graph.Edges),
		"loops", len(result.Loops),
		"cycles", len(result.Cycles))

	var null *domain.NullModelComparison
	if *runNull {
		var runID string
		null, runID, err = analyzer.CompareToNull(ctx, result.Graph, nullmodel.Options{
			Iterations: *iterations,
			Seed:       *seed,
		})
		if err != nil {
			logger.Fatal("Null model failed", "err", err)
		}
		logger.Info("Null model complete", "trials", null.CompletedTrials, "seed", null.Seed, "runId", runID)
	}

	var sens *domain.SensitivityResult
	if *runSens {
		schemes := sensitivity.DefaultAlternatives()
		if *schemesPath != "" {
			schemes, err = sensitivity.LoadSchemes(*schemesPath)
			if err != nil {
				logger.Fatal("Failed to load schemes", "err", err)
			}
		}
		sens = analyzer.RunSensitivity(result.Graph, result, schemes)
		logger.Info("Sensitivity complete",
			"topLoopConsistent", sens.TopLoopConsistent,
			"topHubConsistent", sens.TopHubConsistent)
	}

	if err := writeOutputs(*outputDir, result, null, sens); err != nil {
		logger.Fatal("Failed to write outputs", "err", err)
	}
	logger.Info("Wrote report", "dir", *outputDir)
}

func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useFixtures bool) (storage.CompanyStore, storage.DealStore, storage.TrialStore, func(), error) {
	if useFixtures {
		companies := memory.NewCompanyStore()
		deals := memory.NewDealStore()
		if err := analysis.LoadFixtures(ctx, companies, deals); err != nil {
			return nil, nil, nil, nil, err
		}
		return companies, deals, nil, func() {}, nil
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
	}

	return pgstore.NewCompanyStore(pool), pgstore.NewDealStore(pool), trialStore, cleanup, nil
}

func buildFilter(dealTypes, flowTypes string, minConfidence int) (domain.Filter, error) {
	f := domain.Filter{MinConfidence: minConfidence}

	for _, raw := range splitList(dealTypes) {
		dt := domain.DealType(strings.ToUpper(raw))
		if !dt.IsValid() {
			return f, fmt.Errorf("unknown deal type %q", raw)
		}
		f.DealTypes = append(f.DealTypes, dt)
	}
	for _, raw := range splitList(flowTypes) {
		ft := domain.FlowType(strings.ToUpper(raw))
		if !ft.IsValid() {
			return f, fmt.Errorf("unknown flow type %q", raw)
		}
		f.FlowTypes = append(f.FlowTypes, ft)
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

func writeOutputs(dir string, result *analysis.Result, null *domain.NullModelComparison, sens *domain.SensitivityResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	payload := map[string]any{
		"nodes":      result.Graph.Nodes,
		"edges":      result.Graph.Edges,
		"dataErrors": result.Graph.DataErrors,
		"loops":      result.Loops,
		"cycles":     result.Cycles,
		"hubs":       result.HubScores,
	}
	if null != nil {
		payload["nullModel"] = null
	}
	if sens != nil {
		payload["sensitivity"] = sens
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "analysis.json"), data, 0o644); err != nil {
		return fmt.Errorf("write analysis.json: %w", err)
	}

	md := report.RenderMarkdown(result.Graph, result.Loops, result.Cycles, result.HubScores, null, sens)
	if err := os.WriteFile(filepath.Join(dir, "REPORT.md"), []byte(md), 0o644); err != nil {
		return fmt.Errorf("write REPORT.md: %w", err)
	}
	return nil
}
