// Package runner executes migration runs end to end: crawl, extract, match,
// verify, export, persist, notify.
package runner

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"shopmigrate/internal/crawl"
	"shopmigrate/internal/export"
	"shopmigrate/internal/extract"
	"shopmigrate/internal/match"
	"shopmigrate/internal/metrics"
	"shopmigrate/internal/migrate"
)

// Config controls Runner behavior.
type Config struct {
	// DefaultMaxPages applies when a run does not set its own budget.
	DefaultMaxPages int
	// DestinationBase is the default destination root for existence checks.
	DestinationBase string
	// ExportPath is the default destination export CSV.
	ExportPath string
	// VerifyTimeout bounds each existence probe.
	VerifyTimeout time.Duration
	// Topic is the Pub/Sub topic for run-completed events.
	Topic string
	// BlobPrefix prefixes artifact object paths.
	BlobPrefix string
}

// Deps collects the Runner's collaborators.
type Deps struct {
	Fetcher   migrate.Fetcher
	RunStore  migrate.RunStore
	BlobStore migrate.BlobStore
	Publisher migrate.Publisher
	Hasher    migrate.Hasher
	Clock     migrate.Clock
	IDs       migrate.IDGenerator
	Logger    *zap.Logger
}

// Runner drives the migration pipeline. Fetches are sequential: one site,
// one request at a time.
type Runner struct {
	deps Deps
	cfg  Config
}

// RunCompletedEvent is the payload published when a run finishes.
type RunCompletedEvent struct {
	RunID     string               `json:"run_id"`
	Status    migrate.RunStatus    `json:"status"`
	Counters  migrate.RunCounters  `json:"counters"`
	Artifacts migrate.RunArtifacts `json:"artifacts"`
}

// New constructs a Runner.
func New(deps Deps, cfg Config) *Runner {
	metrics.Init()
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.DefaultMaxPages <= 0 {
		cfg.DefaultMaxPages = 500
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = 10 * time.Second
	}
	if cfg.Topic == "" {
		cfg.Topic = "migration-runs"
	}
	return &Runner{deps: deps, cfg: cfg}
}

// Submit validates parameters and persists a queued run.
func (r *Runner) Submit(ctx context.Context, params migrate.RunParameters) (migrate.Run, error) {
	if strings.TrimSpace(params.StartURL) == "" {
		return migrate.Run{}, fmt.Errorf("start_url is required")
	}
	if params.MaxPages <= 0 {
		params.MaxPages = r.cfg.DefaultMaxPages
	}

	id, err := r.deps.IDs.NewID()
	if err != nil {
		return migrate.Run{}, fmt.Errorf("generate run id: %w", err)
	}
	run := migrate.Run{
		ID:         id,
		Status:     migrate.RunStatusQueued,
		Submitted:  r.deps.Clock.Now(),
		Parameters: params,
	}
	if err := r.deps.RunStore.CreateRun(ctx, run); err != nil {
		return migrate.Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// Execute runs a submitted run to completion and records the outcome. The
// returned error reflects pipeline failure; store and publish errors after
// the pipeline finishes are logged, not returned.
func (r *Runner) Execute(ctx context.Context, run migrate.Run) error {
	logger := r.deps.Logger.With(zap.String("run_id", run.ID))

	if err := r.deps.RunStore.UpdateRunStatus(ctx, run.ID, migrate.RunStatusRunning, "",
		migrate.RunCounters{}, migrate.RunArtifacts{}); err != nil {
		logger.Error("mark run running failed", zap.Error(err))
	}

	counters, artifacts, err := r.pipeline(ctx, run, logger)
	status := migrate.RunStatusSucceeded
	errText := ""
	if err != nil {
		status = migrate.RunStatusFailed
		errText = err.Error()
		logger.Error("run failed", zap.Error(err))
	}

	if upErr := r.deps.RunStore.UpdateRunStatus(ctx, run.ID, status, errText, counters, artifacts); upErr != nil {
		logger.Error("final run status update failed", zap.Error(upErr))
	}
	metrics.ObserveRun(string(status))

	if r.deps.Publisher != nil {
		event := RunCompletedEvent{RunID: run.ID, Status: status, Counters: counters, Artifacts: artifacts}
		if _, pubErr := r.deps.Publisher.Publish(ctx, r.cfg.Topic, event); pubErr != nil {
			logger.Error("publish run event failed", zap.Error(pubErr))
		}
	}
	return err
}

func (r *Runner) pipeline(
	ctx context.Context,
	run migrate.Run,
	logger *zap.Logger,
) (migrate.RunCounters, migrate.RunArtifacts, error) {
	var counters migrate.RunCounters
	var artifacts migrate.RunArtifacts

	index, err := r.loadIndex(run.Parameters)
	if err != nil {
		return counters, artifacts, err
	}

	base := run.Parameters.DestinationBase
	if base == "" {
		base = r.cfg.DestinationBase
	}
	verifier := match.NewVerifier(base, r.cfg.VerifyTimeout)
	matcher := match.New(index, r.deps.Fetcher, verifier, logger)

	var products []migrate.ProductRecord
	crawler := crawl.New(r.deps.Fetcher, crawl.Config{
		MaxPages: run.Parameters.MaxPages,
		OnPage: func(page migrate.CrawlPage, body string) {
			metrics.ObservePage(string(page.PageType))
			r.recordPage(ctx, run.ID, page, body, logger)
			if page.PageType == migrate.PageTypeProduct {
				if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
					products = append(products, extract.Product(doc, page.URL))
				}
			}
		},
	}, logger)

	pages, err := crawler.Run(ctx, run.Parameters.StartURL)
	if err != nil {
		return counters, artifacts, err
	}
	counters.PagesCrawled = len(pages)
	counters.Products = len(products)

	redirects := make([]migrate.RedirectEntry, 0, len(pages))
	diagnostics := make([]migrate.DiagnosticEntry, 0, len(pages))
	for _, page := range pages {
		redirect, diagnostic := matcher.Match(ctx, page)
		redirects = append(redirects, redirect)
		diagnostics = append(diagnostics, diagnostic)
		metrics.ObserveMatch(string(diagnostic.Reason))
		switch diagnostic.Reason {
		case migrate.ReasonSKU, migrate.ReasonBarcode:
			counters.Matched++
		case migrate.ReasonUnmatched:
			counters.Unmatched++
		}
	}

	artifacts, err = r.writeArtifacts(ctx, run.ID, redirects, diagnostics, products)
	if err != nil {
		return counters, artifacts, err
	}

	logger.Info("run pipeline finished",
		zap.Int("pages", counters.PagesCrawled),
		zap.Int("products", counters.Products),
		zap.Int("matched", counters.Matched),
		zap.Int("unmatched", counters.Unmatched),
	)
	return counters, artifacts, nil
}

// loadIndex builds the SKU/barcode index from the run's export file, or the
// configured default. No export file means an empty index: every product
// stays unmatched.
func (r *Runner) loadIndex(params migrate.RunParameters) (*match.DestinationIndex, error) {
	path := params.ExportPath
	if path == "" {
		path = r.cfg.ExportPath
	}
	if path == "" {
		return match.NewDestinationIndex(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open destination export: %w", err)
	}
	defer f.Close()

	index, err := match.LoadDestinationIndex(f)
	if err != nil {
		return nil, fmt.Errorf("load destination export: %w", err)
	}
	return index, nil
}

func (r *Runner) recordPage(ctx context.Context, runID string, page migrate.CrawlPage, body string, logger *zap.Logger) {
	hash, err := r.deps.Hasher.Hash([]byte(body))
	if err != nil {
		logger.Warn("hash page body failed", zap.String("url", page.URL), zap.Error(err))
	}
	record := migrate.PageRecord{
		RunID:       runID,
		URL:         page.URL,
		PageType:    page.PageType,
		Title:       page.Title,
		ContentHash: hash,
		FetchedAt:   r.deps.Clock.Now(),
	}
	if err := r.deps.RunStore.RecordPage(ctx, record); err != nil {
		logger.Warn("record page failed", zap.String("url", page.URL), zap.Error(err))
	}
}

func (r *Runner) writeArtifacts(
	ctx context.Context,
	runID string,
	redirects []migrate.RedirectEntry,
	diagnostics []migrate.DiagnosticEntry,
	products []migrate.ProductRecord,
) (migrate.RunArtifacts, error) {
	var artifacts migrate.RunArtifacts

	redirectCSV, err := export.RedirectCSV(redirects)
	if err != nil {
		return artifacts, fmt.Errorf("render redirect csv: %w", err)
	}
	diagnosticsCSV, err := export.DiagnosticsCSV(diagnostics)
	if err != nil {
		return artifacts, fmt.Errorf("render diagnostics csv: %w", err)
	}
	productsJSON, err := export.ProductsJSON(products)
	if err != nil {
		return artifacts, fmt.Errorf("render products json: %w", err)
	}

	artifacts.RedirectsURI, err = r.deps.BlobStore.PutObject(ctx,
		r.blobPath(runID, "redirects.csv"), "text/csv; charset=utf-8", strings.NewReader(string(redirectCSV)))
	if err != nil {
		return artifacts, fmt.Errorf("store redirects artifact: %w", err)
	}
	artifacts.DiagnosticsURI, err = r.deps.BlobStore.PutObject(ctx,
		r.blobPath(runID, "diagnostics.csv"), "text/csv; charset=utf-8", strings.NewReader(string(diagnosticsCSV)))
	if err != nil {
		return artifacts, fmt.Errorf("store diagnostics artifact: %w", err)
	}
	artifacts.ProductsURI, err = r.deps.BlobStore.PutObject(ctx,
		r.blobPath(runID, "products.json"), "application/json", strings.NewReader(string(productsJSON)))
	if err != nil {
		return artifacts, fmt.Errorf("store products artifact: %w", err)
	}
	return artifacts, nil
}

func (r *Runner) blobPath(runID, name string) string {
	prefix := strings.Trim(r.cfg.BlobPrefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s", runID, name)
	}
	return fmt.Sprintf("%s/%s/%s", prefix, runID, name)
}
