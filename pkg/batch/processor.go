// Package batch runs invoice extraction over many documents with bounded
// concurrency, per-attempt timeouts and retries.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/pyhub-apps/factura-energia-golang/pkg/config"
	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
)

// Extractor processes one document
type Extractor interface {
	Process(ctx context.Context, path string) (invoice.Record, error)
}

// ExtractorFunc adapts a function to Extractor
type ExtractorFunc func(ctx context.Context, path string) (invoice.Record, error)

func (f ExtractorFunc) Process(ctx context.Context, path string) (invoice.Record, error) {
	return f(ctx, path)
}

// Result is the outcome for one document
type Result struct {
	Path     string
	Record   invoice.Record
	Err      error
	Attempts int
	Duration time.Duration
}

// Report collects the results of one run, in input order
type Report struct {
	RunID    uuid.UUID
	Started  time.Time
	Finished time.Time
	Results  []Result
}

// Records returns the records of the documents that succeeded
func (r Report) Records() []invoice.Record {
	var records []invoice.Record
	for _, res := range r.Results {
		if res.Err == nil {
			records = append(records, res.Record)
		}
	}
	return records
}

// Failed returns the results that carry an error
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// AllFailed reports whether the run had documents and none succeeded
func (r Report) AllFailed() bool {
	return len(r.Results) > 0 && len(r.Failed()) == len(r.Results)
}

// Processor runs an Extractor over many paths
type Processor struct {
	extractor Extractor
	sem       *semaphore.Weighted
	timeout   time.Duration
	retries   int
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures a Processor
type Option func(*Processor)

// WithLogger sets the processor logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records every result in m
func WithMetrics(m *Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// NewProcessor validates cfg and creates a processor
func NewProcessor(extractor Extractor, cfg config.BatchConfig, opts ...Option) (*Processor, error) {
	if cfg.MaxConcurrent < 1 {
		return nil, fmt.Errorf("max concurrent must be at least 1, got %d", cfg.MaxConcurrent)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}

	p := &Processor{
		extractor: extractor,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		timeout:   cfg.Timeout,
		retries:   max(cfg.MaxRetries, 0),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.logger.Debug("processor initialized",
		"max_concurrent", cfg.MaxConcurrent, "timeout", cfg.Timeout, "max_retries", p.retries)
	return p, nil
}

// Run processes every path and returns one result per path. A failing
// document never stops the others; cancelling ctx fails the documents not
// yet started.
func (p *Processor) Run(ctx context.Context, paths []string) Report {
	report := Report{
		RunID:   uuid.New(),
		Started: time.Now(),
		Results: make([]Result, len(paths)),
	}
	logger := p.logger.With("run_id", report.RunID.String())
	logger.Info("batch started", "documents", len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			report.Results[i] = Result{Path: path, Err: fmt.Errorf("acquire slot: %w", err)}
			continue
		}

		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer p.sem.Release(1)
			report.Results[i] = p.processWithRetries(ctx, path, logger)
		}(i, path)
	}
	wg.Wait()

	report.Finished = time.Now()
	for _, res := range report.Results {
		if p.metrics != nil {
			p.metrics.Observe(res)
		}
	}

	logger.Info("batch finished",
		"documents", len(paths), "failed", len(report.Failed()), "elapsed", report.Finished.Sub(report.Started))
	return report
}

func (p *Processor) processWithRetries(ctx context.Context, path string, logger *slog.Logger) Result {
	res := Result{Path: path}
	start := time.Now()

	for attempt := 1; attempt <= p.retries+1; attempt++ {
		res.Attempts = attempt
		res.Record, res.Err = p.attempt(ctx, path)
		if res.Err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		logger.Warn("document attempt failed", "path", path, "attempt", attempt, "error", res.Err)
	}

	res.Duration = time.Since(start)
	if res.Err != nil {
		logger.Error("document failed", "path", path, "attempts", res.Attempts, "error", res.Err)
	} else {
		logger.Debug("document processed", "path", path, "attempts", res.Attempts, "duration", res.Duration)
	}
	return res
}

type outcome struct {
	record invoice.Record
	err    error
}

func (p *Processor) attempt(ctx context.Context, path string) (invoice.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("extraction panicked", "path", path, "panic", r)
				done <- outcome{err: fmt.Errorf("%s: %w: %v", path, ErrPanic, r)}
			}
		}()
		record, err := p.extractor.Process(ctx, path)
		done <- outcome{record, err}
	}()

	select {
	case o := <-done:
		return o.record, o.err
	case <-ctx.Done():
		return invoice.Record{}, fmt.Errorf("%s: %w", path, ctx.Err())
	}
}

// Discover returns the PDF files under root in lexical order. A root that
// is itself a file is returned as is.
func Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if path == root || strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if len(paths) == 0 {
		return nil, ErrNoDocuments
	}
	return paths, nil
}

// ErrPanic marks a document whose extraction panicked
var ErrPanic = errors.New("extraction panicked")

// ErrNoDocuments is returned by Discover when nothing was found
var ErrNoDocuments = errors.New("no PDF documents found")
