// Package factura extracts structured billing data from energy invoice PDFs.
// It rebuilds the page layout from positioned glyphs, flattens it to comma
// separated text and runs the field and component patterns over it.
package factura

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pyhub-apps/factura-energia-golang/pkg/config"
	"github.com/pyhub-apps/factura-energia-golang/pkg/extractors"
	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
	"github.com/pyhub-apps/factura-energia-golang/pkg/patterns"
	"github.com/pyhub-apps/factura-energia-golang/pkg/pdf"
)

// Re-export types used by callers of the facade
type (
	Document = pdf.Document
	Layout   = extractors.Layout
	Record   = invoice.Record
)

// Open opens a PDF file, trying the text backends in order of accuracy.
// When all of them fail, pdfcpu validates the file to explain why.
func Open(path string) (pdf.Document, error) {
	// ledongthuc reports the most accurate glyph positions
	doc, errPrimary := pdf.OpenWithLedongthuc(path)
	if errPrimary == nil {
		return doc, nil
	}

	doc, errFallback := pdf.OpenWithDslipak(path)
	if errFallback == nil {
		return doc, nil
	}

	info, inspectErr := pdf.Inspect(path)
	return nil, fmt.Errorf("%s: %w", path, pdf.Diagnose(errors.Join(errPrimary, errFallback), info, inspectErr))
}

// OpenBytes opens an in-memory PDF the same way Open does
func OpenBytes(data []byte) (pdf.Document, error) {
	doc, errPrimary := pdf.OpenBytesWithLedongthuc(data)
	if errPrimary == nil {
		return doc, nil
	}

	doc, errFallback := pdf.OpenBytesWithDslipak(data)
	if errFallback == nil {
		return doc, nil
	}

	info, inspectErr := pdf.InspectBytes(data)
	return nil, pdf.Diagnose(errors.Join(errPrimary, errFallback), info, inspectErr)
}

// Pipeline turns invoice files into records. It is safe for concurrent use.
type Pipeline struct {
	cfg           *config.Config
	reconstructor *extractors.Reconstructor
	extractor     *invoice.Extractor
	logger        *slog.Logger
}

// NewPipeline builds a pipeline from cfg. A nil cfg uses the defaults and a
// nil logger discards output.
func NewPipeline(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	catalog, err := patterns.CatalogFromFile(cfg.PatternsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load field patterns: %w", err)
	}

	organizer := extractors.NewTextOrganizer()
	organizer.SetTolerances(cfg.Layout.LineTolerance, cfg.Layout.CharMargin, cfg.Layout.WordMargin)

	return &Pipeline{
		cfg: cfg,
		reconstructor: extractors.NewReconstructor(
			extractors.WithBucketSize(cfg.Layout.BucketSize),
			extractors.WithOrganizer(organizer),
			extractors.WithStrictPages(cfg.Batch.ParsingMode == config.Strict),
			extractors.WithLogger(logger),
		),
		extractor: invoice.NewExtractor(invoice.WithCatalog(catalog), invoice.WithLogger(logger)),
		logger:    logger,
	}, nil
}

// Extractor returns the field extractor in use
func (p *Pipeline) Extractor() *invoice.Extractor {
	return p.extractor
}

// ReadLayout opens a PDF and reconstructs its rows
func (p *Pipeline) ReadLayout(ctx context.Context, path string) (extractors.Layout, error) {
	if err := ctx.Err(); err != nil {
		return extractors.Layout{}, err
	}

	doc, err := Open(path)
	if err != nil {
		return extractors.Layout{}, err
	}
	defer doc.Close()

	p.logger.Debug("document opened", "path", path, "backend", doc.Backend(), "pages", doc.PageCount())

	layout, err := p.reconstructor.Document(doc)
	if err != nil {
		return extractors.Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return layout, nil
}

// Process extracts the record of one invoice. PDFs go through layout
// reconstruction; any other file is read as already flattened text.
func (p *Pipeline) Process(ctx context.Context, path string) (invoice.Record, error) {
	if !isPDF(path) {
		if err := ctx.Err(); err != nil {
			return invoice.Record{}, err
		}
		return p.extractor.ExtractFile(path)
	}

	layout, err := p.ReadLayout(ctx, path)
	if err != nil {
		return invoice.Record{}, err
	}

	if p.cfg.Output.KeepCSV && p.cfg.Output.Dir != "" {
		csvPath := filepath.Join(p.cfg.Output.Dir, csvName(path))
		if err := writeLayoutCSV(layout, csvPath); err != nil {
			p.logger.Warn("failed to keep layout csv", "path", path, "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return invoice.Record{}, err
	}

	record := p.extractor.Extract(filepath.Base(path), layout.Text())
	record.Source = path
	if layout.PageCount() == 0 || layout.MaxColumns() == 0 {
		record.Warnings = append(record.Warnings, "no text found in document")
		p.logger.Warn("no text found in document", "path", path)
	}
	return record, nil
}

// ConvertPDFToCSV writes the flattened layout of pdfPath to csvPath, or
// next to the PDF when csvPath is empty. It returns the path written.
func (p *Pipeline) ConvertPDFToCSV(ctx context.Context, pdfPath, csvPath string) (string, error) {
	layout, err := p.ReadLayout(ctx, pdfPath)
	if err != nil {
		return "", err
	}

	if csvPath == "" {
		csvPath = filepath.Join(filepath.Dir(pdfPath), csvName(pdfPath))
	}
	if err := writeLayoutCSV(layout, csvPath); err != nil {
		return "", err
	}

	p.logger.Info("layout written", "path", pdfPath, "csv", csvPath,
		"pages", layout.PageCount(), "max_columns", layout.MaxColumns())
	return csvPath, nil
}

func writeLayoutCSV(layout extractors.Layout, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	if err := layout.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return f.Close()
}

func csvName(pdfPath string) string {
	base := filepath.Base(pdfPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".csv"
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
