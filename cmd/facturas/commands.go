package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	factura "github.com/pyhub-apps/factura-energia-golang"
	"github.com/pyhub-apps/factura-energia-golang/pkg/batch"
	"github.com/pyhub-apps/factura-energia-golang/pkg/config"
	"github.com/pyhub-apps/factura-energia-golang/pkg/export"
	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
	"github.com/pyhub-apps/factura-energia-golang/pkg/pdf"
	"github.com/pyhub-apps/factura-energia-golang/pkg/reconcile"
)

const stampLayout = "20060102_150405"

func runConvert(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	out := fs.String("o", "", "CSV path (default: next to the PDF)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("convert needs exactly one PDF")
	}

	pipeline, err := factura.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	written, err := pipeline.ConvertPDFToCSV(ctx, fs.Arg(0), *out)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, written)
	return nil
}

func runExtract(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the record as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("extract needs exactly one invoice")
	}

	pipeline, err := factura.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	record, err := pipeline.Process(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	if *asJSON {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(record.Map())
	}

	fmt.Fprintf(stdout, "%s (%s)\n\n", record.ID, record.TableSource)
	header, rows := export.FieldsTable(record)
	if err := export.WriteTable(stdout, header, rows); err != nil {
		return err
	}
	fmt.Fprintln(stdout)
	header, rows = export.ComponentsTable(record)
	if err := export.WriteTable(stdout, header, rows); err != nil {
		return err
	}
	for _, w := range record.Warnings {
		fmt.Fprintf(stdout, "warning: %s\n", w)
	}
	return nil
}

func runBatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	out := fs.String("out", cfg.Output.Dir, "output directory (default: the input directory)")
	workers := fs.Int("workers", cfg.Batch.MaxConcurrent, "documents processed at the same time")
	excel := fs.Bool("excel", cfg.Output.Excel, "write an Excel workbook")
	doReconcile := fs.Bool("reconcile", cfg.Database.Enabled, "compare the invoices with the billing database")
	metricsFile := fs.String("metrics", cfg.Output.MetricsFile, "write Prometheus metrics to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("batch needs exactly one directory or file")
	}
	root := fs.Arg(0)

	if *out == "" {
		*out = root
		if info, err := os.Stat(root); err == nil && !info.IsDir() {
			*out = filepath.Dir(root)
		}
	}
	cfg.Output.Dir = *out
	cfg.Batch.MaxConcurrent = *workers
	cfg.Database.Enabled = *doReconcile
	if err := cfg.Validate(); err != nil {
		return err
	}

	paths, err := batch.Discover(root)
	if err != nil {
		return err
	}

	pipeline, err := factura.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	metrics := batch.NewMetrics()
	processor, err := batch.NewProcessor(pipeline, cfg.Batch, batch.WithLogger(logger), batch.WithMetrics(metrics))
	if err != nil {
		return err
	}

	report := processor.Run(ctx, paths)
	records := report.Records()

	var comparisons []reconcile.Comparison
	if *doReconcile && len(records) > 0 {
		comparisons, err = reconcileRecords(ctx, cfg, logger, records)
		if err != nil {
			logger.Warn("skipping reconciliation", "error", err)
		}
	}

	if err := writeOutputs(cfg, *excel, report, comparisons, stdout); err != nil {
		return err
	}
	if *metricsFile != "" {
		if err := metrics.WriteToTextfile(*metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	printSummary(stdout, report, comparisons)
	if report.AllFailed() {
		return errAllFailed
	}
	return nil
}

// reconcileRecords compares the records with the billing database. When the
// database cannot be reached or queried every site is reported as not found
// so the batch outputs are still written.
func reconcileRecords(ctx context.Context, cfg *config.Config, logger *slog.Logger, records []invoice.Record) ([]reconcile.Comparison, error) {
	if len(reconcile.Sites(records)) == 0 {
		return nil, reconcile.ErrNoSites
	}
	comparer := reconcile.NewComparer(
		reconcile.WithTolerance(decimal.NewFromFloat(cfg.Database.Tolerance)),
		reconcile.WithComparerLogger(logger),
	)

	pool, err := reconcile.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Error("billing database unavailable", "error", err)
		return comparer.Compare(records, nil), nil
	}
	defer pool.Close()

	reconciler := reconcile.NewReconciler(reconcile.NewRepository(pool, logger), comparer, logger)
	comparisons, err := reconciler.Reconcile(ctx, records, time.Time{}, time.Time{})
	if err != nil {
		logger.Error("billing query failed", "error", err)
		return comparer.Compare(records, nil), nil
	}
	return comparisons, nil
}

func writeOutputs(cfg *config.Config, excel bool, report batch.Report, comparisons []reconcile.Comparison, stdout io.Writer) error {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	stamp := report.Started.Format(stampLayout)
	records := report.Records()

	if excel {
		wb := export.Workbook{
			RunID:       report.RunID.String(),
			Generated:   report.Finished,
			Records:     records,
			Failures:    failures(report),
			Comparisons: comparisons,
		}
		path := filepath.Join(cfg.Output.Dir, "facturas_"+stamp+".xlsx")
		if err := export.SaveWorkbook(path, wb); err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
	}

	path := filepath.Join(cfg.Output.Dir, "componentes_"+stamp+".csv")
	if err := writeFile(path, func(w io.Writer) error { return export.WriteComponentsCSV(w, records) }); err != nil {
		return err
	}
	fmt.Fprintln(stdout, path)

	if len(comparisons) > 0 {
		path := filepath.Join(cfg.Output.Dir, "comparacion_"+stamp+".csv")
		if err := writeFile(path, func(w io.Writer) error { return export.WriteComparisonCSV(w, comparisons) }); err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
	}
	return nil
}

func printSummary(stdout io.Writer, report batch.Report, comparisons []reconcile.Comparison) {
	rows := make([][]string, len(report.Results))
	for i, res := range report.Results {
		status, detail := "ok", string(res.Record.TableSource)
		if res.Err != nil {
			status, detail = "error", res.Err.Error()
		} else if n := len(res.Record.Fields.Missing()); n > 0 {
			detail = fmt.Sprintf("%s, %d missing", detail, n)
		}
		rows[i] = []string{filepath.Base(res.Path), status, fmt.Sprint(res.Attempts), res.Duration.Round(time.Millisecond).String(), detail}
	}

	fmt.Fprintln(stdout)
	// stdout errors are not actionable here
	_ = export.WriteTable(stdout, []string{"archivo", "estado", "intentos", "tiempo", "detalle"}, rows)

	if len(comparisons) > 0 {
		fmt.Fprintln(stdout)
		header, rows := export.ComparisonTable(comparisons)
		_ = export.WriteTable(stdout, header, rows)

		counts := reconcile.Summary(comparisons)
		fmt.Fprintf(stdout, "\n%s: %d  %s: %d  %s: %d\n",
			reconcile.StatusOK, counts[reconcile.StatusOK],
			reconcile.StatusAlert, counts[reconcile.StatusAlert],
			reconcile.StatusMissing, counts[reconcile.StatusMissing])
	}
}

func runInspect(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect needs exactly one PDF")
	}
	path := fs.Arg(0)

	info, err := pdf.Inspect(path)
	if err != nil {
		return err
	}

	rows := [][]string{
		{"paginas", fmt.Sprint(info.PageCount)},
		{"cifrado", fmt.Sprint(info.Encrypted)},
		{"titulo", info.Metadata.Title},
		{"autor", info.Metadata.Author},
		{"productor", info.Metadata.Producer},
		{"creador", info.Metadata.Creator},
	}
	if !info.Metadata.CreationDate.IsZero() {
		rows = append(rows, []string{"creado", info.Metadata.CreationDate.Format(time.RFC3339)})
	}

	doc, err := factura.Open(path)
	if err != nil {
		rows = append(rows, []string{"lector", err.Error()})
	} else {
		rows = append(rows, []string{"lector", doc.Backend()})
		for _, page := range doc.GetPages() {
			if perr := page.Err(); perr != nil {
				rows = append(rows, []string{fmt.Sprintf("pagina %d", page.GetPageNumber()), perr.Error()})
			}
		}
		doc.Close()
	}
	return export.WriteTable(stdout, []string{"campo", "valor"}, rows)
}

func failures(report batch.Report) []export.Failure {
	var out []export.Failure
	for _, res := range report.Failed() {
		out = append(out, export.Failure{Path: res.Path, Err: res.Err, Attempts: res.Attempts})
	}
	return out
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
