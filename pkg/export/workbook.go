// Package export writes extraction and reconciliation results as Excel
// workbooks, delimited text and aligned terminal tables.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
	"github.com/pyhub-apps/factura-energia-golang/pkg/reconcile"
)

// Sheet names
const (
	SheetInvoices   = "Facturas"
	SheetComponents = "Componentes"
	SheetComparison = "Comparacion"
	SheetErrors     = "Errores"
	SheetSummary    = "Resumen"
)

// Failure is a document that could not be processed
type Failure struct {
	Path     string
	Err      error
	Attempts int
}

// Workbook is the content of one export
type Workbook struct {
	RunID       string
	Generated   time.Time
	Records     []invoice.Record
	Failures    []Failure
	Comparisons []reconcile.Comparison
}

var comparisonHeader = []string{
	"ID_Factura", "Frontera", "Concepto", "Valor_Factura", "Valor_Datalake", "Diferencia", "Estado",
}

// SaveWorkbook writes wb to path
func SaveWorkbook(path string, wb Workbook) error {
	f, err := buildWorkbook(wb)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteWorkbook writes wb to w in xlsx format
func WriteWorkbook(w io.Writer, wb Workbook) error {
	f, err := buildWorkbook(wb)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(wb Workbook) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetInvoices); err != nil {
		f.Close()
		return nil, err
	}

	steps := []func(*excelize.File, Workbook) error{
		writeInvoices,
		writeComponents,
		writeComparison,
		writeErrors,
		writeSummary,
	}
	for _, step := range steps {
		if err := step(f, wb); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to build workbook: %w", err)
		}
	}
	return f, nil
}

func writeInvoices(f *excelize.File, wb Workbook) error {
	if len(wb.Records) == 0 {
		return writeRows(f, SheetInvoices, []string{invoice.ColumnFile}, nil)
	}

	columns := invoice.Columns(wb.Records[0].Fields.Names())
	rows := make([][]any, len(wb.Records))
	for i, r := range wb.Records {
		flat := r.Flatten()
		row := make([]any, len(columns))
		for j, col := range columns {
			if j == 0 {
				row[j] = flat[col]
				continue
			}
			row[j] = cellValue(flat[col])
		}
		rows[i] = row
	}
	return writeRows(f, SheetInvoices, columns, rows)
}

func writeComponents(f *excelize.File, wb Workbook) error {
	header := append([]string{invoice.ColumnFile, "concepto"}, invoice.ComponentColumns...)

	var rows [][]any
	for _, r := range wb.Records {
		for _, c := range r.Components {
			row := []any{r.ID, c.Concept}
			for _, v := range c.Values() {
				row = append(row, cellValue(v))
			}
			rows = append(rows, row)
		}
	}
	return addSheet(f, SheetComponents, header, rows)
}

func writeComparison(f *excelize.File, wb Workbook) error {
	if len(wb.Comparisons) == 0 {
		return nil
	}

	rows := make([][]any, len(wb.Comparisons))
	for i, c := range wb.Comparisons {
		row := c.Row()
		rows[i] = []any{
			row.InvoiceID, row.Site, row.Concept,
			cellValue(row.InvoiceValue), cellValue(row.DatabaseValue), cellValue(row.Difference),
			row.Status,
		}
	}
	return addSheet(f, SheetComparison, comparisonHeader, rows)
}

func writeErrors(f *excelize.File, wb Workbook) error {
	if len(wb.Failures) == 0 {
		return nil
	}

	rows := make([][]any, len(wb.Failures))
	for i, fail := range wb.Failures {
		msg := ""
		if fail.Err != nil {
			msg = fail.Err.Error()
		}
		rows[i] = []any{fail.Path, msg, fail.Attempts}
	}
	return addSheet(f, SheetErrors, []string{invoice.ColumnFile, "error", "intentos"}, rows)
}

func writeSummary(f *excelize.File, wb Workbook) error {
	generated := wb.Generated
	if generated.IsZero() {
		generated = time.Now()
	}

	rows := [][]any{
		{"ejecucion", wb.RunID},
		{"generado", generated.Format(time.RFC3339)},
		{"documentos", len(wb.Records) + len(wb.Failures)},
		{"procesados", len(wb.Records)},
		{"fallidos", len(wb.Failures)},
	}

	var fallbacks, noTable int
	for _, r := range wb.Records {
		switch r.TableSource {
		case invoice.TableFallback:
			fallbacks++
		case invoice.TableNone:
			noTable++
		}
	}
	rows = append(rows, []any{"tablas_alternativas", fallbacks}, []any{"sin_tabla", noTable})

	if len(wb.Comparisons) > 0 {
		counts := reconcile.Summary(wb.Comparisons)
		for _, status := range []reconcile.Status{reconcile.StatusOK, reconcile.StatusAlert, reconcile.StatusMissing} {
			rows = append(rows, []any{string(status), counts[status]})
		}
	}
	return addSheet(f, SheetSummary, []string{"clave", "valor"}, rows)
}

func addSheet(f *excelize.File, name string, header []string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return writeRows(f, name, header, rows)
}

func writeRows(f *excelize.File, sheet string, header []string, rows [][]any) error {
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// cellValue stores numbers as numbers so spreadsheet formulas work on them
func cellValue(s string) any {
	if d, ok := invoice.ParseDecimal(s); ok {
		v, _ := d.Float64()
		return v
	}
	return s
}
