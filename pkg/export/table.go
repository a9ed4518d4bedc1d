package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
	"github.com/pyhub-apps/factura-energia-golang/pkg/reconcile"
)

// MaxCellWidth is the display width a table cell is truncated to
const MaxCellWidth = 40

// WriteTable writes header and rows as space aligned columns. Widths are
// measured in terminal cells so accented and wide characters line up.
func WriteTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	measure := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			widths[i] = max(widths[i], min(runewidth.StringWidth(cell), MaxCellWidth))
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	if err := writeTableRow(w, header, widths); err != nil {
		return err
	}
	rule := make([]string, len(widths))
	for i, width := range widths {
		rule[i] = strings.Repeat("-", width)
	}
	if err := writeTableRow(w, rule, widths); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeTableRow(w, row, widths); err != nil {
			return err
		}
	}
	return nil
}

func writeTableRow(w io.Writer, row []string, widths []int) error {
	cells := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(row) {
			cell = runewidth.Truncate(row[i], MaxCellWidth, "…")
		}
		if i == len(widths)-1 {
			cells[i] = cell
			continue
		}
		cells[i] = runewidth.FillRight(cell, widths[i])
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	return err
}

// FieldsTable lays out the header fields of one record as name/value rows
func FieldsTable(r invoice.Record) ([]string, [][]string) {
	rows := make([][]string, 0, r.Fields.Len())
	for _, name := range r.Fields.Names() {
		rows = append(rows, []string{name, r.Fields.Get(name)})
	}
	return []string{"campo", "valor"}, rows
}

// ComponentsTable lays out the component rows of one record
func ComponentsTable(r invoice.Record) ([]string, [][]string) {
	header := append([]string{"concepto"}, invoice.ComponentColumns...)
	rows := make([][]string, len(r.Components))
	for i, c := range r.Components {
		rows[i] = append([]string{c.Concept}, c.Values()...)
	}
	return header, rows
}

// ComparisonTable lays out a reconciliation report
func ComparisonTable(comparisons []reconcile.Comparison) ([]string, [][]string) {
	rows := make([][]string, len(comparisons))
	for i, c := range comparisons {
		row := c.Row()
		rows[i] = []string{
			row.InvoiceID, row.Site, row.Concept,
			row.InvoiceValue, row.DatabaseValue, row.Difference, row.Status,
		}
	}
	return append([]string(nil), comparisonHeader...), rows
}
