package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
	"github.com/pyhub-apps/factura-energia-golang/pkg/reconcile"
)

type componentLine struct {
	File            string `csv:"archivo"`
	Concept         string `csv:"concepto"`
	Quantity        string `csv:"kwh_kvarh"`
	UnitPrice       string `csv:"precio_kwh"`
	CurrentMonth    string `csv:"mes_corriente"`
	PriorAdjustment string `csv:"mes_anteriores"`
	Total           string `csv:"total"`
}

// WriteComponentsCSV writes one line per component row of every record
func WriteComponentsCSV(w io.Writer, records []invoice.Record) error {
	lines := make([]componentLine, 0, len(records)*len(invoice.ComponentColumns))
	for _, r := range records {
		for _, c := range r.Components {
			lines = append(lines, componentLine{
				File:            r.ID,
				Concept:         c.Concept,
				Quantity:        c.Quantity,
				UnitPrice:       c.UnitPrice,
				CurrentMonth:    c.CurrentMonth,
				PriorAdjustment: c.PriorAdjustment,
				Total:           c.Total,
			})
		}
	}
	if err := gocsv.Marshal(&lines, w); err != nil {
		return fmt.Errorf("failed to write components: %w", err)
	}
	return nil
}

// WriteComparisonCSV writes the reconciliation report
func WriteComparisonCSV(w io.Writer, comparisons []reconcile.Comparison) error {
	rows := make([]reconcile.ComparisonRow, len(comparisons))
	for i, c := range comparisons {
		rows[i] = c.Row()
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write comparison: %w", err)
	}
	return nil
}

// ReadComparisonCSV reads a report written by WriteComparisonCSV
func ReadComparisonCSV(r io.Reader) ([]reconcile.ComparisonRow, error) {
	var rows []reconcile.ComparisonRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to read comparison: %w", err)
	}
	return rows, nil
}
