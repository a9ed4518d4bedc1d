package extractors

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// PageHeader is the first cell written before each page's rows
const PageHeader = "PÁGINA"

// WriteCSV serializes the layout as comma separated rows. Each page starts
// with a "PÁGINA n" row and a blank row, and ends with two blank rows.
// Cells holding commas are quoted, which the field patterns rely on.
func (l Layout) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	for _, page := range l.pages {
		if err := cw.Write([]string{fmt.Sprintf("%s %d", PageHeader, page.Number)}); err != nil {
			return err
		}
		if err := cw.Write(nil); err != nil {
			return err
		}
		for _, row := range page.Rows {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		if err := cw.Write(nil); err != nil {
			return err
		}
		if err := cw.Write(nil); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Text returns the flattened document text the field patterns run against
func (l Layout) Text() string {
	var b strings.Builder
	// strings.Builder never fails to write
	_ = l.WriteCSV(&b)
	return b.String()
}
