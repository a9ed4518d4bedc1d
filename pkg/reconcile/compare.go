package reconcile

import (
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
	"github.com/pyhub-apps/factura-energia-golang/pkg/patterns"
)

// Status of one compared value
type Status string

const (
	StatusOK      Status = "OK"
	StatusAlert   Status = "Alerta"
	StatusMissing Status = "No encontrado en DB"
)

// DefaultTolerance absorbs rounding between the invoice and the database
var DefaultTolerance = decimal.NewFromInt(1)

type mapping struct {
	field  string
	column string
}

// Field to column pairs compared for every matched invoice
var fieldColumns = []mapping{
	{"subtotal_base_energia", "subtotal_energía_total"},
	{"contribucion", "contribución"},
	{"neto_pagar", "neto_a_pagar"},
	{"energia_reactiva_inductiva", "energía_reactiva_inductiva_facturada"},
	{"energia_reactiva_capacitiva", "energía_reactiva_capacitiva_facturada"},
	{"compensaciones", "compensaciones"},
	{"factor_m", "factor_m"},
	{"ajustes_cargos_regulados", "ajustes_cargos_regulados"},
	{"interes_mora", "interés_por_mora"},
}

// Fields reported as missing when the database returned nothing at all
var baseFields = []string{
	"subtotal_base_energia", "contribucion", "neto_pagar",
	"energia_reactiva_inductiva", "energia_reactiva_capacitiva",
}

var componentColumns = map[string]string{
	patterns.Generacion:       "generación_total",
	patterns.Transmision:      "transmisión_total",
	patterns.Distribucion:     "distribución_total",
	patterns.Perdidas:         "pérdidas_total",
	patterns.Comercializacion: "comercialización_total",
	patterns.Restricciones:    "restricciones_total",
	patterns.OtrosCargos:      "otros_cargos_total",
	patterns.EnergiaReactiva:  "energía_inductiva_capacitiva_facturada_total",
}

// Comparison is one invoice value checked against the database.
// DatabaseValue and Difference are null when the site was not found.
type Comparison struct {
	InvoiceID     string
	Site          string
	Concept       string
	InvoiceText   string
	InvoiceValue  decimal.Decimal
	DatabaseValue decimal.NullDecimal
	Difference    decimal.NullDecimal
	Status        Status
}

// ComparisonRow is the delimited-text form of a Comparison
type ComparisonRow struct {
	InvoiceID     string `csv:"ID_Factura"`
	Site          string `csv:"Frontera"`
	Concept       string `csv:"Concepto"`
	InvoiceValue  string `csv:"Valor_Factura"`
	DatabaseValue string `csv:"Valor_Datalake"`
	Difference    string `csv:"Diferencia"`
	Status        string `csv:"Estado"`
}

// Row formats c for export
func (c Comparison) Row() ComparisonRow {
	row := ComparisonRow{
		InvoiceID: c.InvoiceID,
		Site:      c.Site,
		Concept:   c.Concept,
		Status:    string(c.Status),
	}
	if c.Status == StatusMissing {
		row.InvoiceValue = c.InvoiceText
	} else {
		row.InvoiceValue = c.InvoiceValue.String()
	}
	if c.DatabaseValue.Valid {
		row.DatabaseValue = c.DatabaseValue.Decimal.String()
	}
	if c.Difference.Valid {
		row.Difference = c.Difference.Decimal.String()
	}
	return row
}

// Comparer matches invoices with billing records by site code
type Comparer struct {
	tolerance decimal.Decimal
	logger    *slog.Logger
}

// ComparerOption configures a Comparer
type ComparerOption func(*Comparer)

// WithTolerance sets the largest absolute difference still reported as OK
func WithTolerance(tolerance decimal.Decimal) ComparerOption {
	return func(c *Comparer) {
		c.tolerance = tolerance.Abs()
	}
}

// WithComparerLogger sets the comparer logger
func WithComparerLogger(logger *slog.Logger) ComparerOption {
	return func(c *Comparer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewComparer creates a comparer with DefaultTolerance
func NewComparer(opts ...ComparerOption) *Comparer {
	c := &Comparer{
		tolerance: DefaultTolerance,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare checks every invoice that has a site code. An empty dataset marks
// the base fields and components of every invoice as missing; a site absent
// from a non-empty dataset marks every mapped field and component missing.
func (c *Comparer) Compare(records []invoice.Record, dataset []BillingRecord) []Comparison {
	var out []Comparison

	bySite := make(map[string]BillingRecord, len(dataset))
	counts := make(map[string]int, len(dataset))
	for _, rec := range dataset {
		counts[rec.Site]++
		if _, ok := bySite[rec.Site]; !ok {
			bySite[rec.Site] = rec
		}
	}

	for _, r := range records {
		site := r.SiteCode()
		if site == "" {
			c.logger.Debug("invoice without site code skipped", "path", r.ID)
			continue
		}

		if len(dataset) == 0 {
			out = append(out, missing(r, site, baseFields)...)
			continue
		}

		rec, ok := bySite[site]
		if !ok {
			c.logger.Warn("no billing record for site", "site", site, "path", r.ID)
			fields := make([]string, len(fieldColumns))
			for i, m := range fieldColumns {
				fields[i] = m.field
			}
			out = append(out, missing(r, site, fields)...)
			continue
		}
		if n := counts[site]; n > 1 {
			c.logger.Info("several billing records for site, using the first", "site", site, "count", n)
		}

		for _, m := range fieldColumns {
			out = append(out, c.compare(r, site, m.field, r.Fields.Get(m.field), rec, m.column))
		}
		for _, comp := range r.Components {
			column, ok := componentColumns[comp.Concept]
			if !ok {
				continue
			}
			out = append(out, c.compare(r, site, comp.Concept, comp.Total, rec, column))
		}
	}

	return out
}

func (c *Comparer) compare(r invoice.Record, site, concept, text string, rec BillingRecord, column string) Comparison {
	value, ok := invoice.ParseDecimal(text)
	if !ok {
		value = decimal.Zero
	}
	db, ok := rec.Value(column)
	if !ok {
		db = decimal.Zero
	}

	diff := value.Sub(db)
	status := StatusOK
	if diff.Abs().GreaterThan(c.tolerance) {
		status = StatusAlert
	}

	return Comparison{
		InvoiceID:     r.ID,
		Site:          site,
		Concept:       concept,
		InvoiceText:   text,
		InvoiceValue:  value,
		DatabaseValue: decimal.NewNullDecimal(db),
		Difference:    decimal.NewNullDecimal(diff),
		Status:        status,
	}
}

func missing(r invoice.Record, site string, fields []string) []Comparison {
	out := make([]Comparison, 0, len(fields)+len(r.Components))
	add := func(concept, text string) {
		value, _ := invoice.ParseDecimal(text)
		out = append(out, Comparison{
			InvoiceID:    r.ID,
			Site:         site,
			Concept:      concept,
			InvoiceText:  text,
			InvoiceValue: value,
			Status:       StatusMissing,
		})
	}
	for _, f := range fields {
		add(f, r.Fields.Get(f))
	}
	for _, comp := range r.Components {
		add(comp.Concept, comp.Total)
	}
	return out
}

// Summary counts comparisons by status
func Summary(comparisons []Comparison) map[Status]int {
	counts := map[Status]int{StatusOK: 0, StatusAlert: 0, StatusMissing: 0}
	for _, c := range comparisons {
		counts[c.Status]++
	}
	return counts
}
