// Package patterns holds the regular expressions that locate invoice fields
// in the flattened invoice text.
package patterns

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// ErrCaptureGroups is returned for a field pattern that does not capture
// exactly one group
var ErrCaptureGroups = errors.New("field pattern must capture exactly one group")

// FieldPattern maps a concept to its ordered alternatives. Later
// alternatives only cover spelling and whitespace variants of the first.
type FieldPattern struct {
	Name         string
	Alternatives []*regexp.Regexp
}

// Match returns the captured value of the first alternative that matches
func (f FieldPattern) Match(text string) (value string, alternative int, ok bool) {
	for i, re := range f.Alternatives {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], i, true
		}
	}
	return "", -1, false
}

// Catalog is an ordered registry of field patterns
type Catalog struct {
	fields []FieldPattern
	index  map[string]int
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Add compiles exprs and appends them to the alternatives of name. An
// unknown name becomes a new concept at the end of the catalog.
func (c *Catalog) Add(name string, exprs ...string) error {
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		if re.NumSubexp() != 1 {
			return fmt.Errorf("field %s: %q: %w", name, expr, ErrCaptureGroups)
		}
		compiled = append(compiled, re)
	}

	if i, ok := c.index[name]; ok {
		c.fields[i].Alternatives = append(c.fields[i].Alternatives, compiled...)
		return nil
	}
	c.index[name] = len(c.fields)
	c.fields = append(c.fields, FieldPattern{Name: name, Alternatives: compiled})
	return nil
}

func (c *Catalog) mustAdd(name string, exprs ...string) {
	if err := c.Add(name, exprs...); err != nil {
		panic(err)
	}
}

// Fields returns the field patterns in catalog order
func (c *Catalog) Fields() []FieldPattern {
	return slices.Clone(c.fields)
}

// Names returns the concept names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the pattern registered for name
func (c *Catalog) Lookup(name string) (FieldPattern, bool) {
	i, ok := c.index[name]
	if !ok {
		return FieldPattern{}, false
	}
	return c.fields[i], true
}

// Len returns the number of concepts
func (c *Catalog) Len() int {
	return len(c.fields)
}

// DefaultCatalog returns a fresh copy of the built-in invoice catalog
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	c.mustAdd("subtotal_base_energia",
		`Subtotal base energía.*?"([\d,]+)"`,
		`Subtotal\tbase\tenergía.*?"([\d,]+)"`)
	c.mustAdd("contribucion",
		`Contribución.*?"([\d,]+)"`)
	c.mustAdd("contribucion_otros_meses",
		`Contribución de otros meses.*?(\d[\d,]*)`,
		`Contribución\tde\totros\tmeses.*?(\d[\d,]*)`)
	c.mustAdd("subtotal_energia_contribucion_kwh",
		`\$/kWh,\$\s*Subtotal\s*energia\s*\+\s*contribución,\s*([\d.,]+)`,
		`\$/kWh,\$\s*Subtotal\tenerg[ií]a\t\+\tcontribución,\s*([\d.,]+)`)
	c.mustAdd("subtotal_energia_contribucion_pesos",
		`\$/kWh,\$\s*Subtotal\s*energia\s*\+\s*contribución,\s*[\d.,]+,\s*"([\d,]+)"`,
		`\$/kWh,\$\s*Subtotal\tenerg[ií]a\t\+\tcontribución,\s*[\d.,]+,\s*"([\d,]+)"`)
	c.mustAdd("otros_cobros",
		`Otros cobros.*?"([\d,]+)"`,
		`Otros\tcobros.*?"([\d,]+)"`)
	c.mustAdd("sobretasa",
		`Sobretasa.*?(\d[\d,]*)`)
	c.mustAdd("ajustes_cargos_regulados",
		`Ajustes cargos regulados.*?"([\d,]+)"`,
		`Ajustes\tcargos\tregulados.*?"([\d,]+)"`)
	c.mustAdd("compensaciones",
		`Compensaciones.*?(\d[\d,]*)`)
	c.mustAdd("saldo_cartera",
		`Saldo cartera.*?(\d[\d,]*)`,
		`Saldo\tcartera.*?(\d[\d,]*)`)
	c.mustAdd("interes_mora",
		`Interés por Mora.*?(\d[\d,]*)`,
		`Interés\tpor\tMora.*?(\d[\d,]*)`)
	c.mustAdd("alumbrado_publico",
		`Alumbrado público.*?"([\d,]+)"`,
		`Alumbrado\tpúblico.*?"([\d,]+)"`)
	c.mustAdd("impuesto_alumbrado_publico",
		`Impuesto alumbrado público.*?"([\d,]+)"`,
		`Impuesto\talumbrado\tpúblico.*?"([\d,]+)"`)
	c.mustAdd("ajuste_iap_otros_meses",
		`Ajuste IAP otros meses.*?(\d[\d,]*)`,
		`Ajuste\tIAP\totros\tmeses.*?(\d[\d,]*)`)
	c.mustAdd("convivencia_ciudadana",
		`Convivencia ciudadana.*?"([\d,]+)"`,
		`Convivencia\tciudadana.*?"([\d,]+)"`)
	c.mustAdd("tasa_especial_convivencia",
		`Tasa especial convivencia ciudadana.*?"([\d,]+)"`,
		`Tasa\tespecial\tconvivencia\tciudadana.*?"([\d,]+)"`)
	c.mustAdd("ajuste_tasa_convivencia",
		`Ajuste tasa convivencia otros meses.*?(\d[\d,]*)`,
		`Ajuste\ttasa\tconvivencia\totros\tmeses.*?(\d[\d,]*)`)
	c.mustAdd("total_servicio_energia_impuestos",
		`Total servicio energía \+ impuestos.*?"([\d,]+)"`,
		`Total\tservicio\tenergía\t\+\timpuestos.*?"([\d,]+)"`,
		`Total\tservicio\tenergía\t\\\+\timpuestos.*?"([\d,]+)"`)
	c.mustAdd("ajuste_decena",
		`Ajuste a la decena.*?(\d[\d,]*)`,
		`Ajuste\ta\tla\tdecena.*?(\d[\d,]*)`)
	c.mustAdd("neto_pagar",
		`Neto a pagar.*?"([\d,]+)"`,
		`Neto\ta\tpagar.*?"([\d,]+)"`)
	c.mustAdd("energia_reactiva_inductiva",
		`Energía\s*reactiva\s*inductiva,\s*"([\d,]+)"`,
		`Energía\treactiva\tinductiva,\s*"([\d,]+)"`)
	c.mustAdd("energia_reactiva_capacitiva",
		`Energía\s*reactiva\s*capacitiva,\s*([\d,]+)`,
		`Energía\treactiva\tcapacitiva,\s*([\d,]+)`)
	c.mustAdd("total_energia_reactiva",
		`Total\s*energía\s*reactiva,\s*"([\d,]+)"`,
		`Total\tenergía\treactiva,\s*"([\d,]+)"`)

	return c
}
