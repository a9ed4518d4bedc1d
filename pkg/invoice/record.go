// Package invoice turns the flattened text of an energy invoice into a
// structured record: scalar financial fields, header fields and the energy
// component table.
package invoice

import (
	"maps"
	"slices"

	"github.com/pyhub-apps/factura-energia-golang/pkg/patterns"
)

// Sentinel values stored in place of a missing value
const (
	NotFound      = "No encontrado"
	NotApplicable = "N/A"
)

// Header field names
const (
	KeyDueDate       = "fecha_vencimiento"
	KeyBillingPeriod = "periodo_facturacion"
	KeyFactorM       = "factor_m"
	KeySiteCode      = "codigo_sic"
	KeyComponents    = "componentes"
)

// HeaderKeys lists the header fields in output order
var HeaderKeys = []string{KeyDueDate, KeyBillingPeriod, KeyFactorM, KeySiteCode}

// ComponentColumns lists the value columns of a component row
var ComponentColumns = []string{"kwh_kvarh", "precio_kwh", "mes_corriente", "mes_anteriores", "total"}

// ColumnFile is the first flattened column, holding the record ID
const ColumnFile = "archivo"

// Fields is an immutable name to value mapping
type Fields struct {
	order  []string
	values map[string]string
}

// NewFields copies values; names absent from values read as NotFound
func NewFields(order []string, values map[string]string) Fields {
	f := Fields{
		order:  slices.Clone(order),
		values: make(map[string]string, len(order)),
	}
	for _, name := range order {
		if v, ok := values[name]; ok {
			f.values[name] = v
		} else {
			f.values[name] = NotFound
		}
	}
	return f
}

// Get returns the value of name, or NotFound
func (f Fields) Get(name string) string {
	if v, ok := f.values[name]; ok {
		return v
	}
	return NotFound
}

// Found reports whether name holds an extracted value
func (f Fields) Found(name string) bool {
	v, ok := f.values[name]
	return ok && v != NotFound
}

// Names returns the field names in extraction order
func (f Fields) Names() []string {
	return slices.Clone(f.order)
}

// Missing returns the fields that hold NotFound
func (f Fields) Missing() []string {
	var missing []string
	for _, name := range f.order {
		if f.values[name] == NotFound {
			missing = append(missing, name)
		}
	}
	return missing
}

// Map returns a copy of the values
func (f Fields) Map() map[string]string {
	return maps.Clone(f.values)
}

// Len returns the number of fields
func (f Fields) Len() int {
	return len(f.order)
}

// ComponentRow is one row of the energy component table
type ComponentRow struct {
	Concept         string `json:"concepto" csv:"concepto"`
	Quantity        string `json:"kwh_kvarh" csv:"kwh_kvarh"`
	UnitPrice       string `json:"precio_kwh" csv:"precio_kwh"`
	CurrentMonth    string `json:"mes_corriente" csv:"mes_corriente"`
	PriorAdjustment string `json:"mes_anteriores" csv:"mes_anteriores"`
	Total           string `json:"total" csv:"total"`
}

// Values returns the row values in ComponentColumns order
func (c ComponentRow) Values() []string {
	return []string{c.Quantity, c.UnitPrice, c.CurrentMonth, c.PriorAdjustment, c.Total}
}

// Map returns the row keyed by output column name
func (c ComponentRow) Map() map[string]string {
	m := map[string]string{"concepto": c.Concept}
	for i, v := range c.Values() {
		m[ComponentColumns[i]] = v
	}
	return m
}

// TableSource tells which strategy produced the component rows
type TableSource string

const (
	TablePrimary  TableSource = "primary"
	TableFallback TableSource = "fallback"
	TableNone     TableSource = "none"
)

// Record is the extraction result for one invoice
type Record struct {
	ID          string
	Source      string
	Fields      Fields
	Components  []ComponentRow
	TableSource TableSource
	Warnings    []string
}

// SiteCode returns the frontier code, or "" when it was not found
func (r Record) SiteCode() string {
	if !r.Fields.Found(KeySiteCode) {
		return ""
	}
	return r.Fields.Get(KeySiteCode)
}

// Component returns the row for concept
func (r Record) Component(concept string) (ComponentRow, bool) {
	for _, c := range r.Components {
		if c.Concept == concept {
			return c, true
		}
	}
	return ComponentRow{}, false
}

// Map returns the record as a plain mapping: every field plus the
// component list under KeyComponents
func (r Record) Map() map[string]any {
	m := make(map[string]any, r.Fields.Len()+1)
	for name, v := range r.Fields.values {
		m[name] = v
	}
	components := make([]map[string]string, len(r.Components))
	for i, c := range r.Components {
		components[i] = c.Map()
	}
	m[KeyComponents] = components
	return m
}

// Columns returns the flattened column names for records with the given
// field names: the record ID, the fields, then "<concept> <column>" for
// every component.
func Columns(fieldNames []string) []string {
	cols := make([]string, 0, 1+len(fieldNames)+len(patterns.ComponentNames)*len(ComponentColumns))
	cols = append(cols, ColumnFile)
	cols = append(cols, fieldNames...)
	for _, concept := range patterns.ComponentNames {
		for _, col := range ComponentColumns {
			cols = append(cols, concept+" "+col)
		}
	}
	return cols
}

// Flatten returns the record keyed by the names Columns produces. Components
// that were not extracted are left out.
func (r Record) Flatten() map[string]string {
	flat := r.Fields.Map()
	flat[ColumnFile] = r.ID
	for _, c := range r.Components {
		for i, v := range c.Values() {
			flat[c.Concept+" "+ComponentColumns[i]] = v
		}
	}
	return flat
}
