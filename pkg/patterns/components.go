package patterns

import "regexp"

// Component names in invoice table order
const (
	Generacion       = "Generación"
	Comercializacion = "Comercialización"
	Transmision      = "Transmisión"
	Distribucion     = "Distribución"
	Perdidas         = "Pérdidas"
	Restricciones    = "Restricciones"
	OtrosCargos      = "Otros cargos"
	EnergiaReactiva  = "Energía inductiva + capacitiva"
)

// ComponentNames lists the eight energy components in table order
var ComponentNames = []string{
	Generacion, Comercializacion, Transmision, Distribucion,
	Perdidas, Restricciones, OtrosCargos, EnergiaReactiva,
}

// Component extracts one row of the energy component table. Rows with a
// quantity capture five groups (quantity, price, current month, prior
// months, total); the others capture four.
type Component struct {
	Name        string
	HasQuantity bool
	Pattern     *regexp.Regexp
}

// Groups returns the number of values the pattern captures
func (c Component) Groups() int {
	if c.HasQuantity {
		return 5
	}
	return 4
}

// TableSpan captures the component table, from its header row to the
// energy subtotal row
var TableSpan = regexp.MustCompile(`(?s)Componentes,kWh\s+-\s+kVArh,\$/kWh.*?Subtotal\s+energía,.*?"([\d,]+)"`)

var tableComponents = []Component{
	{Name: Generacion, HasQuantity: true,
		Pattern: regexp.MustCompile(`(?:1\.\s+)?Generación,"([\d,]+)",([\d.]+),"([\d,]+)","([-\d,]+)","([\d,]+)"`)},
	{Name: Comercializacion,
		Pattern: regexp.MustCompile(`2\.\s+Comercialización,([\d.]+),"([\d,]+)","([-\d,]+)","([\d,]+)"`)},
	{Name: Transmision,
		Pattern: regexp.MustCompile(`3\.\s+Transmisión,([\d.]+),"([\d,]+)","([-\d,]+)","([\d,]+)"`)},
	{Name: Distribucion,
		Pattern: regexp.MustCompile(`4\.\s+Distribución,([\d.]+),"([\d,]+)","([-\d,]+)","([\d,]+)"`)},
	{Name: Perdidas,
		Pattern: regexp.MustCompile(`5\.\s+Perdidas\s+\(\*\),([\d.]+),"([\d,]+)","([-\d,]+)","([\d,]+)"`)},
	{Name: Restricciones,
		Pattern: regexp.MustCompile(`6\.\s+Restricciones,([-\d.]+),"([-\d,]+)","([-\d,]+)","([-\d,]+)"`)},
	{Name: OtrosCargos,
		Pattern: regexp.MustCompile(`7\.\s+Otros\s+cargos,([\d.]+),"([\d,]+)","([-\d,]+)","([\d,]+)"`)},
	{Name: EnergiaReactiva, HasQuantity: true,
		Pattern: regexp.MustCompile(`8\.\s+Energía\s+inductiva\s+\+\s+capacitiva\s+facturada,"([\d,]+)",([\d.]+),"([\d,]+)",(-?[\d,]*\d),"([\d,]+)"`)},
}

// Labelled values that follow a concept heading in the older
// "Concepto: kWh-kVArh: $/kWh: ..." layout
const (
	quantityLabel = `[\s\S]*?kWh-kVArh:\s*([\d,]+)`
	priceLabel    = `[\s\S]*?\$/kWh:\s*([\d.,]+)`
	currentLabel  = `[\s\S]*?Mes corriente \$:\s*"?([\d,]+)"?`
	priorLabel    = `[\s\S]*?Mes anteriores \$:\s*"?([\d,-]+)"?`
	totalLabel    = `[\s\S]*?Total \$:\s*"?([\d,]+)"?`
)

var fallbackComponents = []Component{
	{Name: Generacion, HasQuantity: true,
		Pattern: regexp.MustCompile(`Generación:` + quantityLabel + priceLabel + currentLabel + priorLabel + totalLabel)},
	{Name: Comercializacion,
		Pattern: regexp.MustCompile(`Comercialización:` + priceLabel + currentLabel + priorLabel + totalLabel)},
	{Name: Transmision,
		Pattern: regexp.MustCompile(`Transmisión:` + priceLabel + currentLabel + priorLabel + totalLabel)},
	{Name: Distribucion,
		Pattern: regexp.MustCompile(`Distribución:` + priceLabel + currentLabel + priorLabel + totalLabel)},
	{Name: Perdidas,
		Pattern: regexp.MustCompile(`Pérdidas:` + priceLabel + currentLabel + priorLabel + totalLabel)},
	{Name: Restricciones,
		Pattern: regexp.MustCompile(`Restricciones:[\s\S]*?\$/kWh:\s*([\d.,-]+)[\s\S]*?Mes corriente \$:\s*"?([\d,-]+)"?` +
			priorLabel + `[\s\S]*?Total \$:\s*"?([\d,-]+)"?`)},
	{Name: OtrosCargos,
		Pattern: regexp.MustCompile(`Otros cargos:` + priceLabel + currentLabel + priorLabel + totalLabel)},
	{Name: EnergiaReactiva, HasQuantity: true,
		Pattern: regexp.MustCompile(`Energía inductiva \+ capacitiva:` + quantityLabel + priceLabel + currentLabel +
			`[\s\S]*?Mes anteriores \$:\s*"?([\d,]+)"?` + totalLabel)},
}

// TableComponents returns the row patterns applied inside TableSpan
func TableComponents() []Component {
	return append([]Component(nil), tableComponents...)
}

// FallbackComponents returns the per-concept patterns applied to the whole
// text when the table cannot be located
func FallbackComponents() []Component {
	return append([]Component(nil), fallbackComponents...)
}
