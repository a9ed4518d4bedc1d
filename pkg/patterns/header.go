package patterns

import "regexp"

// Header patterns for the four fields that sit outside the catalog. The
// second alternative of each accepts the label and value in adjacent cells.
var (
	DueDate = FieldPattern{Name: "fecha_vencimiento", Alternatives: []*regexp.Regexp{
		regexp.MustCompile(`Fecha\s+vencimiento:\s+(\d{4}-\d{2}-\d{2})`),
		regexp.MustCompile(`Fecha\s+vencimiento:[\s,]+(\d{4}-\d{2}-\d{2})`),
	}}

	FactorM = FieldPattern{Name: "factor_m", Alternatives: []*regexp.Regexp{
		regexp.MustCompile(`Factor\s+M:\s+(\d+)`),
		regexp.MustCompile(`Factor\s+M:[\s,]+"?(\d+)`),
	}}

	// SiteCode captures only the digits; callers prefix them with "Frt"
	SiteCode = FieldPattern{Name: "codigo_sic", Alternatives: []*regexp.Regexp{
		regexp.MustCompile(`Código\s+SIC:.*?Frt.*?(\d+)`),
	}}

	// BillingRange captures the start and end dates of the billing period
	BillingRange = regexp.MustCompile(`Período\s+Facturación:[\s,]+(\d{4}-\d{2}-\d{2}).*?(\d{4}-\d{2}-\d{2})`)

	// BillingDate captures a billing period given as a single date
	BillingDate = FieldPattern{Name: "periodo_facturacion", Alternatives: []*regexp.Regexp{
		regexp.MustCompile(`Período\s+Facturación:\s+(\d{4}-\d{2}-\d{2})`),
		regexp.MustCompile(`Período\s+Facturación:[\s,]+(\d{4}-\d{2}-\d{2})`),
	}}
)

// SiteCodePrefix is prepended to the captured site code digits
const SiteCodePrefix = "Frt"

// PeriodSeparator joins the two dates of a billing range
const PeriodSeparator = " a "
