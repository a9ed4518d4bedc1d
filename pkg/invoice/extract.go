package invoice

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/pyhub-apps/factura-energia-golang/pkg/patterns"
)

// Extractor applies the field catalog and the component patterns to
// flattened invoice text. It holds no per-document state.
type Extractor struct {
	catalog *patterns.Catalog
	logger  *slog.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithCatalog replaces the default field catalog
func WithCatalog(c *patterns.Catalog) Option {
	return func(e *Extractor) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithLogger sets the logger used for extraction warnings
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an extractor with the default catalog
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		catalog: patterns.DefaultCatalog(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the field catalog in use
func (e *Extractor) Catalog() *patterns.Catalog {
	return e.catalog
}

// Extract builds the full record for one document
func (e *Extractor) Extract(id, text string) Record {
	text = norm.NFC.String(text)
	logger := e.logger.With("path", id)

	fields, warnings := e.extractFields(text, logger)
	components, source, componentWarnings := e.extractComponents(text, logger)

	return Record{
		ID:          id,
		Source:      id,
		Fields:      fields,
		Components:  components,
		TableSource: source,
		Warnings:    append(warnings, componentWarnings...),
	}
}

// ExtractFile reads a flattened invoice from disk
func (e *Extractor) ExtractFile(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read invoice text: %w", err)
	}
	text, err := Decode(data)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", path, err)
	}

	record := e.Extract(filepath.Base(path), text)
	record.Source = path
	return record, nil
}

// ExtractFields runs the header patterns and the catalog over text
func (e *Extractor) ExtractFields(text string) (Fields, []string) {
	return e.extractFields(norm.NFC.String(text), e.logger)
}

// ExtractComponents runs the component table strategies over text
func (e *Extractor) ExtractComponents(text string) ([]ComponentRow, TableSource, []string) {
	return e.extractComponents(norm.NFC.String(text), e.logger)
}

func (e *Extractor) extractFields(text string, logger *slog.Logger) (Fields, []string) {
	var warnings []string
	values := make(map[string]string, len(HeaderKeys)+e.catalog.Len())

	for key, value := range extractHeader(text) {
		values[key] = value
	}

	for _, field := range e.catalog.Fields() {
		raw, alt, ok := field.Match(text)
		if !ok {
			values[field.Name] = NotFound
			logger.Debug("field not found", "field", field.Name)
			continue
		}
		if alt > 0 {
			logger.Debug("field matched alternative pattern", "field", field.Name, "alternative", alt)
		}

		raw = trimLeadingComma(raw)
		value, err := Clean(raw)
		if value == "" {
			values[field.Name] = NotFound
			logger.Warn("field matched without a number", "field", field.Name, "raw", raw)
			warnings = append(warnings, fmt.Sprintf("%s: %v", field.Name, err))
			continue
		}
		if err != nil {
			logger.Warn("field value cleaned best-effort", "field", field.Name, "raw", raw, "error", err)
			warnings = append(warnings, fmt.Sprintf("%s: %v", field.Name, err))
		}
		values[field.Name] = value
	}

	order := append(append([]string{}, HeaderKeys...), e.catalog.Names()...)
	return NewFields(order, values), warnings
}

func extractHeader(text string) map[string]string {
	header := map[string]string{
		KeyDueDate:       NotFound,
		KeyBillingPeriod: NotFound,
		KeyFactorM:       NotFound,
		KeySiteCode:      NotFound,
	}

	if v, _, ok := patterns.DueDate.Match(text); ok {
		header[KeyDueDate] = v
	}

	if m := patterns.BillingRange.FindStringSubmatch(text); m != nil {
		header[KeyBillingPeriod] = m[1] + patterns.PeriodSeparator + m[2]
	} else if v, _, ok := patterns.BillingDate.Match(text); ok {
		header[KeyBillingPeriod] = v
	}

	if v, _, ok := patterns.FactorM.Match(text); ok {
		header[KeyFactorM] = v
	}

	if v, _, ok := patterns.SiteCode.Match(text); ok {
		header[KeySiteCode] = patterns.SiteCodePrefix + v
	}

	return header
}

func trimLeadingComma(s string) string {
	if len(s) > 0 && s[0] == ',' {
		return s[1:]
	}
	return s
}

func (e *Extractor) extractComponents(text string, logger *slog.Logger) ([]ComponentRow, TableSource, []string) {
	if span := patterns.TableSpan.FindString(text); span != "" {
		rows, warnings := matchComponents(span, patterns.TableComponents(), logger)
		if len(rows) > 0 {
			return rows, TablePrimary, warnings
		}
		logger.Warn("component table found but no rows matched")
	} else {
		logger.Debug("component table not found")
	}

	rows, warnings := matchComponents(text, patterns.FallbackComponents(), logger)
	if len(rows) > 0 {
		logger.Info("component rows extracted with fallback patterns", "rows", len(rows))
		return rows, TableFallback, warnings
	}

	logger.Warn("no component rows found")
	return nil, TableNone, warnings
}

func matchComponents(text string, components []patterns.Component, logger *slog.Logger) ([]ComponentRow, []string) {
	var (
		rows     []ComponentRow
		warnings []string
	)

	for _, c := range components {
		m := c.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		groups := m[1:]
		if !c.HasQuantity {
			groups = append([]string{NotApplicable}, groups...)
		}

		values := make([]string, len(groups))
		for i, raw := range groups {
			if i == 0 && !c.HasQuantity {
				values[i] = raw
				continue
			}
			if raw == "" {
				values[i] = "0"
				continue
			}
			v, err := Clean(raw)
			if err != nil {
				logger.Warn("component value cleaned best-effort",
					"concept", c.Name, "column", ComponentColumns[i], "raw", raw, "error", err)
				warnings = append(warnings, fmt.Sprintf("%s %s: %v", c.Name, ComponentColumns[i], err))
			}
			values[i] = v
		}

		rows = append(rows, ComponentRow{
			Concept:         c.Name,
			Quantity:        values[0],
			UnitPrice:       values[1],
			CurrentMonth:    values[2],
			PriorAdjustment: values[3],
			Total:           values[4],
		})
	}

	return rows, warnings
}
