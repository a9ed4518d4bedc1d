package factura

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/factura-energia-golang/pkg/config"
	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
	"github.com/pyhub-apps/factura-energia-golang/pkg/patterns"
	"github.com/pyhub-apps/factura-energia-golang/pkg/pdf"
)

const samplePDF = "testdata/factura_sample.pdf"

func requireSample(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(samplePDF); err != nil {
		t.Skipf("sample invoice not available: %v", err)
	}
}

func TestOpen(t *testing.T) {
	requireSample(t)

	doc, err := Open(samplePDF)
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 1, doc.PageCount())
	assert.Equal(t, pdf.BackendLedongthuc, doc.Backend())
	assert.Equal(t, "Factura de energia", doc.GetMetadata().Title)

	page, err := doc.GetPage(0)
	require.NoError(t, err)
	require.NoError(t, page.Err())
	assert.Equal(t, 612.0, page.GetWidth())
	assert.Contains(t, page.ExtractText(), "Neto a pagar")
}

func TestOpenBytes(t *testing.T) {
	requireSample(t)

	data, err := os.ReadFile(samplePDF)
	require.NoError(t, err)

	doc, err := OpenBytes(data)
	require.NoError(t, err)
	defer doc.Close()
	assert.Equal(t, 1, doc.PageCount())
}

func TestOpen_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roto.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, pdf.ErrNoTextBackend)
}

func TestNewPipeline(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := NewPipeline(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, patterns.DefaultCatalog().Len(), p.Extractor().Catalog().Len())
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.Layout.BucketSize = 0
		_, err := NewPipeline(cfg, nil)
		assert.Error(t, err)
	})

	t.Run("pattern overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "patrones.yaml")
		overrides := "fields:\n  - name: cargo_fijo\n    patterns:\n      - 'Cargo fijo.*?\"([\\d,]+)\"'\n"
		require.NoError(t, os.WriteFile(path, []byte(overrides), 0o644))

		cfg := config.NewDefaultConfig()
		cfg.PatternsFile = path
		p, err := NewPipeline(cfg, nil)
		require.NoError(t, err)

		_, ok := p.Extractor().Catalog().Lookup("cargo_fijo")
		assert.True(t, ok)
	})

	t.Run("missing overrides file", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.PatternsFile = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := NewPipeline(cfg, nil)
		assert.Error(t, err)
	})
}

func TestPipeline_ReadLayout(t *testing.T) {
	requireSample(t)

	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)

	layout, err := p.ReadLayout(context.Background(), samplePDF)
	require.NoError(t, err)
	require.Equal(t, 1, layout.PageCount())

	page, ok := layout.Page(1)
	require.True(t, ok)
	require.NotEmpty(t, page.Rows)
	assert.Equal(t, "Fecha vencimiento: 2024-02-15", page.Rows[0][0])
	assert.Equal(t, 6, layout.MaxColumns())

	text := layout.Text()
	assert.True(t, strings.HasPrefix(text, "PÁGINA 1\r\n"))
	assert.Contains(t, text, "1. Generación,\"1,000\",25.5,\"25,500\",\"1,200\",\"26,700\"\r\n")
}

func TestPipeline_Process(t *testing.T) {
	requireSample(t)

	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)

	record, err := p.Process(context.Background(), samplePDF)
	require.NoError(t, err)

	assert.Equal(t, "factura_sample.pdf", record.ID)
	assert.Equal(t, samplePDF, record.Source)
	assert.Equal(t, "2024-02-15", record.Fields.Get(invoice.KeyDueDate))
	assert.Equal(t, "2024-01-01 a 2024-01-31", record.Fields.Get(invoice.KeyBillingPeriod))
	assert.Equal(t, "2", record.Fields.Get(invoice.KeyFactorM))
	assert.Equal(t, "Frt12345", record.SiteCode())
	assert.Equal(t, "98700", record.Fields.Get("neto_pagar"))
	assert.Equal(t, invoice.NotFound, record.Fields.Get("sobretasa"))

	assert.Equal(t, invoice.TablePrimary, record.TableSource)
	require.Len(t, record.Components, 2)
	assert.Equal(t, invoice.ComponentRow{
		Concept: patterns.Generacion, Quantity: "1000", UnitPrice: "25.5",
		CurrentMonth: "25500", PriorAdjustment: "1200", Total: "26700",
	}, record.Components[0])
	assert.Equal(t, invoice.ComponentRow{
		Concept: patterns.Comercializacion, Quantity: invoice.NotApplicable, UnitPrice: "12.3",
		CurrentMonth: "12300", PriorAdjustment: "1000", Total: "13300",
	}, record.Components[1])
}

func TestPipeline_ProcessText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factura.csv")
	text := "PÁGINA 1\r\n\r\nFecha vencimiento: 2024-03-10\r\nCódigo SIC:,Frt,777\r\nNeto a pagar,\"1,500\"\r\n"
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)

	record, err := p.Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "factura.csv", record.ID)
	assert.Equal(t, "Frt777", record.SiteCode())
	assert.Equal(t, "1500", record.Fields.Get("neto_pagar"))
	assert.Equal(t, invoice.TableNone, record.TableSource)
}

func TestPipeline_ProcessCancelled(t *testing.T) {
	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Process(ctx, "factura.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_ConvertPDFToCSV(t *testing.T) {
	requireSample(t)

	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "salida", "factura.csv")
	written, err := p.ConvertPDFToCSV(context.Background(), samplePDF, out)
	require.NoError(t, err)
	assert.Equal(t, out, written)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "PÁGINA 1\r\n\r\n"))
	assert.True(t, strings.HasSuffix(string(data), "\r\n\r\n\r\n"))
}

func TestPipeline_KeepCSV(t *testing.T) {
	requireSample(t)

	cfg := config.NewDefaultConfig()
	cfg.Output.Dir = t.TempDir()
	p, err := NewPipeline(cfg, nil)
	require.NoError(t, err)

	_, err = p.Process(context.Background(), samplePDF)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "factura_sample.csv"))
}

func BenchmarkPipeline_Process(b *testing.B) {
	if _, err := os.Stat(samplePDF); err != nil {
		b.Skipf("sample invoice not available: %v", err)
	}
	p, err := NewPipeline(nil, nil)
	require.NoError(b, err)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Process(ctx, samplePDF); err != nil {
			b.Fatal(err)
		}
	}
}
