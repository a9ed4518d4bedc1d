package extractors

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pyhub-apps/factura-energia-golang/pkg/pdf"
)

func TestRowsOrdering(t *testing.T) {
	r := NewReconstructor()

	elements := []pdf.TextElement{
		{X0: 10, Y0: 700, Text: "b"},
		{X0: 50, Y0: 702, Text: "c"},
		{X0: 5, Y0: 705, Text: "a"},
		{X0: 5, Y0: 650, Text: "below"},
		{X0: 5, Y0: 760, Text: "above"},
	}

	rows := r.Rows(elements)
	expected := []Row{{"above"}, {"a", "b", "c"}, {"below"}}
	if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Rows() = %v, want %v", rows, expected)
	}
}

func TestRowsSplitsAndSkipsEmpty(t *testing.T) {
	r := NewReconstructor()

	elements := []pdf.TextElement{
		{X0: 5, Y0: 500, Text: "Total 1,234"},
		{X0: 90, Y0: 500, Text: "   "},
		{X0: 120, Y0: 500, Text: "0 0"},
		{X0: 5, Y0: 300, Text: ""},
	}

	rows := r.Rows(elements)
	expected := []Row{{"Total", "1,234", "0 0"}}
	if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Rows() = %v, want %v", rows, expected)
	}
}

func TestRowsEmptyPage(t *testing.T) {
	r := NewReconstructor()
	rows := r.Rows(nil)
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %v", rows)
	}
}

func TestRowsBucketSize(t *testing.T) {
	elements := []pdf.TextElement{
		{X0: 10, Y0: 101, Text: "x"},
		{X0: 20, Y0: 119, Text: "y"},
	}

	tests := []struct {
		name       string
		bucketSize float64
		expected   []Row
	}{
		{name: "Default splits rows", bucketSize: DefaultBucketSize, expected: []Row{{"y"}, {"x"}}},
		{name: "Wide bucket merges rows", bucketSize: 20, expected: []Row{{"x", "y"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconstructor(WithBucketSize(tt.bucketSize))
			rows := r.Rows(elements)
			if !reflect.DeepEqual(rows, tt.expected) {
				t.Errorf("Rows() = %v, want %v", rows, tt.expected)
			}
		})
	}
}

type fakePage struct {
	number int
	chars  []pdf.CharObject
	err    error
}

func (p fakePage) GetPageNumber() int                                  { return p.number }
func (p fakePage) GetWidth() float64                                   { return 612 }
func (p fakePage) GetHeight() float64                                  { return 792 }
func (p fakePage) GetBBox() pdf.BoundingBox                            { return pdf.BoundingBox{X1: 612, Y1: 792} }
func (p fakePage) GetObjects() pdf.Objects                             { return pdf.Objects{Chars: p.chars} }
func (p fakePage) ExtractText(opts ...pdf.TextExtractionOption) string { return "" }
func (p fakePage) Err() error                                          { return p.err }

type fakeDocument struct {
	pages []pdf.Page
}

func (d fakeDocument) GetMetadata() pdf.Metadata { return pdf.Metadata{} }
func (d fakeDocument) GetPages() []pdf.Page      { return d.pages }
func (d fakeDocument) GetPage(index int) (pdf.Page, error) {
	return d.pages[index], nil
}
func (d fakeDocument) PageCount() int  { return len(d.pages) }
func (d fakeDocument) Backend() string { return "fake" }
func (d fakeDocument) Close() error    { return nil }

// glyphs lays out s on one baseline with a fixed advance
func glyphs(s string, x, y float64) []pdf.CharObject {
	var chars []pdf.CharObject
	for _, r := range s {
		if r != ' ' {
			chars = append(chars, pdf.CharObject{
				Text: string(r), FontSize: 10,
				X0: x, X1: x + 5, Y0: y, Y1: y + 10, Width: 5, Height: 10,
			})
		}
		x += 5
	}
	return chars
}

func TestDocument(t *testing.T) {
	var chars []pdf.CharObject
	chars = append(chars, glyphs("Neto a pagar", 50, 400)...)
	chars = append(chars, glyphs("1,234", 200, 401)...)

	doc := fakeDocument{pages: []pdf.Page{
		fakePage{number: 1, chars: chars},
		fakePage{number: 2, err: errors.New("broken stream")},
	}}

	layout, err := NewReconstructor().Document(doc)
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if layout.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", layout.PageCount())
	}

	page, ok := layout.Page(1)
	if !ok {
		t.Fatal("page 1 missing")
	}
	expected := []Row{{"Neto a pagar", "1,234"}}
	if !reflect.DeepEqual(page.Rows, expected) {
		t.Errorf("page 1 rows = %v, want %v", page.Rows, expected)
	}

	page, _ = layout.Page(2)
	if len(page.Rows) != 0 {
		t.Errorf("undecodable page should be empty, got %v", page.Rows)
	}

	if !strings.Contains(layout.Text(), `Neto a pagar,"1,234"`) {
		t.Errorf("flattened text missing row: %q", layout.Text())
	}
}

func TestDocumentStrictPages(t *testing.T) {
	doc := fakeDocument{pages: []pdf.Page{
		fakePage{number: 1, err: errors.New("broken stream")},
	}}

	_, err := NewReconstructor(WithStrictPages(true)).Document(doc)
	if err == nil {
		t.Fatal("expected an error in strict mode")
	}
}

func TestLayoutMaxColumns(t *testing.T) {
	layout := NewLayout(
		Page{Number: 2, Rows: []Row{{"a", "b", "c"}}},
		Page{Number: 1, Rows: []Row{{"a"}, {"a", "b"}}},
	)

	if got := layout.MaxColumns(); got != 3 {
		t.Errorf("MaxColumns() = %d, want 3", got)
	}
	if pages := layout.Pages(); pages[0].Number != 1 {
		t.Errorf("pages not sorted: first is %d", pages[0].Number)
	}
	if _, ok := layout.Page(9); ok {
		t.Error("unexpected page 9")
	}
}

func TestWriteCSV(t *testing.T) {
	layout := NewLayout(Page{Number: 1, Rows: []Row{
		{"Subtotal base energía", "1,234"},
		{"1. Generación", "100", "25.5"},
	}})

	expected := "PÁGINA 1\r\n\r\n" +
		"Subtotal base energía,\"1,234\"\r\n" +
		"1. Generación,100,25.5\r\n" +
		"\r\n\r\n"

	if got := layout.Text(); got != expected {
		t.Errorf("Text() = %q, want %q", got, expected)
	}
}
