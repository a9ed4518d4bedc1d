package extractors

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/pyhub-apps/factura-energia-golang/pkg/pdf"
)

// DefaultBucketSize is the vertical quantization step, in layout units,
// under which fragments count as one row
const DefaultBucketSize = 10.0

// Row is an ordered list of cells, left to right
type Row []string

// Page holds the rows of one page, top to bottom
type Page struct {
	Number int
	Rows   []Row
}

// Layout maps page numbers to their reconstructed rows. It is built once
// per document and read-only afterwards.
type Layout struct {
	pages []Page
}

// NewLayout creates a layout from pages ordered by page number
func NewLayout(pages ...Page) Layout {
	sorted := slices.Clone(pages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number < sorted[j].Number
	})
	return Layout{pages: sorted}
}

// Pages returns the pages in page-number order
func (l Layout) Pages() []Page {
	return slices.Clone(l.pages)
}

// Page returns the page with the given 1-based number
func (l Layout) Page(number int) (Page, bool) {
	for _, p := range l.pages {
		if p.Number == number {
			return p, true
		}
	}
	return Page{}, false
}

// PageCount returns the number of pages
func (l Layout) PageCount() int {
	return len(l.pages)
}

// MaxColumns returns the widest row across all pages
func (l Layout) MaxColumns() int {
	maxColumns := 0
	for _, p := range l.pages {
		for _, row := range p.Rows {
			maxColumns = max(maxColumns, len(row))
		}
	}
	return maxColumns
}

// Reconstructor rebuilds rows and cells from positioned text
type Reconstructor struct {
	bucketSize  float64
	organizer   *TextOrganizer
	strictPages bool
	logger      *slog.Logger
}

// Option configures a Reconstructor
type Option func(*Reconstructor)

// WithBucketSize sets the vertical quantization step
func WithBucketSize(size float64) Option {
	return func(r *Reconstructor) {
		if size > 0 {
			r.bucketSize = size
		}
	}
}

// WithOrganizer sets the glyph to fragment merger
func WithOrganizer(organizer *TextOrganizer) Option {
	return func(r *Reconstructor) {
		r.organizer = organizer
	}
}

// WithStrictPages makes a page decode error fail the whole document.
// By default the page is logged and left empty.
func WithStrictPages(strict bool) Option {
	return func(r *Reconstructor) {
		r.strictPages = strict
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconstructor) {
		r.logger = logger
	}
}

// NewReconstructor creates a reconstructor with default settings
func NewReconstructor(opts ...Option) *Reconstructor {
	r := &Reconstructor{
		bucketSize: DefaultBucketSize,
		organizer:  NewTextOrganizer(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rows groups elements into rows. Elements are bucketed by
// floor(y0/bucketSize); buckets are emitted top to bottom and elements left
// to right, each element's text split into cells by SplitTokens.
func (r *Reconstructor) Rows(elements []pdf.TextElement) []Row {
	buckets := make(map[int][]pdf.TextElement)
	for _, e := range elements {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		key := int(math.Floor(e.Y0 / r.bucketSize))
		buckets[key] = append(buckets[key], e)
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		bucket := buckets[k]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].X0 < bucket[j].X0
		})

		var row Row
		for _, e := range bucket {
			row = append(row, SplitTokens(strings.TrimSpace(e.Text))...)
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// PageRows reconstructs the rows of one decoded page
func (r *Reconstructor) PageRows(page pdf.Page) ([]Row, error) {
	if err := page.Err(); err != nil {
		return nil, err
	}
	return r.Rows(r.organizer.Fragments(page.GetObjects().Chars)), nil
}

// Document reconstructs every page of a document
func (r *Reconstructor) Document(doc pdf.Document) (Layout, error) {
	pages := make([]Page, 0, doc.PageCount())

	for _, page := range doc.GetPages() {
		rows, err := r.PageRows(page)
		if err != nil {
			if r.strictPages {
				return Layout{}, fmt.Errorf("page %d: %w", page.GetPageNumber(), err)
			}
			r.logger.Warn("skipping undecodable page",
				slog.Int("page", page.GetPageNumber()),
				slog.String("backend", doc.Backend()),
				slog.Any("error", err))
		}
		pages = append(pages, Page{Number: page.GetPageNumber(), Rows: rows})
	}

	return NewLayout(pages...), nil
}
