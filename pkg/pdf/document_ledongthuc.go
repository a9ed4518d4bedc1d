package pdf

import (
	"bytes"
	"fmt"
	"io"

	lpdf "github.com/ledongthuc/pdf"
)

// BackendLedongthuc identifies documents decoded by ledongthuc/pdf
const BackendLedongthuc = "ledongthuc"

// LedongthucDocument implements the Document interface using ledongthuc/pdf library
type LedongthucDocument struct {
	file     io.Closer
	reader   *lpdf.Reader
	pages    []Page
	metadata Metadata
}

// OpenWithLedongthuc opens a PDF file using the ledongthuc/pdf library
func OpenWithLedongthuc(filepath string) (doc Document, err error) {
	defer recoverDecode(&err, "ledongthuc")

	f, r, err := lpdf.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with ledongthuc: %w", err)
	}

	d := newLedongthucDocument(f, r)
	if err := d.initializePages(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to initialize pages: %w", err)
	}
	return d, nil
}

// OpenBytesWithLedongthuc decodes an in-memory PDF using ledongthuc/pdf
func OpenBytesWithLedongthuc(data []byte) (doc Document, err error) {
	defer recoverDecode(&err, "ledongthuc")

	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF with ledongthuc: %w", err)
	}

	d := newLedongthucDocument(nil, r)
	if err := d.initializePages(); err != nil {
		return nil, fmt.Errorf("failed to initialize pages: %w", err)
	}
	return d, nil
}

func newLedongthucDocument(f io.Closer, r *lpdf.Reader) *LedongthucDocument {
	d := &LedongthucDocument{file: f, reader: r}
	d.metadata = ledongthucMetadata(r)
	return d
}

// ledongthucMetadata reads the Info dictionary from the trailer
func ledongthucMetadata(r *lpdf.Reader) Metadata {
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return Metadata{}
	}
	return Metadata{
		Title:        info.Key("Title").Text(),
		Author:       info.Key("Author").Text(),
		Subject:      info.Key("Subject").Text(),
		Creator:      info.Key("Creator").Text(),
		Producer:     info.Key("Producer").Text(),
		CreationDate: parsePDFDate(info.Key("CreationDate").Text()),
		ModDate:      parsePDFDate(info.Key("ModDate").Text()),
	}
}

// initializePages decodes every page. A page whose content stream cannot be
// decoded is kept with its error instead of failing the document.
func (d *LedongthucDocument) initializePages() error {
	pageCount := d.reader.NumPage()
	d.pages = make([]Page, pageCount)

	for i := 1; i <= pageCount; i++ {
		page, err := NewLedongthucPage(d.reader, i)
		if err != nil {
			return fmt.Errorf("failed to initialize page %d: %w", i, err)
		}
		d.pages[i-1] = page
	}

	return nil
}

// GetMetadata returns the PDF metadata
func (d *LedongthucDocument) GetMetadata() Metadata {
	return d.metadata
}

// GetPages returns all pages in the document
func (d *LedongthucDocument) GetPages() []Page {
	return d.pages
}

// GetPage returns a specific page by index (0-based)
func (d *LedongthucDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(d.pages))
	}
	return d.pages[index], nil
}

// PageCount returns the total number of pages
func (d *LedongthucDocument) PageCount() int {
	return len(d.pages)
}

// Backend returns BackendLedongthuc
func (d *LedongthucDocument) Backend() string {
	return BackendLedongthuc
}

// Close releases resources associated with the document
func (d *LedongthucDocument) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

// LedongthucPage implements the Page interface using ledongthuc/pdf
type LedongthucPage struct {
	pageNumber int
	page       lpdf.Page
	width      float64
	height     float64
	objects    Objects
	err        error
}

// NewLedongthucPage creates a new page using ledongthuc/pdf
func NewLedongthucPage(reader *lpdf.Reader, pageNumber int) (Page, error) {
	if pageNumber < 1 || pageNumber > reader.NumPage() {
		return nil, fmt.Errorf("invalid page number: %d", pageNumber)
	}

	page := reader.Page(pageNumber)

	// Default to US Letter
	width, height := 612.0, 792.0

	mediaBox := page.V.Key("MediaBox")
	if mediaBox.Kind() == lpdf.Array && mediaBox.Len() == 4 {
		width = mediaBox.Index(2).Float64() - mediaBox.Index(0).Float64()
		height = mediaBox.Index(3).Float64() - mediaBox.Index(1).Float64()
	}

	p := &LedongthucPage{
		pageNumber: pageNumber,
		page:       page,
		width:      width,
		height:     height,
	}
	if page.V.IsNull() {
		p.err = fmt.Errorf("page %d: missing page object", pageNumber)
		return p, nil
	}
	p.err = p.extractObjects()

	return p, nil
}

// extractObjects decodes the content stream into glyphs
func (p *LedongthucPage) extractObjects() (err error) {
	defer recoverDecode(&err, fmt.Sprintf("page %d", p.pageNumber))

	content := p.page.Content()
	for _, text := range content.Text {
		if ch, ok := newCharObject(text.S, text.Font, text.FontSize, text.X, text.Y, text.W); ok {
			p.objects.Chars = append(p.objects.Chars, ch)
		}
	}
	return nil
}

// GetPageNumber returns the page number (1-based)
func (p *LedongthucPage) GetPageNumber() int {
	return p.pageNumber
}

// GetWidth returns the page width
func (p *LedongthucPage) GetWidth() float64 {
	return p.width
}

// GetHeight returns the page height
func (p *LedongthucPage) GetHeight() float64 {
	return p.height
}

// GetBBox returns the page bounding box
func (p *LedongthucPage) GetBBox() BoundingBox {
	return BoundingBox{X1: p.width, Y1: p.height}
}

// GetObjects returns all glyphs on the page
func (p *LedongthucPage) GetObjects() Objects {
	return p.objects
}

// ExtractText extracts text from the page
func (p *LedongthucPage) ExtractText(opts ...TextExtractionOption) string {
	return joinChars(p.objects.Chars, newTextExtractionConfig(opts))
}

// Err returns the content decoding error
func (p *LedongthucPage) Err() error {
	return p.err
}
