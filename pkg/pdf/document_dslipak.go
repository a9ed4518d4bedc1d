package pdf

import (
	"bytes"
	"fmt"

	gopdf "github.com/dslipak/pdf"
)

// BackendDslipak identifies documents decoded by dslipak/pdf
const BackendDslipak = "dslipak"

// DsliPakDocument implements the Document interface using dslipak/pdf library
type DsliPakDocument struct {
	reader   *gopdf.Reader
	pages    []Page
	metadata Metadata
}

// OpenWithDslipak opens a PDF file using the dslipak/pdf library
func OpenWithDslipak(filepath string) (doc Document, err error) {
	defer recoverDecode(&err, "dslipak")

	r, err := gopdf.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with dslipak: %w", err)
	}
	return newDslipakDocument(r)
}

// OpenBytesWithDslipak decodes an in-memory PDF using dslipak/pdf
func OpenBytesWithDslipak(data []byte) (doc Document, err error) {
	defer recoverDecode(&err, "dslipak")

	r, err := gopdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF with dslipak: %w", err)
	}
	return newDslipakDocument(r)
}

func newDslipakDocument(r *gopdf.Reader) (Document, error) {
	d := &DsliPakDocument{reader: r}
	d.extractMetadata()

	if err := d.initializePages(); err != nil {
		return nil, fmt.Errorf("failed to initialize pages: %w", err)
	}
	return d, nil
}

// extractMetadata reads the Info dictionary from the trailer
func (d *DsliPakDocument) extractMetadata() {
	info := d.reader.Trailer().Key("Info")
	if info.IsNull() {
		return
	}
	d.metadata = Metadata{
		Title:        info.Key("Title").Text(),
		Author:       info.Key("Author").Text(),
		Subject:      info.Key("Subject").Text(),
		Creator:      info.Key("Creator").Text(),
		Producer:     info.Key("Producer").Text(),
		CreationDate: parsePDFDate(info.Key("CreationDate").Text()),
		ModDate:      parsePDFDate(info.Key("ModDate").Text()),
	}
}

// initializePages initializes all pages in the document
func (d *DsliPakDocument) initializePages() error {
	pageCount := d.reader.NumPage()
	d.pages = make([]Page, pageCount)

	for i := 1; i <= pageCount; i++ {
		page, err := NewDsliPakPage(d.reader, i)
		if err != nil {
			return fmt.Errorf("failed to initialize page %d: %w", i, err)
		}
		d.pages[i-1] = page
	}

	return nil
}

// GetMetadata returns the PDF metadata
func (d *DsliPakDocument) GetMetadata() Metadata {
	return d.metadata
}

// GetPages returns all pages in the document
func (d *DsliPakDocument) GetPages() []Page {
	return d.pages
}

// GetPage returns a specific page by index (0-based)
func (d *DsliPakDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(d.pages))
	}
	return d.pages[index], nil
}

// PageCount returns the total number of pages
func (d *DsliPakDocument) PageCount() int {
	return len(d.pages)
}

// Backend returns BackendDslipak
func (d *DsliPakDocument) Backend() string {
	return BackendDslipak
}

// Close releases resources associated with the document
func (d *DsliPakDocument) Close() error {
	d.reader = nil
	d.pages = nil
	return nil
}

// DsliPakPage implements the Page interface using dslipak/pdf
type DsliPakPage struct {
	pageNumber int
	page       gopdf.Page
	width      float64
	height     float64
	objects    Objects
	err        error
}

// NewDsliPakPage creates a new page using dslipak/pdf
func NewDsliPakPage(reader *gopdf.Reader, pageNumber int) (Page, error) {
	if pageNumber < 1 || pageNumber > reader.NumPage() {
		return nil, fmt.Errorf("invalid page number: %d", pageNumber)
	}

	page := reader.Page(pageNumber)

	width, height := 612.0, 792.0 // 8.5 x 11 inches in points

	mediaBox := page.V.Key("MediaBox")
	if mediaBox.Kind() == gopdf.Array && mediaBox.Len() == 4 {
		width = mediaBox.Index(2).Float64() - mediaBox.Index(0).Float64()
		height = mediaBox.Index(3).Float64() - mediaBox.Index(1).Float64()
	}

	p := &DsliPakPage{
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
func (p *DsliPakPage) extractObjects() (err error) {
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
func (p *DsliPakPage) GetPageNumber() int {
	return p.pageNumber
}

// GetWidth returns the page width
func (p *DsliPakPage) GetWidth() float64 {
	return p.width
}

// GetHeight returns the page height
func (p *DsliPakPage) GetHeight() float64 {
	return p.height
}

// GetBBox returns the page bounding box
func (p *DsliPakPage) GetBBox() BoundingBox {
	return BoundingBox{X1: p.width, Y1: p.height}
}

// GetObjects returns all glyphs on the page
func (p *DsliPakPage) GetObjects() Objects {
	return p.objects
}

// ExtractText extracts text from the page
func (p *DsliPakPage) ExtractText(opts ...TextExtractionOption) string {
	return joinChars(p.objects.Chars, newTextExtractionConfig(opts))
}

// Err returns the content decoding error
func (p *DsliPakPage) Err() error {
	return p.err
}
