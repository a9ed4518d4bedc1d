package pdf

// Document represents an opened PDF invoice with its decoded pages
type Document interface {
	// GetMetadata returns the PDF metadata
	GetMetadata() Metadata

	// GetPages returns all pages in the document
	GetPages() []Page

	// GetPage returns a specific page by index (0-based)
	GetPage(index int) (Page, error)

	// PageCount returns the total number of pages
	PageCount() int

	// Backend names the library that decoded the document
	Backend() string

	// Close releases resources associated with the document
	Close() error
}

// Page represents a single decoded page
type Page interface {
	// GetPageNumber returns the page number (1-based)
	GetPageNumber() int

	// GetWidth returns the page width
	GetWidth() float64

	// GetHeight returns the page height
	GetHeight() float64

	// GetBBox returns the page bounding box
	GetBBox() BoundingBox

	// GetObjects returns the glyphs found on the page
	GetObjects() Objects

	// ExtractText concatenates the page text in content-stream order
	ExtractText(opts ...TextExtractionOption) string

	// Err returns the error raised while decoding the page content, if any.
	// A page with an error has no objects.
	Err() error
}
