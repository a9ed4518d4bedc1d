package pdf

import (
	"time"
)

// BoundingBox represents a rectangular area in PDF user space.
// Y grows upward, so Y0 is the bottom edge and Y1 the top edge.
type BoundingBox struct {
	X0 float64 // Left
	Y0 float64 // Bottom
	X1 float64 // Right
	Y1 float64 // Top
}

// Width returns the width of the bounding box
func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the height of the bounding box
func (b BoundingBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Contains checks if a point is within the bounding box
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Y0 && y <= b.Y1
}

// Metadata represents PDF document metadata
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Creator      string
	Producer     string
	CreationDate time.Time
	ModDate      time.Time
}

// Objects represents the objects decoded from a page
type Objects struct {
	Chars []CharObject
}

// CharObject is a single glyph with its position
type CharObject struct {
	Text     string
	Font     string
	FontSize float64
	X0       float64
	Y0       float64 // baseline
	X1       float64
	Y1       float64
	Width    float64
	Height   float64
}

// GetBBox returns the character's bounding box
func (c CharObject) GetBBox() BoundingBox {
	return BoundingBox{X0: c.X0, Y0: c.Y0, X1: c.X1, Y1: c.Y1}
}

// TextElement is a positioned text fragment: a run of glyphs that the
// layout engine considers one box. Elements are immutable input for the
// row reconstruction.
type TextElement struct {
	X0   float64
	Y0   float64
	X1   float64
	Y1   float64
	Text string
}

// GetBBox returns the element's bounding box
func (e TextElement) GetBBox() BoundingBox {
	return BoundingBox{X0: e.X0, Y0: e.Y0, X1: e.X1, Y1: e.Y1}
}

// TextExtractionOption configures plain text extraction
type TextExtractionOption func(*textExtractionConfig)

type textExtractionConfig struct {
	SkipSpaces bool
	Separator  string
}

// WithSkipSpaces drops space glyphs from the extracted text
func WithSkipSpaces(skip bool) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.SkipSpaces = skip
	}
}

// WithSeparator inserts sep between consecutive text runs
func WithSeparator(sep string) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.Separator = sep
	}
}

func newTextExtractionConfig(opts []TextExtractionOption) *textExtractionConfig {
	config := &textExtractionConfig{}
	for _, opt := range opts {
		opt(config)
	}
	return config
}
