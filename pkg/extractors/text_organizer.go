package extractors

import (
	"sort"
	"strings"

	"github.com/pyhub-apps/factura-energia-golang/pkg/pdf"
)

// TextOrganizer merges glyphs into positioned text fragments, the boxes a
// layout engine would report for a page
type TextOrganizer struct {
	lineTolerance float64 // Vertical tolerance for glyphs sharing a baseline
	charMargin    float64 // Gap, in glyph widths, that starts a new fragment
	wordMargin    float64 // Gap, in glyph widths, that inserts a space
}

// NewTextOrganizer creates a new text organizer with default tolerances
func NewTextOrganizer() *TextOrganizer {
	return &TextOrganizer{
		lineTolerance: 2.0,
		charMargin:    2.0,
		wordMargin:    0.1,
	}
}

// SetTolerances sets the tolerances for text grouping
func (to *TextOrganizer) SetTolerances(lineTol, charMargin, wordMargin float64) {
	to.lineTolerance = lineTol
	to.charMargin = charMargin
	to.wordMargin = wordMargin
}

// Fragments groups glyphs into text elements. Glyphs on one baseline are
// merged left to right until the gap to the next glyph exceeds charMargin.
func (to *TextOrganizer) Fragments(chars []pdf.CharObject) []pdf.TextElement {
	if len(chars) == 0 {
		return nil
	}

	sortedChars := to.sortCharacters(chars)
	lines := to.groupIntoLines(sortedChars)

	var elements []pdf.TextElement
	for _, line := range lines {
		elements = append(elements, to.splitLine(line)...)
	}
	return elements
}

// sortCharacters sorts glyphs top to bottom, then left to right
func (to *TextOrganizer) sortCharacters(chars []pdf.CharObject) []pdf.CharObject {
	sorted := make([]pdf.CharObject, 0, len(chars))
	for _, ch := range chars {
		if strings.TrimSpace(ch.Text) == "" {
			continue
		}
		sorted = append(sorted, ch)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y0 != sorted[j].Y0 {
			return sorted[i].Y0 > sorted[j].Y0 // PDF coordinates: Y increases upward
		}
		return sorted[i].X0 < sorted[j].X0
	})

	return sorted
}

// groupIntoLines groups characters into lines based on baseline position
func (to *TextOrganizer) groupIntoLines(chars []pdf.CharObject) [][]pdf.CharObject {
	if len(chars) == 0 {
		return nil
	}

	var lines [][]pdf.CharObject
	var currentLine []pdf.CharObject

	currentY := chars[0].Y0

	for _, char := range chars {
		if abs(char.Y0-currentY) > to.lineTolerance {
			if len(currentLine) > 0 {
				lines = append(lines, currentLine)
			}
			currentLine = []pdf.CharObject{char}
			currentY = char.Y0
		} else {
			currentLine = append(currentLine, char)
		}
	}

	if len(currentLine) > 0 {
		lines = append(lines, currentLine)
	}

	return lines
}

// splitLine cuts one line of glyphs into fragments at wide gaps
func (to *TextOrganizer) splitLine(lineChars []pdf.CharObject) []pdf.TextElement {
	sort.SliceStable(lineChars, func(i, j int) bool {
		return lineChars[i].X0 < lineChars[j].X0
	})

	var elements []pdf.TextElement
	var current []pdf.CharObject
	var spaces []bool

	for i, char := range lineChars {
		if i == 0 {
			current = []pdf.CharObject{char}
			spaces = []bool{false}
			continue
		}

		prev := lineChars[i-1]
		gap := char.X0 - prev.X1
		width := glyphWidth(prev, char)

		if gap > to.charMargin*width {
			elements = append(elements, to.createElement(current, spaces))
			current = []pdf.CharObject{char}
			spaces = []bool{false}
			continue
		}
		current = append(current, char)
		spaces = append(spaces, gap > to.wordMargin*width)
	}

	if len(current) > 0 {
		elements = append(elements, to.createElement(current, spaces))
	}

	return elements
}

// createElement creates a TextElement from a run of glyphs.
// spaces[i] reports whether a space precedes glyph i.
func (to *TextOrganizer) createElement(chars []pdf.CharObject, spaces []bool) pdf.TextElement {
	var text strings.Builder
	minX, minY := chars[0].X0, chars[0].Y0
	maxX, maxY := chars[0].X1, chars[0].Y1

	for i, char := range chars {
		if spaces[i] {
			text.WriteString(" ")
		}
		text.WriteString(char.Text)
		minX = min(minX, char.X0)
		minY = min(minY, char.Y0)
		maxX = max(maxX, char.X1)
		maxY = max(maxY, char.Y1)
	}

	return pdf.TextElement{
		Text: strings.TrimSpace(text.String()),
		X0:   minX,
		Y0:   minY,
		X1:   maxX,
		Y1:   maxY,
	}
}

// glyphWidth picks the reference width for gap comparisons. Readers report
// zero widths for fonts without metrics; half the font size stands in then.
func glyphWidth(a, b pdf.CharObject) float64 {
	w := max(a.Width, b.Width)
	if w <= 0 {
		w = max(a.FontSize, b.FontSize) * 0.5
	}
	return w
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
