package pdf

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDecode marks a failure inside a PDF reader while decoding objects or
// content streams
var ErrDecode = errors.New("pdf decode failure")

// recoverDecode converts a panic raised by a PDF reader into an error.
// The readers panic on malformed objects instead of returning errors.
func recoverDecode(err *error, where string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %s: %v", ErrDecode, where, r)
	}
}

// newCharObject builds a glyph from a positioned text run. Runs usually hold
// a single glyph; longer runs get their width split evenly.
func newCharObject(s, font string, fontSize, x, y, w float64) (CharObject, bool) {
	if s == "" {
		return CharObject{}, false
	}
	if fontSize <= 0 {
		fontSize = 1
	}
	return CharObject{
		Text:     s,
		Font:     font,
		FontSize: fontSize,
		X0:       x,
		Y0:       y,
		X1:       x + w,
		Y1:       y + fontSize,
		Width:    w,
		Height:   fontSize,
	}, true
}

// joinChars concatenates glyph text in content order
func joinChars(chars []CharObject, config *textExtractionConfig) string {
	var text strings.Builder
	for i, ch := range chars {
		if config.SkipSpaces && strings.TrimSpace(ch.Text) == "" {
			continue
		}
		if i > 0 && config.Separator != "" {
			text.WriteString(config.Separator)
		}
		text.WriteString(ch.Text)
	}
	return text.String()
}

// parsePDFDate parses the PDF date format D:YYYYMMDDHHmmSSOHH'mm.
// Only the date and time part is used; the offset is ignored.
func parsePDFDate(dateStr string) time.Time {
	dateStr = strings.TrimPrefix(dateStr, "D:")
	if len(dateStr) < 8 {
		return time.Time{}
	}

	layout := "20060102150405"
	if len(dateStr) >= 14 {
		if t, err := time.Parse(layout, dateStr[:14]); err == nil {
			return t
		}
	}
	if t, err := time.Parse("20060102", dateStr[:8]); err == nil {
		return t
	}

	return time.Time{}
}
