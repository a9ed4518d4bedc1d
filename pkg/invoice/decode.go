package invoice

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// ErrUndecodable is returned when the text is neither UTF-8 nor Latin-1
var ErrUndecodable = errors.New("undecodable invoice text")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode reads invoice text as UTF-8, falling back to ISO-8859-1, and
// normalizes it to NFC so composed and decomposed accents match alike.
func Decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return norm.NFC.String(string(data)), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return norm.NFC.String(string(decoded)), nil
}
