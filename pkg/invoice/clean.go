package invoice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedNumber flags a captured value that needed more than separator
// stripping. The value returned alongside it is still usable.
var ErrMalformedNumber = errors.New("malformed number")

// Clean strips thousands separators from a captured number. A leading minus
// is kept once; any other minus sign is dropped and reported.
func Clean(raw string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return "", fmt.Errorf("%w: empty value %q", ErrMalformedNumber, raw)
	}

	negative := strings.HasPrefix(s, "-")
	minus := strings.Count(s, "-")
	value := strings.ReplaceAll(s, "-", "")
	if negative {
		value = "-" + value
	}

	if _, err := decimal.NewFromString(value); err != nil {
		return value, fmt.Errorf("%w: %q", ErrMalformedNumber, raw)
	}
	if (negative && minus > 1) || (!negative && minus > 0) {
		return value, fmt.Errorf("%w: %q has a misplaced minus sign", ErrMalformedNumber, raw)
	}
	return value, nil
}

// ParseDecimal converts a cleaned value. Sentinels and unparseable text
// report ok == false.
func ParseDecimal(value string) (decimal.Decimal, bool) {
	if value == NotFound || value == NotApplicable || value == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
