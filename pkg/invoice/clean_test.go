package invoice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		expected  string
		malformed bool
	}{
		{name: "thousands separators", raw: "1,234,567", expected: "1234567"},
		{name: "negative", raw: "-1,234", expected: "-1234"},
		{name: "decimal", raw: "250.12", expected: "250.12"},
		{name: "leading comma", raw: ",450", expected: "450"},
		{name: "surrounding space", raw: " 12 ", expected: "12"},
		{name: "duplicated minus", raw: "--1,234", expected: "-1234", malformed: true},
		{name: "interior minus", raw: "12-34", expected: "1234", malformed: true},
		{name: "only separators", raw: ",", expected: "", malformed: true},
		{name: "not a number", raw: "1.2.3", expected: "1.2.3", malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Clean(tt.raw)
			assert.Equal(t, tt.expected, got)
			if tt.malformed {
				assert.ErrorIs(t, err, ErrMalformedNumber)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClean_SignPreserved(t *testing.T) {
	for _, raw := range []string{"-1", "-1,000", "--5", "-1-2", "-0.5"} {
		got, _ := Clean(raw)
		assert.True(t, strings.HasPrefix(got, "-"), raw)
		assert.Equal(t, 1, strings.Count(got, "-"), raw)
	}
}

func TestParseDecimal(t *testing.T) {
	d, ok := ParseDecimal("-1250.5")
	require.True(t, ok)
	assert.Equal(t, "-1250.5", d.String())

	for _, v := range []string{NotFound, NotApplicable, "", "abc"} {
		_, ok := ParseDecimal(v)
		assert.False(t, ok, v)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{name: "utf-8", data: []byte("Energía"), expected: "Energía"},
		{name: "byte order mark", data: []byte("\xEF\xBB\xBFNeto"), expected: "Neto"},
		{name: "latin-1", data: []byte("Energ\xeda reactiva"), expected: "Energía reactiva"},
		{name: "decomposed accent", data: []byte("Energi\u0301a"), expected: "Energía"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFields(t *testing.T) {
	f := NewFields([]string{"a", "b", "c"}, map[string]string{"a": "1", "b": NotFound, "z": "9"})

	assert.Equal(t, "1", f.Get("a"))
	assert.Equal(t, NotFound, f.Get("c"))
	assert.Equal(t, NotFound, f.Get("z"))
	assert.True(t, f.Found("a"))
	assert.False(t, f.Found("b"))
	assert.Equal(t, []string{"b", "c"}, f.Missing())

	m := f.Map()
	m["a"] = "changed"
	assert.Equal(t, "1", f.Get("a"))
}

func TestColumns(t *testing.T) {
	cols := Columns([]string{KeyDueDate, "neto_pagar"})

	require.Len(t, cols, 3+8*len(ComponentColumns))
	assert.Equal(t, ColumnFile, cols[0])
	assert.Equal(t, "neto_pagar", cols[2])
	assert.Equal(t, "Generación kwh_kvarh", cols[3])
	assert.Equal(t, "Energía inductiva + capacitiva total", cols[len(cols)-1])
}
