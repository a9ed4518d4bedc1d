package pdf

import (
	"errors"
	"testing"
	"time"
)

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "Full date with prefix",
			input:    "D:20240315103000-05'00'",
			expected: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "Date only",
			input:    "D:20240315",
			expected: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Too short",
			input:    "D:2024",
			expected: time.Time{},
		},
		{
			name:     "Garbage",
			input:    "yesterday",
			expected: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePDFDate(tt.input)
			if !got.Equal(tt.expected) {
				t.Errorf("parsePDFDate(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewCharObject(t *testing.T) {
	ch, ok := newCharObject("A", "Helvetica", 10, 50, 700, 6.67)
	if !ok {
		t.Fatal("expected a glyph")
	}
	if ch.X1 != 50+6.67 {
		t.Errorf("X1 = %v, want %v", ch.X1, 50+6.67)
	}
	if ch.Y1 != 710 {
		t.Errorf("Y1 = %v, want 710", ch.Y1)
	}

	if _, ok := newCharObject("", "Helvetica", 10, 0, 0, 0); ok {
		t.Error("empty text must not produce a glyph")
	}

	ch, _ = newCharObject("x", "", 0, 0, 0, 1)
	if ch.FontSize != 1 {
		t.Errorf("zero font size should default to 1, got %v", ch.FontSize)
	}
}

func TestJoinChars(t *testing.T) {
	chars := []CharObject{{Text: "a"}, {Text: " "}, {Text: "b"}}

	if got := joinChars(chars, newTextExtractionConfig(nil)); got != "a b" {
		t.Errorf("joinChars = %q, want %q", got, "a b")
	}
	if got := joinChars(chars, newTextExtractionConfig([]TextExtractionOption{WithSkipSpaces(true)})); got != "ab" {
		t.Errorf("joinChars skip spaces = %q, want %q", got, "ab")
	}
	if got := joinChars(chars, newTextExtractionConfig([]TextExtractionOption{WithSeparator("|")})); got != "a| |b" {
		t.Errorf("joinChars separator = %q, want %q", got, "a| |b")
	}
}

func TestRecoverDecode(t *testing.T) {
	decode := func() (err error) {
		defer recoverDecode(&err, "page 3")
		panic("malformed stream")
	}

	err := decode()
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestBoundingBox(t *testing.T) {
	b := BoundingBox{X0: 10, Y0: 20, X1: 110, Y1: 70}
	if b.Width() != 100 || b.Height() != 50 {
		t.Errorf("unexpected size %vx%v", b.Width(), b.Height())
	}
	if !b.Contains(50, 50) {
		t.Error("expected point inside")
	}
	if b.Contains(5, 50) {
		t.Error("expected point outside")
	}
}

func TestDiagnose(t *testing.T) {
	backendErr := errors.New("boom")

	err := Diagnose(backendErr, Info{}, errors.New("xref broken"))
	if !errors.Is(err, ErrNoTextBackend) {
		t.Errorf("expected ErrNoTextBackend, got %v", err)
	}

	err = Diagnose(backendErr, Info{Encrypted: true}, nil)
	if !errors.Is(err, ErrNoTextBackend) {
		t.Errorf("expected ErrNoTextBackend, got %v", err)
	}
}
