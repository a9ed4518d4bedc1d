package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoTextBackend is returned when no text backend could decode a document
var ErrNoTextBackend = errors.New("no PDF backend could decode the document")

// Info summarizes a document as seen by the pdfcpu validator
type Info struct {
	PageCount int
	Encrypted bool
	Metadata  Metadata
}

var configOnce sync.Once

// pdfcpu keeps its configuration under the user config dir unless disabled
func disableConfigDir() {
	configOnce.Do(api.DisableConfigDir)
}

// Inspect parses and validates a PDF file with pdfcpu
func Inspect(filepath string) (Info, error) {
	disableConfigDir()

	ctx, err := api.ReadContextFile(filepath)
	if err != nil {
		return Info{}, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return inspectContext(ctx)
}

// InspectBytes parses and validates an in-memory PDF with pdfcpu
func InspectBytes(data []byte) (Info, error) {
	disableConfigDir()

	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return Info{}, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return inspectContext(ctx)
}

func inspectContext(ctx *model.Context) (Info, error) {
	if err := api.ValidateContext(ctx); err != nil {
		return Info{}, fmt.Errorf("invalid PDF: %w", err)
	}

	return Info{
		PageCount: ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
		Metadata: Metadata{
			Title:        ctx.Title,
			Author:       ctx.Author,
			Subject:      ctx.Subject,
			Creator:      ctx.Creator,
			Producer:     ctx.Producer,
			CreationDate: parsePDFDate(ctx.XRefTable.CreationDate),
			ModDate:      parsePDFDate(ctx.XRefTable.ModDate),
		},
	}, nil
}

// Diagnose explains why the text backends failed. pdfcpu is stricter than
// the text readers, so its validation error usually names the broken object.
func Diagnose(backendErr error, info Info, inspectErr error) error {
	switch {
	case inspectErr != nil:
		return fmt.Errorf("%w: %v (validation: %v)", ErrNoTextBackend, backendErr, inspectErr)
	case info.Encrypted:
		return fmt.Errorf("%w: document is encrypted: %v", ErrNoTextBackend, backendErr)
	default:
		return fmt.Errorf("%w: %d pages validated but text decoding failed: %v", ErrNoTextBackend, info.PageCount, backendErr)
	}
}
