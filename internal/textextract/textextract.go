// Package textextract turns stored PDF bytes into plain text for
// summarization.
package textextract

import (
	"context"

	"github.com/rotisserie/eris"
)

// Extractor converts one PDF's raw bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Kind selects the extraction backend.
type Kind string

const (
	// KindNative parses the PDF in-process.
	KindNative Kind = "pdf"
	// KindPdftotext shells out to the poppler pdftotext binary.
	KindPdftotext Kind = "pdftotext"
)

// New returns the extractor for kind. binPath only applies to
// KindPdftotext and may be empty for the default binary.
func New(kind Kind, binPath string) (Extractor, error) {
	switch kind {
	case KindNative, "":
		return &Native{}, nil
	case KindPdftotext:
		return NewPdftotext(binPath), nil
	default:
		return nil, eris.Errorf("textextract: unknown extractor %q", kind)
	}
}
