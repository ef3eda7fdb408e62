package textextract

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/rotisserie/eris"
)

// Pdftotext shells out to poppler's pdftotext, which copes better with
// PDFs whose text layer the in-process parser chokes on.
type Pdftotext struct {
	binPath string
}

// NewPdftotext creates a Pdftotext extractor. An empty binPath falls
// back to "pdftotext" on PATH.
func NewPdftotext(binPath string) *Pdftotext {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &Pdftotext{binPath: binPath}
}

// Extract writes the bytes to a temp file and runs pdftotext -layout
// on it. The temp file is removed on every exit path.
func (p *Pdftotext) Extract(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "extract-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "textextract: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", eris.Wrap(err, "textextract: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrap(err, "textextract: close temp file")
	}

	cmd := exec.CommandContext(ctx, p.binPath, "-layout", tmp.Name(), "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "textextract: pdftotext failed: %s", stderr.String())
	}
	return stdout.String(), nil
}
