package textextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ex, err := New(KindNative, "")
	require.NoError(t, err)
	assert.IsType(t, &Native{}, ex)

	ex, err = New("", "")
	require.NoError(t, err)
	assert.IsType(t, &Native{}, ex)

	ex, err = New(KindPdftotext, "/opt/poppler/bin/pdftotext")
	require.NoError(t, err)
	require.IsType(t, &Pdftotext{}, ex)
	assert.Equal(t, "/opt/poppler/bin/pdftotext", ex.(*Pdftotext).binPath)

	_, err = New("tesseract", "")
	assert.Error(t, err)
}

func TestNewPdftotext_DefaultBinary(t *testing.T) {
	assert.Equal(t, "pdftotext", NewPdftotext("").binPath)
}
