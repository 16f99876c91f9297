package textextract

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type memOpener map[string]string

func (m memOpener) Open(_ context.Context, p string) (io.ReadCloser, error) {
	body, ok := m[p]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := New(memOpener{"resume.txt": "plain text"})

	for _, p := range []string{"resume.txt", "resume", "photo.PNG"} {
		_, err := e.Extract(context.Background(), p)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, p)
	}
}

func TestExtract_Failures(t *testing.T) {
	e := New(memOpener{
		"broken.pdf":  "this is not a pdf",
		"broken.docx": "neither is this a docx",
	})

	for _, p := range []string{"missing.pdf", "broken.pdf", "broken.docx"} {
		_, err := e.Extract(context.Background(), p)
		assert.ErrorIs(t, err, ErrExtractionFailure, p)
	}
}

func TestExtract_TooLarge(t *testing.T) {
	e := New(memOpener{"big.pdf": strings.Repeat("x", 64)})
	e.maxBytes = 32

	_, err := e.Extract(context.Background(), "big.pdf")
	assert.ErrorIs(t, err, ErrExtractionFailure)
}
