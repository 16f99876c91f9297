// Package textextract turns stored resume files into plain text.
package textextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"code.sajari.com/docconv"
	"github.com/debanirmalya/hirebuddy/internal/storage"
	"github.com/debanirmalya/hirebuddy/internal/utils"
	"github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported resume format")
	ErrExtractionFailure = errors.New("resume text extraction failed")
)

// Extractor reads a stored file and returns its text.
type Extractor interface {
	Extract(ctx context.Context, storedPath string) (string, error)
}

// SupportedFormats are the resume extensions Extract understands.
var SupportedFormats = []string{"pdf", "docx", "doc"}

const defaultMaxBytes = 16 << 20

type FileExtractor struct {
	files    storage.Opener
	maxBytes int64
}

func New(files storage.Opener) *FileExtractor {
	return &FileExtractor{files: files, maxBytes: defaultMaxBytes}
}

func (e *FileExtractor) Extract(ctx context.Context, storedPath string) (text string, err error) {
	ext := utils.Ext(storedPath)
	if !supported(ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	rc, err := e.files.Open(ctx, storedPath)
	if err != nil {
		return "", fmt.Errorf("%w: open: %v", ErrExtractionFailure, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, e.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read: %v", ErrExtractionFailure, err)
	}
	if int64(len(data)) > e.maxBytes {
		return "", fmt.Errorf("%w: file larger than %d bytes", ErrExtractionFailure, e.maxBytes)
	}

	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %s: %v", ErrExtractionFailure, ext, r)
		}
	}()

	switch ext {
	case "pdf":
		text, err = pdfText(data)
	case "docx":
		text, _, err = docconv.ConvertDocx(bytes.NewReader(data))
	case "doc":
		text, _, err = docconv.ConvertDoc(bytes.NewReader(data))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtractionFailure, ext, err)
	}
	return text, nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	b, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(b); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func supported(ext string) bool {
	for _, f := range SupportedFormats {
		if f == ext {
			return true
		}
	}
	return false
}
