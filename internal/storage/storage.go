package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrExists is returned when a write-once object is written twice.
	ErrExists = errors.New("object already exists")
	// ErrInvalidPath is returned for stored paths outside the store.
	ErrInvalidPath = errors.New("invalid stored path")
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
	// Delete removes a stored object. A missing object is not an error.
	Delete(ctx context.Context, storedPath string) error
}

type Opener interface {
	Open(ctx context.Context, storedPath string) (io.ReadCloser, error)
}

type Signer interface {
	SignedGetURL(ctx context.Context, storedPath string, ttl time.Duration) (string, error)
}

// Store is a write-once file store for resumes and identity documents.
type Store interface {
	Uploader
	Opener
}

// ResumeObject is the object name of an uploaded resume.
func ResumeObject(storedName string) string {
	return "resumes/" + storedName
}

// DocumentObject is the object name of an uploaded identity document.
func DocumentObject(docType, storedName string) string {
	return "documents/" + docType + "/" + storedName
}
