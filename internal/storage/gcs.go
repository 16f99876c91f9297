package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps files in a private bucket. Stored paths are gs:// URLs.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	c, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: c, bucket: bucket}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error) {
	obj := s.client.Bucket(s.bucket).Object(objectName).If(gcs.Conditions{DoesNotExist: true})

	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

func (s *GCSStore) Open(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	object, err := s.objectName(storedPath)
	if err != nil {
		return nil, err
	}
	return s.client.Bucket(s.bucket).Object(object).NewReader(ctx)
}

func (s *GCSStore) Delete(ctx context.Context, storedPath string) error {
	object, err := s.objectName(storedPath)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(object).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *GCSStore) SignedGetURL(_ context.Context, storedPath string, ttl time.Duration) (string, error) {
	object, err := s.objectName(storedPath)
	if err != nil {
		return "", err
	}
	return s.client.Bucket(s.bucket).SignedURL(object, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
}

func (s *GCSStore) objectName(storedPath string) (string, error) {
	prefix := "gs://" + s.bucket + "/"
	if !strings.HasPrefix(storedPath, prefix) {
		// bare object names are accepted as well
		if strings.HasPrefix(storedPath, "gs://") || storedPath == "" {
			return "", ErrInvalidPath
		}
		return storedPath, nil
	}
	return strings.TrimPrefix(storedPath, prefix), nil
}
