// Package gcs implements an artifact sink backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// Config captures the parameters for the GCS sink.
type Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Extension string `mapstructure:"extension"`
}

// Sink streams one object per identifier into a GCS bucket. Authentication is
// handled via Application Default Credentials.
type Sink struct {
	client *storage.Client
	bucket string
	prefix string
	ext    string
}

// New creates the sink and verifies the bucket is reachable so the run fails
// fast on misconfiguration.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	ext := cfg.Extension
	if ext == "" {
		ext = ".mol"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("get bucket %q attributes: %w", cfg.Bucket, err)
	}
	return &Sink{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		ext:    ext,
	}, nil
}

func (s *Sink) objectName(id string) string {
	if s.prefix == "" {
		return id + s.ext
	}
	return s.prefix + "/" + id + s.ext
}

// Put streams body to the object for id and returns the bytes written.
// Close must succeed for the upload to be finalized; on error nothing is
// committed, so no partial object is left behind.
func (s *Sink) Put(ctx context.Context, id string, body io.Reader) (int64, error) {
	if strings.TrimSpace(id) == "" {
		return 0, fmt.Errorf("identifier is required")
	}
	wc := s.client.Bucket(s.bucket).Object(s.objectName(id)).NewWriter(ctx)
	written, err := io.Copy(wc, body)
	if err != nil {
		_ = wc.Close()
		return written, fmt.Errorf("stream object %s: %w", id, err)
	}
	if err := wc.Close(); err != nil {
		return written, fmt.Errorf("finalize object %s: %w", id, err)
	}
	return written, nil
}

// Remove deletes the object for id if present.
func (s *Sink) Remove(ctx context.Context, id string) error {
	err := s.client.Bucket(s.bucket).Object(s.objectName(id)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Sink) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close gcs client: %w", err)
	}
	return nil
}
