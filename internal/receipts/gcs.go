package receipts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/auto-journal/internal/domain"
)

// GCSSource reads images stored under a gs://bucket/prefix location.
type GCSSource struct {
	client *storage.Client
	bucket string
	prefix string
}

// ParseGCSURI splits gs://bucket/prefix into bucket and prefix. The prefix may be empty.
func ParseGCSURI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no bucket): %s", uri)
	}
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return parts[0], prefix, nil
}

// IsGCSURI reports whether location should be read from Cloud Storage.
func IsGCSURI(location string) bool {
	return strings.HasPrefix(location, "gs://")
}

// NewGCSSource creates a source using an existing storage client. The caller owns the client.
// The URI names a folder: gs://bucket/receipts and gs://bucket/receipts/ are the same source.
func NewGCSSource(client *storage.Client, uri string) (*GCSSource, error) {
	bucket, prefix, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	return &GCSSource{client: client, bucket: bucket, prefix: folderPrefix(prefix)}, nil
}

// folderPrefix makes a non-empty prefix end in "/" so a delimited listing returns the
// folder's objects instead of the folder itself.
func folderPrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

// Name identifies the source in logs and the run report.
func (s *GCSSource) Name() string {
	return "receipts:gs://" + s.bucket + "/" + s.prefix
}

// List returns image objects directly under the prefix, sorted by name.
func (s *GCSSource) List(ctx context.Context) ([]Image, error) {
	query := &storage.Query{Prefix: s.prefix, Delimiter: "/"}
	if err := query.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, fmt.Errorf("receipts.GCSSource.List: %w", err)
	}

	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	var images []Image
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if errors.Is(err, storage.ErrBucketNotExist) {
				return nil, fmt.Errorf("receipts.GCSSource.List: gs://%s: %w", s.bucket, domain.ErrSourceUnavailable)
			}
			return nil, fmt.Errorf("receipts.GCSSource.List: iterate gs://%s/%s: %w", s.bucket, s.prefix, err)
		}
		// Delimiter listings return synthetic prefix entries with an empty Name.
		if attrs.Name == "" || !IsImage(attrs.Name) {
			continue
		}
		images = append(images, Image{
			Name:     path.Base(attrs.Name),
			Location: "gs://" + s.bucket + "/" + attrs.Name,
		})
	}
	sortImages(images)
	return images, nil
}

// Open downloads the object bytes.
func (s *GCSSource) Open(ctx context.Context, img Image) ([]byte, error) {
	_, object, err := ParseGCSURI(img.Location)
	if err != nil {
		return nil, fmt.Errorf("receipts.GCSSource.Open: %w", err)
	}

	rc, err := s.client.Bucket(s.bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("receipts.GCSSource.Open: reading object %s/%s: %w", s.bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("receipts.GCSSource.Open: reading bytes: %w", err)
	}
	return data, nil
}
