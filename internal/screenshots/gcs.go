package screenshots

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSSource lists and fetches screenshots stored under a bucket prefix.
// It assumes Application Default Credentials are configured
// (gcloud auth application-default login).
type GCSSource struct {
	Bucket string
	Prefix string
}

// NewGCSSource parses a gs://bucket/prefix URI.
func NewGCSSource(uri string) (*GCSSource, error) {
	if !strings.HasPrefix(uri, "gs://") {
		return nil, fmt.Errorf("NewGCSSource: invalid GCS URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)

	src := &GCSSource{Bucket: parts[0]}
	if len(parts) == 2 {
		src.Prefix = parts[1]
	}
	if src.Bucket == "" {
		return nil, fmt.Errorf("NewGCSSource: invalid GCS URI (no bucket): %s", uri)
	}
	return src, nil
}

// List returns gs:// URIs for every image object under the prefix.
func (s *GCSSource) List(ctx context.Context) ([]string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: creating storage client: %w", err)
	}
	defer client.Close()

	var names []string
	it := client.Bucket(s.Bucket).Objects(ctx, &storage.Query{Prefix: s.Prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("List: listing gs://%s/%s: %w", s.Bucket, s.Prefix, err)
		}
		if !IsImage(attrs.Name) {
			continue
		}
		names = append(names, fmt.Sprintf("gs://%s/%s", s.Bucket, attrs.Name))
	}
	return names, nil
}

// Fetch downloads one object's bytes from the given gs:// URI.
func (s *GCSSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	trimmed := strings.TrimPrefix(name, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("Fetch: invalid GCS URI (no object path): %s", name)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(parts[0]).Object(parts[1]).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}
