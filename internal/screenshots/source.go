package screenshots

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source provides an interface for locating and fetching screenshot images.
// This interface enables mocking and testing of the input side of a run.
type Source interface {
	// List returns the screenshot names to process, in a stable order.
	List(ctx context.Context) ([]string, error)

	// Fetch returns the image bytes for one listed name.
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// ForInput picks a Source for the given input: a gs:// URI selects the GCS
// source, anything else is a local file or directory.
func ForInput(input string) (Source, error) {
	if strings.HasPrefix(input, "gs://") {
		return NewGCSSource(input)
	}
	return &DirSource{Path: input}, nil
}

// DirSource reads screenshots from a local directory, or a single file when
// Path points at one.
type DirSource struct {
	Path string
}

// List returns the image files under Path sorted by name.
func (s *DirSource) List(ctx context.Context) ([]string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, fmt.Errorf("List: stat %q: %w", s.Path, err)
	}
	if !info.IsDir() {
		return []string{s.Path}, nil
	}

	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, fmt.Errorf("List: reading directory %q: %w", s.Path, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		names = append(names, filepath.Join(s.Path, e.Name()))
	}
	sort.Strings(names)
	return names, nil
}

// Fetch reads one screenshot from disk.
func (s *DirSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading %q: %w", name, err)
	}
	return data, nil
}

// IsImage reports whether the file name has a supported screenshot extension.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// MimeType returns the MIME type for a screenshot file name.
func MimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
