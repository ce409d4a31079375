package screenshots

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDirSourceListsImagesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "notes.txt", "c.JPEG"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	src := &DirSource{Path: dir}
	got, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.JPEG"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestDirSourceSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eth.jpg")
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := &DirSource{Path: path}
	got, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0] != path {
		t.Errorf("List = %v, want just %q", got, path)
	}

	data, err := src.Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != "img" {
		t.Errorf("Fetch = %q, want img", data)
	}
}

func TestForInput(t *testing.T) {
	src, err := ForInput("gs://shots/2025")
	if err != nil {
		t.Fatalf("ForInput failed: %v", err)
	}
	gcs, ok := src.(*GCSSource)
	if !ok {
		t.Fatalf("ForInput(gs://...) = %T, want *GCSSource", src)
	}
	if gcs.Bucket != "shots" || gcs.Prefix != "2025" {
		t.Errorf("parsed bucket/prefix = %q/%q", gcs.Bucket, gcs.Prefix)
	}

	src, err = ForInput("data")
	if err != nil {
		t.Fatalf("ForInput failed: %v", err)
	}
	if _, ok := src.(*DirSource); !ok {
		t.Errorf("ForInput(data) = %T, want *DirSource", src)
	}
}

func TestNewGCSSourceRejectsEmptyBucket(t *testing.T) {
	if _, err := NewGCSSource("gs:///prefix"); err == nil {
		t.Error("expected error for empty bucket")
	}
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"shot.png", "image/png"},
		{"shot.PNG", "image/png"},
		{"shot.jpg", "image/jpeg"},
		{"shot.jpeg", "image/jpeg"},
	}
	for _, tt := range tests {
		if got := MimeType(tt.name); got != tt.want {
			t.Errorf("MimeType(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
