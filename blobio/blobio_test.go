package blobio

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestParseGCSPath(t *testing.T) {
	testCases := []struct {
		name       string
		wantBucket string
		wantObject string
		wantOK     bool
	}{
		{"gs://bucket/scenes/demo.yaml", "bucket", "scenes/demo.yaml", true},
		{"gs://bucket/x", "bucket", "x", true},
		{"gs://bucket", "", "", false},
		{"gs://bucket/", "", "", false},
		{"gs:///object", "", "", false},
		{"/tmp/scene.yaml", "", "", false},
	}
	for _, tc := range testCases {
		bucket, object, ok := ParseGCSPath(tc.name)
		if bucket != tc.wantBucket || object != tc.wantObject || ok != tc.wantOK {
			t.Errorf("ParseGCSPath(%q); got (%q, %q, %v), want (%q, %q, %v)", tc.name, bucket, object, ok, tc.wantBucket, tc.wantObject, tc.wantOK)
		}
	}
}

func TestJoin(t *testing.T) {
	if got, want := Join("gs://bucket/sky/", "top.png"), "gs://bucket/sky/top.png"; got != want {
		t.Errorf("Bad GCS join; got %q, want %q", got, want)
	}
	if got, want := Join("/tmp/sky", "top.png"), filepath.Join("/tmp/sky", "top.png"); got != want {
		t.Errorf("Bad local join; got %q, want %q", got, want)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	name := filepath.Join(t.TempDir(), "blob")

	w, err := Create(ctx, name)
	if err != nil {
		t.Fatalf("Unexpected error from Create: %v", err)
	}
	if _, err := io.WriteString(w, "hello"); err != nil {
		t.Fatalf("Unexpected error writing: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Unexpected error closing: %v", err)
	}

	got, err := ReadAll(ctx, name)
	if err != nil {
		t.Fatalf("Unexpected error from ReadAll: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Bad content; got %q, want %q", got, "hello")
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open of missing file; got %v, want an error matching fs.ErrNotExist", err)
	}

	if _, err := Open(context.Background(), "gs://no-object"); err == nil {
		t.Errorf("Open accepted a malformed GCS path")
	}
}
