// Package blobio reads and writes whole files that live either on the local
// filesystem or in Cloud Storage, addressed as gs://bucket/object.
package blobio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	googleopt "google.golang.org/api/option"
)

const gcsScheme = "gs://"

// ParseGCSPath splits a gs://bucket/object name.  ok is false for anything
// that should be treated as a local path.
func ParseGCSPath(name string) (bucket, object string, ok bool) {
	if !strings.HasPrefix(name, gcsScheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(name, gcsScheme)
	idx := strings.Index(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

// IsGCSPath reports whether name uses the gs:// scheme, well-formed or not.
func IsGCSPath(name string) bool {
	return strings.HasPrefix(name, gcsScheme)
}

func newGCSClient(ctx context.Context) (*storage.Client, error) {
	gcs, err := storage.NewClient(ctx, googleopt.WithUserAgent("row-major/whitted"))
	if err != nil {
		return nil, fmt.Errorf("while creating GCS client: %w", err)
	}
	return gcs, nil
}

type gcsReader struct {
	*storage.Reader
	gcs *storage.Client
}

func (r *gcsReader) Close() error {
	rErr := r.Reader.Close()
	cErr := r.gcs.Close()
	if rErr != nil {
		return rErr
	}
	return cErr
}

type gcsWriter struct {
	*storage.Writer
	gcs *storage.Client
}

func (w *gcsWriter) Close() error {
	wErr := w.Writer.Close()
	cErr := w.gcs.Close()
	if wErr != nil {
		return fmt.Errorf("while finalizing object: %w", wErr)
	}
	return cErr
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Open opens name for reading.  Missing files and objects both yield an error
// matching fs.ErrNotExist.
func Open(ctx context.Context, name string) (io.ReadCloser, error) {
	tracer := otel.Tracer("row-major/whitted/blobio")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "blobio.Open")
	defer span.End()

	span.SetAttributes(attribute.String("name", name))

	if !IsGCSPath(name) {
		f, err := os.Open(name)
		if err != nil {
			return nil, fail(span, fmt.Errorf("while opening file: %w", err))
		}
		span.SetStatus(codes.Ok, "")
		return f, nil
	}

	bucket, object, ok := ParseGCSPath(name)
	if !ok {
		return nil, fail(span, fmt.Errorf("malformed GCS path %q", name))
	}

	gcs, err := newGCSClient(ctx)
	if err != nil {
		return nil, fail(span, err)
	}

	r, err := gcs.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		gcs.Close()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fail(span, fmt.Errorf("while opening reader for %s: %w", name, fs.ErrNotExist))
		}
		return nil, fail(span, fmt.Errorf("while opening reader for %s: %w", name, err))
	}

	span.SetStatus(codes.Ok, "")
	return &gcsReader{Reader: r, gcs: gcs}, nil
}

// Create opens name for writing, truncating any existing content.  For GCS
// objects nothing is visible until Close returns successfully.
func Create(ctx context.Context, name string) (io.WriteCloser, error) {
	tracer := otel.Tracer("row-major/whitted/blobio")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "blobio.Create")
	defer span.End()

	span.SetAttributes(attribute.String("name", name))

	if !IsGCSPath(name) {
		f, err := os.Create(name)
		if err != nil {
			return nil, fail(span, fmt.Errorf("while creating file: %w", err))
		}
		span.SetStatus(codes.Ok, "")
		return f, nil
	}

	bucket, object, ok := ParseGCSPath(name)
	if !ok {
		return nil, fail(span, fmt.Errorf("malformed GCS path %q", name))
	}

	gcs, err := newGCSClient(ctx)
	if err != nil {
		return nil, fail(span, err)
	}

	span.SetStatus(codes.Ok, "")
	return &gcsWriter{Writer: gcs.Bucket(bucket).Object(object).NewWriter(ctx), gcs: gcs}, nil
}

// ReadAll reads the whole of name.
func ReadAll(ctx context.Context, name string) ([]byte, error) {
	r, err := Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("while reading %s: %w", name, err)
	}
	return data, nil
}

// Join appends elem to a local directory or a gs:// prefix.
func Join(dir, elem string) string {
	if IsGCSPath(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + elem
	}
	return filepath.Join(dir, elem)
}
