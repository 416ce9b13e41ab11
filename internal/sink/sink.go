// Package sink opens the destination an export is written to: a local file,
// stdout ("-") or an S3-compatible object (s3://bucket/key).
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Stdout is the path that selects standard output
const Stdout = "-"

const s3Scheme = "s3://"

// ErrInvalidObjectURL is returned for s3:// paths without a bucket or key
var ErrInvalidObjectURL = errors.New("invalid object url")

// Options configures Open
type Options struct {
	// ContentType is stored with uploaded objects
	ContentType string

	// S3 is used for s3:// paths; zero value reads the environment
	S3 *S3Config
}

// Open returns a writer for path. The export is only durable once Close
// returns nil: objects are uploaded on Close and files are synced.
func Open(ctx context.Context, path string, opts Options) (io.WriteCloser, error) {
	switch {
	case path == "" || path == Stdout:
		return nopCloser{os.Stdout}, nil
	case IsObjectURL(path):
		bucket, key, err := ParseObjectURL(path)
		if err != nil {
			return nil, err
		}
		cfg := opts.S3
		if cfg == nil {
			c := S3ConfigFromEnv()
			cfg = &c
		}
		client, err := NewS3Client(*cfg)
		if err != nil {
			return nil, err
		}
		return newObjectWriter(ctx, client, bucket, key, opts.ContentType), nil
	default:
		return openFile(path)
	}
}

// IsObjectURL reports whether path names an S3 object
func IsObjectURL(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// ParseObjectURL splits s3://bucket/key
func ParseObjectURL(url string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(url, s3Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %q (want s3://bucket/key)", ErrInvalidObjectURL, url)
	}
	return bucket, key, nil
}

// Sibling derives a companion path next to target: "out/shop.json" with suffix
// "_datamimic" and ext ".yaml" becomes "out/shop_datamimic.yaml". Stdout has no
// directory, so its companion is written to the working directory as fallback.
func Sibling(target, suffix, ext, fallback string) string {
	if target == "" || target == Stdout {
		return fallback + suffix + ext
	}
	if IsObjectURL(target) {
		dir, file := path.Split(target)
		return dir + strings.TrimSuffix(file, path.Ext(file)) + suffix + ext
	}
	dir, file := filepath.Split(target)
	return filepath.Join(dir, strings.TrimSuffix(file, filepath.Ext(file))+suffix+ext)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

type fileWriter struct {
	*os.File
}

func openFile(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return fileWriter{f}, nil
}

func (w fileWriter) Close() error {
	if err := w.File.Sync(); err != nil {
		w.File.Close()
		return err
	}
	return w.File.Close()
}

// ObjectPutter is the part of *minio.Client used for uploads
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// objectWriter buffers the export and uploads it in one request on Close.
// Exports are small enough that a multipart stream is not needed.
type objectWriter struct {
	ctx         context.Context
	client      ObjectPutter
	bucket      string
	key         string
	contentType string
	buf         bytes.Buffer
	closed      bool
}

func newObjectWriter(ctx context.Context, client ObjectPutter, bucket, key, contentType string) *objectWriter {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &objectWriter{ctx: ctx, client: client, bucket: bucket, key: key, contentType: contentType}
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, os.ErrClosed
	}
	return w.buf.Write(p)
}

func (w *objectWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.client.PutObject(w.ctx, w.bucket, w.key, bytes.NewReader(w.buf.Bytes()), int64(w.buf.Len()),
		minio.PutObjectOptions{ContentType: w.contentType})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", w.bucket, w.key, err)
	}
	return nil
}
