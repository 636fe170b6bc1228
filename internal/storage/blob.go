package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	gcs "cloud.google.com/go/storage"
)

// BlobObject is an opened media file. It supports seeking so that HTTP range
// requests can be served from it.
type BlobObject struct {
	io.ReadSeekCloser
	ContentType string
	Size        int64
	ModTime     time.Time
}

// BlobStore keeps uploaded media
type BlobStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (*BlobObject, error)
	Delete(ctx context.Context, key string) error
}

// LocalBlobStore keeps media files under a directory
type LocalBlobStore struct {
	root string
}

// NewLocalBlobStore creates the media directory if needed
func NewLocalBlobStore(root string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &LocalBlobStore{root: root}, nil
}

func (l *LocalBlobStore) path(key string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *LocalBlobStore) Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	p, err := l.path(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create media dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), tempPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write media: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close media: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return 0, fmt.Errorf("failed to store media: %w", err)
	}
	return n, nil
}

func (l *LocalBlobStore) Open(ctx context.Context, key string) (*BlobObject, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open media: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat media: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return &BlobObject{ReadSeekCloser: f, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (l *LocalBlobStore) Delete(ctx context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return nil
}

// GCSBlobStore keeps media in a Cloud Storage bucket
type GCSBlobStore struct {
	bucket *gcs.BucketHandle
}

// NewGCSBlobStore wraps a bucket handle
func NewGCSBlobStore(client *gcs.Client, bucket string) *GCSBlobStore {
	return &GCSBlobStore{bucket: client.Bucket(bucket)}
}

func (g *GCSBlobStore) Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	key, err := CleanKey(key)
	if err != nil {
		return 0, err
	}
	w := g.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return 0, fmt.Errorf("failed to upload media: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to upload media: %w", err)
	}
	return n, nil
}

func (g *GCSBlobStore) Open(ctx context.Context, key string) (*BlobObject, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	obj := g.bucket.Object(key)
	attrs, err := obj.Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat media: %w", err)
	}
	return &BlobObject{
		ReadSeekCloser: &rangeReader{ctx: ctx, obj: obj.Generation(attrs.Generation), size: attrs.Size},
		ContentType:    attrs.ContentType,
		Size:           attrs.Size,
		ModTime:        attrs.Updated,
	}, nil
}

func (g *GCSBlobStore) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	err = g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ErrNotFound
	}
	return err
}

// rangeReader opens a ranged object read lazily at the current offset
type rangeReader struct {
	ctx    context.Context
	obj    *gcs.ObjectHandle
	size   int64
	offset int64
	r      *gcs.Reader
}

func (rr *rangeReader) Read(p []byte) (int, error) {
	if rr.offset >= rr.size {
		return 0, io.EOF
	}
	if rr.r == nil {
		r, err := rr.obj.NewRangeReader(rr.ctx, rr.offset, -1)
		if err != nil {
			return 0, err
		}
		rr.r = r
	}
	n, err := rr.r.Read(p)
	rr.offset += int64(n)
	return n, err
}

func (rr *rangeReader) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = rr.offset + offset
	case io.SeekEnd:
		next = rr.size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative position %d", next)
	}
	if next != rr.offset && rr.r != nil {
		rr.r.Close()
		rr.r = nil
	}
	rr.offset = next
	return next, nil
}

func (rr *rangeReader) Close() error {
	if rr.r != nil {
		return rr.r.Close()
	}
	return nil
}
