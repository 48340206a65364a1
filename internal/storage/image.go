// Package storage loads dish photos for image search from the local disk or
// from S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultMaxImageBytes caps photo size.
const DefaultMaxImageBytes = 10 << 20

var (
	ErrTooLarge     = errors.New("image exceeds size limit")
	ErrEmptyImage   = errors.New("image is empty")
	ErrInvalidS3URI = errors.New("invalid s3 uri, expected s3://bucket/key")
	ErrNoS3Client   = errors.New("s3 storage is not configured")
)

// ObjectStore is the subset of S3Store the loader needs.
type ObjectStore interface {
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	Fetch(ctx context.Context, bucket, key string, limit int64) ([]byte, error)
}

// Image is a loaded photo ready for upload.
type Image struct {
	Data     []byte
	Filename string
	Size     int64
}

// ImageLoader resolves a local path or s3://bucket/key into photo bytes.
type ImageLoader struct {
	store    ObjectStore
	maxBytes int64
}

// NewImageLoader creates a loader. store may be nil when S3 is not configured.
func NewImageLoader(store ObjectStore, maxBytes int64) *ImageLoader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageLoader{store: store, maxBytes: maxBytes}
}

// Load reads the photo at src.
func (l *ImageLoader) Load(ctx context.Context, src string) (*Image, error) {
	if strings.HasPrefix(src, "s3://") {
		return l.loadS3(ctx, src)
	}
	return l.loadFile(src)
}

func (l *ImageLoader) loadFile(p string) (*Image, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p)
	}
	if stat.Size() > l.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, p, stat.Size())
	}

	data, err := io.ReadAll(io.LimitReader(f, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return l.image(data, filepath.Base(p))
}

func (l *ImageLoader) loadS3(ctx context.Context, uri string) (*Image, error) {
	if l.store == nil {
		return nil, ErrNoS3Client
	}
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	info, err := l.store.Stat(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if info.Size > l.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, uri, info.Size)
	}

	data, err := l.store.Fetch(ctx, bucket, key, l.maxBytes)
	if err != nil {
		return nil, err
	}
	return l.image(data, path.Base(key))
}

func (l *ImageLoader) image(data []byte, name string) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if int64(len(data)) > l.maxBytes {
		return nil, ErrTooLarge
	}
	return &Image{Data: data, Filename: name, Size: int64(len(data))}, nil
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", ErrInvalidS3URI
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", ErrInvalidS3URI
	}
	return bucket, key, nil
}
