// Package storage gives the reader uniform access to the files of a product
// container, whether it sits on local disk or in an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/venicegeo/bf-s2reader/model"
)

// Store is a read-only view of a product container. Keys are slash-separated
// paths relative to the container root.
type Store interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Options configures Open for remote stores
type Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

const s3Scheme = "s3://"

// Open returns the store for a product root. Roots of the form
// s3://bucket/prefix/X.SAFE open an S3 store; anything else is a directory.
func Open(ctx context.Context, root string, opts Options) (Store, error) {
	if strings.HasPrefix(root, s3Scheme) {
		bucket, prefix, err := SplitS3URI(root)
		if err != nil {
			return nil, err
		}
		client, err := NewS3Client(ctx, opts)
		if err != nil {
			return nil, err
		}
		return NewS3(client, S3Config{Bucket: bucket, Prefix: prefix})
	}
	return NewFS(root)
}

// SplitS3URI splits s3://bucket/some/prefix into its bucket and prefix
func SplitS3URI(uri string) (bucket string, prefix string, err error) {
	rest := strings.TrimPrefix(uri, s3Scheme)
	if rest == uri {
		return "", "", fmt.Errorf("%w: not an s3 uri: %s", model.ErrInvalidArgument, uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: s3 uri has no bucket: %s", model.ErrInvalidArgument, uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// Base returns the last element of a product root, local or remote
func Base(root string) string {
	return path.Base(strings.TrimRight(strings.ReplaceAll(root, "\\", "/"), "/"))
}

// ReadAll reads a whole object from the store
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Glob lists the keys under prefix that match a path.Match pattern
func Glob(ctx context.Context, store Store, prefix string, pattern string) ([]string, error) {
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, key := range keys {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q", model.ErrInvalidArgument, pattern)
		}
		if ok {
			matches = append(matches, key)
		}
	}
	return matches, nil
}
