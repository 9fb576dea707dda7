// Package storage keeps uploaded files behind a small object-store interface
// with local disk, MinIO and S3 drivers.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrObjectNotFound = errors.New("storage: object not found")
	ErrInvalidKey     = errors.New("storage: invalid object key")
)

// Object is an open stored file. The caller closes Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Settings selects and configures a driver.
type Settings struct {
	Driver    string
	Dir       string
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Open builds the driver named in s.Driver.
func Open(ctx context.Context, s Settings) (Storage, error) {
	switch s.Driver {
	case "local", "":
		return NewLocal(s.Dir)
	case "minio":
		return NewMinio(ctx, s)
	case "s3":
		return NewS3(ctx, s)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", s.Driver)
	}
}

// CleanKey rejects keys that could escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.HasPrefix(key, "\\") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	if strings.Contains(key, ":") {
		return "", ErrInvalidKey
	}
	return key, nil
}
