// Package storage persists uploaded media files on local disk or S3.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty or escape the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// FileStore saves and deletes files addressed by root-relative keys
// such as musicians/photos/<uuid>.jpg.
type FileStore interface {
	Save(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	// Delete removes key. A key that does not exist is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the address clients use to fetch key.
	URL(key string) string
	// PathPrefix is the leading path segment URLs carry before the key
	// (e.g. "uploads" for the local static mount), or "" when there is none.
	PathPrefix() string
}

// CleanKey validates key and returns it in canonical slash form.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == "" {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
