package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LocalMountPath is the URL path the server serves the upload directory under.
const LocalMountPath = "uploads"

// Local stores files under a directory on disk.
type Local struct {
	root    string
	baseURL string
	logger  *zap.Logger
}

// NewLocal creates the root directory if needed. baseURL may be empty to hand out relative URLs.
func NewLocal(root, baseURL string, logger *zap.Logger) (*Local, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{root: root, baseURL: baseURL, logger: logger}, nil
}

// Root returns the directory files are written to.
func (l *Local) Root() string { return l.root }

func (l *Local) resolve(key string) (string, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

// Save writes body to key, creating parent directories.
func (l *Local) Save(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	dst, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

// Delete removes key; missing files are logged and ignored.
func (l *Local) Delete(ctx context.Context, key string) error {
	dst, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug("file already gone", zap.String("key", key))
			return nil
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// URL returns {baseURL}/uploads/{key}.
func (l *Local) URL(key string) string {
	return l.baseURL + "/" + LocalMountPath + "/" + key
}

// PathPrefix implements FileStore.
func (l *Local) PathPrefix() string { return LocalMountPath }
