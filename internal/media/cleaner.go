package media

import (
	"context"

	"go.uber.org/zap"

	"github.com/gigstage/backend/pkg/metrics"
	"github.com/gigstage/backend/pkg/queue"
	"github.com/gigstage/backend/pkg/storage"
)

// CleanupQueue defers file deletions that failed inline.
type CleanupQueue interface {
	EnqueueFileCleanup(ctx context.Context, payload queue.FileCleanupPayload) error
}

// Cleaner deletes stored files on a best-effort basis.
type Cleaner struct {
	files  storage.FileStore
	queue  CleanupQueue
	logger *zap.Logger
}

// NewCleaner creates a Cleaner. q may be nil, in which case failures are only logged.
func NewCleaner(files storage.FileStore, q CleanupQueue, logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{files: files, queue: q, logger: logger}
}

// Files returns the underlying store.
func (c *Cleaner) Files() storage.FileStore { return c.files }

// Key normalizes ref against the store's URL layout.
func (c *Cleaner) Key(ref string) string {
	return Normalize(ref, c.files.PathPrefix())
}

// URL maps a stored reference to the address clients fetch it from.
func (c *Cleaner) URL(ref string) string {
	key := c.Key(ref)
	if key == "" {
		return ref
	}
	return c.files.URL(key)
}

// Purge deletes every ref. Failures never propagate: they are logged and,
// when a queue is configured, handed to the worker for another attempt.
// Deletion proceeds even if the request context has been cancelled.
func (c *Cleaner) Purge(ctx context.Context, refs ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		key := c.Key(ref)
		if key == "" {
			continue
		}
		err := c.files.Delete(ctx, key)
		if err == nil {
			metrics.ObserveCleanup("inline", "ok")
			continue
		}
		metrics.ObserveCleanup("inline", "failed")
		c.logger.Warn("file cleanup failed", zap.String("key", key), zap.Error(err))
		if c.queue == nil {
			continue
		}
		if qErr := c.queue.EnqueueFileCleanup(ctx, queue.FileCleanupPayload{Key: key, Reason: err.Error()}); qErr != nil {
			c.logger.Error("enqueue file cleanup failed", zap.String("key", key), zap.Error(qErr))
		}
	}
}
