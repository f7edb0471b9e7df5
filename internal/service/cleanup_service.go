package service

import (
	"context"
	"log"
	"time"

	"textmill/internal/config"
	"textmill/internal/port"
)

// taskPrefix is the storage key prefix under which all extraction
// artifacts are written.
const taskPrefix = "tasks/"

// CleanupWorker periodically deletes task artifacts older than the
// configured retention window.
type CleanupWorker struct {
	storage   port.ObjectStorage
	bucket    string
	retention time.Duration
	interval  time.Duration
}

// NewCleanupWorker creates a new CleanupWorker.
func NewCleanupWorker(storage port.ObjectStorage, storageCfg *config.StorageConfig, cfg *config.CleanupConfig) *CleanupWorker {
	return &CleanupWorker{
		storage:   storage,
		bucket:    storageCfg.Bucket,
		retention: time.Duration(cfg.RetentionHours) * time.Hour,
		interval:  time.Duration(cfg.IntervalHours) * time.Hour,
	}
}

// Start runs the cleanup loop until ctx is canceled. One sweep runs
// immediately on startup so restarts do not postpone overdue deletions.
func (w *CleanupWorker) Start(ctx context.Context) {
	log.Printf("cleanupWorker: started (retention=%s, interval=%s)", w.retention, w.interval)

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("cleanupWorker: shutdown complete")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single retention sweep and returns the number of
// artifacts deleted.
func (w *CleanupWorker) RunOnce(ctx context.Context) int {
	cutoff := time.Now().Add(-w.retention)

	objects, err := w.storage.List(ctx, w.bucket, taskPrefix)
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}
		log.Printf("cleanupWorker: listing artifacts failed: %v", err)
		return 0
	}

	deleted := 0
	for _, obj := range objects {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := w.storage.Delete(ctx, w.bucket, obj.Key); err != nil {
			log.Printf("cleanupWorker: deleting %s failed: %v", obj.Key, err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		log.Printf("cleanupWorker: deleted %d expired artifacts (cutoff=%s)", deleted, cutoff.Format(time.RFC3339))
	}
	return deleted
}
