package worker

import (
	"context"
	"log/slog"
	"time"

	"kairos/internal/service"
)

// CleanupWorker expires old history records so the archive does not
// grow without bound. Drafts are never expired.
type CleanupWorker struct {
	historySvc *service.HistoryService
	interval   time.Duration
	retention  time.Duration
}

func NewCleanupWorker(historySvc *service.HistoryService) *CleanupWorker {
	return &CleanupWorker{
		historySvc: historySvc,
		interval:   time.Hour,
		retention:  30 * 24 * time.Hour,
	}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	slog.Info("starting history cleanup worker")

	// One pass at startup, then on the ticker.
	w.cleanup(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history cleanup worker stopped")
			return
		case <-ticker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *CleanupWorker) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-w.retention)
	deleted, err := w.historySvc.CleanupBefore(ctx, cutoff)
	if err != nil {
		slog.Error("history cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("history cleanup removed old records", "count", deleted)
	}
}
