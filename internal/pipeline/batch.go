package pipeline

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"kairos/internal/model"
	"kairos/internal/service"
)

// batchConcurrency is the global admission limit for in-flight entries.
// It respects the OCR provider's rate and latency limits; it is not a
// per-file setting.
const batchConcurrency = 2

// ProgressFunc receives queue updates: at minimum once when an entry
// enters processing and exactly once on its terminal transition.
type ProgressFunc func(index int, status model.EntryStatus, progress int, item *model.LineItem)

// Batch is one scheduled group of uploads. Entries keep submission
// order; only status, progress and result mutate.
type Batch struct {
	mu      sync.Mutex
	entries []model.QueueEntry
	cancels []context.CancelFunc
	done    chan struct{}
}

// Entries returns a snapshot of the queue in submission order.
func (b *Batch) Entries() []model.QueueEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.QueueEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Items returns the produced line items in submission order. Cancelled
// entries contribute nothing; failed entries contribute placeholders.
func (b *Batch) Items() []model.LineItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	var items []model.LineItem
	for _, e := range b.entries {
		if e.Result != nil {
			items = append(items, *e.Result)
		}
	}
	return items
}

// Cancel aborts a single entry. A waiting entry never starts; a
// processing entry has its in-flight work interrupted and settles as
// cancelled. Siblings are unaffected.
func (b *Batch) Cancel(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.cancels) {
		return
	}
	b.cancels[index]()
}

// CancelAll is the union of per-entry cancellation.
func (b *Batch) CancelAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cancel := range b.cancels {
		cancel()
	}
}

// Done closes once every entry has reached a terminal status.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// transition mutates one entry. Terminal states are final: a late
// update against a settled entry is dropped.
func (b *Batch) transition(index int, status model.EntryStatus, progress int, item *model.LineItem, onProgress ProgressFunc) {
	b.mu.Lock()
	if b.entries[index].Status.Terminal() {
		b.mu.Unlock()
		return
	}
	b.entries[index].Status = status
	b.entries[index].Progress = progress
	b.entries[index].Result = item
	b.mu.Unlock()

	if onProgress != nil {
		onProgress(index, status, progress, item)
	}
}

// Scheduler runs batches of uploads through an Analyzer with bounded
// concurrency.
type Scheduler struct {
	analyzer *Analyzer
	limit    int64
}

func NewScheduler(analyzer *Analyzer) *Scheduler {
	return &Scheduler{analyzer: analyzer, limit: batchConcurrency}
}

// Run schedules all uploads and returns immediately. Every entry
// resolves to exactly one terminal status; no entry's failure aborts a
// sibling. The batch is finished when Done() closes.
func (s *Scheduler) Run(ctx context.Context, uploads []model.Upload, info model.ReimbursementInfo, onProgress ProgressFunc) *Batch {
	b := &Batch{
		entries: make([]model.QueueEntry, len(uploads)),
		cancels: make([]context.CancelFunc, len(uploads)),
		done:    make(chan struct{}),
	}

	ctxs := make([]context.Context, len(uploads))
	for i, up := range uploads {
		b.entries[i] = model.QueueEntry{Name: up.Name, Status: model.StatusWaiting}
		ctxs[i], b.cancels[i] = context.WithCancel(ctx)
	}

	sem := semaphore.NewWeighted(s.limit)
	var wg sync.WaitGroup
	for i := range uploads {
		wg.Add(1)
		go func(i int, entryCtx context.Context, up model.Upload) {
			defer wg.Done()
			defer b.Cancel(i)

			if err := sem.Acquire(entryCtx, 1); err != nil {
				b.transition(i, model.StatusCancelled, 0, nil, onProgress)
				return
			}
			defer sem.Release(1)

			if entryCtx.Err() != nil {
				b.transition(i, model.StatusCancelled, 0, nil, onProgress)
				return
			}

			b.transition(i, model.StatusProcessing, 10, nil, onProgress)

			item, err := s.analyzer.Analyze(entryCtx, up, info)
			switch {
			case err == nil:
				b.transition(i, model.StatusCompleted, 100, item, onProgress)
			case errors.Is(err, context.Canceled):
				b.transition(i, model.StatusCancelled, 0, nil, onProgress)
			default:
				failed := service.NewFailedItem(up, err, info)
				b.transition(i, model.StatusFailed, 100, &failed, onProgress)
			}
		}(i, ctxs[i], uploads[i])
	}

	go func() {
		wg.Wait()
		close(b.done)
	}()
	return b
}
