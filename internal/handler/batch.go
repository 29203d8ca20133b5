package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"kairos/internal/model"
	"kairos/internal/pipeline"
)

const (
	maxUploadMemory = 32 << 20 // 32 MiB held in memory while parsing
	maxBatchFiles   = 20
)

// BatchRegistry tracks running and finished batches for the poll and
// cancel endpoints.
type BatchRegistry struct {
	mu      sync.Mutex
	batches map[string]*pipeline.Batch
}

func NewBatchRegistry() *BatchRegistry {
	return &BatchRegistry{batches: make(map[string]*pipeline.Batch)}
}

func (r *BatchRegistry) Put(id string, b *pipeline.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[id] = b
}

func (r *BatchRegistry) Get(id string) (*pipeline.Batch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	return b, ok
}

// CancelAll aborts every registered batch; used on shutdown.
func (r *BatchRegistry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		b.CancelAll()
	}
}

// StartBatchHandler accepts a multipart upload of invoice files plus
// the form-level info fields, schedules the batch and returns its id.
// The batch outlives the request; clients poll for progress.
func StartBatchHandler(scheduler *pipeline.Scheduler, registry *BatchRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}

		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			http.Error(w, "no files uploaded", http.StatusBadRequest)
			return
		}
		if len(files) > maxBatchFiles {
			http.Error(w, "too many files", http.StatusRequestEntityTooLarge)
			return
		}

		uploads := make([]model.Upload, 0, len(files))
		for _, fh := range files {
			f, err := fh.Open()
			if err != nil {
				http.Error(w, "failed to read upload", http.StatusBadRequest)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				http.Error(w, "failed to read upload", http.StatusBadRequest)
				return
			}
			uploads = append(uploads, model.Upload{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}

		info := model.ReimbursementInfo{
			Reimburser:        r.FormValue("reimburser"),
			Project:           r.FormValue("project"),
			ReimbursementDate: r.FormValue("reimbursementDate"),
			PaymentInfo:       r.FormValue("paymentInfo"),
		}

		id := model.NewID()
		batch := scheduler.Run(context.Background(), uploads, info, func(index int, status model.EntryStatus, progress int, _ *model.LineItem) {
			slog.Info("batch progress", "batch", id, "index", index, "status", status, "progress", progress)
		})
		registry.Put(id, batch)

		writeJSON(w, http.StatusAccepted, map[string]any{
			"id":      id,
			"entries": batch.Entries(),
		})
	}
}

// BatchStatusHandler returns the queue in submission order.
func BatchStatusHandler(registry *BatchRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batch, ok := registry.Get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "batch not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"entries": batch.Entries(),
			"items":   batch.Items(),
		})
	}
}

// CancelBatchHandler aborts the whole batch.
func CancelBatchHandler(registry *BatchRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batch, ok := registry.Get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "batch not found", http.StatusNotFound)
			return
		}
		batch.CancelAll()
		w.WriteHeader(http.StatusAccepted)
	}
}

// CancelEntryHandler aborts a single queue entry without touching its
// siblings.
func CancelEntryHandler(registry *BatchRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batch, ok := registry.Get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "batch not found", http.StatusNotFound)
			return
		}
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil || index < 0 {
			http.Error(w, "invalid entry index", http.StatusBadRequest)
			return
		}
		batch.Cancel(index)
		w.WriteHeader(http.StatusAccepted)
	}
}
