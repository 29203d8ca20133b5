package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kairos/internal/model"
	"kairos/internal/service"
)

type archiveRequest struct {
	Items   []model.LineItem        `json:"items"`
	Info    model.ReimbursementInfo `json:"info"`
	Columns []model.Column          `json:"columns"`
}

// ArchiveHandler appends the current ledger to the export history.
func ArchiveHandler(historySvc *service.HistoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req archiveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		id, err := historySvc.Archive(r.Context(), req.Items, req.Info, req.Columns)
		if err != nil {
			slog.Error("archive failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	}
}

func ListHistoryHandler(historySvc *service.HistoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := historySvc.List(r.Context())
		if err != nil {
			slog.Error("history list failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if len(records) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func DeleteHistoryHandler(historySvc *service.HistoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid history id", http.StatusBadRequest)
			return
		}
		if err := historySvc.Delete(r.Context(), id); err != nil {
			slog.Error("history delete failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ClearHistoryHandler(historySvc *service.HistoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := historySvc.Clear(r.Context()); err != nil {
			slog.Error("history clear failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
