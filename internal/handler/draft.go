package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"kairos/internal/model"
	"kairos/internal/service"
)

type draftRequest struct {
	Items []model.LineItem        `json:"items"`
	Info  model.ReimbursementInfo `json:"info"`
}

func SaveDraftHandler(historySvc *service.HistoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req draftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := historySvc.SaveDraft(r.Context(), req.Items, req.Info); err != nil {
			slog.Error("draft save failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetDraftHandler(historySvc *service.HistoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, err := historySvc.GetDraft(r.Context())
		if err != nil {
			slog.Error("draft load failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if draft == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, draft)
	}
}

func DeleteDraftHandler(historySvc *service.HistoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := historySvc.DeleteDraft(r.Context()); err != nil {
			slog.Error("draft delete failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
