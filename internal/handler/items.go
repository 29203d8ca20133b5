package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"kairos/internal/model"
	"kairos/internal/service"
)

type reconcileRequest struct {
	Item  model.LineItem `json:"item"`
	Field string         `json:"field"`
	Value any            `json:"value"`
}

// ReconcileHandler applies one field edit and returns the reconciled
// item. Called synchronously per keystroke by the form UI.
func ReconcileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reconcileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Field == "" {
			http.Error(w, "field is required", http.StatusBadRequest)
			return
		}

		updated := service.Reconcile(req.Item, req.Field, coerceValue(req.Value))
		updated.ClampImageSlots()
		writeJSON(w, http.StatusOK, updated)
	}
}

// coerceValue flattens a JSON scalar to the engine's string input.
// Anything non-scalar coerces to "" (and so to 0 on financial fields).
func coerceValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

// BlankItemHandler returns a fresh template row for manual entry.
func BlankItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item := model.LineItem{
			ID:           model.NewID(),
			Date:         time.Now().Format("2006-01-02"),
			Subtotal:     "0.00",
			Tax:          "0.00",
			Amount:       "0.00",
			TotalWithTax: "0.00",
			Attachments:  []string{},
		}
		writeJSON(w, http.StatusOK, item)
	}
}
