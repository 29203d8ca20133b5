package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kairos/internal/model"
)

func doReconcile(t *testing.T, body string) (*httptest.ResponseRecorder, model.LineItem) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/items/reconcile", strings.NewReader(body))
	w := httptest.NewRecorder()
	ReconcileHandler()(w, req)

	var item model.LineItem
	if w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(&item); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return w, item
}

func TestReconcileHandlerSubtotalEdit(t *testing.T) {
	w, item := doReconcile(t, `{
		"item": {"subtotal": "100.00", "tax": "13.00", "amount": "113.00"},
		"field": "subtotal",
		"value": "200"
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if item.Subtotal != "200.00" || item.Tax != "13.00" || item.Amount != "213.00" {
		t.Errorf("got subtotal %q tax %q amount %q", item.Subtotal, item.Tax, item.Amount)
	}
	if item.TotalWithTax != item.Amount {
		t.Errorf("totalWithTax %q diverged from amount %q", item.TotalWithTax, item.Amount)
	}
}

func TestReconcileHandlerNumericJSONValue(t *testing.T) {
	// The form may send numbers as JSON numbers rather than strings.
	w, item := doReconcile(t, `{
		"item": {"subtotal": "0.00", "tax": "0.00", "amount": "0.00"},
		"field": "amount",
		"value": 113
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if item.Amount != "113.00" || item.Subtotal != "113.00" {
		t.Errorf("got amount %q subtotal %q", item.Amount, item.Subtotal)
	}
}

func TestReconcileHandlerTextField(t *testing.T) {
	w, item := doReconcile(t, `{
		"item": {"subtotal": "100.00", "tax": "13.00", "amount": "113.00"},
		"field": "description",
		"value": "打车费"
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if item.Description != "打车费" {
		t.Errorf("description = %q", item.Description)
	}
	// Text edits leave the financial linkage untouched.
	if item.Amount != "113.00" || item.Subtotal != "100.00" {
		t.Errorf("financials changed: amount %q subtotal %q", item.Amount, item.Subtotal)
	}
}

func TestReconcileHandlerMissingField(t *testing.T) {
	w, _ := doReconcile(t, `{"item": {}, "value": "1"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestReconcileHandlerInvalidJSON(t *testing.T) {
	w, _ := doReconcile(t, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBlankItemHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/items/blank", nil)
	w := httptest.NewRecorder()
	BlankItemHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var item model.LineItem
	if err := json.NewDecoder(w.Body).Decode(&item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.ID == "" {
		t.Error("blank item has no id")
	}
	if item.Date != time.Now().Format("2006-01-02") {
		t.Errorf("date = %q, want today", item.Date)
	}
	if item.Amount != "0.00" || item.Subtotal != "0.00" || item.Tax != "0.00" {
		t.Errorf("blank financials = %q/%q/%q, want zeroed", item.Subtotal, item.Tax, item.Amount)
	}
	if item.Attachments == nil {
		t.Error("attachments must serialize as an empty array")
	}
}
