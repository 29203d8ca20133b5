package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"kairos/internal/model"
)

var testInfo = model.ReimbursementInfo{Reimburser: "张三", Project: "差旅"}

func TestMapOCRFieldsLongKeys(t *testing.T) {
	fields := Fields{
		"date":          "2024-05-01",
		"category":      "交通出行",
		"description":   "高铁票",
		"itemName":      "车票",
		"invoiceNumber": "No.12345",
		"buyerName":     "某公司",
		"sellerName":    "铁路总公司",
		"amount":        113.0,
		"tax":           13.0,
		"subtotal":      100.0,
		"quantity":      2.0,
		"unitPrice":     56.5,
		"taxRate":       "13%",
	}
	up := model.Upload{Name: "ticket.jpg", ContentType: "image/jpeg"}

	item := MapOCRFields(fields, up, "data:image/jpeg;base64,xx", "abc123", testInfo)

	if item.ID == "" {
		t.Fatal("expected a generated id")
	}
	if item.Date != "2024-05-01" || item.Category != "交通出行" || item.InvoiceNumber != "No.12345" {
		t.Errorf("text fields not mapped: %+v", item)
	}
	if item.Amount != "113.00" || item.Tax != "13.00" || item.Subtotal != "100.00" {
		t.Errorf("financials not mapped: amount=%q tax=%q subtotal=%q", item.Amount, item.Tax, item.Subtotal)
	}
	if item.TotalWithTax != item.Amount {
		t.Errorf("totalWithTax = %q, want %q", item.TotalWithTax, item.Amount)
	}
	if item.FileHash != "abc123" {
		t.Errorf("fileHash = %q", item.FileHash)
	}
	if item.Reimburser != "张三" || item.Project != "差旅" {
		t.Errorf("context info not applied: %+v", item)
	}
}

func TestMapOCRFieldsShortKeys(t *testing.T) {
	fields := Fields{
		"d": "2024-05-01",
		"t": 113.0,
		"x": 13.0,
		"s": "出租车",
		"c": "交通出行",
		"n": "No.999",
	}
	up := model.Upload{Name: "taxi.jpg", ContentType: "image/jpeg"}

	item := MapOCRFields(fields, up, "", "", testInfo)

	if item.Date != "2024-05-01" || item.Description != "出租车" || item.Category != "交通出行" {
		t.Errorf("short keys not mapped: %+v", item)
	}
	if item.InvoiceNumber != "No.999" {
		t.Errorf("invoiceNumber = %q", item.InvoiceNumber)
	}
	if item.Amount != "113.00" || item.Tax != "13.00" {
		t.Errorf("short financial keys not mapped: %+v", item)
	}
	// subtotal absent: falls back to amount - tax.
	if item.Subtotal != "100.00" {
		t.Errorf("subtotal fallback = %q, want 100.00", item.Subtotal)
	}
}

func TestMapOCRFieldsLongKeyWins(t *testing.T) {
	fields := Fields{"amount": 50.0, "t": 10.0}
	item := MapOCRFields(fields, model.Upload{Name: "a.jpg"}, "", "", testInfo)
	if item.Amount != "50.00" {
		t.Errorf("amount = %q, want long-form 50.00", item.Amount)
	}
}

func TestMapOCRFieldsDefaults(t *testing.T) {
	up := model.Upload{Name: "receipt.png", ContentType: "image/png"}
	item := MapOCRFields(Fields{}, up, "", "", model.ReimbursementInfo{})

	if item.Category != "其他" {
		t.Errorf("category = %q, want default 其他", item.Category)
	}
	if item.Description != "receipt.png" {
		t.Errorf("description = %q, want file name fallback", item.Description)
	}
	if item.Amount != "0.00" || item.Tax != "0.00" || item.Subtotal != "0.00" || item.TotalWithTax != "0.00" {
		t.Errorf("zero defaults missing: %+v", item)
	}
	if item.Quantity != 0 || item.UnitPrice != 0 {
		t.Errorf("numeric defaults missing: %+v", item)
	}
	if item.Attachments == nil {
		t.Error("attachments must never be nil")
	}
}

func TestNewFailedItem(t *testing.T) {
	up := model.Upload{Name: "broken.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}
	item := NewFailedItem(up, errors.New("OCR exploded"), testInfo)

	if !strings.Contains(item.Description, "识别失败") ||
		!strings.Contains(item.Description, "broken.jpg") ||
		!strings.Contains(item.Description, "OCR exploded") {
		t.Errorf("description = %q, want failure reason with file name and error", item.Description)
	}
	if item.Amount != "0.00" || item.Tax != "0.00" || item.Subtotal != "0.00" || item.TotalWithTax != "0.00" {
		t.Errorf("financials not zeroed: %+v", item)
	}
	if item.Category != "其他" {
		t.Errorf("category = %q, want 其他", item.Category)
	}
	if item.Date != time.Now().Format("2006-01-02") {
		t.Errorf("date = %q, want today", item.Date)
	}
	if !strings.HasPrefix(item.PreviewURL, "data:image/jpeg;base64,") {
		t.Errorf("previewUrl = %q, want best-effort raw preview", item.PreviewURL)
	}
	if item.Reimburser != "张三" {
		t.Errorf("context info not applied: %+v", item)
	}
}

func TestNewFailedItemNonImageHasNoPreview(t *testing.T) {
	up := model.Upload{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}
	item := NewFailedItem(up, errors.New("timeout"), testInfo)
	if item.PreviewURL != "" {
		t.Errorf("previewUrl = %q, want empty for non-image source", item.PreviewURL)
	}
	if !item.IsPDF {
		t.Error("isPDF flag lost")
	}
}
