package service

import (
	"fmt"
	"time"

	"kairos/internal/model"
)

// defaultCategory is used whenever the collaborator cannot classify an
// invoice or recognition fails outright.
const defaultCategory = "其他"

// MapOCRFields converts a raw OCR field map into a canonical line item.
// Every declared field gets a typed default; subtotal falls back to
// amount - tax when the collaborator omits it; totalWithTax always
// mirrors amount at construction.
func MapOCRFields(fields Fields, up model.Upload, previewURL, fileHash string, info model.ReimbursementInfo) model.LineItem {
	amount := fields.Number("amount")
	tax := fields.Number("tax")
	subtotal := fields.Number("subtotal")
	if subtotal == 0 {
		subtotal = amount - tax
	}

	category := fields.Text("category")
	if category == "" {
		category = defaultCategory
	}
	description := fields.Text("description")
	if description == "" {
		description = up.Name
	}

	item := model.LineItem{
		ID:            model.NewID(),
		FileHash:      fileHash,
		Date:          fields.Text("date"),
		Category:      category,
		Description:   description,
		ItemName:      fields.Text("itemName"),
		Specification: fields.Text("specification"),
		Unit:          fields.Text("unit"),
		Quantity:      fields.Number("quantity"),
		UnitPrice:     fields.Number("unitPrice"),
		Subtotal:      FormatCurrency(subtotal),
		Tax:           FormatCurrency(tax),
		Amount:        FormatCurrency(amount),
		TotalWithTax:  FormatCurrency(amount),
		TaxRate:       fields.Text("taxRate"),
		InvoiceNumber: fields.Text("invoiceNumber"),
		BuyerName:     fields.Text("buyerName"),
		SellerName:    fields.Text("sellerName"),
		Remarks:       fields.Text("remarks"),
		PreviewURL:    previewURL,
		Attachments:   []string{},
		IsPDF:         up.IsPDF(),
		Reimburser:    info.Reimburser,
		Project:       info.Project,
	}
	item.ClampImageSlots()
	return item
}

// NewFailedItem builds the placeholder row for an upload whose
// recognition failed: financials zeroed, the failure reason embedded in
// the description, and a best-effort preview so the user can correct
// the row by hand instead of losing it.
func NewFailedItem(up model.Upload, cause error, info model.ReimbursementInfo) model.LineItem {
	return model.LineItem{
		ID:           model.NewID(),
		Date:         time.Now().Format("2006-01-02"),
		Category:     defaultCategory,
		Description:  fmt.Sprintf("识别失败：%s (%v)", up.Name, cause),
		Subtotal:     "0.00",
		Tax:          "0.00",
		Amount:       "0.00",
		TotalWithTax: "0.00",
		PreviewURL:   rawPreview(up),
		Attachments:  []string{},
		IsPDF:        up.IsPDF(),
		Reimburser:   info.Reimburser,
		Project:      info.Project,
	}
}

// rawPreview inlines the original upload when it is already a browser
// displayable image. Normalization failed at this point, so the raw
// bytes are the best preview available.
func rawPreview(up model.Upload) string {
	if len(up.Data) == 0 {
		return ""
	}
	switch up.ContentType {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return model.DataURL(up.ContentType, up.Data)
	}
	return ""
}
