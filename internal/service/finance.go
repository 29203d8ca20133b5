package service

import (
	"math"
	"strconv"
	"strings"

	"kairos/internal/model"
)

// FormatCurrency renders a value as a fixed-2-decimal string.
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// CoerceNumber parses a user-edited numeric value. Empty or malformed
// input coerces to 0, never to an error.
func CoerceNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Reconcile applies one field edit to a line item and returns the
// updated copy. Non-financial fields are plain assignment. Editing a
// financial field triggers the linkage rule:
//
//	edit subtotal -> tax held, amount = subtotal + tax
//	edit tax      -> subtotal held, amount = subtotal + tax
//	edit amount   -> tax held, subtotal = amount - tax
//
// totalWithTax has no direct edit path; it always mirrors amount. All
// three financial fields are re-stringified to 2 decimals on every
// call, so after any edit amount == subtotal + tax to 2 decimals.
func Reconcile(item model.LineItem, field, value string) model.LineItem {
	switch field {
	case "subtotal", "tax", "amount", "totalWithTax":
	default:
		return assignField(item, field, value)
	}

	num := CoerceNumber(value)
	subtotal := CoerceNumber(item.Subtotal)
	tax := CoerceNumber(item.Tax)
	total := CoerceNumber(item.Amount)

	switch field {
	case "subtotal":
		subtotal = num
		total = subtotal + tax
	case "tax":
		tax = num
		total = subtotal + tax
	case "amount":
		total = num
		subtotal = total - tax
	}
	// An edit to totalWithTax falls through untouched and is overwritten
	// by the mirror sync below.

	item.Subtotal = FormatCurrency(subtotal)
	item.Tax = FormatCurrency(tax)
	item.Amount = FormatCurrency(total)
	item.TotalWithTax = item.Amount
	return item
}

func assignField(item model.LineItem, field, value string) model.LineItem {
	switch field {
	case "date":
		item.Date = value
	case "category":
		item.Category = value
	case "description":
		item.Description = value
	case "itemName":
		item.ItemName = value
	case "specification":
		item.Specification = value
	case "unit":
		item.Unit = value
	case "quantity":
		item.Quantity = CoerceNumber(value)
	case "unitPrice":
		item.UnitPrice = CoerceNumber(value)
	case "taxRate":
		item.TaxRate = value
	case "invoiceNumber":
		item.InvoiceNumber = value
	case "buyerName":
		item.BuyerName = value
	case "sellerName":
		item.SellerName = value
	case "remarks":
		item.Remarks = value
	case "previewUrl":
		item.PreviewURL = value
	case "reimburser":
		item.Reimburser = value
	case "project":
		item.Project = value
	}
	return item
}
