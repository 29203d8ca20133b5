package model

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// MaxImageSlots caps every image-reference slot on a line item.
const MaxImageSlots = 5

// LineItem is one row of the reimbursement ledger. Financial fields
// (subtotal, tax, amount, totalWithTax) are fixed-2-decimal strings so
// repeated edits never produce floating-point display jitter; they are
// kept consistent by service.Reconcile.
type LineItem struct {
	ID            string   `json:"id"`
	FileHash      string   `json:"fileHash,omitempty"`
	Date          string   `json:"date"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	ItemName      string   `json:"itemName"`
	Specification string   `json:"specification"`
	Unit          string   `json:"unit"`
	Quantity      float64  `json:"quantity"`
	UnitPrice     float64  `json:"unitPrice"`
	Subtotal      string   `json:"subtotal"`
	Tax           string   `json:"tax"`
	Amount        string   `json:"amount"`
	TotalWithTax  string   `json:"totalWithTax"`
	TaxRate       string   `json:"taxRate"`
	InvoiceNumber string   `json:"invoiceNumber"`
	BuyerName     string   `json:"buyerName"`
	SellerName    string   `json:"sellerName"`
	Remarks       string   `json:"remarks"`
	PreviewURL    string   `json:"previewUrl,omitempty"`
	OrderImages   []string `json:"orderImage,omitempty"`
	PaymentProofs []string `json:"paymentProof,omitempty"`
	Attachments   []string `json:"attachments"`
	IsPDF         bool     `json:"isPDF"`
	IsCached      bool     `json:"isCached,omitempty"`
	Reimburser    string   `json:"reimburser"`
	Project       string   `json:"project"`
}

// ClampImageSlots trims every image slot to MaxImageSlots entries.
func (it *LineItem) ClampImageSlots() {
	if len(it.OrderImages) > MaxImageSlots {
		it.OrderImages = it.OrderImages[:MaxImageSlots]
	}
	if len(it.PaymentProofs) > MaxImageSlots {
		it.PaymentProofs = it.PaymentProofs[:MaxImageSlots]
	}
	if len(it.Attachments) > MaxImageSlots {
		it.Attachments = it.Attachments[:MaxImageSlots]
	}
}

// NewID returns a time-ordered unique id so freshly created rows sort
// stably by creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ReimbursementInfo is the form-level context shared by all rows.
type ReimbursementInfo struct {
	Reimburser        string `json:"reimburser"`
	Project           string `json:"project"`
	ReimbursementDate string `json:"reimbursementDate"`
	PaymentInfo       string `json:"paymentInfo"`
}

// Upload is one raw file submitted to the ingestion pipeline.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// IsPDF reports whether the upload should take the PDF rasterization path.
func (u Upload) IsPDF() bool {
	return u.ContentType == "application/pdf"
}

// DataURL inlines raw bytes as a browser-displayable data URL.
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// NormalizedImage is the ephemeral output of the image normalizer,
// consumed immediately by the cache gate and the OCR call.
type NormalizedImage struct {
	FileHash   string
	JPEG       []byte
	SourceName string
}
