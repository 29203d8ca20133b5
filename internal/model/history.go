package model

import "time"

// Column describes one ledger column for export and snapshots.
type Column struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
}

// DefaultColumns is the ledger layout used when a snapshot or export
// request carries no explicit column set.
func DefaultColumns() []Column {
	return []Column{
		{ID: "date", Label: "日期", Visible: true},
		{ID: "category", Label: "类别", Visible: true},
		{ID: "description", Label: "报销说明", Visible: true},
		{ID: "itemName", Label: "项目名称", Visible: true},
		{ID: "invoiceNumber", Label: "发票号码", Visible: true},
		{ID: "subtotal", Label: "金额(不含税)", Visible: true},
		{ID: "tax", Label: "税额", Visible: true},
		{ID: "amount", Label: "价税合计", Visible: true},
		{ID: "remarks", Label: "备注", Visible: true},
	}
}

// Snapshot is a full copy of the form state archived to history or
// saved as a draft.
type Snapshot struct {
	Items   []LineItem        `json:"items"`
	Info    ReimbursementInfo `json:"info"`
	Columns []Column          `json:"columns,omitempty"`
}

// HistoryRecord is one archived export.
type HistoryRecord struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title"`
	Total     float64   `json:"total"`
	Count     int       `json:"count"`
	Snapshot  Snapshot  `json:"snapshot"`
}

// Draft is the single auto-saved working copy.
type Draft struct {
	Timestamp time.Time         `json:"timestamp"`
	Items     []LineItem        `json:"items"`
	Info      ReimbursementInfo `json:"info"`
}
