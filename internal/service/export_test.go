package service

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"kairos/internal/model"
)

func TestExportExcel(t *testing.T) {
	items := []model.LineItem{
		{Date: "2024-05-01", Category: "交通出行", Description: "高铁票", Subtotal: "100.00", Tax: "13.00", Amount: "113.00"},
		{Date: "2024-05-02", Category: "餐饮美食", Description: "工作餐", Subtotal: "11.06", Tax: "1.44", Amount: "12.50"},
	}
	info := model.ReimbursementInfo{Reimburser: "张三", Project: "差旅", ReimbursementDate: "2024-05-03"}

	var buf bytes.Buffer
	if err := NewExportService().Excel(items, nil, info, &buf); err != nil {
		t.Fatalf("Excel() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex("报销单"); idx < 0 {
		t.Fatal("sheet 报销单 missing")
	}

	title, _ := f.GetCellValue("报销单", "A1")
	if title != "报销单" {
		t.Errorf("title cell = %q", title)
	}

	// Default columns: first header cell is 日期, first data row starts at 6.
	header, _ := f.GetCellValue("报销单", "A5")
	if header != "日期" {
		t.Errorf("header cell = %q, want 日期", header)
	}
	date, _ := f.GetCellValue("报销单", "A6")
	if date != "2024-05-01" {
		t.Errorf("first data cell = %q", date)
	}
	category, _ := f.GetCellValue("报销单", "B7")
	if category != "餐饮美食" {
		t.Errorf("category cell = %q", category)
	}

	// Totals row: label in A, sum of amounts in the last visible column.
	label, _ := f.GetCellValue("报销单", "A8")
	if label != "合计" {
		t.Errorf("totals label = %q", label)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(model.DefaultColumns()))
	total, _ := f.GetCellValue("报销单", lastCol+"8")
	if total != "125.5" {
		t.Errorf("total = %q, want 125.5", total)
	}
}

func TestExportExcelNoVisibleColumns(t *testing.T) {
	cols := []model.Column{{ID: "date", Label: "日期", Visible: false}}
	var buf bytes.Buffer
	err := NewExportService().Excel([]model.LineItem{{}}, cols, model.ReimbursementInfo{}, &buf)
	if err == nil {
		t.Fatal("expected error when no columns are visible")
	}
}

func TestHistoryTitle(t *testing.T) {
	items := []model.LineItem{{Amount: "113.00"}, {Amount: "113.00"}}

	title, total := historyTitle(items, model.ReimbursementInfo{
		Reimburser:        "张三",
		Project:           "差旅",
		ReimbursementDate: "2024-05-03",
	})
	if total != 226 {
		t.Errorf("total = %v, want 226", total)
	}
	if title != "差旅_张三_226.00_2024-05-03" {
		t.Errorf("title = %q", title)
	}

	// Missing info fields fall back to placeholders.
	title, _ = historyTitle(nil, model.ReimbursementInfo{ReimbursementDate: "2024-05-03"})
	if title != "无项目_无报销人_0.00_2024-05-03" {
		t.Errorf("fallback title = %q", title)
	}
}
