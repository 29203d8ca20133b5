package service

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"kairos/internal/model"
)

const exportSheet = "报销单"

// ExportService renders the ledger to spreadsheet form. Print/PDF
// output is a consumer-side concern and not handled here.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// Excel writes the ledger as an xlsx workbook: a title block, the
// visible columns, one row per item and a totals row summing amount.
func (s *ExportService) Excel(items []model.LineItem, columns []model.Column, info model.ReimbursementInfo, w io.Writer) error {
	if columns == nil {
		columns = model.DefaultColumns()
	}
	var visible []model.Column
	for _, c := range columns {
		if c.Visible && c.ID != "actions" {
			visible = append(visible, c)
		}
	}
	if len(visible) == 0 {
		return fmt.Errorf("no visible columns to export")
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(visible))
	if err != nil {
		return fmt.Errorf("column name: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 18},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("title style: %w", err)
	}
	infoStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("info style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"444444"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	// Title block, rows 1-3.
	f.SetCellValue(exportSheet, "A1", exportSheet)
	f.MergeCell(exportSheet, "A1", lastCol+"1")
	f.SetCellStyle(exportSheet, "A1", lastCol+"1", titleStyle)
	f.SetRowHeight(exportSheet, 1, 30)

	f.SetCellValue(exportSheet, "A2", fmt.Sprintf("报销人: %s    项目: %s    日期: %s",
		info.Reimburser, info.Project, info.ReimbursementDate))
	f.MergeCell(exportSheet, "A2", lastCol+"2")
	f.SetCellStyle(exportSheet, "A2", lastCol+"2", infoStyle)

	payment := info.PaymentInfo
	if payment == "" {
		payment = "未填写"
	}
	f.SetCellValue(exportSheet, "A3", "打款信息: "+payment)
	f.MergeCell(exportSheet, "A3", lastCol+"3")

	// Column header, row 5 (row 4 is a spacer).
	const headerRow = 5
	for i, c := range visible {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		f.SetCellValue(exportSheet, cell, c.Label)
	}
	f.SetCellStyle(exportSheet, "A5", lastCol+"5", headerStyle)

	// Data rows.
	var total float64
	for r, item := range items {
		total += CoerceNumber(item.Amount)
		for c, col := range visible {
			cell, err := excelize.CoordinatesToCellName(c+1, headerRow+1+r)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			f.SetCellValue(exportSheet, cell, cellValue(item, col.ID))
		}
	}

	// Totals row.
	totalRow := headerRow + 1 + len(items)
	f.SetCellValue(exportSheet, fmt.Sprintf("A%d", totalRow), "合计")
	f.SetCellValue(exportSheet, fmt.Sprintf("%s%d", lastCol, totalRow), total)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellValue maps a column id onto the exported value. Financial columns
// export as numbers so spreadsheet formulas keep working.
func cellValue(item model.LineItem, columnID string) any {
	switch columnID {
	case "date":
		return item.Date
	case "category":
		return item.Category
	case "description":
		return item.Description
	case "itemName":
		return item.ItemName
	case "specification":
		return item.Specification
	case "unit":
		return item.Unit
	case "quantity":
		return item.Quantity
	case "unitPrice":
		return item.UnitPrice
	case "subtotal":
		return CoerceNumber(item.Subtotal)
	case "tax":
		return CoerceNumber(item.Tax)
	case "amount":
		return CoerceNumber(item.Amount)
	case "taxRate":
		return item.TaxRate
	case "invoiceNumber":
		return item.InvoiceNumber
	case "buyerName":
		return item.BuyerName
	case "sellerName":
		return item.SellerName
	case "remarks":
		return item.Remarks
	}
	return ""
}
