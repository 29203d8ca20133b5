package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"kairos/internal/model"
	"kairos/internal/service"
)

type exportRequest struct {
	Items   []model.LineItem        `json:"items"`
	Info    model.ReimbursementInfo `json:"info"`
	Columns []model.Column          `json:"columns"`
}

// ExcelExportHandler streams the ledger back as an xlsx attachment.
func ExcelExportHandler(exportSvc *service.ExportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if len(req.Items) == 0 {
			http.Error(w, "nothing to export", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="reimbursement.xlsx"`)

		if err := exportSvc.Excel(req.Items, req.Columns, req.Info, w); err != nil {
			slog.Error("excel export failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}
}
