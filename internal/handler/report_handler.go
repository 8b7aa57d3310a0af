package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/service"
)

type ReportHandler struct {
	reports *service.ReportService
	logger  *zap.Logger
}

func NewReportHandler(reports *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger,
	}
}

// PaymentsReport handles GET /api/v1/reports/payments?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *ReportHandler) PaymentsReport(c *gin.Context) {
	start, end, err := parsePeriod(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workbook, err := h.reports.BuildPaymentsWorkbook(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("payments report failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="payments.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		h.logger.Error("failed to stream report", zap.Error(err))
	}
}
