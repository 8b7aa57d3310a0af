package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/models"
)

// ReportService exports payments for a period as a spreadsheet for the admin
// dashboard.
type ReportService struct {
	store  PaymentStore
	logger *zap.Logger
}

func NewReportService(store PaymentStore, logger *zap.Logger) *ReportService {
	return &ReportService{
		store:  store,
		logger: logger,
	}
}

// BuildPaymentsWorkbook lists payments created in [start, end) and writes them
// to a workbook with per-status totals.
func (s *ReportService) BuildPaymentsWorkbook(ctx context.Context, start, end time.Time) (*excelize.File, error) {
	payments, err := s.store.ListByPeriod(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Payments"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Payment ID", "Created At", "Customer", "Method", "Status", "Currency", "Amount", "Transaction ID"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	statusTotals := map[models.PaymentStatus]float64{}
	statusCounts := map[models.PaymentStatus]int{}

	for i, p := range payments {
		row := i + 2
		values := []interface{}{
			p.ID,
			p.CreatedAt.Format(time.RFC3339),
			p.CustomerID,
			string(p.PaymentMethod),
			string(p.Status),
			p.Currency,
			p.Amount,
			p.TransactionID,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		statusTotals[p.Status] += p.Amount
		statusCounts[p.Status]++
	}

	row := len(payments) + 3
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Totals by status")
	row++
	for _, status := range []models.PaymentStatus{
		models.PaymentStatusPending,
		models.PaymentStatusInProgress,
		models.PaymentStatusComplete,
		models.PaymentStatusFailed,
		models.PaymentStatusRefunded,
		models.PaymentStatusDisputed,
	} {
		if statusCounts[status] == 0 {
			continue
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), string(status))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), statusCounts[status])
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), statusTotals[status])
		row++
	}

	s.logger.Info("payments report built",
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("payments", len(payments)))

	return f, nil
}
