package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/ayoub195/safisaana/internal/models"
)

var ErrReceiptUnavailable = errors.New("receipt is only available for completed payments")

// BuildReceiptPDF renders a receipt for a COMPLETE payment.
func BuildReceiptPDF(payment *models.PaymentRecord) ([]byte, error) {
	if payment.Status != models.PaymentStatusComplete {
		return nil, ErrReceiptUnavailable
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Safisaana - Payment Receipt")
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Receipt for", payment.ID},
		{"Transaction", payment.TransactionID},
		{"Amount", fmt.Sprintf("%s %s", payment.Currency, formatAmount(payment.Amount))},
		{"Method", string(payment.PaymentMethod)},
		{"Customer", payment.CustomerID},
		{"Paid at", payment.UpdatedAt.Format("2006-01-02 15:04 MST")},
	}

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 8, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "Thank you for shopping with Safisaana.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
