package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/models"
	"github.com/ayoub195/safisaana/internal/service"
)

type PaymentHandler struct {
	checkout *service.CheckoutService
	engine   *service.TransitionEngine
	logger   *zap.Logger
}

func NewPaymentHandler(checkout *service.CheckoutService, engine *service.TransitionEngine, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		checkout: checkout,
		engine:   engine,
		logger:   logger,
	}
}

// CreateCheckout handles POST /api/v1/payments
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	response, err := h.checkout.Start(c.Request.Context(), &req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		if errors.Is(err, models.ErrSubjectRef) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		h.logger.Error("checkout initiation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Payment initialization failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.checkout.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payment"})
		return
	}
	if payment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// ListPayments handles GET /api/v1/payments (admin). Defaults to the last 30 days.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	start, end, err := parsePeriod(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payments, err := h.checkout.ListPayments(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("failed to list payments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments, "count": len(payments)})
}

type clientEventRequest struct {
	Status models.PaymentStatus `json:"status" binding:"required"`
}

// ClientEvent handles POST /api/v1/payments/:id/events/client. The browser
// callback is a UI hint only: it may move a payment to IN_PROGRESS, never to a
// terminal status. Terminal statuses commit exclusively through the signed
// webhook.
func (h *PaymentHandler) ClientEvent(c *gin.Context) {
	var req clientEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status != models.PaymentStatusInProgress {
		c.JSON(http.StatusForbidden, gin.H{"error": "client callbacks may only report IN_PROGRESS"})
		return
	}

	result, err := h.engine.Apply(c.Request.Context(), c.Param("id"), req.Status, "", nil)
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
			return
		}
		h.logger.Error("client event failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"outcome": result.Outcome, "status": result.Payment.Status})
}

// Receipt handles GET /api/v1/payments/:id/receipt
func (h *PaymentHandler) Receipt(c *gin.Context) {
	payment, err := h.checkout.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payment"})
		return
	}
	if payment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}

	pdf, err := service.BuildReceiptPDF(payment)
	if err != nil {
		if errors.Is(err, service.ErrReceiptUnavailable) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("receipt rendering failed", zap.String("payment_id", payment.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render receipt"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="receipt-`+payment.ID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func parsePeriod(c *gin.Context) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	if v := c.Query("start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("start must be YYYY-MM-DD")
		}
		start = t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("end must be YYYY-MM-DD")
		}
		end = t.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, errors.New("start must be before end")
	}
	return start, end, nil
}
