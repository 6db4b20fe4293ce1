package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/driveon/rental-billing/internal/http/middleware"
	"github.com/driveon/rental-billing/internal/model"
	"github.com/driveon/rental-billing/internal/service"
)

type Handler struct {
	billing    *service.BillingService
	statements *service.StatementService
	log        zerolog.Logger
}

func NewHandler(billing *service.BillingService, statements *service.StatementService, log zerolog.Logger) *Handler {
	return &Handler{billing: billing, statements: statements, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/charges/generate", h.generateCharges)
	protected.POST("/charges/sweep", h.sweepCharges)
	protected.POST("/charges/:id/payment", h.recordPayment)
	protected.POST("/charges/:id/cancel", h.cancelCharge)
	protected.GET("/charges", h.listCharges)
	protected.GET("/contracts/:id/mileage", h.getMileageOverage)
	protected.POST("/charges/statement", h.exportStatement)
	protected.GET("/charges/:id/receipt", h.downloadReceipt)
}

// batchRequest optionally overrides the batch date, e.g. for backfilling
// a missed run. Defaults to today.
type batchRequest struct {
	Date string `json:"date"`
}

func (h *Handler) batchDate(c *gin.Context) (time.Time, bool) {
	if c.Request.ContentLength == 0 {
		return time.Now().UTC(), true
	}
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, false
	}
	if strings.TrimSpace(req.Date) == "" {
		return time.Now().UTC(), true
	}
	day, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return time.Time{}, false
	}
	return day, true
}

func (h *Handler) generateCharges(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	day, ok := h.batchDate(c)
	if !ok {
		return
	}

	summary, err := h.billing.GenerateMonthlyCharges(c.Request.Context(), principal, day)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) sweepCharges(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	day, ok := h.batchDate(c)
	if !ok {
		return
	}

	summary, err := h.billing.SweepOverdueCharges(c.Request.Context(), principal, day)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type recordPaymentRequest struct {
	PaidAt        string  `json:"paid_at" binding:"required"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	PenaltyAmount *string `json:"penalty_amount"`
	Notes         *string `json:"notes"`
}

func (h *Handler) recordPayment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charge id"})
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paidAt, err := parseDate(req.PaidAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paid_at"})
		return
	}

	penalty := decimal.Zero
	if req.PenaltyAmount != nil {
		penalty, err = decimal.NewFromString(strings.TrimSpace(*req.PenaltyAmount))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid penalty_amount"})
			return
		}
	}

	charge, err := h.billing.RecordPayment(c.Request.Context(), chargeID, service.PaymentInput{
		PaidAt:    paidAt,
		Method:    req.PaymentMethod,
		Penalty:   penalty,
		Notes:     req.Notes,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, charge)
}

func (h *Handler) cancelCharge(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charge id"})
		return
	}

	charge, err := h.billing.CancelCharge(c.Request.Context(), principal, chargeID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, charge)
}

func (h *Handler) listCharges(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var filter model.ChargeFilter
	if raw := strings.TrimSpace(c.Query("contract_id")); raw != "" {
		contractID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_id"})
			return
		}
		filter.ContractID = &contractID
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, err := parseChargeStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}

	charges, err := h.billing.ListCharges(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"charges": charges})
}

func (h *Handler) getMileageOverage(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	periodStart, err := parseDate(c.Query("period_start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return
	}
	periodEnd, err := parseDate(c.Query("period_end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return
	}

	overage, err := h.billing.GetMileageOverage(c.Request.Context(), contractID, periodStart, periodEnd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, overage)
}

type exportStatementRequest struct {
	BranchID    string `json:"branch_id"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

func (h *Handler) exportStatement(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req exportStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.StatementInput{Principal: principal}
	if raw := strings.TrimSpace(req.BranchID); raw != "" {
		branchID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch_id"})
			return
		}
		input.BranchID = &branchID
	}

	var err error
	input.PeriodStart, err = parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return
	}
	input.PeriodEnd, err = parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return
	}

	result, err := h.statements.ExportStatement(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) downloadReceipt(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charge id"})
		return
	}

	result, err := h.statements.BuildReceipt(c.Request.Context(), principal, chargeID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseChargeStatus(raw string) (model.ChargeStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING":
		return model.ChargeStatusPending, nil
	case "OVERDUE":
		return model.ChargeStatusOverdue, nil
	case "PAID":
		return model.ChargeStatusPaid, nil
	case "CANCELLED":
		return model.ChargeStatusCancelled, nil
	default:
		return "", service.ErrInvalidInput
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
