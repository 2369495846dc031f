package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billing-core/internal/application/service"
	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/sangkips/billing-core/internal/presentation/http/dto/request"
	"github.com/sangkips/billing-core/internal/presentation/http/dto/response"
	"github.com/sangkips/billing-core/internal/presentation/http/middleware"
)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	billingService *service.BillingService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(billingService *service.BillingService) *PaymentHandler {
	return &PaymentHandler{billingService: billingService}
}

// Bulk handles posting one payment across an account's outstanding bills
func (h *PaymentHandler) Bulk(c *gin.Context) {
	var req request.BulkPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var details entity.PaymentDetails
	if req.PaymentDetails != nil {
		details = *req.PaymentDetails
	}

	result, err := h.billingService.ProcessBulkPayment(c.Request.Context(), &service.BulkPaymentInput{
		Account:        entity.NewAccountRef(req.AccountID, enum.AccountType(req.AccountType)),
		Amount:         req.PaymentAmount,
		Method:         enum.PaymentMethod(req.PaymentMethod),
		ReceivedAmount: req.ReceivedAmount,
		Reference:      req.TransactionID,
		Details:        details,
		Notes:          req.Notes,
		IdempotencyKey: c.GetHeader(middleware.IdempotencyKeyHeader),
		Actor:          actor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Replayed {
		c.Header(middleware.IdempotencyReplayedHeader, "true")
	}
	response.OK(c, "Payment processed successfully", result)
}
