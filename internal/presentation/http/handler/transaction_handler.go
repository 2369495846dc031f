package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billing-core/internal/application/service"
	"github.com/sangkips/billing-core/internal/presentation/http/dto/request"
	"github.com/sangkips/billing-core/internal/presentation/http/dto/response"
	"github.com/sangkips/billing-core/pkg/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TransactionHandler handles ledger-related HTTP requests
type TransactionHandler struct {
	billingService *service.BillingService
	exporter       *service.StatementExporter
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(billingService *service.BillingService, exporter *service.StatementExporter) *TransactionHandler {
	return &TransactionHandler{billingService: billingService, exporter: exporter}
}

// List handles listing an account's ledger entries, newest first
func (h *TransactionHandler) List(c *gin.Context) {
	var req request.TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &pagination.CursorParams{
		Cursor: req.Cursor,
		Limit:  req.Limit,
	}

	result, err := h.billingService.ListTransactions(c.Request.Context(), accountFromRequest(c, req.AccountType), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithCursor(c, http.StatusOK, "Transactions retrieved successfully", "transactions", result)
}

// Export handles downloading an account statement as a spreadsheet
func (h *TransactionHandler) Export(c *gin.Context) {
	var query request.AccountQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	account := accountFromRequest(c, query.AccountType)

	// Build the workbook first so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.exporter.Export(c.Request.Context(), account, &buf); err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+h.exporter.Filename(account, time.Now()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
