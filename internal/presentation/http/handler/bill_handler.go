package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billing-core/internal/application/service"
	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/sangkips/billing-core/internal/presentation/http/dto/request"
	"github.com/sangkips/billing-core/internal/presentation/http/dto/response"
)

// BillHandler handles bill-related HTTP requests
type BillHandler struct {
	billingService *service.BillingService
}

// NewBillHandler creates a new bill handler
func NewBillHandler(billingService *service.BillingService) *BillHandler {
	return &BillHandler{billingService: billingService}
}

// Create handles creating a bill for an account
func (h *BillHandler) Create(c *gin.Context) {
	var req request.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	items := make([]service.BillItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.BillItemInput{
			ItemName:  item.ItemName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	bill, err := h.billingService.CreateBill(c.Request.Context(), &service.CreateBillInput{
		Account:  entity.NewAccountRef(req.AccountID, enum.AccountType(req.AccountType)),
		Items:    items,
		Discount: req.Discount,
		Actor:    actor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Bill created successfully", bill)
}

// List handles listing an account's bills with their summary
func (h *BillHandler) List(c *gin.Context) {
	var query request.AccountQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.billingService.ListBills(c.Request.Context(), accountFromRequest(c, query.AccountType))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bills retrieved successfully", result)
}

// Summary handles fetching only the account totals
func (h *BillHandler) Summary(c *gin.Context) {
	var query request.AccountQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	summary, err := h.billingService.Summary(c.Request.Context(), accountFromRequest(c, query.AccountType))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Summary retrieved successfully", summary)
}
