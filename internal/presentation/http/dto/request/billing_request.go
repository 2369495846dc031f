package request

import (
	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BillItemRequest represents one line item of a new bill
type BillItemRequest struct {
	ItemName  string          `json:"item_name" binding:"max=255"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateBillRequest represents a bill creation request
type CreateBillRequest struct {
	AccountID   string            `json:"account_id" binding:"max=100"`
	AccountType string            `json:"account_type"`
	Items       []BillItemRequest `json:"items"`
	Discount    decimal.Decimal   `json:"discount"`
}

// BulkPaymentRequest represents a payment spread across an account's bills
type BulkPaymentRequest struct {
	AccountID      string                 `json:"account_id" binding:"max=100"`
	AccountType    string                 `json:"account_type"`
	PaymentAmount  decimal.Decimal        `json:"payment_amount"`
	PaymentMethod  string                 `json:"payment_method"`
	ReceivedAmount *decimal.Decimal       `json:"received_amount"`
	TransactionID  *string                `json:"transaction_id" binding:"omitempty,max=255"`
	PaymentDetails *entity.PaymentDetails `json:"payment_details"`
	Notes          *string                `json:"notes" binding:"omitempty,max=2000"`
}

// AccountQuery carries the account type of account scoped GET requests
type AccountQuery struct {
	AccountType string `form:"account_type"`
}

// TransactionListRequest represents transaction listing parameters
type TransactionListRequest struct {
	AccountType string `form:"account_type"`
	Cursor      string `form:"cursor"`
	Limit       int    `form:"limit"`
}
