package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bill is an invoice owed by an account. Only the settlement fields
// (paid, due, status, method, transaction) ever change after creation.
type Bill struct {
	ID            uuid.UUID           `gorm:"type:uuid;primary_key" json:"bill_id"`
	AccountID     string              `gorm:"size:100;not null;index:idx_bills_account,priority:1" json:"account_id"`
	AccountType   enum.AccountType    `gorm:"size:20;not null;index:idx_bills_account,priority:2" json:"account_type"`
	BillNumber    string              `gorm:"size:50;uniqueIndex;not null" json:"bill_number"`
	Subtotal      decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"subtotal"`
	Discount      decimal.Decimal     `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`
	Total         decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"total"`
	PaidAmount    decimal.Decimal     `gorm:"type:decimal(20,2);not null;default:0" json:"paid_amount"`
	DueAmount     decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"due_amount"`
	PaymentStatus enum.PaymentStatus  `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	PaymentMethod *enum.PaymentMethod `gorm:"size:20" json:"payment_method"`
	TransactionID *string             `gorm:"size:64" json:"transaction_id"`
	CreatedBy     string              `gorm:"size:100" json:"created_by"`
	CreatedAt     time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`

	// Relationships
	Items []BillItem `gorm:"foreignKey:BillID" json:"items"`
}

// BeforeCreate generates a UUID before creating a new bill
func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Bill model
func (Bill) TableName() string {
	return "bills"
}

// Account returns the account that owes the bill
func (b *Bill) Account() AccountRef {
	return AccountRef{ID: b.AccountID, Type: b.AccountType}
}

// IsOutstanding reports whether anything is still owed on the bill
func (b *Bill) IsOutstanding() bool {
	return b.DueAmount.IsPositive()
}

// BillItem represents a line item on a bill
type BillItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"-"`
	BillID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position   int             `gorm:"not null;default:0" json:"-"`
	ItemName   string          `gorm:"size:255;not null" json:"item_name"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_price"`
}

// BeforeCreate generates a UUID before creating a new bill item
func (i *BillItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BillItem model
func (BillItem) TableName() string {
	return "bill_items"
}

// Price fills in the item's line total from quantity and unit price
func (i *BillItem) Price() {
	i.TotalPrice = i.Quantity.Mul(i.UnitPrice).Round(2)
}

// Recalculate derives every amount on a freshly built bill from its items and discount.
// The bill starts unpaid; a bill that totals zero is already completed.
func (b *Bill) Recalculate() {
	subtotal := decimal.Zero
	for idx := range b.Items {
		b.Items[idx].Position = idx
		b.Items[idx].Price()
		subtotal = subtotal.Add(b.Items[idx].TotalPrice)
	}
	b.Subtotal = subtotal
	b.Total = subtotal.Sub(b.Discount)
	b.PaidAmount = decimal.Zero
	b.DueAmount = b.Total
	b.PaymentStatus = DeriveStatus(b.PaidAmount, b.DueAmount)
}

// DeriveStatus maps paid and due amounts onto a payment status
func DeriveStatus(paid, due decimal.Decimal) enum.PaymentStatus {
	switch {
	case !due.IsPositive():
		return enum.PaymentStatusCompleted
	case paid.IsPositive():
		return enum.PaymentStatusPartial
	default:
		return enum.PaymentStatusPending
	}
}

// ApplySettlement moves amount from due to paid and records how it was paid.
// It returns an *InvariantViolation if amount is not positive or exceeds the due amount.
func (b *Bill) ApplySettlement(amount decimal.Decimal, method enum.PaymentMethod, transactionID string, at time.Time) error {
	if !amount.IsPositive() {
		return &InvariantViolation{BillID: b.ID, Reason: fmt.Sprintf("settlement amount %s is not positive", amount)}
	}
	if amount.GreaterThan(b.DueAmount) {
		return &InvariantViolation{BillID: b.ID, Reason: fmt.Sprintf("settlement amount %s exceeds due %s", amount, b.DueAmount)}
	}

	next := DeriveStatus(b.PaidAmount.Add(amount), b.DueAmount.Sub(amount))
	if !b.PaymentStatus.CanTransitionTo(next) {
		return &InvariantViolation{BillID: b.ID, Reason: fmt.Sprintf("status cannot move from %s to %s", b.PaymentStatus, next)}
	}

	b.PaidAmount = b.PaidAmount.Add(amount)
	b.DueAmount = b.DueAmount.Sub(amount)
	b.PaymentStatus = next
	b.PaymentMethod = &method
	b.TransactionID = &transactionID
	b.UpdatedAt = at

	b.MustBalance()
	return nil
}

// MustBalance panics with an *InvariantViolation when the bill's amounts disagree.
// A bill that fails this check means stored data is corrupt.
func (b *Bill) MustBalance() {
	if err := b.CheckBalance(); err != nil {
		panic(err)
	}
}

// CheckBalance verifies paid + due == total with no negative amounts
func (b *Bill) CheckBalance() error {
	switch {
	case b.PaidAmount.IsNegative() || b.DueAmount.IsNegative() || b.Total.IsNegative():
		return &InvariantViolation{BillID: b.ID, Reason: fmt.Sprintf("negative amount (paid %s, due %s, total %s)", b.PaidAmount, b.DueAmount, b.Total)}
	case !b.PaidAmount.Add(b.DueAmount).Equal(b.Total):
		return &InvariantViolation{BillID: b.ID, Reason: fmt.Sprintf("paid %s + due %s != total %s", b.PaidAmount, b.DueAmount, b.Total)}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state
func (b *Bill) Clone() *Bill {
	c := *b
	if b.Items != nil {
		c.Items = make([]BillItem, len(b.Items))
		copy(c.Items, b.Items)
	}
	if b.PaymentMethod != nil {
		m := *b.PaymentMethod
		c.PaymentMethod = &m
	}
	if b.TransactionID != nil {
		t := *b.TransactionID
		c.TransactionID = &t
	}
	return &c
}

// InvariantViolation signals a bill whose amounts can no longer be trusted
type InvariantViolation struct {
	BillID uuid.UUID
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("bill %s invariant violated: %s", e.BillID, e.Reason)
}
