package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RelatedBill records how much of a payment landed on one bill
type RelatedBill struct {
	BillID        uuid.UUID       `json:"bill_id"`
	BillNumber    string          `json:"bill_number"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
}

// TransactionRecord is an immutable ledger entry for one posted payment
type TransactionRecord struct {
	TransactionID  string                           `gorm:"size:64;primaryKey" json:"transaction_id"`
	Sequence       int64                            `gorm:"not null;uniqueIndex" json:"sequence"`
	AccountID      string                           `gorm:"size:100;not null;index:idx_txn_account,priority:1;uniqueIndex:idx_txn_idempotency,priority:1" json:"account_id"`
	AccountType    enum.AccountType                 `gorm:"size:20;not null;index:idx_txn_account,priority:2;uniqueIndex:idx_txn_idempotency,priority:2" json:"account_type"`
	Amount         decimal.Decimal                  `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMethod  enum.PaymentMethod               `gorm:"size:20;not null" json:"payment_method"`
	PaymentDetails PaymentDetails                   `gorm:"type:jsonb;serializer:json" json:"payment_details"`
	RelatedBills   datatypes.JSONSlice[RelatedBill] `gorm:"type:jsonb" json:"related_bills"`
	Notes          *string                          `gorm:"type:text" json:"notes,omitempty"`
	Reference      *string                          `gorm:"size:255" json:"reference,omitempty"`
	IdempotencyKey string                           `gorm:"size:255;not null;uniqueIndex:idx_txn_idempotency,priority:3" json:"idempotency_key"`
	CreatedBy      string                           `gorm:"size:100" json:"created_by"`
	CreatedAt      time.Time                        `gorm:"not null;index:idx_txn_account,priority:3" json:"created_at"`
}

// TableName returns the table name for the TransactionRecord model
func (TransactionRecord) TableName() string {
	return "transactions"
}

// Account returns the account the payment was posted against
func (t *TransactionRecord) Account() AccountRef {
	return AccountRef{ID: t.AccountID, Type: t.AccountType}
}

// AppliedTotal sums the amounts applied across related bills
func (t *TransactionRecord) AppliedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, rb := range t.RelatedBills {
		total = total.Add(rb.AmountApplied)
	}
	return total
}

// Clone returns a copy that shares no slices or pointers with t
func (t *TransactionRecord) Clone() *TransactionRecord {
	c := *t
	c.PaymentDetails = t.PaymentDetails.Clone()
	if t.RelatedBills != nil {
		c.RelatedBills = make(datatypes.JSONSlice[RelatedBill], len(t.RelatedBills))
		copy(c.RelatedBills, t.RelatedBills)
	}
	if t.Notes != nil {
		n := *t.Notes
		c.Notes = &n
	}
	if t.Reference != nil {
		r := *t.Reference
		c.Reference = &r
	}
	return &c
}
