package entity

import (
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// PaymentDetails carries the method specific information of a payment.
// Only the fields belonging to the chosen method are kept; see ForMethod.
type PaymentDetails struct {
	// UPI
	UPITransactionID string `json:"upi_transaction_id,omitempty"`
	BankAccountRef   string `json:"bank_account_ref,omitempty"`

	// Bank transfer
	UTRNumber      string           `json:"utr_number,omitempty"`
	ReceivedAmount *decimal.Decimal `json:"received_amount,omitempty"`
	BankName       string           `json:"bank_name,omitempty"`
	TransferDate   string           `json:"transfer_date,omitempty"`

	// Cheque
	ChequeNumber string            `json:"cheque_number,omitempty"`
	ChequeAmount *decimal.Decimal  `json:"cheque_amount,omitempty"`
	ChequeBank   string            `json:"cheque_bank,omitempty"`
	ChequeIFSC   string            `json:"cheque_ifsc,omitempty"`
	ChequeDate   string            `json:"cheque_date,omitempty"`
	DrawerName   string            `json:"drawer_name,omitempty"`
	ChequeStatus enum.ChequeStatus `json:"cheque_status,omitempty"`
}

// ForMethod returns a copy holding only the fields that belong to method.
// Cheques without a status start out pending.
func (d PaymentDetails) ForMethod(method enum.PaymentMethod) PaymentDetails {
	switch method {
	case enum.PaymentMethodUPI:
		return PaymentDetails{
			UPITransactionID: d.UPITransactionID,
			BankAccountRef:   d.BankAccountRef,
		}
	case enum.PaymentMethodBankTransfer:
		return PaymentDetails{
			UTRNumber:      d.UTRNumber,
			ReceivedAmount: d.ReceivedAmount,
			BankName:       d.BankName,
			TransferDate:   d.TransferDate,
		}
	case enum.PaymentMethodCheque:
		out := PaymentDetails{
			ChequeNumber: d.ChequeNumber,
			ChequeAmount: d.ChequeAmount,
			ChequeBank:   d.ChequeBank,
			ChequeIFSC:   d.ChequeIFSC,
			ChequeDate:   d.ChequeDate,
			DrawerName:   d.DrawerName,
			ChequeStatus: d.ChequeStatus,
		}
		if out.ChequeStatus == "" {
			out.ChequeStatus = enum.ChequeStatusPending
		}
		return out
	default:
		return PaymentDetails{}
	}
}

// Clone returns a copy that shares no amount pointers with d
func (d PaymentDetails) Clone() PaymentDetails {
	c := d
	if d.ReceivedAmount != nil {
		v := *d.ReceivedAmount
		c.ReceivedAmount = &v
	}
	if d.ChequeAmount != nil {
		v := *d.ChequeAmount
		c.ChequeAmount = &v
	}
	return c
}

// Equal reports whether both payloads carry the same values
func (d PaymentDetails) Equal(other PaymentDetails) bool {
	if !equalAmount(d.ReceivedAmount, other.ReceivedAmount) || !equalAmount(d.ChequeAmount, other.ChequeAmount) {
		return false
	}
	d.ReceivedAmount, other.ReceivedAmount = nil, nil
	d.ChequeAmount, other.ChequeAmount = nil, nil
	return d == other
}

func equalAmount(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
