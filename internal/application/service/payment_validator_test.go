package service

import (
	"testing"

	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/sangkips/billing-core/pkg/apperror"
)

func TestPaymentValidatorValidate(t *testing.T) {
	v := NewPaymentValidator()

	tests := []struct {
		name    string
		method  enum.PaymentMethod
		amount  string
		details entity.PaymentDetails
		fields  []string
	}{
		{name: "cash", method: enum.PaymentMethodCash, amount: "100"},
		{name: "zero amount", method: enum.PaymentMethodCash, amount: "0", fields: []string{"payment_amount"}},
		{name: "three decimals", method: enum.PaymentMethodCash, amount: "1.005", fields: []string{"payment_amount"}},
		{
			name:    "upi",
			method:  enum.PaymentMethodUPI,
			amount:  "10",
			details: entity.PaymentDetails{UPITransactionID: "upi-123", BankAccountRef: "acct-9"},
		},
		{
			name:    "upi missing reference",
			method:  enum.PaymentMethodUPI,
			amount:  "10",
			details: entity.PaymentDetails{UPITransactionID: "upi-123"},
			fields:  []string{"payment_details.bank_account_ref"},
		},
		{
			name:   "bank transfer",
			method: enum.PaymentMethodBankTransfer,
			amount: "10",
			details: entity.PaymentDetails{
				UTRNumber:      "UTR0001",
				ReceivedAmount: decPtr("10"),
				TransferDate:   "2024-03-01",
			},
		},
		{
			name:   "bank transfer bad date",
			method: enum.PaymentMethodBankTransfer,
			amount: "10",
			details: entity.PaymentDetails{
				UTRNumber:      "UTR0001",
				ReceivedAmount: decPtr("10"),
				TransferDate:   "01/03/2024",
			},
			fields: []string{"payment_details.transfer_date"},
		},
		{
			name:    "bank transfer missing received amount",
			method:  enum.PaymentMethodBankTransfer,
			amount:  "10",
			details: entity.PaymentDetails{UTRNumber: "UTR0001"},
			fields:  []string{"payment_details.received_amount"},
		},
		{
			name:   "cheque",
			method: enum.PaymentMethodCheque,
			amount: "10",
			details: entity.PaymentDetails{
				ChequeNumber: "000123",
				ChequeAmount: decPtr("10"),
				ChequeIFSC:   "HDFC0001234",
				ChequeStatus: enum.ChequeStatusPending,
			},
		},
		{
			name:   "cheque bad ifsc and status",
			method: enum.PaymentMethodCheque,
			amount: "10",
			details: entity.PaymentDetails{
				ChequeNumber: "000123",
				ChequeAmount: decPtr("10"),
				ChequeIFSC:   "HDFC-1",
				ChequeStatus: "lost",
			},
			fields: []string{"payment_details.cheque_ifsc", "payment_details.cheque_status"},
		},
		{
			name:    "cheque blank number",
			method:  enum.PaymentMethodCheque,
			amount:  "10",
			details: entity.PaymentDetails{ChequeNumber: "   ", ChequeAmount: decPtr("10")},
			fields:  []string{"payment_details.cheque_number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.method, dec(tt.amount), tt.details)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !apperror.IsKind(err, apperror.KindValidation) {
				t.Fatalf("Validate() error = %v, want validation error", err)
			}
			appErr := apperror.GetAppError(err)
			for _, field := range tt.fields {
				if !hasField(appErr, field) {
					t.Errorf("errors = %+v, want field %s", appErr.Errors, field)
				}
			}
		})
	}
}

func TestPaymentValidatorValidateAgainstDue(t *testing.T) {
	v := NewPaymentValidator()
	summary := entity.BillsSummary{TotalDue: dec("150")}

	if err := v.ValidateAgainstDue(dec("150"), summary); err != nil {
		t.Errorf("paying the exact due: error = %v", err)
	}
	err := v.ValidateAgainstDue(dec("150.01"), summary)
	if !apperror.IsKind(err, apperror.KindOverpayment) {
		t.Errorf("paying above due: error = %v, want overpayment", err)
	}
}
