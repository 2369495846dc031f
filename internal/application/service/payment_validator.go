package service

import (
	"github.com/go-playground/validator/v10"
	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/sangkips/billing-core/pkg/apperror"
	"github.com/shopspring/decimal"
)

// Method specific rule sets. Only the fields of the chosen method are checked.

type upiRules struct {
	UPITransactionID string `json:"upi_transaction_id" validate:"required,notblank,max=255"`
	BankAccountRef   string `json:"bank_account_ref" validate:"required,notblank,max=255"`
}

type bankTransferRules struct {
	UTRNumber      string           `json:"utr_number" validate:"required,notblank,max=255"`
	ReceivedAmount *decimal.Decimal `json:"received_amount" validate:"required,gt=0"`
	BankName       string           `json:"bank_name" validate:"omitempty,max=255"`
	TransferDate   string           `json:"transfer_date" validate:"omitempty,datetime=2006-01-02"`
}

type chequeRules struct {
	ChequeNumber string            `json:"cheque_number" validate:"required,notblank,max=255"`
	ChequeAmount *decimal.Decimal  `json:"cheque_amount" validate:"required,gt=0"`
	ChequeBank   string            `json:"cheque_bank" validate:"omitempty,max=255"`
	ChequeIFSC   string            `json:"cheque_ifsc" validate:"omitempty,alphanum,len=11"`
	ChequeDate   string            `json:"cheque_date" validate:"omitempty,datetime=2006-01-02"`
	DrawerName   string            `json:"drawer_name" validate:"omitempty,max=255"`
	ChequeStatus enum.ChequeStatus `json:"cheque_status" validate:"omitempty,oneof=pending cleared bounced"`
}

// PaymentValidator checks a payment before any bill is read or touched
type PaymentValidator struct {
	validate *validator.Validate
}

// NewPaymentValidator creates a new payment validator
func NewPaymentValidator() *PaymentValidator {
	return &PaymentValidator{validate: newValidate()}
}

// Validate checks the amount and the method specific details of a payment.
// It has no side effects.
func (v *PaymentValidator) Validate(method enum.PaymentMethod, amount decimal.Decimal, details entity.PaymentDetails) error {
	var fieldErrors []apperror.FieldError

	if !amount.IsPositive() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "payment_amount", Message: "must be greater than 0"})
	} else if !hasAtMostTwoDecimals(amount) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "payment_amount", Message: "must have at most 2 decimal places"})
	}

	if !method.IsValid() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "payment_method", Message: "must be one of [cash upi bank_transfer cheque]"})
		return apperror.NewValidationError(fieldErrors)
	}

	var rules interface{}
	switch method {
	case enum.PaymentMethodUPI:
		rules = &upiRules{
			UPITransactionID: details.UPITransactionID,
			BankAccountRef:   details.BankAccountRef,
		}
	case enum.PaymentMethodBankTransfer:
		rules = &bankTransferRules{
			UTRNumber:      details.UTRNumber,
			ReceivedAmount: details.ReceivedAmount,
			BankName:       details.BankName,
			TransferDate:   details.TransferDate,
		}
	case enum.PaymentMethodCheque:
		rules = &chequeRules{
			ChequeNumber: details.ChequeNumber,
			ChequeAmount: details.ChequeAmount,
			ChequeBank:   details.ChequeBank,
			ChequeIFSC:   details.ChequeIFSC,
			ChequeDate:   details.ChequeDate,
			DrawerName:   details.DrawerName,
			ChequeStatus: details.ChequeStatus,
		}
	}

	if rules != nil {
		if err := v.validate.Struct(rules); err != nil {
			appErr := apperror.GetAppError(toValidationError(err))
			for _, fe := range appErr.Errors {
				fe.Field = "payment_details." + fe.Field
				fieldErrors = append(fieldErrors, fe)
			}
		}
	}

	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// ValidateAgainstDue rejects a payment larger than what the account owes.
// summary must be computed inside the same serialized section as the allocation.
func (v *PaymentValidator) ValidateAgainstDue(amount decimal.Decimal, summary entity.BillsSummary) error {
	if amount.GreaterThan(summary.TotalDue) {
		return apperror.NewOverpaymentError(amount, summary.TotalDue)
	}
	return nil
}
