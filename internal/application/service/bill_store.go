package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/sangkips/billing-core/internal/domain/repository"
	"github.com/sangkips/billing-core/pkg/apperror"
	"github.com/sangkips/billing-core/pkg/utils"
	"github.com/shopspring/decimal"
)

// BillStore owns bill creation and the settlement writes on existing bills
type BillStore struct {
	billRepo repository.BillRepository
	ids      *utils.IDGenerator
	validate *validator.Validate
	now      func() time.Time
}

// NewBillStore creates a new bill store. now may be nil to use the wall clock.
func NewBillStore(billRepo repository.BillRepository, ids *utils.IDGenerator, now func() time.Time) *BillStore {
	if now == nil {
		now = time.Now
	}
	return &BillStore{
		billRepo: billRepo,
		ids:      ids,
		validate: newValidate(),
		now:      now,
	}
}

// BillItemInput represents one requested line item
type BillItemInput struct {
	ItemName  string          `json:"item_name" validate:"required,notblank,max=255"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// CreateBillInput represents the create bill input
type CreateBillInput struct {
	Account  entity.AccountRef `json:"-"`
	Items    []BillItemInput   `json:"items" validate:"required,min=1,dive"`
	Discount decimal.Decimal   `json:"discount" validate:"gte=0"`
	Actor    string            `json:"-"`
}

// validateAccount reports a missing or unknown account as field errors
func validateAccount(account entity.AccountRef) []apperror.FieldError {
	var fieldErrors []apperror.FieldError
	if account.ID == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "account_id", Message: "is required"})
	}
	if !account.Type.IsValid() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "account_type", Message: "must be one of [customer dealer distributor]"})
	}
	return fieldErrors
}

func (s *BillStore) validateCreate(input *CreateBillInput) error {
	fieldErrors := validateAccount(input.Account)

	if err := s.validate.Struct(input); err != nil {
		fieldErrors = append(fieldErrors, apperror.GetAppError(toValidationError(err)).Errors...)
	}
	if !hasAtMostTwoDecimals(input.Discount) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "discount", Message: "must have at most 2 decimal places"})
	}
	for i, item := range input.Items {
		if !item.Quantity.Equal(item.Quantity.Round(3)) {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "must have at most 3 decimal places",
			})
		}
		if !hasAtMostTwoDecimals(item.UnitPrice) {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].unit_price", i),
				Message: "must have at most 2 decimal places",
			})
		}
	}

	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// CreateBill validates the input, prices the items and stores a new unpaid bill
func (s *BillStore) CreateBill(ctx context.Context, input *CreateBillInput) (*entity.Bill, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	now := s.now().Truncate(time.Microsecond)
	bill := &entity.Bill{
		ID:          uuid.New(),
		AccountID:   input.Account.ID,
		AccountType: input.Account.Type,
		BillNumber:  s.ids.NextBillNumber(),
		Discount:    input.Discount,
		CreatedBy:   input.Actor,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       make([]entity.BillItem, 0, len(input.Items)),
	}
	for _, item := range input.Items {
		bill.Items = append(bill.Items, entity.BillItem{
			ItemName:  strings.TrimSpace(item.ItemName),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	bill.Recalculate()

	if bill.Total.IsNegative() {
		return nil, apperror.NewFieldValidationError("discount", "must not exceed the bill subtotal")
	}
	bill.MustBalance()

	if err := s.billRepo.Create(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// GetBill retrieves a bill by ID
func (s *BillStore) GetBill(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	bill.MustBalance()
	return bill, nil
}

// ListBills returns every bill of the account, oldest first
func (s *BillStore) ListBills(ctx context.Context, account entity.AccountRef) ([]entity.Bill, error) {
	bills, err := s.billRepo.ListByAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		bills[i].MustBalance()
	}
	return bills, nil
}

// ListOutstanding returns the account's bills with money still due, oldest first
func (s *BillStore) ListOutstanding(ctx context.Context, account entity.AccountRef) ([]entity.Bill, error) {
	bills, err := s.billRepo.ListOutstanding(ctx, account)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		bills[i].MustBalance()
	}
	return bills, nil
}

// ApplySettlement moves amount from due to paid on one bill.
// An amount that is not positive or exceeds the due amount yields *entity.InvariantViolation.
func (s *BillStore) ApplySettlement(ctx context.Context, billID uuid.UUID, amount decimal.Decimal, method enum.PaymentMethod, transactionID string) (*entity.Bill, error) {
	bill, err := s.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}

	previousDue := bill.DueAmount
	if err := bill.ApplySettlement(amount, method, transactionID, s.now().Truncate(time.Microsecond)); err != nil {
		return nil, err
	}

	if err := s.billRepo.UpdateSettlement(ctx, bill, previousDue); err != nil {
		if errors.Is(err, repository.ErrStaleBill) {
			return nil, apperror.NewConcurrentConflictError("Bill " + bill.BillNumber + " was changed by another payment")
		}
		return nil, err
	}
	return bill, nil
}

// Summary folds the account's bills into totals without changing them
func (s *BillStore) Summary(ctx context.Context, account entity.AccountRef) (entity.BillsSummary, error) {
	bills, err := s.billRepo.ListByAccount(ctx, account)
	if err != nil {
		return entity.BillsSummary{}, err
	}
	return entity.Summarize(bills), nil
}
