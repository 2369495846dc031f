package service

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/sangkips/billing-core/internal/domain/repository"
	"github.com/sangkips/billing-core/internal/infrastructure/cache"
	"github.com/sangkips/billing-core/internal/infrastructure/lock"
	"github.com/sangkips/billing-core/pkg/apperror"
	"github.com/sangkips/billing-core/pkg/logger"
	"github.com/sangkips/billing-core/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const billingModule = "billing"

// BillingServiceDeps groups the collaborators of BillingService
type BillingServiceDeps struct {
	Transactor repository.Transactor
	Bills      *BillStore
	Allocator  *PaymentAllocator
	Validator  *PaymentValidator
	Ledger     *TransactionLedger
	Locker     lock.AccountLocker
	Cache      cache.SummaryCache
	Logger     *logrus.Logger
}

// BillingService coordinates bill creation and payment posting per account.
// Every write to an account happens while holding that account's lock.
type BillingService struct {
	tx        repository.Transactor
	bills     *BillStore
	allocator *PaymentAllocator
	validator *PaymentValidator
	ledger    *TransactionLedger
	locker    lock.AccountLocker
	cache     cache.SummaryCache
	logger    *logrus.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(deps BillingServiceDeps) *BillingService {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopSummaryCache()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	return &BillingService{
		tx:        deps.Transactor,
		bills:     deps.Bills,
		allocator: deps.Allocator,
		validator: deps.Validator,
		ledger:    deps.Ledger,
		locker:    deps.Locker,
		cache:     deps.Cache,
		logger:    deps.Logger,
	}
}

// BulkPaymentInput represents the bulk payment input
type BulkPaymentInput struct {
	Account        entity.AccountRef
	Amount         decimal.Decimal
	Method         enum.PaymentMethod
	ReceivedAmount *decimal.Decimal
	Reference      *string
	Details        entity.PaymentDetails
	Notes          *string
	IdempotencyKey string
	Actor          string
}

// BulkPaymentResult is the outcome of a posted (or replayed) payment
type BulkPaymentResult struct {
	Summary     entity.BillsSummary       `json:"summary"`
	Transaction *entity.TransactionRecord `json:"transaction"`
	Replayed    bool                      `json:"-"`
}

// AccountBills is an account's bills together with their summary
type AccountBills struct {
	Bills   []entity.Bill       `json:"bills"`
	Summary entity.BillsSummary `json:"summary"`
}

// lockAccount takes the account lock, mapping a timeout to a retryable conflict
func (s *BillingService) lockAccount(ctx context.Context, account entity.AccountRef) (func(), error) {
	release, err := s.locker.Lock(ctx, account.Key())
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			s.logger.WithFields(logrus.Fields{
				"account_id":   account.ID,
				"account_type": account.Type,
			}).Warn("account is busy, lock not obtained")
			return nil, apperror.NewConcurrentConflictError("Account is busy, retry the request")
		}
		return nil, err
	}
	return release, nil
}

// refreshSummary recomputes the account summary from committed state and
// stores it in the cache. Callers hold the account lock.
func (s *BillingService) refreshSummary(ctx context.Context, account entity.AccountRef) (entity.BillsSummary, error) {
	summary, err := s.bills.Summary(ctx, account)
	if err != nil {
		return entity.BillsSummary{}, err
	}
	if err := s.cache.Set(ctx, account, summary); err != nil {
		logger.LogError(s.logger, billingModule, "refreshSummary", "Failed to cache bills summary", account.Key(), err)
		// A stale entry must not outlive a write
		_ = s.cache.Delete(ctx, account)
	}
	return summary, nil
}

// conflictOnStale turns store level write conflicts into retryable errors
func conflictOnStale(err error) error {
	if errors.Is(err, repository.ErrStaleBill) || errors.Is(err, repository.ErrDuplicate) {
		return apperror.NewConcurrentConflictError("Account was changed by a concurrent request, retry the request")
	}
	return err
}

// CreateBill stores a new bill for the account. No ledger entry is written.
func (s *BillingService) CreateBill(ctx context.Context, input *CreateBillInput) (*entity.Bill, error) {
	input.Account = entity.NewAccountRef(input.Account.ID, input.Account.Type)
	if fieldErrors := validateAccount(input.Account); len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	release, err := s.lockAccount(ctx, input.Account)
	if err != nil {
		return nil, err
	}
	defer release()

	var bill *entity.Bill
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bill, err = s.bills.CreateBill(ctx, input)
		return err
	})
	if err != nil {
		return nil, conflictOnStale(err)
	}

	if _, err := s.refreshSummary(ctx, input.Account); err != nil {
		logger.LogError(s.logger, billingModule, "CreateBill", "Failed to refresh summary", input.Account.Key(), err)
	}

	s.logger.WithFields(logrus.Fields{
		"bill_id":      bill.ID,
		"bill_number":  bill.BillNumber,
		"account_id":   bill.AccountID,
		"account_type": bill.AccountType,
		"total":        bill.Total.String(),
	}).Info("bill created")
	return bill, nil
}

// ProcessBulkPayment posts one payment against the account's outstanding bills,
// oldest first. Either every bill update and the ledger entry are committed or
// nothing is. Repeating a request with the same idempotency key returns the
// original transaction without posting again.
func (s *BillingService) ProcessBulkPayment(ctx context.Context, input *BulkPaymentInput) (*BulkPaymentResult, error) {
	account := entity.NewAccountRef(input.Account.ID, input.Account.Type)
	key := strings.TrimSpace(input.IdempotencyKey)

	fieldErrors := validateAccount(account)
	if key == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "idempotency_key", Message: "is required"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	details := input.Details
	if input.Method == enum.PaymentMethodBankTransfer && details.ReceivedAmount == nil {
		details.ReceivedAmount = input.ReceivedAmount
	}
	details = details.ForMethod(input.Method)

	// Nothing has been read or locked yet, so a rejection here leaves no trace
	if err := s.validator.Validate(input.Method, input.Amount, details); err != nil {
		return nil, err
	}

	release, err := s.lockAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		record   *entity.TransactionRecord
		replayed bool
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.ledger.FindByIdempotencyKey(ctx, account, key)
		if err != nil {
			return err
		}
		if existing != nil {
			if !existing.Amount.Equal(input.Amount) || existing.PaymentMethod != input.Method ||
				!existing.PaymentDetails.Equal(details) {
				return apperror.NewFieldValidationError("idempotency_key", "was already used for a different payment")
			}
			record, replayed = existing, true
			return nil
		}

		summary, err := s.bills.Summary(ctx, account)
		if err != nil {
			return err
		}
		if err := s.validator.ValidateAgainstDue(input.Amount, summary); err != nil {
			return err
		}

		txnID, seq := s.ledger.NextID()
		related, err := s.allocator.Allocate(ctx, account, input.Amount, input.Method, txnID)
		if err != nil {
			return err
		}

		record, err = s.ledger.Record(ctx, &RecordInput{
			TransactionID:  txnID,
			Sequence:       seq,
			Account:        account,
			Amount:         input.Amount,
			Method:         input.Method,
			Details:        details,
			RelatedBills:   related,
			Notes:          input.Notes,
			Reference:      input.Reference,
			IdempotencyKey: key,
			Actor:          input.Actor,
		})
		return err
	})
	if err != nil {
		err = conflictOnStale(err)
		if apperror.IsKind(err, apperror.KindOverpayment) || apperror.IsKind(err, apperror.KindConcurrentConflict) {
			s.logger.WithFields(logrus.Fields{
				"account_id":   account.ID,
				"account_type": account.Type,
				"amount":       input.Amount.String(),
				"method":       input.Method,
			}).Warn(err.Error())
		}
		return nil, err
	}

	summary, err := s.refreshSummary(ctx, account)
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"transaction_id": record.TransactionID,
		"account_id":     account.ID,
		"account_type":   account.Type,
		"amount":         record.Amount.String(),
		"method":         record.PaymentMethod,
		"bills":          len(record.RelatedBills),
	}
	if replayed {
		s.logger.WithFields(fields).Info("payment replayed for idempotency key")
	} else {
		s.logger.WithFields(fields).Info("payment posted")
	}

	return &BulkPaymentResult{
		Summary:     summary,
		Transaction: record,
		Replayed:    replayed,
	}, nil
}

// Summary returns the account totals, served from the cache when possible
func (s *BillingService) Summary(ctx context.Context, account entity.AccountRef) (entity.BillsSummary, error) {
	account = entity.NewAccountRef(account.ID, account.Type)
	if fieldErrors := validateAccount(account); len(fieldErrors) > 0 {
		return entity.BillsSummary{}, apperror.NewValidationError(fieldErrors)
	}

	cached, ok, err := s.cache.Get(ctx, account)
	if err != nil {
		logger.LogError(s.logger, billingModule, "Summary", "Failed to read cached summary", account.Key(), err)
	}
	if ok {
		return *cached, nil
	}

	// Fill under the lock so a concurrent payment cannot be overwritten by an older fold
	release, err := s.lockAccount(ctx, account)
	if err != nil {
		return entity.BillsSummary{}, err
	}
	defer release()
	return s.refreshSummary(ctx, account)
}

// ListBills returns the account's bills and the summary of exactly those bills
func (s *BillingService) ListBills(ctx context.Context, account entity.AccountRef) (*AccountBills, error) {
	account = entity.NewAccountRef(account.ID, account.Type)
	if fieldErrors := validateAccount(account); len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	bills, err := s.bills.ListBills(ctx, account)
	if err != nil {
		return nil, err
	}
	return &AccountBills{
		Bills:   bills,
		Summary: entity.Summarize(bills),
	}, nil
}

// ListTransactions returns one page of the account's ledger, newest first
func (s *BillingService) ListTransactions(ctx context.Context, account entity.AccountRef, params *pagination.CursorParams) (*pagination.CursorPaginatedResult[entity.TransactionRecord], error) {
	account = entity.NewAccountRef(account.ID, account.Type)
	if fieldErrors := validateAccount(account); len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}
	return s.ledger.Page(ctx, account, params)
}

// History yields the account's whole ledger, newest first
func (s *BillingService) History(ctx context.Context, account entity.AccountRef) iter.Seq2[entity.TransactionRecord, error] {
	return s.ledger.History(ctx, entity.NewAccountRef(account.ID, account.Type))
}
