package service

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"time"

	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/sangkips/billing-core/internal/domain/enum"
	"github.com/sangkips/billing-core/internal/domain/repository"
	"github.com/sangkips/billing-core/pkg/apperror"
	"github.com/sangkips/billing-core/pkg/pagination"
	"github.com/sangkips/billing-core/pkg/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TransactionLedger is the append-only record of posted payments
type TransactionLedger struct {
	txnRepo  repository.TransactionRepository
	ids      *utils.IDGenerator
	pageSize int
	now      func() time.Time
}

// NewTransactionLedger creates a new ledger. pageSize bounds each read made by History.
func NewTransactionLedger(txnRepo repository.TransactionRepository, ids *utils.IDGenerator, pageSize int, now func() time.Time) *TransactionLedger {
	if pageSize <= 0 {
		pageSize = pagination.MaxLimit
	}
	if now == nil {
		now = time.Now
	}
	return &TransactionLedger{
		txnRepo:  txnRepo,
		ids:      ids,
		pageSize: pageSize,
		now:      now,
	}
}

// RecordInput represents one ledger entry to append
type RecordInput struct {
	TransactionID  string
	Sequence       int64
	Account        entity.AccountRef
	Amount         decimal.Decimal
	Method         enum.PaymentMethod
	Details        entity.PaymentDetails
	RelatedBills   []entity.RelatedBill
	Notes          *string
	Reference      *string
	IdempotencyKey string
	Actor          string
}

// NextID reserves a transaction id and its ordering sequence
func (l *TransactionLedger) NextID() (string, int64) {
	return l.ids.NextTransactionID()
}

// Record appends an entry. It does not validate; callers have already done so.
func (l *TransactionLedger) Record(ctx context.Context, input *RecordInput) (*entity.TransactionRecord, error) {
	if input.TransactionID == "" {
		input.TransactionID, input.Sequence = l.NextID()
	}

	record := &entity.TransactionRecord{
		TransactionID:  input.TransactionID,
		Sequence:       input.Sequence,
		AccountID:      input.Account.ID,
		AccountType:    input.Account.Type,
		Amount:         input.Amount,
		PaymentMethod:  input.Method,
		PaymentDetails: input.Details,
		RelatedBills:   datatypes.JSONSlice[entity.RelatedBill](input.RelatedBills),
		Notes:          input.Notes,
		Reference:      input.Reference,
		IdempotencyKey: input.IdempotencyKey,
		CreatedBy:      input.Actor,
		CreatedAt:      l.now().Truncate(time.Microsecond),
	}

	if err := l.txnRepo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConcurrentConflictError("Payment with this idempotency key is already being recorded")
		}
		return nil, err
	}
	return record, nil
}

// FindByIdempotencyKey returns the entry posted with key, or nil
func (l *TransactionLedger) FindByIdempotencyKey(ctx context.Context, account entity.AccountRef, key string) (*entity.TransactionRecord, error) {
	return l.txnRepo.FindByIdempotencyKey(ctx, account, key)
}

// History yields every entry of the account, newest first. Each range over
// the returned sequence starts again from the newest entry.
func (l *TransactionLedger) History(ctx context.Context, account entity.AccountRef) iter.Seq2[entity.TransactionRecord, error] {
	return func(yield func(entity.TransactionRecord, error) bool) {
		var after *repository.TransactionCursor
		for {
			page, err := l.txnRepo.ListPage(ctx, account, after, l.pageSize)
			if err != nil {
				yield(entity.TransactionRecord{}, err)
				return
			}
			for _, record := range page {
				if !yield(record, nil) {
					return
				}
			}
			if len(page) < l.pageSize {
				return
			}
			last := page[len(page)-1]
			after = &repository.TransactionCursor{CreatedAt: last.CreatedAt, Sequence: last.Sequence}
		}
	}
}

func cursorID(record entity.TransactionRecord) string {
	return strconv.FormatInt(record.Sequence, 10)
}

func cursorCreatedAt(record entity.TransactionRecord) time.Time {
	return record.CreatedAt
}

// Page returns one page of the account's entries for listing
func (l *TransactionLedger) Page(ctx context.Context, account entity.AccountRef, params *pagination.CursorParams) (*pagination.CursorPaginatedResult[entity.TransactionRecord], error) {
	params.Validate()

	cursor, err := params.DecodeCursor()
	if err != nil {
		return nil, apperror.NewBadRequestError("Invalid cursor")
	}

	var after *repository.TransactionCursor
	if cursor != nil {
		seq, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, apperror.NewBadRequestError("Invalid cursor")
		}
		after = &repository.TransactionCursor{CreatedAt: cursor.CreatedAt, Sequence: seq}
	}

	// Fetch one extra to detect another page
	records, err := l.txnRepo.ListPage(ctx, account, after, params.Limit+1)
	if err != nil {
		return nil, err
	}

	page, records := pagination.NewCursorPagination(records, params.Limit, cursorID, cursorCreatedAt)
	page.HasPrev = cursor != nil
	return pagination.NewCursorPaginatedResult(records, page), nil
}
