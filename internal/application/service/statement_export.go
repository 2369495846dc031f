package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

const (
	billsSheet        = "Bills"
	transactionsSheet = "Transactions"
)

var (
	billHeadings = []interface{}{
		"Bill Number", "Created At", "Subtotal", "Discount", "Total",
		"Paid", "Due", "Status", "Payment Method", "Transaction ID",
	}
	transactionHeadings = []interface{}{
		"Transaction ID", "Created At", "Amount", "Method", "Bills",
		"Reference", "Notes", "Created By",
	}
)

// StatementExporter writes an account statement as an xlsx workbook
type StatementExporter struct {
	billing *BillingService
}

// NewStatementExporter creates a new statement exporter
func NewStatementExporter(billing *BillingService) *StatementExporter {
	return &StatementExporter{billing: billing}
}

// Filename suggests a download name for the account's statement
func (e *StatementExporter) Filename(account entity.AccountRef, at time.Time) string {
	return fmt.Sprintf("statement-%s-%s-%s.xlsx", account.Type, account.ID, at.Format("20060102"))
}

// Export writes one sheet with the account's bills and one with its ledger
func (e *StatementExporter) Export(ctx context.Context, account entity.AccountRef, w io.Writer) error {
	bills, err := e.billing.ListBills(ctx, account)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", billsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(transactionsSheet); err != nil {
		return err
	}

	if err := f.SetSheetRow(billsSheet, "A1", &billHeadings); err != nil {
		return err
	}
	row := 2
	for _, b := range bills.Bills {
		values := []interface{}{
			b.BillNumber,
			b.CreatedAt.Format(time.RFC3339),
			b.Subtotal.InexactFloat64(),
			b.Discount.InexactFloat64(),
			b.Total.InexactFloat64(),
			b.PaidAmount.InexactFloat64(),
			b.DueAmount.InexactFloat64(),
			string(b.PaymentStatus),
			derefString((*string)(b.PaymentMethod)),
			derefString(b.TransactionID),
		}
		if err := f.SetSheetRow(billsSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		row++
	}

	totals := []interface{}{
		"Totals", "",
		"", "",
		bills.Summary.TotalAmount.InexactFloat64(),
		bills.Summary.TotalPaid.InexactFloat64(),
		bills.Summary.TotalDue.InexactFloat64(),
		fmt.Sprintf("%d pending", bills.Summary.PendingBillsCount),
	}
	if err := f.SetSheetRow(billsSheet, fmt.Sprintf("A%d", row+1), &totals); err != nil {
		return err
	}

	if err := f.SetSheetRow(transactionsSheet, "A1", &transactionHeadings); err != nil {
		return err
	}
	row = 2
	for record, err := range e.billing.History(ctx, account) {
		if err != nil {
			return err
		}
		numbers := make([]string, 0, len(record.RelatedBills))
		for _, rb := range record.RelatedBills {
			numbers = append(numbers, fmt.Sprintf("%s (%s)", rb.BillNumber, rb.AmountApplied))
		}
		values := []interface{}{
			record.TransactionID,
			record.CreatedAt.Format(time.RFC3339),
			record.Amount.InexactFloat64(),
			string(record.PaymentMethod),
			strings.Join(numbers, ", "),
			derefString(record.Reference),
			derefString(record.Notes),
			record.CreatedBy,
		}
		if err := f.SetSheetRow(transactionsSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		row++
	}

	_, err = f.WriteTo(w)
	return err
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
