package entity

import "github.com/shopspring/decimal"

// BillsSummary is the derived roll-up of an account's bills
type BillsSummary struct {
	TotalBills        int             `json:"total_bills"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalDue          decimal.Decimal `json:"total_due"`
	PendingBillsCount int             `json:"pending_bills_count"`
}

// Summarize folds bills into a BillsSummary. It reads but never mutates bills
// and panics if any bill is out of balance.
func Summarize(bills []Bill) BillsSummary {
	s := BillsSummary{
		TotalAmount: decimal.Zero,
		TotalPaid:   decimal.Zero,
		TotalDue:    decimal.Zero,
	}
	for i := range bills {
		b := &bills[i]
		b.MustBalance()
		s.TotalBills++
		s.TotalAmount = s.TotalAmount.Add(b.Total)
		s.TotalPaid = s.TotalPaid.Add(b.PaidAmount)
		s.TotalDue = s.TotalDue.Add(b.DueAmount)
		if b.IsOutstanding() {
			s.PendingBillsCount++
		}
	}
	return s
}

// Equal reports whether two summaries describe the same amounts
func (s BillsSummary) Equal(o BillsSummary) bool {
	return s.TotalBills == o.TotalBills &&
		s.PendingBillsCount == o.PendingBillsCount &&
		s.TotalAmount.Equal(o.TotalAmount) &&
		s.TotalPaid.Equal(o.TotalPaid) &&
		s.TotalDue.Equal(o.TotalDue)
}
