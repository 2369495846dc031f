package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestStatementExport(t *testing.T) {
	f := newFixture(t)
	f.createBill(t, customer, "0", "500")
	f.createBill(t, customer, "0", "300")
	if _, err := f.pay(customer, "600", "pay-1"); err != nil {
		t.Fatalf("ProcessBulkPayment() error = %v", err)
	}

	var buf bytes.Buffer
	exporter := NewStatementExporter(f.billing)
	if err := exporter.Export(context.Background(), customer, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	book, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer book.Close()

	bills, err := book.GetRows(billsSheet)
	if err != nil {
		t.Fatalf("GetRows(%s) error = %v", billsSheet, err)
	}
	// heading, two bills, blank row, totals
	if len(bills) != 5 {
		t.Fatalf("bills sheet has %d rows, want 5", len(bills))
	}
	if bills[1][7] != "completed" || bills[2][7] != "partial" {
		t.Errorf("statuses = %s/%s, want completed/partial", bills[1][7], bills[2][7])
	}
	if bills[4][0] != "Totals" || bills[4][6] != "200" {
		t.Errorf("totals row = %v, want due 200", bills[4])
	}

	txns, err := book.GetRows(transactionsSheet)
	if err != nil {
		t.Fatalf("GetRows(%s) error = %v", transactionsSheet, err)
	}
	if len(txns) != 2 {
		t.Fatalf("transactions sheet has %d rows, want 2", len(txns))
	}
	if txns[1][2] != "600" || !strings.Contains(txns[1][4], "(500)") {
		t.Errorf("transaction row = %v", txns[1])
	}

	name := exporter.Filename(customer, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	if name != "statement-customer-cust-1-20240501.xlsx" {
		t.Errorf("Filename() = %q", name)
	}
}
