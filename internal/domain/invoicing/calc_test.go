package invoicing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		total, paid int64
		want        string
	}{
		{50000, 0, StatusUnpaid},
		{50000, 20000, StatusPartiallyPaid},
		{50000, 50000, StatusPaid},
		{0, 0, StatusPaid},
	}
	for _, tc := range cases {
		if got := DeriveStatus(d(tc.total), d(tc.paid)); got != tc.want {
			t.Fatalf("DeriveStatus(%d, %d) = %q, want %q", tc.total, tc.paid, got, tc.want)
		}
	}
}

func TestApplyPaymentSequence(t *testing.T) {
	inv := Invoice{InvoiceNumber: "INV-2025-00001", TotalAmount: d(50000), AmountPaid: d(0), Balance: d(50000), Status: StatusUnpaid}

	inv, err := ApplyPayment(inv, d(20000))
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if !inv.Balance.Equal(d(30000)) || inv.Status != StatusPartiallyPaid {
		t.Fatalf("after first payment got balance %s status %q", inv.Balance, inv.Status)
	}

	inv, err = ApplyPayment(inv, d(30000))
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if !inv.Balance.IsZero() || inv.Status != StatusPaid {
		t.Fatalf("after second payment got balance %s status %q", inv.Balance, inv.Status)
	}

	before := inv
	inv, err = ApplyPayment(inv, d(1))
	if err == nil {
		t.Fatal("expected payment on settled invoice to fail")
	}
	if !inv.AmountPaid.Equal(before.AmountPaid) {
		t.Fatalf("rejected payment changed amountPaid to %s", inv.AmountPaid)
	}
}

func TestApplyPaymentRejectsOverpayment(t *testing.T) {
	inv := Invoice{TotalAmount: d(100), AmountPaid: d(40), Balance: d(60), Status: StatusPartiallyPaid}
	if _, err := ApplyPayment(inv, decimal.RequireFromString("60.01")); err == nil {
		t.Fatal("expected overpayment error")
	}
	if _, err := ApplyPayment(inv, d(0)); err == nil {
		t.Fatal("expected zero amount to be rejected")
	}
}
