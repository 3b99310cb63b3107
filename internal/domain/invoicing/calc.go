package invoicing

import "github.com/shopspring/decimal"

// DeriveStatus is the status implied by total and paid: Paid once nothing is owed,
// Unpaid before any payment, Partially Paid in between.
func DeriveStatus(total, paid decimal.Decimal) string {
	balance := total.Sub(paid)
	switch {
	case !balance.IsPositive():
		return StatusPaid
	case !paid.IsPositive():
		return StatusUnpaid
	default:
		return StatusPartiallyPaid
	}
}

// ApplyPayment returns inv with amount applied. It refuses settled invoices and
// amounts above the balance, so the balance never goes negative.
func ApplyPayment(inv Invoice, amount decimal.Decimal) (Invoice, error) {
	if !amount.IsPositive() {
		return inv, ErrNonPositiveAmount
	}
	if inv.Status == StatusPaid || !inv.Balance.IsPositive() {
		return inv, ErrAlreadySettled.Withf("invoice %s is already paid", inv.InvoiceNumber)
	}
	if amount.GreaterThan(inv.Balance) {
		return inv, ErrOverpayment.Withf("payment of %s exceeds balance %s on invoice %s",
			amount.StringFixed(2), inv.Balance.StringFixed(2), inv.InvoiceNumber)
	}
	inv.AmountPaid = inv.AmountPaid.Add(amount)
	inv.Balance = inv.TotalAmount.Sub(inv.AmountPaid)
	inv.Status = DeriveStatus(inv.TotalAmount, inv.AmountPaid)
	return inv, nil
}
