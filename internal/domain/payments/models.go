package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"schoolops/internal/domain/ids"
)

const (
	MethodCash         = "cash"
	MethodBankTransfer = "bank_transfer"
	MethodCard         = "card"
	MethodCheque       = "cheque"
	MethodMobileMoney  = "mobile_money"
)

// Payment is an append-only ledger entry; nothing updates or deletes one.
type Payment struct {
	ID            ids.PaymentID     `json:"id"`
	InvoiceID     ids.InvoiceID     `json:"invoiceId"`
	InvoiceNumber ids.InvoiceNumber `json:"invoiceNumber"`
	StudentID     ids.StudentID     `json:"studentId"`
	StudentName   string            `json:"studentName"`
	AmountPaid    decimal.Decimal   `json:"amountPaid"`
	PaymentDate   time.Time         `json:"paymentDate"`
	PaymentMethod string            `json:"paymentMethod"`
	RecordedBy    string            `json:"recordedBy"`
	RecordedByID  ids.UserID        `json:"recordedById"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type RecordInput struct {
	InvoiceID     ids.InvoiceID   `json:"invoiceId" validate:"notblank"`
	AmountPaid    decimal.Decimal `json:"amountPaid" validate:"gt=0"`
	PaymentDate   time.Time       `json:"paymentDate" validate:"required"`
	PaymentMethod string          `json:"paymentMethod" validate:"oneof=cash bank_transfer card cheque mobile_money"`
	Notes         string          `json:"notes" validate:"max=500"`
}

type RecordResult struct {
	InvoiceID  ids.InvoiceID   `json:"invoiceId"`
	PaymentID  ids.PaymentID   `json:"paymentId"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	Balance    decimal.Decimal `json:"balance"`
	Status     string          `json:"status"`
}
