package invoicing

import (
	"time"

	"github.com/shopspring/decimal"

	"schoolops/internal/domain/fees"
	"schoolops/internal/domain/ids"
)

type Invoice struct {
	ID              ids.InvoiceID     `json:"id"`
	InvoiceNumber   ids.InvoiceNumber `json:"invoiceNumber"`
	SequenceYear    int               `json:"sequenceYear"`
	StudentID       ids.StudentID     `json:"studentId"`
	StudentName     string            `json:"studentName"`
	ClassIdentifier string            `json:"classIdentifier"`
	Session         string            `json:"session"`
	Term            string            `json:"term"`
	LineItems       []fees.LineItem   `json:"lineItems"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	AmountPaid      decimal.Decimal   `json:"amountPaid"`
	Balance         decimal.Decimal   `json:"balance"`
	Status          string            `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	DueDate         time.Time         `json:"dueDate"`
}

type GenerateInput struct {
	ClassIdentifier string `json:"classIdentifier" validate:"notblank"`
	Session         string `json:"session" validate:"notblank"`
	Term            string `json:"term" validate:"notblank"`
}

type GenerateResult struct {
	GeneratedCount int `json:"generatedCount"`
	SkippedCount   int `json:"skippedCount"`
}

// counter is the per-year invoice sequence document.
type counter struct {
	Name  string `json:"name"`
	Year  int    `json:"year"`
	Value int    `json:"value"`
}
