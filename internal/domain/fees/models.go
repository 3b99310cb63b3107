package fees

import (
	"time"

	"github.com/shopspring/decimal"

	"schoolops/internal/domain/ids"
)

type LineItem struct {
	Name   string          `json:"name" validate:"notblank"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// FeeStructure prices one class for one session and term. TotalAmount is derived
// from the line items on every save.
type FeeStructure struct {
	ID              ids.FeeStructureID `json:"id"`
	ClassIdentifier string             `json:"classIdentifier"`
	Session         string             `json:"session"`
	Term            string             `json:"term"`
	LineItems       []LineItem         `json:"lineItems"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
	UpdatedBy       string             `json:"updatedBy,omitempty"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type SaveInput struct {
	ClassIdentifier string     `json:"classIdentifier" validate:"notblank"`
	Session         string     `json:"session" validate:"notblank"`
	Term            string     `json:"term" validate:"notblank"`
	LineItems       []LineItem `json:"lineItems" validate:"min=1,unique=Name,dive"`
}

// Total sums the line item amounts.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}
