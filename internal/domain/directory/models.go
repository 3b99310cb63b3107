package directory

import (
	"strings"

	"github.com/shopspring/decimal"

	"schoolops/internal/domain/ids"
)

type Student struct {
	ID     ids.StudentID `json:"id" validate:"notblank"`
	Name   string        `json:"name" validate:"notblank"`
	Class  string        `json:"class" validate:"notblank"`
	Status string        `json:"status" validate:"oneof=Active Inactive Graduated"`
}

type BankDetails struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
}

// Complete reports whether every bank field is filled in.
func (b BankDetails) Complete() bool {
	return strings.TrimSpace(b.BankName) != "" &&
		strings.TrimSpace(b.AccountNumber) != "" &&
		strings.TrimSpace(b.AccountName) != ""
}

type PayItem struct {
	Name   string          `json:"name" validate:"notblank"`
	Amount decimal.Decimal `json:"amount" validate:"gte=0"`
}

type Staff struct {
	ID          ids.StaffID     `json:"id" validate:"notblank"`
	UserID      ids.UserID      `json:"userId,omitempty"`
	Name        string          `json:"name" validate:"notblank"`
	Status      string          `json:"status" validate:"oneof=active inactive"`
	Salary      decimal.Decimal `json:"salary" validate:"gte=0"`
	Allowances  []PayItem       `json:"allowances,omitempty" validate:"dive"`
	Deductions  []PayItem       `json:"deductions,omitempty" validate:"dive"`
	BankDetails BankDetails     `json:"bankDetails"`
}

type User struct {
	ID          ids.UserID `json:"id" validate:"notblank"`
	DisplayName string     `json:"displayName" validate:"notblank"`
	Role        string     `json:"role" validate:"oneof=admin accountant teacher student parent"`
}

func (u User) HasRole(roles ...string) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

type Subject struct {
	ID   ids.SubjectID `json:"id" validate:"notblank"`
	Name string        `json:"name" validate:"notblank"`
}
