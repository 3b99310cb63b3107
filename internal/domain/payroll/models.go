package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/ids"
)

type Run struct {
	ID            ids.PayrollRunID `json:"id"`
	Month         int              `json:"month"`
	Year          int              `json:"year"`
	PayPeriod     string           `json:"payPeriod"`
	ExecutedBy    string           `json:"executedBy"`
	ExecutedByID  ids.UserID       `json:"executedById"`
	TotalAmount   decimal.Decimal  `json:"totalAmount"`
	EmployeeCount int              `json:"employeeCount"`
	Excluded      []Exclusion      `json:"excluded,omitempty"`
	ExecutedAt    time.Time        `json:"executedAt"`
}

type Payslip struct {
	ID           ids.PayslipID         `json:"id"`
	PayrollRunID ids.PayrollRunID      `json:"payrollRunId"`
	StaffID      ids.StaffID           `json:"staffId"`
	EmployeeName string                `json:"employeeName"`
	PayPeriod    string                `json:"payPeriod"`
	Gross        decimal.Decimal       `json:"gross"`
	Deductions   decimal.Decimal       `json:"deductions"`
	Amount       decimal.Decimal       `json:"amount"`
	BankDetails  directory.BankDetails `json:"bankDetails"`
	Status       string                `json:"status"`
	GeneratedAt  time.Time             `json:"generatedAt"`
}

// Exclusion names a staff member left out of a run and why.
type Exclusion struct {
	StaffID ids.StaffID `json:"staffId"`
	Name    string      `json:"name"`
	Reason  string      `json:"reason"`
}

type RunInput struct {
	Month int `json:"month" validate:"min=1,max=12"`
	Year  int `json:"year" validate:"min=2000,max=2100"`
}

type RunResult struct {
	PayrollRunID  ids.PayrollRunID `json:"payrollRunId"`
	EmployeeCount int              `json:"employeeCount"`
	TotalAmount   decimal.Decimal  `json:"totalAmount"`
	Excluded      []Exclusion      `json:"excluded"`
}

func payPeriod(month, year int) string {
	return fmt.Sprintf("%s %d", time.Month(month), year)
}
