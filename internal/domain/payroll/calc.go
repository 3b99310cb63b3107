package payroll

import (
	"github.com/shopspring/decimal"

	"schoolops/internal/domain/directory"
)

type InputLine struct {
	Type   string
	Amount decimal.Decimal
}

func ComputePayroll(baseSalary decimal.Decimal, inputs []InputLine) (gross, deductions, net decimal.Decimal) {
	gross = baseSalary
	deductions = decimal.Zero
	for _, input := range inputs {
		switch input.Type {
		case ElementTypeEarning:
			gross = gross.Add(input.Amount)
		case ElementTypeDeduction:
			deductions = deductions.Add(input.Amount)
		}
	}
	net = gross.Sub(deductions)
	return gross, deductions, net
}

// StaffInputs turns a staff member's allowances and deductions into input lines.
func StaffInputs(st directory.Staff) []InputLine {
	lines := make([]InputLine, 0, len(st.Allowances)+len(st.Deductions))
	for _, a := range st.Allowances {
		lines = append(lines, InputLine{Type: ElementTypeEarning, Amount: a.Amount})
	}
	for _, d := range st.Deductions {
		lines = append(lines, InputLine{Type: ElementTypeDeduction, Amount: d.Amount})
	}
	return lines
}
