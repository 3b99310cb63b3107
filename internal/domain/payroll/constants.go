package payroll

import "schoolops/internal/platform/docstore"

const (
	KindRuns     docstore.Kind = "payroll_runs"
	KindPayslips docstore.Kind = "payslips"
)

const (
	PayslipStatusGenerated = "Generated"

	ExclusionMissingBank    = "missing_bank_details"
	ExclusionNonPositiveNet = "non_positive_net"

	ElementTypeEarning   = "earning"
	ElementTypeDeduction = "deduction"
)
