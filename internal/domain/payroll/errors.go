package payroll

import "schoolops/internal/domain/fault"

var (
	ErrAlreadyExecuted = fault.New(fault.Conflict, "payroll_already_executed", "payroll has already been run for this period")
	ErrNoEligibleStaff = fault.New(fault.PreconditionFailed, "no_eligible_staff", "no active staff with a configured salary")
	ErrNoPayableStaff  = fault.New(fault.PreconditionFailed, "no_payable_staff", "every eligible staff member was excluded from this run")
	ErrRunNotFound     = fault.New(fault.NotFound, "payroll_run_not_found", "payroll run not found")
	ErrPayslipNotFound = fault.New(fault.NotFound, "payslip_not_found", "payslip not found")
)
