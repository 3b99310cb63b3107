package fees

import "schoolops/internal/domain/fault"

var (
	ErrNotFound      = fault.New(fault.NotFound, "fee_structure_not_found", "fee structure not found")
	ErrNotConfigured = fault.New(fault.PreconditionFailed, "fee_structure_not_configured", "no fee structure is configured for this class, session and term")
	ErrInUse         = fault.New(fault.Conflict, "fee_structure_in_use", "fee structure already has invoices and can no longer change")
)
