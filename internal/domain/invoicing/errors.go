package invoicing

import "schoolops/internal/domain/fault"

var (
	ErrNotFound          = fault.New(fault.NotFound, "invoice_not_found", "invoice not found")
	ErrNoActiveStudents  = fault.New(fault.PreconditionFailed, "no_active_students", "no active students in class")
	ErrGenerationRace    = fault.New(fault.Conflict, "duplicate_invoice", "invoices for this class were generated concurrently")
	ErrAlreadySettled    = fault.New(fault.Conflict, "invoice_already_settled", "invoice is already fully paid")
	ErrOverpayment       = fault.New(fault.PreconditionFailed, "overpayment", "payment exceeds the outstanding balance")
	ErrNonPositiveAmount = fault.New(fault.Validation, "invalid_amount", "payment amount must be greater than zero")
)
