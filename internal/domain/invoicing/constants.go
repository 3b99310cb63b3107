package invoicing

import "schoolops/internal/platform/docstore"

const (
	Kind         docstore.Kind = "invoices"
	KindCounters docstore.Kind = "counters"
)

const (
	StatusUnpaid        = "Unpaid"
	StatusPartiallyPaid = "Partially Paid"
	StatusPaid          = "Paid"

	DefaultDueDays = 30
)
