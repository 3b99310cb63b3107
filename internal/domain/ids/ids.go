// Package ids holds typed identifiers for the documents the engines link together.
// The store does not enforce referential integrity, so foreign keys travel as
// distinct types instead of bare strings.
package ids

import (
	"fmt"
	"strings"
)

type (
	StudentID      string
	StaffID        string
	UserID         string
	SubjectID      string
	InvoiceID      string
	InvoiceNumber  string
	PaymentID      string
	PayrollRunID   string
	PayslipID      string
	ScoreID        string
	ReportCardID   string
	FeeStructureID string
)

const keySeparator = "|"

func joinKey(parts ...string) string {
	cleaned := make([]string, len(parts))
	for i, part := range parts {
		cleaned[i] = strings.TrimSpace(part)
	}
	return strings.Join(cleaned, keySeparator)
}

// FeeStructureKey is unique per (class, session, term).
func FeeStructureKey(class, session, term string) FeeStructureID {
	return FeeStructureID(joinKey(class, session, term))
}

// InvoiceKey is unique per (student, session, term); at most one invoice may exist per key.
func InvoiceKey(student StudentID, session, term string) InvoiceID {
	return InvoiceID(joinKey(string(student), session, term))
}

// ScoreKey is unique per (student, class, subject, session, term).
func ScoreKey(student StudentID, class string, subject SubjectID, session, term string) ScoreID {
	return ScoreID(joinKey(string(student), class, string(subject), session, term))
}

// PayrollRunKey is unique per (month, year).
func PayrollRunKey(month, year int) PayrollRunID {
	return PayrollRunID(fmt.Sprintf("%04d-%02d", year, month))
}

// PayslipKey is unique per (run, staff).
func PayslipKey(run PayrollRunID, staff StaffID) PayslipID {
	return PayslipID(joinKey(string(run), string(staff)))
}

// FormatInvoiceNumber renders INV-<year>-<5 digit counter>.
func FormatInvoiceNumber(year, counter int) InvoiceNumber {
	return InvoiceNumber(fmt.Sprintf("INV-%d-%05d", year, counter))
}
