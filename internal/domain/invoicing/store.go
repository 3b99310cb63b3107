package invoicing

import (
	"context"
	"errors"
	"fmt"

	"schoolops/internal/domain/ids"
	"schoolops/internal/platform/docstore"
)

// Load reads one invoice, returning ErrNotFound when it does not exist.
func Load(ctx context.Context, r docstore.Reader, id ids.InvoiceID) (Invoice, error) {
	inv, err := docstore.Load[Invoice](ctx, r, Kind, string(id))
	if errors.Is(err, docstore.ErrNotFound) {
		return Invoice{}, ErrNotFound.Withf("invoice %s not found", id)
	}
	return inv, err
}

// invoicedStudents returns the students of the list that already hold an invoice for session and term.
func invoicedStudents(ctx context.Context, r docstore.Reader, students []ids.StudentID, session, term string) (map[ids.StudentID]bool, error) {
	values := make([]any, len(students))
	for i, id := range students {
		values[i] = id
	}
	existing, err := docstore.LoadAll[Invoice](ctx, r, docstore.From(Kind).
		Where("session", session).
		Where("term", term).
		WhereIn("studentId", values...))
	if err != nil {
		return nil, err
	}
	out := make(map[ids.StudentID]bool, len(existing))
	for _, inv := range existing {
		out[inv.StudentID] = true
	}
	return out, nil
}

func counterName(year int) string {
	return fmt.Sprintf("invoices-%d", year)
}

// loadCounter returns the invoice sequence for year and whether its document exists.
// A missing counter starts from the number of invoices already numbered in that year.
func loadCounter(ctx context.Context, r docstore.Reader, year int) (counter, bool, error) {
	c, err := docstore.Load[counter](ctx, r, KindCounters, counterName(year))
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return counter{}, false, err
	}
	numbered, err := r.Find(ctx, docstore.From(Kind).Where("sequenceYear", year))
	if err != nil {
		return counter{}, false, err
	}
	return counter{Name: counterName(year), Year: year, Value: len(numbered)}, false, nil
}
