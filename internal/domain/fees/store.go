package fees

import (
	"context"
	"errors"

	"schoolops/internal/domain/ids"
	"schoolops/internal/platform/docstore"
)

const Kind docstore.Kind = "fee_structures"

// invoiceKind is where generated invoices live; fees only checks for their presence.
const invoiceKind docstore.Kind = "invoices"

// Load returns the fee structure for (class, session, term) or ErrNotFound.
func Load(ctx context.Context, r docstore.Reader, class, session, term string) (FeeStructure, error) {
	key := ids.FeeStructureKey(class, session, term)
	fs, err := docstore.Load[FeeStructure](ctx, r, Kind, string(key))
	if errors.Is(err, docstore.ErrNotFound) {
		return FeeStructure{}, ErrNotFound.Withf("no fee structure for %s %s %s", class, session, term)
	}
	return fs, err
}

func invoiced(ctx context.Context, r docstore.Reader, class, session, term string) (bool, error) {
	found, err := r.Find(ctx, docstore.From(invoiceKind).
		Where("classIdentifier", class).
		Where("session", session).
		Where("term", term).
		Limit(1))
	return len(found) > 0, err
}
