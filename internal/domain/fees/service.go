package fees

import (
	"context"
	"strings"

	"schoolops/internal/domain/audit"
	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/ids"
	"schoolops/internal/platform/docstore"
	"schoolops/internal/platform/validation"
)

type Service struct {
	store docstore.Gateway
}

func NewService(store docstore.Gateway) *Service {
	return &Service{store: store}
}

// SaveFeeStructure creates or replaces the fee structure for the input's class,
// session and term, recomputing its total.
func (s *Service) SaveFeeStructure(ctx context.Context, input SaveInput, actorID ids.UserID) (FeeStructure, error) {
	input.ClassIdentifier = strings.TrimSpace(input.ClassIdentifier)
	input.Session = strings.TrimSpace(input.Session)
	input.Term = strings.TrimSpace(input.Term)
	for i := range input.LineItems {
		input.LineItems[i].Name = strings.TrimSpace(input.LineItems[i].Name)
	}
	if err := validation.Struct(input); err != nil {
		return FeeStructure{}, err
	}

	fs := FeeStructure{
		ID:              ids.FeeStructureKey(input.ClassIdentifier, input.Session, input.Term),
		ClassIdentifier: input.ClassIdentifier,
		Session:         input.Session,
		Term:            input.Term,
		LineItems:       input.LineItems,
		TotalAmount:     Total(input.LineItems),
		UpdatedBy:       string(actorID),
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Reader, batch *docstore.Batch) error {
		if _, err := directory.RequireRole(ctx, tx, actorID, directory.RoleAdmin, directory.RoleAccountant); err != nil {
			return err
		}
		inUse, err := invoiced(ctx, tx, fs.ClassIdentifier, fs.Session, fs.Term)
		if err != nil {
			return err
		}
		if inUse {
			return ErrInUse.Withf("invoices already exist for %s %s %s", fs.ClassIdentifier, fs.Session, fs.Term)
		}
		batch.Set(Kind, string(fs.ID), fs, "updatedAt")
		audit.Stage(ctx, batch, string(actorID), audit.ActionFeeStructureSaved, "fee_structure", string(fs.ID), nil, fs)
		return nil
	})
	if err != nil {
		return FeeStructure{}, err
	}
	return Load(ctx, s.store, fs.ClassIdentifier, fs.Session, fs.Term)
}

func (s *Service) GetFeeStructure(ctx context.Context, class, session, term string) (FeeStructure, error) {
	return Load(ctx, s.store, class, session, term)
}

func (s *Service) ListFeeStructures(ctx context.Context, session, term string) ([]FeeStructure, error) {
	q := docstore.From(Kind)
	if session != "" {
		q = q.Where("session", session)
	}
	if term != "" {
		q = q.Where("term", term)
	}
	return docstore.LoadAll[FeeStructure](ctx, s.store, q.OrderBy("classIdentifier"))
}
