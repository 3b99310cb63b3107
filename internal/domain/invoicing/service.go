package invoicing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"schoolops/internal/domain/audit"
	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/fees"
	"schoolops/internal/domain/ids"
	"schoolops/internal/platform/docstore"
	"schoolops/internal/platform/validation"
)

type Service struct {
	store   docstore.Gateway
	dueDays int
	now     func() time.Time
}

func NewService(store docstore.Gateway, dueDays int) *Service {
	if dueDays <= 0 {
		dueDays = DefaultDueDays
	}
	return &Service{store: store, dueDays: dueDays, now: time.Now}
}

// GenerateInvoices issues one invoice per active student of the class who has none
// for the session and term yet. Numbering, the duplicate check and the writes run
// in one transaction, so a concurrent run either waits or fails with a conflict.
func (s *Service) GenerateInvoices(ctx context.Context, input GenerateInput, actorID ids.UserID) (GenerateResult, error) {
	input.ClassIdentifier = strings.TrimSpace(input.ClassIdentifier)
	input.Session = strings.TrimSpace(input.Session)
	input.Term = strings.TrimSpace(input.Term)
	if err := validation.Struct(input); err != nil {
		return GenerateResult{}, err
	}

	now := s.now().UTC()
	var result GenerateResult
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Reader, batch *docstore.Batch) error {
		result = GenerateResult{}
		if _, err := directory.RequireRole(ctx, tx, actorID, directory.RoleAdmin, directory.RoleAccountant); err != nil {
			return err
		}

		fs, err := fees.Load(ctx, tx, input.ClassIdentifier, input.Session, input.Term)
		if errors.Is(err, fees.ErrNotFound) {
			return fees.ErrNotConfigured.Withf("no fee structure for %s %s %s", input.ClassIdentifier, input.Session, input.Term)
		}
		if err != nil {
			return err
		}

		students, err := directory.ActiveStudentsInClass(ctx, tx, input.ClassIdentifier)
		if err != nil {
			return err
		}
		if len(students) == 0 {
			return ErrNoActiveStudents.Withf("no active students in %s", input.ClassIdentifier)
		}

		studentIDs := make([]ids.StudentID, len(students))
		for i, st := range students {
			studentIDs[i] = st.ID
		}
		existing, err := invoicedStudents(ctx, tx, studentIDs, input.Session, input.Term)
		if err != nil {
			return err
		}

		seq, seqExists, err := loadCounter(ctx, tx, now.Year())
		if err != nil {
			return err
		}
		startValue := seq.Value

		for _, st := range students {
			if existing[st.ID] {
				result.SkippedCount++
				continue
			}
			seq.Value++
			inv := Invoice{
				ID:              ids.InvoiceKey(st.ID, input.Session, input.Term),
				InvoiceNumber:   ids.FormatInvoiceNumber(now.Year(), seq.Value),
				SequenceYear:    now.Year(),
				StudentID:       st.ID,
				StudentName:     st.Name,
				ClassIdentifier: input.ClassIdentifier,
				Session:         input.Session,
				Term:            input.Term,
				LineItems:       fs.LineItems,
				TotalAmount:     fs.TotalAmount,
				AmountPaid:      decimal.Zero,
				Balance:         fs.TotalAmount,
				Status:          DeriveStatus(fs.TotalAmount, decimal.Zero),
				DueDate:         now.AddDate(0, 0, s.dueDays),
			}
			batch.Create(Kind, string(inv.ID), inv, "createdAt")
			result.GeneratedCount++
		}

		if result.GeneratedCount == 0 {
			return nil
		}
		if seqExists {
			batch.Update(KindCounters, seq.Name, map[string]any{"value": seq.Value}, "updatedAt")
		} else {
			batch.Create(KindCounters, seq.Name, seq, "updatedAt")
		}
		audit.Stage(ctx, batch, string(actorID), audit.ActionInvoicesGenerated, "class", input.ClassIdentifier,
			map[string]any{"counter": startValue},
			map[string]any{"session": input.Session, "term": input.Term, "generatedCount": result.GeneratedCount, "counter": seq.Value})
		return nil
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return GenerateResult{}, ErrGenerationRace.WithCause(err)
	}
	if err != nil {
		return GenerateResult{}, err
	}

	slog.Info("invoices generated",
		"class", input.ClassIdentifier, "session", input.Session, "term", input.Term,
		"generated", result.GeneratedCount, "skipped", result.SkippedCount)
	return result, nil
}

func (s *Service) GetInvoice(ctx context.Context, id ids.InvoiceID) (Invoice, error) {
	return Load(ctx, s.store, id)
}

// ListInvoices returns the invoices of a class for session and term in number order.
func (s *Service) ListInvoices(ctx context.Context, class, session, term string) ([]Invoice, error) {
	q := docstore.From(Kind).Where("classIdentifier", class)
	if session != "" {
		q = q.Where("session", session)
	}
	if term != "" {
		q = q.Where("term", term)
	}
	return docstore.LoadAll[Invoice](ctx, s.store, q.OrderBy("invoiceNumber"))
}

// StudentInvoices returns a student's invoices, newest first.
func (s *Service) StudentInvoices(ctx context.Context, student ids.StudentID) ([]Invoice, error) {
	return docstore.LoadAll[Invoice](ctx, s.store, docstore.From(Kind).
		Where("studentId", student).
		OrderByDesc("createdAt"))
}
