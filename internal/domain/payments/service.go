package payments

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"schoolops/internal/domain/audit"
	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/ids"
	"schoolops/internal/domain/invoicing"
	"schoolops/internal/platform/docstore"
	"schoolops/internal/platform/validation"
)

const Kind docstore.Kind = "payments"

type Service struct {
	store docstore.Gateway
}

func NewService(store docstore.Gateway) *Service {
	return &Service{store: store}
}

// RecordPayment applies a payment to an invoice. The invoice update, the payment
// entry and its audit event commit together or not at all.
func (s *Service) RecordPayment(ctx context.Context, input RecordInput, actorID ids.UserID) (RecordResult, error) {
	input.InvoiceID = ids.InvoiceID(strings.TrimSpace(string(input.InvoiceID)))
	input.PaymentMethod = strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if err := validation.Struct(input); err != nil {
		return RecordResult{}, err
	}

	var result RecordResult
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Reader, batch *docstore.Batch) error {
		actor, err := directory.RequireRole(ctx, tx, actorID, directory.RoleAdmin, directory.RoleAccountant)
		if err != nil {
			return err
		}
		inv, err := invoicing.Load(ctx, tx, input.InvoiceID)
		if err != nil {
			return err
		}
		updated, err := invoicing.ApplyPayment(inv, input.AmountPaid)
		if err != nil {
			return err
		}

		payment := Payment{
			ID:            ids.PaymentID(uuid.NewString()),
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			StudentID:     inv.StudentID,
			StudentName:   inv.StudentName,
			AmountPaid:    input.AmountPaid,
			PaymentDate:   input.PaymentDate.UTC(),
			PaymentMethod: input.PaymentMethod,
			RecordedBy:    actor.DisplayName,
			RecordedByID:  actor.ID,
			Notes:         strings.TrimSpace(input.Notes),
		}
		batch.Update(invoicing.Kind, string(inv.ID), map[string]any{
			"amountPaid": updated.AmountPaid,
			"balance":    updated.Balance,
			"status":     updated.Status,
		}, "updatedAt")
		batch.Create(Kind, string(payment.ID), payment, "createdAt")
		audit.Stage(ctx, batch, string(actorID), audit.ActionPaymentRecorded, "invoice", string(inv.ID),
			map[string]any{"amountPaid": inv.AmountPaid, "balance": inv.Balance, "status": inv.Status},
			map[string]any{"amountPaid": updated.AmountPaid, "balance": updated.Balance, "status": updated.Status, "paymentId": payment.ID})

		result = RecordResult{
			InvoiceID:  inv.ID,
			PaymentID:  payment.ID,
			AmountPaid: updated.AmountPaid,
			Balance:    updated.Balance,
			Status:     updated.Status,
		}
		return nil
	})
	if err != nil {
		return RecordResult{}, err
	}

	slog.Info("payment recorded", "invoice", result.InvoiceID, "payment", result.PaymentID, "status", result.Status)
	return result, nil
}

// ListPayments returns the payments recorded against an invoice, oldest first.
func (s *Service) ListPayments(ctx context.Context, invoiceID ids.InvoiceID) ([]Payment, error) {
	if _, err := invoicing.Load(ctx, s.store, invoiceID); err != nil {
		return nil, err
	}
	return docstore.LoadAll[Payment](ctx, s.store, docstore.From(Kind).
		Where("invoiceId", invoiceID).
		OrderBy("createdAt"))
}
