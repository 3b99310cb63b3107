// Package audit records who changed what. Events are staged on the same batch as the
// change they describe, so an aborted operation leaves no audit trail behind.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"schoolops/internal/platform/docstore"
	"schoolops/internal/requestctx"
)

const Kind docstore.Kind = "audit_events"

const (
	ActionFeeStructureSaved = "fees.structure_saved"
	ActionInvoicesGenerated = "invoices.generated"
	ActionPaymentRecorded   = "payments.recorded"
	ActionPayrollExecuted   = "payroll.executed"
	ActionScoresImported    = "scores.imported"
	ActionScoresApproved    = "scores.approved"
	ActionResultsGenerated  = "results.generated"
	ActionGradingScaleSaved = "results.grading_scale_saved"
)

type Event struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	RequestID  string    `json:"requestId"`
	CreatedAt  time.Time `json:"createdAt"`
	Before     any       `json:"before,omitempty"`
	After      any       `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorUser  string
}

// Stage adds an audit event to batch. The request id is taken from ctx and
// createdAt is assigned by the store at commit.
func Stage(ctx context.Context, batch *docstore.Batch, actorID, action, entityType, entityID string, before, after any) string {
	evt := Event{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(ctx),
		Before:     before,
		After:      after,
	}
	return batch.Create(Kind, evt.ID, evt, "createdAt")
}

type Service struct {
	Store docstore.Reader
}

func New(store docstore.Reader) *Service {
	return &Service{Store: store}
}

// List returns matching events, newest first.
func (s *Service) List(ctx context.Context, filter Filter, limit int) ([]Event, error) {
	q := docstore.From(Kind)
	if filter.Action != "" {
		q = q.Where("action", filter.Action)
	}
	if filter.EntityType != "" {
		q = q.Where("entityType", filter.EntityType)
	}
	if filter.ActorUser != "" {
		q = q.Where("actorId", filter.ActorUser)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return docstore.LoadAll[Event](ctx, s.Store, q.OrderByDesc("createdAt"))
}
