package paymentshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"schoolops/internal/domain/ids"
	"schoolops/internal/domain/payments"
	"schoolops/internal/platform/metrics"
	"schoolops/internal/transport/http/api"
	"schoolops/internal/transport/http/middleware"
	"schoolops/internal/transport/http/shared"
)

var paymentMethods = []string{
	payments.MethodCash,
	payments.MethodBankTransfer,
	payments.MethodCard,
	payments.MethodCheque,
	payments.MethodMobileMoney,
}

type Handler struct {
	Service     *payments.Service
	Idempotency *middleware.IdempotencyStore
	Metrics     *metrics.Collector
}

func NewHandler(service *payments.Service, idem *middleware.IdempotencyStore, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Idempotency: idem, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.Idempotency(h.Idempotency)).Post("/payments", h.handleRecord)
}

type recordPayload struct {
	InvoiceID     string          `json:"invoiceId"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	PaymentDate   string          `json:"paymentDate"`
	PaymentMethod string          `json:"paymentMethod"`
	Notes         string          `json:"notes"`
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var payload recordPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("invoiceId", payload.InvoiceID, "invoiceId is required")
	v.Enum("paymentMethod", payload.PaymentMethod, paymentMethods, "paymentMethod is not supported")
	paymentDate, _ := v.Date("paymentDate", payload.PaymentDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.RecordPayment(r.Context(), payments.RecordInput{
		InvoiceID:     ids.InvoiceID(payload.InvoiceID),
		AmountPaid:    payload.AmountPaid,
		PaymentDate:   paymentDate,
		PaymentMethod: payload.PaymentMethod,
		Notes:         payload.Notes,
	}, middleware.ActorID(r.Context()))
	h.Metrics.Outcome("payments.record", shared.Outcome(err))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, result, middleware.GetRequestID(r.Context()))
}
