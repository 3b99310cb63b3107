package invoiceshandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolops/internal/domain/ids"
	"schoolops/internal/domain/invoicing"
	"schoolops/internal/domain/payments"
	"schoolops/internal/platform/metrics"
	"schoolops/internal/platform/render"
	"schoolops/internal/transport/http/api"
	"schoolops/internal/transport/http/middleware"
	"schoolops/internal/transport/http/shared"
)

type Handler struct {
	Service  *invoicing.Service
	Payments *payments.Service
	Metrics  *metrics.Collector
}

func NewHandler(service *invoicing.Service, paymentsService *payments.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Payments: paymentsService, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Post("/generate", h.handleGenerate)
		r.Get("/", h.handleList)
		r.Get("/{invoiceID}", h.handleGet)
		r.Get("/{invoiceID}/pdf", h.handlePDF)
		r.Get("/{invoiceID}/payments", h.handlePayments)
	})
	r.Get("/students/{studentID}/invoices", h.handleStudentInvoices)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var input invoicing.GenerateInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	result, err := h.Service.GenerateInvoices(r.Context(), input, middleware.ActorID(r.Context()))
	h.Metrics.Outcome("invoices.generate", shared.Outcome(err))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	class, session, term := shared.Period(r, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	list, err := h.Service.ListInvoices(r.Context(), class, session, term)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.GetInvoice(r.Context(), ids.InvoiceID(shared.PathParam(r, "invoiceID")))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.GetInvoice(r.Context(), ids.InvoiceID(shared.PathParam(r, "invoiceID")))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	doc, err := render.Invoice(inv)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", render.ContentType)
	w.Header().Set("Content-Disposition", "inline; filename="+string(inv.InvoiceNumber)+".pdf")
	if _, err := w.Write(doc); err != nil {
		slog.Warn("invoice pdf write failed", "err", err)
	}
}

func (h *Handler) handlePayments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Payments.ListPayments(r.Context(), ids.InvoiceID(shared.PathParam(r, "invoiceID")))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStudentInvoices(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.StudentInvoices(r.Context(), ids.StudentID(shared.PathParam(r, "studentID")))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}
