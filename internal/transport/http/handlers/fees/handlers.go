package feeshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolops/internal/domain/fees"
	"schoolops/internal/platform/metrics"
	"schoolops/internal/transport/http/api"
	"schoolops/internal/transport/http/middleware"
	"schoolops/internal/transport/http/shared"
)

type Handler struct {
	Service *fees.Service
	Metrics *metrics.Collector
}

func NewHandler(service *fees.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/fees", func(r chi.Router) {
		r.Put("/structure", h.handleSave)
		r.Get("/structure", h.handleGet)
		r.Get("/structures", h.handleList)
	})
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	var input fees.SaveInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	saved, err := h.Service.SaveFeeStructure(r.Context(), input, middleware.ActorID(r.Context()))
	h.Metrics.Outcome("fees.save", shared.Outcome(err))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	class, session, term := shared.Period(r, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	structure, err := h.Service.GetFeeStructure(r.Context(), class, session, term)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, structure, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	session, term := r.URL.Query().Get("session"), r.URL.Query().Get("term")
	v.Required("session", session, "session is required")
	v.Required("term", term, "term is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	list, err := h.Service.ListFeeStructures(r.Context(), session, term)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}
