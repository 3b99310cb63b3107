package resultshandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolops/internal/domain/ids"
	"schoolops/internal/domain/results"
	"schoolops/internal/platform/metrics"
	"schoolops/internal/platform/render"
	"schoolops/internal/transport/http/api"
	"schoolops/internal/transport/http/middleware"
	"schoolops/internal/transport/http/shared"
)

type Handler struct {
	Service *results.Service
	Metrics *metrics.Collector
}

func NewHandler(service *results.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/results", func(r chi.Router) {
		r.Post("/generate", h.handleGenerate)
		r.Get("/grading-scale", h.handleGetScale)
		r.Put("/grading-scale", h.handleSaveScale)
		r.Get("/report-cards", h.handleListReportCards)
		r.Get("/report-cards/{reportCardID}", h.handleGetReportCard)
		r.Get("/report-cards/{reportCardID}/download", h.handleDownloadReportCard)
	})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var input results.GenerateInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	result, err := h.Service.GenerateResults(r.Context(), input, middleware.ActorID(r.Context()))
	h.Metrics.Outcome("results.generate", shared.Outcome(err))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetScale(w http.ResponseWriter, r *http.Request) {
	scale, err := h.Service.GradingScale(r.Context())
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, scale, middleware.GetRequestID(r.Context()))
}

type scalePayload struct {
	Bands []results.Band `json:"bands"`
}

func (h *Handler) handleSaveScale(w http.ResponseWriter, r *http.Request) {
	var payload scalePayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	scale, err := h.Service.SaveGradingScale(r.Context(), payload.Bands, middleware.ActorID(r.Context()))
	h.Metrics.Outcome("results.grading_scale", shared.Outcome(err))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, scale, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListReportCards(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	class, session, term := shared.Period(r, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	cards, err := h.Service.ReportCards(r.Context(), class, session, term)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, cards, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetReportCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.Service.ReportCard(r.Context(), ids.ReportCardID(shared.PathParam(r, "reportCardID")))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, card, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadReportCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.Service.ReportCard(r.Context(), ids.ReportCardID(shared.PathParam(r, "reportCardID")))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	doc, err := render.ReportCard(card)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", render.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=report-card-"+string(card.StudentID)+".pdf")
	if _, err := w.Write(doc); err != nil {
		slog.Warn("report card download write failed", "err", err)
	}
}
