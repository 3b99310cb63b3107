package payrollhandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"schoolops/internal/domain/ids"
	"schoolops/internal/domain/payroll"
	"schoolops/internal/platform/metrics"
	"schoolops/internal/platform/render"
	"schoolops/internal/transport/http/api"
	"schoolops/internal/transport/http/middleware"
	"schoolops/internal/transport/http/shared"
)

type Handler struct {
	Service     *payroll.Service
	Idempotency *middleware.IdempotencyStore
	Metrics     *metrics.Collector
}

func NewHandler(service *payroll.Service, idem *middleware.IdempotencyStore, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Idempotency: idem, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.Idempotency(h.Idempotency)).Post("/runs", h.handleRunPayroll)
		r.Get("/runs", h.handleListRuns)
		r.Get("/runs/{runID}", h.handleGetRun)
		r.Get("/runs/{runID}/payslips", h.handleRunPayslips)
		r.Get("/payslips/{payslipID}", h.handleGetPayslip)
		r.Get("/payslips/{payslipID}/download", h.handleDownloadPayslip)
	})
	r.Get("/staff/{staffID}/payslips", h.handleStaffPayslips)
}

func (h *Handler) handleRunPayroll(w http.ResponseWriter, r *http.Request) {
	var input payroll.RunInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	result, err := h.Service.RunPayroll(r.Context(), input, middleware.ActorID(r.Context()))
	h.Metrics.Outcome("payroll.run", shared.Outcome(err))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		v := shared.NewValidator()
		year, _ = v.Int("year", raw)
		if v.Reject(w, middleware.GetRequestID(r.Context())) {
			return
		}
	}
	runs, err := h.Service.ListRuns(r.Context(), year)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(runs)))
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.GetRun(r.Context(), ids.PayrollRunID(shared.PathParam(r, "runID")))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunPayslips(w http.ResponseWriter, r *http.Request) {
	slips, err := h.Service.RunPayslips(r.Context(), ids.PayrollRunID(shared.PathParam(r, "runID")))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, slips, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPayslip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.Service.Payslip(r.Context(), ids.PayslipID(shared.PathParam(r, "payslipID")))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, slip, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.Service.Payslip(r.Context(), ids.PayslipID(shared.PathParam(r, "payslipID")))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	doc, err := render.Payslip(slip)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", render.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=payslip-"+string(slip.PayrollRunID)+"-"+string(slip.StaffID)+".pdf")
	if _, err := w.Write(doc); err != nil {
		slog.Warn("payslip download write failed", "err", err)
	}
}

func (h *Handler) handleStaffPayslips(w http.ResponseWriter, r *http.Request) {
	slips, err := h.Service.StaffPayslips(r.Context(), ids.StaffID(shared.PathParam(r, "staffID")))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, slips, middleware.GetRequestID(r.Context()))
}
