package scoreshandler

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"schoolops/internal/domain/scores"
	"schoolops/internal/platform/metrics"
	"schoolops/internal/transport/http/api"
	"schoolops/internal/transport/http/middleware"
	"schoolops/internal/transport/http/shared"
)

type Handler struct {
	Service *scores.Service
	Metrics *metrics.Collector
}

func NewHandler(service *scores.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/scores", func(r chi.Router) {
		r.Post("/bulk", h.handleBulk)
		r.Post("/import", h.handleImportCSV)
		r.Post("/approve", h.handleApprove)
		r.Get("/", h.handleList)
	})
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request) {
	var input scores.BulkInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	h.bulkUpdate(w, r, input)
}

// handleImportCSV accepts a studentId,caScore,examScore sheet for the class, subject,
// session and term named in the query string.
func (h *Handler) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	class, session, term := shared.Period(r, v)
	subject := r.URL.Query().Get("subject")
	v.Required("subject", subject, "subject is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	rows, err := parseSheet(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid csv payload", middleware.GetRequestID(r.Context()))
		return
	}
	h.bulkUpdate(w, r, scores.BulkInput{ClassIdentifier: class, Subject: subject, Session: session, Term: term, Rows: rows})
}

func (h *Handler) bulkUpdate(w http.ResponseWriter, r *http.Request, input scores.BulkInput) {
	result, err := h.Service.BulkUpdateScores(r.Context(), input, middleware.ActorID(r.Context()))
	h.Metrics.Outcome("scores.import", shared.Outcome(err))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func parseSheet(body io.Reader) ([]scores.Row, error) {
	reader := csv.NewReader(body)
	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	index := map[string]int{}
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(row []string, key string) string {
		if idx, ok := index[key]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []scores.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, scores.Row{
			StudentID: get(record, "studentid"),
			CAScore:   parseScore(get(record, "cascore")),
			ExamScore: parseScore(get(record, "examscore")),
		})
	}
	return rows, nil
}

// parseScore leaves blank or malformed cells nil so the row is rejected, not zeroed.
func parseScore(raw string) *float64 {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var input scores.ApproveInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	result, err := h.Service.ApproveScores(r.Context(), input, middleware.ActorID(r.Context()))
	h.Metrics.Outcome("scores.approve", shared.Outcome(err))
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
	list, err := h.Service.ListScores(r.Context(), class, session, term, r.URL.Query().Get("subject"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}
