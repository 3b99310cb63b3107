package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"schoolops/internal/domain/fault"
)

type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

func FailWithFields(w http.ResponseWriter, status int, code, message string, fields map[string]string, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message, Fields: fields}, RequestID: requestID})
}

// StatusFor maps a fault kind onto its HTTP status.
func StatusFor(kind fault.Kind) int {
	switch kind {
	case fault.Validation:
		return http.StatusBadRequest
	case fault.NotFound:
		return http.StatusNotFound
	case fault.Conflict:
		return http.StatusConflict
	case fault.PreconditionFailed:
		return http.StatusPreconditionFailed
	case fault.Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// FailError renders err as an error envelope. Errors outside the fault taxonomy are
// logged and reported as internal failures without their detail.
func FailError(w http.ResponseWriter, err error, requestID string) {
	fe := fault.As(err)
	status := StatusFor(fe.Kind)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err, "requestId", requestID)
		Fail(w, status, "internal_error", "unexpected failure", requestID)
		return
	}
	FailWithFields(w, status, fe.Code, fe.Message, fe.Fields, requestID)
}
