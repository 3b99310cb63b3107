package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"schoolops/internal/domain/fault"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestFailErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fault.New(fault.NotFound, "invoice_not_found", "no invoice"), http.StatusNotFound, "invoice_not_found"},
		{fault.New(fault.Conflict, "invoice_already_settled", "settled"), http.StatusConflict, "invoice_already_settled"},
		{fault.New(fault.PreconditionFailed, "overpayment", "too much"), http.StatusPreconditionFailed, "overpayment"},
		{fault.New(fault.Unauthorized, "forbidden", "nope"), http.StatusUnauthorized, "forbidden"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		FailError(rec, tc.err, "req-1")
		if rec.Code != tc.status {
			t.Fatalf("%v: status %d, want %d", tc.err, rec.Code, tc.status)
		}
		env := decode(t, rec)
		if env.Success || env.Error == nil || env.Error.Code != tc.code || env.RequestID != "req-1" {
			t.Fatalf("%v: unexpected envelope %+v", tc.err, env)
		}
	}
}

func TestFailErrorCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	FailError(rec, fault.Invalid(map[string]string{"amountPaid": "amountPaid must be greater than 0"}), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	env := decode(t, rec)
	if env.Error.Fields["amountPaid"] == "" {
		t.Fatalf("expected field message, got %+v", env.Error)
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	FailError(rec, errors.New("pq: password authentication failed"), "")
	env := decode(t, rec)
	if env.Error.Message != "unexpected failure" {
		t.Fatalf("leaked message %q", env.Error.Message)
	}
}
