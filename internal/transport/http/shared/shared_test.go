package shared

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"schoolops/internal/domain/fault"
)

func TestParseDate(t *testing.T) {
	for _, raw := range []string{"2025-09-15", "2025-09-15T10:00:00Z"} {
		got, err := ParseDate(raw)
		if err != nil || got.Year() != 2025 || got.Day() != 15 {
			t.Fatalf("ParseDate(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParseDate("15/09/2025"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}

func TestValidatorRejects(t *testing.T) {
	v := NewValidator()
	v.Required("session", " ", "session is required")
	v.Enum("paymentMethod", "barter", []string{"cash", "card"}, "unsupported payment method")
	if _, ok := v.Int("year", "twenty"); ok {
		t.Fatal("expected Int to fail")
	}

	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req") {
		t.Fatal("expected Reject to write a response")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	for _, field := range []string{`"session"`, `"paymentMethod"`, `"year"`} {
		if !strings.Contains(rec.Body.String(), field) {
			t.Fatalf("missing %s in %s", field, rec.Body.String())
		}
	}
}

func TestParseLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if got := ParseLimit(req, 50, 200); got != 200 {
		t.Fatalf("expected clamp to 200, got %d", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/?limit=-1", nil)
	if got := ParseLimit(req, 50, 200); got != 50 {
		t.Fatalf("expected default 50, got %d", got)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Month int `json:"month"`
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"month":9,"extra":true}`))
	if DecodeJSON(rec, req, &dst) {
		t.Fatal("expected decode to fail")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestPathParamUnescapes(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "s1%7C2024%2F2025%7CFirst")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	if got := PathParam(req, "id"); got != "s1|2024/2025|First" {
		t.Fatalf("unexpected param %q", got)
	}
}

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "ok" {
		t.Fatal("expected ok")
	}
	if Outcome(fault.New(fault.Conflict, "x", "y")) != "conflict" {
		t.Fatal("expected conflict")
	}
	if Outcome(errors.New("boom")) != "internal_error" {
		t.Fatal("expected internal_error")
	}
}
