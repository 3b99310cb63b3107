package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schoolops/internal/auth"
)

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))
	userCtx := WithUser(context.Background(), auth.UserContext{UserID: "acct-1", Role: "accountant"})

	first := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs", nil).WithContext(userCtx)
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs", nil).WithContext(userCtx)
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by user key, got %d", secondRec.Code)
	}
	if secondRec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/generate", nil)
	first.RemoteAddr = "203.0.113.10:4444"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/generate", nil)
	second.RemoteAddr = "203.0.113.10:5555"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request from same IP to be throttled, got %d", secondRec.Code)
	}

	other := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/generate", nil)
	other.RemoteAddr = "203.0.113.99:5555"
	otherRec := httptest.NewRecorder()
	limited.ServeHTTP(otherRec, other)
	if otherRec.Code != http.StatusNoContent {
		t.Fatalf("expected other IP to pass, got %d", otherRec.Code)
	}
}

func TestRateLimitWindowResets(t *testing.T) {
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	limited := RateLimit(1, time.Minute, func(rl *rateLimiter) {
		rl.now = func() time.Time { return now }
	})(http.HandlerFunc(noContent))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}
	if send() != http.StatusNoContent || send() != http.StatusTooManyRequests {
		t.Fatal("expected second request inside the window to be throttled")
	}
	now = now.Add(2 * time.Minute)
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected request after window to pass, got %d", code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	limited := RateLimit(0, time.Minute)(http.HandlerFunc(noContent))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d throttled with limit disabled", i)
		}
	}
}

func TestRateLimitExemptReads(t *testing.T) {
	limited := RateLimit(1, time.Minute, ExemptReads())(http.HandlerFunc(noContent))
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
		req.RemoteAddr = "192.0.2.7:1000"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("read %d throttled", i)
		}
	}
}
