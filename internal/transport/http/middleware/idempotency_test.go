package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolops/internal/auth"
	"schoolops/internal/platform/docstore/memstore"
)

func TestRequestHashDeterministic(t *testing.T) {
	hash1 := RequestHash([]byte("payload"))
	hash2 := RequestHash([]byte("payload"))
	hash3 := RequestHash([]byte("other"))

	if hash1 != hash2 {
		t.Fatal("expected deterministic hash")
	}
	if hash1 == hash3 {
		t.Fatal("expected different hash for different payload")
	}
}

func idempotentHandler(calls *int32, status int) http.Handler {
	store := NewIdempotencyStore(memstore.New())
	return Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"call":` + strconv.Itoa(int(n)) + `,"echo":` + string(body) + `}`))
	}))
}

func send(h http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "acct", Role: "accountant"}))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	var calls int32
	h := idempotentHandler(&calls, http.StatusCreated)

	first := send(h, "k1", `{"amount":1}`)
	second := send(h, "k1", `{"amount":1}`)

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestIdempotencyConflictingPayload(t *testing.T) {
	var calls int32
	h := idempotentHandler(&calls, http.StatusCreated)

	send(h, "k1", `{"amount":1}`)
	rec := send(h, "k1", `{"amount":2}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "idempotency_conflict")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	var calls int32
	h := idempotentHandler(&calls, http.StatusPreconditionFailed)

	send(h, "k1", `{"amount":1}`)
	send(h, "k1", `{"amount":1}`)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyWithoutKey(t *testing.T) {
	var calls int32
	h := idempotentHandler(&calls, http.StatusCreated)

	send(h, "", `{}`)
	send(h, "", `{}`)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyConcurrentSameKeyRunsOnce(t *testing.T) {
	var calls int32
	entered := make(chan struct{})
	proceed := make(chan struct{})
	store := NewIdempotencyStore(memstore.New())
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		close(entered)
		<-proceed
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"paymentId":"p1"}`))
	}))

	var first *httptest.ResponseRecorder
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = send(h, "k1", `{"amount":1}`)
	}()
	<-entered

	inFlight := send(h, "k1", `{"amount":1}`)
	assert.Equal(t, http.StatusConflict, inFlight.Code)
	assert.Contains(t, inFlight.Body.String(), "idempotency_in_progress")

	close(proceed)
	wg.Wait()
	require.Equal(t, http.StatusCreated, first.Code)

	replay := send(h, "k1", `{"amount":1}`)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotencyReleasesKeyAfterPanic(t *testing.T) {
	var calls int32
	store := NewIdempotencyStore(memstore.New())
	h := Recoverer(Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("boom")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})))

	first := send(h, "k1", `{"amount":1}`)
	second := send(h, "k1", `{"amount":1}`)

	assert.Equal(t, http.StatusInternalServerError, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyReleasedKeyAcceptsNewPayload(t *testing.T) {
	var calls int32
	h := idempotentHandler(&calls, http.StatusPreconditionFailed)

	send(h, "k1", `{"amount":1}`)
	rec := send(h, "k1", `{"amount":2}`)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
