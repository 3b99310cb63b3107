package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"schoolops/internal/platform/docstore"
	"schoolops/internal/transport/http/api"
)

const IdempotencyKind docstore.Kind = "idempotency_keys"

var (
	ErrIdempotencyConflict   = errors.New("idempotency key conflicts with existing request")
	ErrIdempotencyInProgress = errors.New("idempotency key is held by a request still in flight")
)

// Record states. A released key failed or was abandoned and may be reserved again.
const (
	statePending   = "pending"
	stateCompleted = "completed"
	stateReleased  = "released"
)

type idempotencyRecord struct {
	ActorID     string          `json:"actorId"`
	Endpoint    string          `json:"endpoint"`
	Key         string          `json:"key"`
	RequestHash string          `json:"requestHash"`
	State       string          `json:"state"`
	Status      int             `json:"status"`
	Response    json.RawMessage `json:"response"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// IdempotencyStore keeps the first successful response per (actor, endpoint, key).
type IdempotencyStore struct {
	store docstore.Gateway
}

func NewIdempotencyStore(store docstore.Gateway) *IdempotencyStore {
	return &IdempotencyStore{store: store}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func recordID(actorID, endpoint, key string) string {
	return RequestHash([]byte(actorID + "\x00" + endpoint + "\x00" + key))
}

// Reserve claims the key before the request runs. found reports a completed
// request whose response should be replayed instead. A key reused with a different
// payload is ErrIdempotencyConflict; a key whose first request is still running is
// ErrIdempotencyInProgress.
// TODO: reclaim pending keys left behind by a process that died mid-request.
func (s *IdempotencyStore) Reserve(ctx context.Context, actorID, endpoint, key, requestHash string) (status int, response json.RawMessage, found bool, err error) {
	id := recordID(actorID, endpoint, key)
	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Reader, batch *docstore.Batch) error {
		rec, err := docstore.Load[idempotencyRecord](ctx, tx, IdempotencyKind, id)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			batch.Create(IdempotencyKind, id, idempotencyRecord{
				ActorID:     actorID,
				Endpoint:    endpoint,
				Key:         key,
				RequestHash: requestHash,
				State:       statePending,
			}, "createdAt")
			return nil
		case err != nil:
			return err
		case rec.State == stateReleased:
			batch.Update(IdempotencyKind, id, map[string]any{
				"requestHash": requestHash,
				"state":       statePending,
				"status":      0,
				"response":    nil,
			})
			return nil
		case rec.RequestHash != requestHash:
			return ErrIdempotencyConflict
		case rec.State == statePending:
			return ErrIdempotencyInProgress
		}
		status, response, found = rec.Status, rec.Response, true
		return nil
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		// Another request created the record between our read and commit.
		return 0, nil, false, ErrIdempotencyInProgress
	}
	if err != nil {
		return 0, nil, false, err
	}
	return status, response, found, nil
}

// Complete stores the response for replay.
func (s *IdempotencyStore) Complete(ctx context.Context, actorID, endpoint, key string, status int, response json.RawMessage) error {
	batch := docstore.NewBatch()
	batch.Update(IdempotencyKind, recordID(actorID, endpoint, key), map[string]any{
		"state":    stateCompleted,
		"status":   status,
		"response": response,
	})
	return s.store.Commit(ctx, batch)
}

// Release frees a reserved key so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, actorID, endpoint, key string) error {
	batch := docstore.NewBatch()
	batch.Update(IdempotencyKind, recordID(actorID, endpoint, key), map[string]any{
		"state": stateReleased,
	})
	return s.store.Commit(ctx, batch)
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a request repeats its Idempotency-Key.
// Only 2xx responses are stored, so a rejected request can be retried.
func Idempotency(store *IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			reqID := GetRequestID(r.Context())
			payload, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_body", "request body could not be read", reqID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))

			actorID := string(ActorID(r.Context()))
			endpoint := r.Method + " " + r.URL.Path
			hash := RequestHash(payload)

			status, stored, found, err := store.Reserve(r.Context(), actorID, endpoint, key, hash)
			switch {
			case errors.Is(err, ErrIdempotencyConflict):
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", reqID)
				return
			case errors.Is(err, ErrIdempotencyInProgress):
				api.Fail(w, http.StatusConflict, "idempotency_in_progress", "a request with this idempotency key is still being processed", reqID)
				return
			case err != nil:
				api.FailError(w, err, reqID)
				return
			}
			if found {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(status)
				_, _ = w.Write(stored)
				return
			}

			// The request deadline may already have passed once the handler returns.
			bg := context.WithoutCancel(r.Context())
			capture := &captureWriter{ResponseWriter: w}
			completed := false
			defer func() {
				if completed {
					return
				}
				if err := store.Release(bg, actorID, endpoint, key); err != nil {
					slog.Warn("idempotency release failed", "err", err, "endpoint", endpoint, "requestId", reqID)
				}
			}()
			next.ServeHTTP(capture, r)
			if capture.status < 200 || capture.status >= 300 {
				return
			}
			// The work is done; a key that failed to save stays pending rather than
			// being released for a second execution.
			completed = true
			if err := store.Complete(bg, actorID, endpoint, key, capture.status, capture.body.Bytes()); err != nil {
				slog.Warn("idempotency save failed", "err", err, "endpoint", endpoint, "requestId", reqID)
			}
		})
	}
}
