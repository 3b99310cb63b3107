package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"schoolops/internal/transport/http/api"
)

// Recoverer turns a panic into a 500 envelope.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.Error("panic recovered",
					"panic", rec,
					"path", r.URL.Path,
					"requestId", GetRequestID(r.Context()),
					"stack", string(debug.Stack()),
				)
				api.Fail(w, http.StatusInternalServerError, "internal_error", "unexpected failure", GetRequestID(r.Context()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
