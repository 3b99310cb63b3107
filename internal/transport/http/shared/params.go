package shared

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"schoolops/internal/domain/fault"
)

// PathParam returns the unescaped chi URL parameter. Document keys may carry
// separators such as "|" or "/" that clients percent-encode.
func PathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if value, err := url.PathUnescape(raw); err == nil {
		return value
	}
	return raw
}

// Outcome names the result of an engine call for the metrics collector.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(fault.KindOf(err))
}
