package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"schoolops/internal/requestctx"
	"schoolops/internal/transport/http/api"
)

// DecodeJSON decodes the request body into dst and writes a 400 envelope on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestctx.GetRequestID(r.Context()))
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", requestctx.GetRequestID(r.Context()))
		return false
	}
	return true
}

// Period reads the classIdentifier, session and term query values shared by the class listings.
func Period(r *http.Request, v *Validator) (class, session, term string) {
	q := r.URL.Query()
	class, session, term = q.Get("classIdentifier"), q.Get("session"), q.Get("term")
	v.Required("classIdentifier", class, "classIdentifier is required")
	v.Required("session", session, "session is required")
	v.Required("term", term, "term is required")
	return class, session, term
}
