package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/flashdeck/internal/logger"
)

type envelope map[string]any

// writeJSON writes payload as the response body. A missing "success" key is
// filled from the status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload envelope) {
	if payload == nil {
		payload = envelope{}
	}
	if _, ok := payload["success"]; !ok {
		payload["success"] = status < 400
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}

func writeOK(w http.ResponseWriter, r *http.Request, payload envelope) {
	writeJSON(w, r, http.StatusOK, payload)
}

// pathParam returns a decoded chi URL parameter so deck names with spaces or
// slashes survive escaping.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
