// Package httpjson holds the request/response helpers shared by all API
// feature handlers: JSON encoding with status codes, body decoding with
// size limits, and the standard error body shape.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxBodyBytes caps JSON request bodies. Large payloads (file uploads)
// do not go through this path.
const maxBodyBytes = 1 << 20

// ErrorBody is the JSON error envelope returned by every handler.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the standard error envelope. Handlers pass a safe,
// client-facing message here; raw internal errors go to zap only.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, ErrorBody{Error: msg})
}

// ErrorCode writes the error envelope with a machine-readable code.
func ErrorCode(w http.ResponseWriter, status int, msg, code string) {
	Write(w, status, ErrorBody{Error: msg, Code: code})
}

// Internal writes the generic 500 body. The underlying error is never
// surfaced to the client.
func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Decode reads a JSON request body into dst, enforcing the size cap and
// rejecting unknown fields and trailing content.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
