// Package api defines the contract between the HTTP transport and the
// request handlers: handlers consume an already-parsed request and produce a
// status plus a JSON-serializable body, or a typed error. The transport
// adapter lives here too, but handlers never touch http.Request directly.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Request is the parsed inbound request. Headers are lowercased and both
// headers and query parameters are flattened to their first value. A body
// that is not valid JSON is passed through as an empty payload so the
// handler's own validation can complain about missing fields.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Query   map[string]string
	Payload json.RawMessage
}

// BearerToken extracts the token from the Authorization header, or returns
// an empty string when the header is missing or malformed.
func (r *Request) BearerToken() string {
	parts := strings.SplitN(r.Headers["authorization"], " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type Response struct {
	Status int
	Body   any
}

func OK(body any) *Response {
	return &Response{Status: http.StatusOK, Body: body}
}

func Created() *Response {
	return &Response{Status: http.StatusCreated}
}

func NoContent() *Response {
	return &Response{Status: http.StatusNoContent}
}

type Handler func(ctx context.Context, req *Request) (*Response, error)

// Wrap adapts a Handler to net/http. Typed errors become their status plus a
// JSON error envelope; anything else becomes a generic 500 with the cause
// logged server-side only.
func Wrap(log *logrus.Logger, h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h(r.Context(), fromHTTP(r))
		if err != nil {
			writeError(log, w, err)
			return
		}
		writeResponse(w, resp)
	}
}

func fromHTTP(r *http.Request) *Request {
	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}

	query := make(map[string]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	var payload json.RawMessage
	if body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes)); err == nil && json.Valid(body) {
		payload = body
	}

	return &Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		Headers: headers,
		Query:   query,
		Payload: payload,
	}
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	status := http.StatusOK
	var body []byte
	if resp != nil {
		if resp.Status != 0 {
			status = resp.Status
		}
		if resp.Body != nil {
			body, _ = json.Marshal(resp.Body)
		}
	}

	// An empty result on a plain 200 means there is nothing to say.
	if status == http.StatusOK && (len(body) == 0 || string(body) == "{}") {
		status = http.StatusNoContent
		body = nil
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(body) > 0 {
		w.Write(body)
	}
}

func writeError(log *logrus.Logger, w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		log.WithError(err).Error("unhandled handler error")
		apiErr = Internal()
	} else if apiErr.Status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(errorEnvelope{Error: apiErr.Detail})
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// NotFoundHandler responds to requests for unknown paths.
func NotFoundHandler() http.Handler {
	return envelopeHandler(http.StatusNotFound, "not found")
}

// MethodNotAllowedHandler responds to known paths hit with an unsupported
// method.
func MethodNotAllowedHandler() http.Handler {
	return envelopeHandler(http.StatusMethodNotAllowed, "method not allowed")
}

func envelopeHandler(status int, detail string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(errorEnvelope{Error: detail})
	})
}
