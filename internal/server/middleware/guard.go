// Package middleware provides HTTP middleware for the local gateway.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/jobboard/internal/guard"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// requestIDKey is the context key for the request correlation id.
const requestIDKey ContextKey = "requestID"

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-ID"

// Evaluator decides whether a route may be served.
type Evaluator interface {
	Evaluate(route guard.Route) guard.Decision
}

// Guard consults ev on every request. Refused browser navigations are
// redirected with 303; refused API calls get a JSON error naming the redirect.
func Guard(ev Evaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := ev.Evaluate(guard.Normalize(r.URL.Path))
			if decision.Allow {
				next.ServeHTTP(w, r)
				return
			}

			if !WantsJSON(r) {
				http.Redirect(w, r, string(decision.Redirect), http.StatusSeeOther)
				return
			}

			status, message := http.StatusUnauthorized, "login required"
			if decision.Redirect != guard.Login {
				status, message = http.StatusConflict, "already logged in"
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":    message,
				"redirect": string(decision.Redirect),
			})
		})
	}
}

// WantsJSON reports whether the caller is a script rather than a browser navigation.
func WantsJSON(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") || strings.Contains(accept, "text/event-stream")
}

// RequestID tags each request with an id, reusing the caller's when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request id from the request context.
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
