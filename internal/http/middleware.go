package http

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDMiddleware tags each request with a unique id, echoed back in the
// X-Request-ID header so the browser console and the server log can be
// correlated. An id supplied by the client is kept.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}
