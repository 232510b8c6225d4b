// internal/api/middleware.go
package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"inkvault/internal/domain"
)

type contextKey string

const subjectKey contextKey = "subject"

// SubjectHeader carries the verified caller identity asserted by the
// upstream gateway. This process never validates tokens itself.
const SubjectHeader = "X-Subject-Id"

// RequireSubject rejects requests without a gateway-asserted identity and
// places the subject in the request context for handlers.
func RequireSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := r.Header.Get(SubjectHeader)
		if subject == "" {
			Err(w, r, domain.ErrUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), subjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Subject returns the caller identity set by RequireSubject. The empty
// string means the route was not wrapped.
func Subject(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey).(string)
	return subject
}

// SecurityHeaders sets the standard hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// Recover catches panics at the boundary, logs them, and answers with a
// generic internal error envelope.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("panic recovered")
				Fail(w, http.StatusInternalServerError, "An internal error has occurred.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
