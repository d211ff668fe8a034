package fakebackend

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const (
	contextKeyMember contextKey = "member"
	contextKeyJTI    contextKey = "jti"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (b *Backend) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		b.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("fakebackend: request")
	})
}

func (b *Backend) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				b.logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("fakebackend: handler panicked")
				writeError(w, http.StatusInternalServerError, "Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requireAuth validates the bearer token and puts the member in the request
// context. Anything wrong answers 401.
func (b *Backend) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		subject, jti, err := b.tokens.Validate(token)
		if err != nil {
			b.logger.Debug().Err(err).Msg("fakebackend: rejected token")
			writeError(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		member, err := b.members.GetByID(subject)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyMember, member)
		ctx = context.WithValue(ctx, contextKeyJTI, jti)
		next(w, r.WithContext(ctx))
	}
}

func memberFrom(r *http.Request) *Member {
	member, _ := r.Context().Value(contextKeyMember).(*Member)
	return member
}
