package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Seungho-Jeong/accountbooks/internal/apperr"
	"github.com/Seungho-Jeong/accountbooks/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext returns the authenticated user attached by RequireAuth.
// It must only be called from handlers behind that middleware.
func UserFromContext(r *http.Request) *models.User {
	return r.Context().Value(userContextKey).(*models.User)
}

// RequireAuth authenticates the request from the raw token in the
// Authorization header (no scheme prefix). A missing header is a missing
// credential (401); a header that fails verification is a bad one (400).
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			h.respondError(w, r, apperr.Unauthorized())
			return
		}

		userID, err := h.tokens.Verify(token)
		if err != nil {
			h.respondError(w, r, err)
			return
		}

		user, err := h.users.Resolve(userID)
		if err != nil {
			h.respondError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
