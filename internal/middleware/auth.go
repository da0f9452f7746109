package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"ecopoweratlas/internal/auth"

	"go.uber.org/zap"
)

type AuthMiddleware struct {
	verifier *auth.Verifier
	logr     *zap.Logger
}

type contextKey string

const (
	ContextUserIDKey contextKey = "userID"
	ContextRolesKey  contextKey = "roles"
)

// NewAuthMiddleware creates a reusable JWT auth middleware instance
func NewAuthMiddleware(verifier *auth.Verifier, logr *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logr: logr}
}

// StaffOrReadOnly lets safe methods through unconditionally; mutating
// requests need a valid bearer token carrying the staff role.
func (m *AuthMiddleware) StaffOrReadOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeStatus(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			writeStatus(w, http.StatusUnauthorized, "invalid token format")
			return
		}

		claims, err := m.verifier.VerifyToken(tokenString)
		if err != nil {
			m.logr.Warn("token parse error", zap.Error(err))
			writeStatus(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if !auth.IsStaff(claims) {
			writeStatus(w, http.StatusForbidden, "staff role required")
			return
		}

		userID, _ := claims["sub"].(string)
		ctx := context.WithValue(r.Context(), ContextUserIDKey, userID)
		ctx = context.WithValue(ctx, ContextRolesKey, claims["roles"])
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
