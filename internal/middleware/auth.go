package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/goalkeep/internal/ctxkeys"
	"github.com/templui/goalkeep/internal/service"
)

// AuthMiddleware reads a bearer token and, if valid, puts the caller identity
// in the request context. Requests without a token continue anonymously;
// requests with a bad token are rejected.
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "authorization header must be a bearer token")
				return
			}

			identity, err := authService.VerifyJWT(strings.TrimSpace(token))
			if err != nil {
				slog.DebugContext(r.Context(), "rejected bearer token", "error", err, "request_id", ctxkeys.RequestID(r.Context()))
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			ctx := ctxkeys.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Identity(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}
