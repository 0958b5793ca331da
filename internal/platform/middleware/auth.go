package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"signet/internal/identity"
	"signet/internal/transport/http/shared"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/requestcontext"
)

// TokenValidator validates a bearer token and yields its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*identity.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access, missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access, invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err.Error(),
				)
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithUserEmail(ctx, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
