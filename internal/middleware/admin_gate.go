package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminAuthorizer evaluates the admin predicate for an authenticated user
// and performs the forced sign-out when the predicate fails.
type AdminAuthorizer interface {
	AuthorizeAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	RevokeSessions(ctx context.Context, userID uuid.UUID) error
}

// RequireAdmin gates the admin console. The session moves
// SessionPresent -> Authorized when a role row exists, otherwise
// SessionPresent -> Denied: the user's refresh tokens are revoked and the
// request is rejected. Presence of the row is the entire predicate.
func RequireAdmin(authorizer AdminAuthorizer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				logger.Warn("User ID not found in context")
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			isAdmin, err := authorizer.AuthorizeAdmin(r.Context(), userID)
			if err != nil {
				logger.Error("Admin role check failed", zap.Error(err))
				RespondWithError(w, http.StatusInternalServerError, "failed to verify permissions")
				return
			}

			if !isAdmin {
				logger.Warn("Non-admin session denied admin access",
					zap.String("user_id", userID.String()),
				)
				if err := authorizer.RevokeSessions(r.Context(), userID); err != nil {
					logger.Error("Failed to revoke denied session", zap.Error(err))
				}
				RespondWithError(w, http.StatusForbidden, "admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
