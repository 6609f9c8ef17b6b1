package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/orderbot-backend/api/responses"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
)

// AdminChecker answers whether a chat identity holds the administrator capability.
type AdminChecker interface {
	IsAdmin(ctx context.Context, chatID int64) (bool, error)
}

// RequireAdmin rejects callers without the administrator capability.
// It must run after ChatIdentity.
func RequireAdmin(checker AdminChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			chatID := ChatIDFromContext(r.Context())
			if chatID == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing chat identity"))
				return
			}
			ok, err := checker.IsAdmin(r.Context(), chatID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "administrator access required"))
				return
			}
			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithActorRole(ctx, "admin")
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
