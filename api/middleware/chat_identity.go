package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/orderbot-backend/api/responses"
	pkgAuth "github.com/angelmondragon/orderbot-backend/pkg/auth"
	"github.com/angelmondragon/orderbot-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
)

// ChatIdentity validates the transport's bearer token and seeds the request
// context with the end user's chat id.
func ChatIdentity(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseChatToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ChatID == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing chat identity"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxChatID, claims.ChatID)
			ctx = context.WithValue(ctx, ctxTransport, claims.Transport)
			if logg != nil {
				ctx = logg.WithChatID(ctx, claims.ChatID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
