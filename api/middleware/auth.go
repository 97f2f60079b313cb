package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/seedshop-backend/api/responses"
	pkgAuth "github.com/angelmondragon/seedshop-backend/pkg/auth"
	"github.com/angelmondragon/seedshop-backend/pkg/config"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
)

// RoleResolver looks up the storefront role of an authenticated user.
type RoleResolver interface {
	RoleFor(ctx context.Context, userID uuid.UUID) (enums.AppRole, error)
}

// Auth verifies the identity provider's bearer token and seeds the request
// context with the user id, email and storefront role.
func Auth(cfg config.JWTConfig, roles RoleResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			userID, _ := claims.UserID()

			role := enums.AppRoleUser
			if roles != nil {
				role, err = roles.RoleFor(r.Context(), userID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve role"))
					return
				}
			}

			ctx := WithIdentity(r.Context(), userID, string(role), claims.Email)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
				ctx = logg.WithActorRole(ctx, string(role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	token := strings.TrimSpace(header)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
