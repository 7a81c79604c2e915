package middlewares

import (
	"context"
	"net/http"

	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RoleLookup resolves the user currently stored for an email.
type RoleLookup interface {
	FindUser(ctx context.Context, email string) (user.User, bool, error)
}

// RequireAnyRole admits a request when enforce is false and RequireAuth ran.
// When enforce is true the token's role claim must be one of allowed and, if
// users is set, so must the role stored for the token's email. Tokens from
// /jwt-token carry no role claim and never pass an enforced guard.
func (m *AuthMiddleware) RequireAnyRole(enforce bool, users RoleLookup, allowed ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, ok := EmailFromContext(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		if !enforce {
			c.Next()
			return
		}

		raw, _ := RoleFromContext(c)
		claimed, err := user.ParseRole(raw)
		if err != nil || !roleIn(claimed, allowed) {
			abortJSON(c, http.StatusForbidden, "forbidden", "forbidden access")
			return
		}

		if users != nil {
			u, found, err := users.FindUser(c.Request.Context(), user.NormalizeEmail(email))
			if err != nil {
				abortJSON(c, http.StatusInternalServerError, "internal_error", "Could not resolve role")
				return
			}
			if !found || !roleIn(u.Role, allowed) {
				abortJSON(c, http.StatusForbidden, "forbidden", "forbidden access")
				return
			}
		}

		c.Next()
	}
}

func roleIn(role user.Role, allowed []user.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
