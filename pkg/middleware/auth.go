package middleware

import (
	"context"
	"strings"

	"membership-platform/backend/internal/models"
	"membership-platform/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the resolved *models.Identity
const IdentityKey = "identity"

// IdentityResolver resolves raw session tokens
type IdentityResolver interface {
	ResolveToken(ctx context.Context, bearer, session string) (*models.Identity, error)
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireIdentity rejects requests without a valid session and stores the identity otherwise.
func RequireIdentity(resolver IdentityResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := c.Cookie(cookieName)
		identity, err := resolver.ResolveToken(c.Request.Context(), BearerToken(c), session)
		if err != nil {
			c.Error(errors.NewUnauthorizedError("UNAUTHORIZED", "Authentication required").Wrap(err))
			c.Abort()
			return
		}

		c.Set(IdentityKey, identity)
		c.Set("userId", identity.Key())
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by RequireIdentity
func CurrentIdentity(c *gin.Context) (*models.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*models.Identity)
	return id, ok
}
