package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/response"
)

// contextUser is the gin context key holding the authenticated *models.User.
const contextUser = "auth_user"

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Subject(token string) (uuid.UUID, error)
}

// UserResolver loads the live user record for a token subject. A missing
// user is reported as an apperr NotFound.
type UserResolver interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticate validates the bearer token, loads the user it names and
// stores it in the context. Every failure is a 401.
func Authenticate(tokens TokenVerifier, users UserResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
			response.Unauthorized(c, "Unauthorized, No Bearer Token")
			c.Abort()
			return
		}
		id, err := tokens.Subject(strings.TrimSpace(token))
		if err != nil {
			response.Unauthorized(c, "Unauthorized, Invalid Token")
			c.Abort()
			return
		}
		user, err := users.Get(c.Request.Context(), id)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				response.Unauthorized(c, "Unauthorized, User Not Found")
				c.Abort()
				return
			}
			response.Abort(c, logger, err)
			return
		}
		c.Set(contextUser, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside Authenticate.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(contextUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// SetCurrentUser stores u as the authenticated user. Intended for tests
// and internal routing.
func SetCurrentUser(c *gin.Context, u *models.User) {
	c.Set(contextUser, u)
}
