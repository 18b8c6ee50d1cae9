package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
// It must run after Authenticate.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	names := make([]string, len(roles))
	for i, r := range roles {
		allowed[r] = struct{}{}
		names[i] = string(r)
	}
	msg := "Forbidden: This action requires one of the following roles: " + strings.Join(names, ", ")
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Unauthorized(c, "Unauthorized, No Bearer Token")
			c.Abort()
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			response.Forbidden(c, msg)
			c.Abort()
			return
		}
		c.Next()
	}
}
