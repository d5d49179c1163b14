package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anillosguillen/catalog_api/internal/utils"
)

// SessionCookie carries the admin session token.
const SessionCookie = "admin_session"

// ContextAdminEmail is the gin context key holding the authenticated admin.
const ContextAdminEmail = "admin_email"

// SessionValidator checks admin session tokens.
type SessionValidator interface {
	Validate(token string) (*utils.AdminClaims, error)
}

// SessionMiddleware protects admin routes. The token is read from the
// session cookie first, then from an Authorization Bearer header.
type SessionMiddleware struct {
	validator SessionValidator
}

// NewSessionMiddleware constructs a SessionMiddleware.
func NewSessionMiddleware(validator SessionValidator) *SessionMiddleware {
	return &SessionMiddleware{validator: validator}
}

// Handle returns the gin handler.
func (m *SessionMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing admin session")
			c.Abort()
			return
		}

		claims, err := m.validator.Validate(token)
		if err != nil {
			utils.Error(c, 401, utils.ErrInvalidToken.Error(), "Invalid or expired session")
			c.Abort()
			return
		}

		c.Set(ContextAdminEmail, claims.Email)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
