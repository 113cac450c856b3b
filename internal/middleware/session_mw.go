package middleware

import (
	"context"
	"strings"

	"civic_reporter/internal/model"
	"civic_reporter/internal/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SessionKey = "session"
	TokenKey   = "sessionToken"
)

// SessionResolver looks up the session behind a bearer token.
type SessionResolver interface {
	Current(ctx context.Context, token string) (*model.Session, error)
}

// SessionMiddleware resolves the bearer token, if any, and stores the session
// in the context. Requests without a live session continue anonymously; the
// role middleware decides whether that is enough.
func SessionMiddleware(resolver SessionResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}
		c.Set(TokenKey, token)

		s, err := resolver.Current(c.Request.Context(), token)
		if err != nil {
			response.FromError(c, logger, err, "failed to resolve session")
			return
		}
		if s != nil {
			c.Set(SessionKey, s)
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// CurrentSession returns the session resolved for this request, or nil.
func CurrentSession(c *gin.Context) *model.Session {
	v, exists := c.Get(SessionKey)
	if !exists {
		return nil
	}
	s, _ := v.(*model.Session)
	return s
}

// BearerToken returns the raw bearer token sent with the request.
func BearerToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}
