package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/logging"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// ClaimsGinKey is the gin context key under which the session gate stores
// *auth.Claims.
const ClaimsGinKey = "claims"

// ClaimsFrom returns the session claims attached by the session gate.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// requireSession reads the token from the session cookie, falling back to an
// Authorization: Bearer header, and rejects the request unless it verifies.
func (s *HTTPServer) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			s.writeError(c, common.ErrAuthenticationRequired)
			c.Abort()
			return
		}

		claims, err := s.issuer.Verify(token)
		if err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}

		c.Set(ClaimsGinKey, claims)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), claimsKey, claims))
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if v, err := c.Cookie(common.SessionCookieName); err == nil && v != "" {
		return v
	}

	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requestID reuses an incoming X-Request-ID of sane length or generates one,
// and stores it in the request context for logging.
func (s *HTTPServer) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if len(id) == 0 || len(id) > 128 {
			id = uuid.NewString()
		}

		c.Header(common.RequestIDHeaderName, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *HTTPServer) recovered(c *gin.Context, v any) {
	s.logger.Error(c.Request.Context(), "panic recovered", "panic", v)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}
