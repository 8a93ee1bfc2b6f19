package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/gin-gonic/gin"
)

// writeError is the single place where errors become HTTP responses.
// Unexpected errors are logged and reduced to a generic 500.
func (s *HTTPServer) writeError(c *gin.Context, err error) {
	var verr *common.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": verr.Issues})
	case errors.Is(err, common.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"message": "User with this email already exists"})
	case errors.Is(err, common.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
	case errors.Is(err, common.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		c.JSON(http.StatusForbidden, gin.H{"message": "Invalid or expired token"})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Decision not found"})
	case errors.Is(err, common.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests"})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
