package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Seconds(),
	})
}

func (s *HTTPServer) register(c *gin.Context) {
	var req services.RegisterInput
	if err := decodeJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	sess, err := s.users.Register(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.setSessionCookie(c, sess.Token)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    userResponse{ID: sess.User.ID, Email: sess.User.Email},
	})
}

func (s *HTTPServer) login(c *gin.Context) {
	var req services.LoginInput
	if err := decodeJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	sess, err := s.users.Login(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.setSessionCookie(c, sess.Token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userResponse{ID: sess.User.ID, Email: sess.User.Email},
	})
}

func (s *HTTPServer) logout(c *gin.Context) {
	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (s *HTTPServer) me(c *gin.Context) {
	claims, _ := ClaimsFrom(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"user": sessionResponse{
		ID:        claims.UserID(),
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.UTC(),
		ExpiresAt: claims.ExpiresAt.UTC(),
	}})
}

func (s *HTTPServer) listDecisions(c *gin.Context) {
	claims, _ := ClaimsFrom(c.Request.Context())

	items, err := s.decisions.List(c.Request.Context(), claims.UserID())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *HTTPServer) createDecision(c *gin.Context) {
	claims, _ := ClaimsFrom(c.Request.Context())

	var req services.CreateDecisionInput
	if err := decodeJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	d, err := s.decisions.Create(c.Request.Context(), claims.UserID(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (s *HTTPServer) getDecision(c *gin.Context) {
	claims, _ := ClaimsFrom(c.Request.Context())

	d, err := s.decisions.Get(c.Request.Context(), claims.UserID(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *HTTPServer) updateDecision(c *gin.Context) {
	claims, _ := ClaimsFrom(c.Request.Context())

	var req services.UpdateDecisionInput
	if err := decodeJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	d, err := s.decisions.Update(c.Request.Context(), claims.UserID(), c.Param("id"), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *HTTPServer) deleteDecision(c *gin.Context) {
	claims, _ := ClaimsFrom(c.Request.Context())

	if err := s.decisions.Delete(c.Request.Context(), claims.UserID(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Decision deleted successfully"})
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched; unparsable input becomes a validation error.
func decodeJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return common.NewValidationError(typeErr.Field, "Expected "+typeErr.Type.Kind().String())
	}
	return common.NewValidationError("body", "Invalid JSON body")
}
