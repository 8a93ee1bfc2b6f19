package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/config"
	"github.com/gin-gonic/gin"
)

type cookieSettings struct {
	secure   bool
	sameSite http.SameSite
	maxAge   int
}

func newCookieSettings(cfg *config.Config, ttl time.Duration) cookieSettings {
	cs := cookieSettings{secure: cfg.CookieSecure, sameSite: http.SameSiteStrictMode, maxAge: int(ttl.Seconds())}

	switch strings.ToLower(cfg.CookieSameSite) {
	case "lax":
		cs.sameSite = http.SameSiteLaxMode
	case "none":
		// Browsers drop SameSite=None cookies that are not Secure.
		cs.sameSite = http.SameSiteNoneMode
		cs.secure = true
	}
	return cs
}

func (s *HTTPServer) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(s.cookie.sameSite)
	c.SetCookie(common.SessionCookieName, token, s.cookie.maxAge, "/", "", s.cookie.secure, true)
}

func (s *HTTPServer) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(s.cookie.sameSite)
	c.SetCookie(common.SessionCookieName, "", -1, "/", "", s.cookie.secure, true)
}
