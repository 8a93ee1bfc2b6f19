// Package httpapi serves the Decision Keeper JSON API over gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/logging"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/config"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var listen = net.Listen

type HTTPServer struct {
	address         string
	shutdownTimeout time.Duration
	cookie          cookieSettings
	logger          logging.Logger
	users           *services.UserService
	decisions       *services.DecisionService
	issuer          *auth.Issuer
	limiter         ratelimit.Limiter
	started         time.Time
	engine          *gin.Engine
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us *services.UserService, ds *services.DecisionService,
	issuer *auth.Issuer, limiter ratelimit.Limiter) *HTTPServer {

	s := &HTTPServer{
		address:         cfg.EndpointAddr,
		shutdownTimeout: cfg.ShutdownTimeout,
		cookie:          newCookieSettings(cfg, issuer.TTL()),
		logger:          l.With("module", "http_server"),
		users:           us,
		decisions:       ds,
		issuer:          issuer,
		limiter:         limiter,
		started:         time.Now(),
	}
	s.engine = s.newRouter(cfg.CORSOrigins)
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) newRouter(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(s.requestID(), s.requestLogger(), gin.CustomRecovery(s.recovered))
	r.Use(cors.New(corsConfig(origins)))

	api := r.Group("/api")
	api.GET("/health", s.health)

	throttled := api.Group("", ratelimit.Middleware(s.limiter, s.logger, s.writeError))
	throttled.POST("/register", s.register)
	throttled.POST("/login", s.login)
	api.POST("/logout", s.logout)

	authed := api.Group("", s.requireSession())
	authed.GET("/me", s.me)
	authed.GET("/decisions", s.listDecisions)
	authed.POST("/decisions", s.createDecision)
	authed.GET("/decisions/:id", s.getDecision)
	authed.PUT("/decisions/:id", s.updateDecision)
	authed.DELETE("/decisions/:id", s.deleteDecision)

	r.NoRoute(func(c *gin.Context) {
		if c.Request.URL.Path == "/api" || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"message": "API route not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		// Reflect any origin; a literal "*" is not allowed with credentials.
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Run serves until ctx is cancelled or serving fails, then drains in-flight
// requests for at most the configured shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := listen("tcp", s.address)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-stopped
		return err
	}

	return <-stopped
}
