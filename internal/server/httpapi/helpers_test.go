package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/logging"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/config"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/services"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/validation"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	srv    *HTTPServer
	issuer *auth.Issuer
}

func newTestEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StoragePath = filepath.Join(t.TempDir(), "dk.db")
	cfg.RateLimit = 1000
	for _, f := range tweak {
		f(cfg)
	}

	ctx := context.Background()
	store, err := repomanager.OpenSQLite(ctx, cfg.StoragePath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.RunMigrations(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hasher, err := auth.NewPasswordHasher(config.HasherBcrypt, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	pool := auth.NewHashPool(hasher, 0)
	issuer := auth.NewIssuer([]byte(cfg.SecretKey), cfg.SessionTTL)
	v := validation.New()

	limiter := ratelimit.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow)
	t.Cleanup(func() { _ = limiter.Close() })

	srv := NewHTTPServer(cfg, logging.Nop{},
		services.NewUserService(store, pool, issuer, v),
		services.NewDecisionService(store, v),
		issuer, limiter)

	return &testEnv{srv: srv, issuer: issuer}
}

type reqOpt func(*http.Request)

func withCookie(token string) reqOpt {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: token})
	}
}

func withBearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}

	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

// login registers (if needed) and logs in, returning the session token.
func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	e.do(t, http.MethodPost, "/api/register", map[string]string{"email": email, "password": password})

	w := e.do(t, http.MethodPost, "/api/login", map[string]string{"email": email, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, w.Code, w.Body.String())
	}
	c := sessionCookie(t, w)
	return c.Value
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %q cookie in response", common.SessionCookieName)
	return nil
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

type decisionJSON struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}
