package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/casegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
	"github.com/yungbote/casegen-backend/internal/services"
)

func authRouter(t *testing.T, cfg services.IdentityConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	identity, err := services.NewIdentityService(logger.Nop(), cfg)
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	r := gin.New()
	r.Use(NewAuthMiddleware(logger.Nop(), identity).RequireAuth())
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.UserID(c.Request.Context()))
	})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	r := authRouter(t, services.IdentityConfig{SecretKey: "k"})
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-9",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if rec := get(r, token); rec.Code != http.StatusOK || rec.Body.String() != "user-9" {
		t.Fatalf("valid token: got=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec := get(r, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got=%d", rec.Code)
	}
	if rec := get(r, "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got=%d", rec.Code)
	}
}

func TestRequireAuthNotConfigured(t *testing.T) {
	r := authRouter(t, services.IdentityConfig{})

	rec := get(r, "")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusInternalServerError)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "auth_not_configured" || body["error"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCORSAllowsConfiguredOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://qa.example.com, http://localhost:5173")

	r := gin.New()
	r.Use(CORS())
	r.OPTIONS("/testcases", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, origin := range []string{"https://qa.example.com", "http://localhost:5173"} {
		req := httptest.NewRequest(http.MethodOptions, "/testcases", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Fatalf("unexpected allow origin for %s: got=%q", origin, got)
		}
	}
}

func TestAttachTraceContextEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-Id") != "req-123" {
		t.Fatalf("request id not echoed: %q", rec.Header().Get("X-Request-Id"))
	}
	if seen == nil || seen.RequestID != "req-123" || seen.TraceID == "" {
		t.Fatalf("trace data not attached: %+v", seen)
	}
}
