package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"roomly/pkg/client"
	"roomly/pkg/config"
	"roomly/pkg/logger"
	"roomly/pkg/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

const testSecret = "test-secret"

type whoamiHandler struct {
	calls atomic.Int32
}

func (h *whoamiHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/whoami", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.calls.Add(1)
		requester := middleware.RequesterFrom(r.Context())
		if requester == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, requester.Email)
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Port:              config.DefaultPort,
		JWTSecret:         testSecret,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    config.DefaultMaxRequestSize,
		ShutdownTimeout:   time.Second,
		Log:               logger.New(logger.Config{Output: io.Discard}),
		Client:            client.NewClient(),
	}
}

func newTestApp(t *testing.T, h *whoamiHandler) *Application {
	t.Helper()
	a := NewApplication(testConfig())
	a.SetApp(h)
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.rateLimiter.Stop()
	})
	return a
}

func bearer(t *testing.T, email string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name":  "Ana",
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthEndpoints(t *testing.T) {
	a := newTestApp(t, &whoamiHandler{})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/health", wantStatus: http.StatusOK},
		// no store connection is configured
		{path: "/ready", wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAppChain_Identity(t *testing.T) {
	tests := []struct {
		name       string
		auth       string
		wantStatus int
		wantBody   string
	}{
		{name: "anonymous passes through", wantStatus: http.StatusNoContent},
		{name: "valid token", auth: "valid", wantStatus: http.StatusCreated, wantBody: "ana@example.com"},
		{name: "garbage token", auth: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &whoamiHandler{}
			a := newTestApp(t, h)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/whoami", strings.NewReader("{}"))
			req.Header.Set("Content-Type", "application/json")
			switch tt.auth {
			case "":
			case "valid":
				req.Header.Set("Authorization", bearer(t, "Ana@Example.com"))
			default:
				req.Header.Set("Authorization", tt.auth)
			}

			rec := httptest.NewRecorder()
			a.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAppChain_IdempotentReplay(t *testing.T) {
	h := &whoamiHandler{}
	a := newTestApp(t, h)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/whoami", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer(t, "ana@example.com"))
		req.Header.Set(middleware.IdempotencyHeader, "same-key")
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, req)
		return rec
	}

	first := send()
	second := send()

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("statuses = %d, %d, want 201 twice", first.Code, second.Code)
	}
	if got := h.calls.Load(); got != 1 {
		t.Errorf("handler calls = %d, want 1", got)
	}
}
