package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestIdentity(t *testing.T) {
	valid := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"name":  "Ana",
		"email": "Ana@Example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"email": "ana@example.com",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"email": "ana@example.com"})
	noEmail := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"name": "Ana"})
	wrongAlg := signToken(t, jwt.SigningMethodHS384, []byte(testSecret), jwt.MapClaims{"email": "ana@example.com"})

	tests := []struct {
		name         string
		header       string
		expectStatus int
		expectEmail  string
	}{
		{"anonymous passes through", "", http.StatusOK, ""},
		{"valid token", "Bearer " + valid, http.StatusOK, "ana@example.com"},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, ""},
		{"missing email claim", "Bearer " + noEmail, http.StatusUnauthorized, ""},
		{"unexpected algorithm", "Bearer " + wrongAlg, http.StatusUnauthorized, ""},
		{"not a bearer scheme", "Basic abc", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotEmail string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if requester := RequesterFrom(r.Context()); requester != nil {
					gotEmail = requester.Email
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/mine", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			Identity(testSecret, testLogger())(next).ServeHTTP(w, req)

			if w.Code != tt.expectStatus {
				t.Fatalf("expected status %d, got %d", tt.expectStatus, w.Code)
			}
			if gotEmail != tt.expectEmail {
				t.Errorf("expected requester %q, got %q", tt.expectEmail, gotEmail)
			}
		})
	}
}

func TestInMemoryRateLimiter(t *testing.T) {
	limiter := NewInMemoryRateLimiter(2, time.Minute)
	defer limiter.Stop()
	ctx := context.Background()

	if !limiter.Allow(ctx, "a") || !limiter.Allow(ctx, "a") {
		t.Fatal("first two requests should pass")
	}
	if limiter.Allow(ctx, "a") {
		t.Error("third request within the window should be rejected")
	}
	if !limiter.Allow(ctx, "b") {
		t.Error("other keys are limited independently")
	}
}

func TestRequesterRateLimit(t *testing.T) {
	limiter := NewInMemoryRateLimiter(1, time.Minute)
	defer limiter.Stop()

	handler := RequesterRateLimit(limiter, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(email string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		if email != "" {
			req = req.WithContext(WithRequester(req.Context(), &model.Requester{Email: email}))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("ana@example.com"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := send("ana@example.com"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for repeated requester, got %d", code)
	}
	if code := send("bia@example.com"); code != http.StatusOK {
		t.Errorf("expected 200 for another requester, got %d", code)
	}
	if code := send(""); code != http.StatusOK {
		t.Errorf("expected 200 for first anonymous call, got %d", code)
	}
}

func TestIdempotency_ReplaysSuccessfulResponse(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	handler := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int32{"call": n})
	}))

	send := func(email, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(`{}`))
		req.Header.Set(IdempotencyHeader, key)
		req = req.WithContext(WithRequester(req.Context(), &model.Requester{Email: email}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	first := send("ana@example.com", "k1")
	second := send("ana@example.com", "k1")

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 twice, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
	if second.Header().Get(ReplayedHeader) != "true" {
		t.Errorf("expected replay marker header")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("handler should run once, ran %d times", calls)
	}

	send("bia@example.com", "k1")
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("same key from another requester must not replay")
	}
}

func TestIdempotency_DoesNotCacheFailures(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	handler := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)
		req.Header.Set(IdempotencyHeader, "k1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("failed responses must not be replayed, handler ran %d times", calls)
	}
}

func TestMaxRequestSize(t *testing.T) {
	handler := MaxRequestSize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	small := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, small)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for small body, got %d", w.Code)
	}

	large := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, large)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for large body, got %d", w.Code)
	}
}

func TestContentTypeValidation(t *testing.T) {
	handler := ContentTypeValidation(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name         string
		method       string
		contentType  string
		body         string
		expectStatus int
	}{
		{"json post", http.MethodPost, "application/json; charset=utf-8", `{}`, http.StatusOK},
		{"form post", http.MethodPost, "application/x-www-form-urlencoded", `a=b`, http.StatusUnsupportedMediaType},
		{"get without header", http.MethodGet, "", "", http.StatusOK},
		{"delete without body", http.MethodDelete, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/reservations", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.expectStatus {
				t.Errorf("expected %d, got %d", tt.expectStatus, w.Code)
			}
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	handler := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after timeout, got %d", w.Code)
	}
}

func TestRequestLogging_AssignsRequestID(t *testing.T) {
	var seen string
	handler := RequestLogging(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || w.Header().Get(RequestIDHeader) != seen {
		t.Errorf("expected request id in context and response header, got %q / %q", seen, w.Header().Get(RequestIDHeader))
	}
}
