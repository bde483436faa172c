package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcim390/financeapp/internal/email"
	"github.com/marcim390/financeapp/internal/kv"
	"github.com/marcim390/financeapp/internal/log"
	"github.com/marcim390/financeapp/internal/middleware/trace"
	"github.com/marcim390/financeapp/internal/services"
	"github.com/marcim390/financeapp/internal/storage/memory"
)

var testSecret = []byte("test-secret-that-is-long-enough-for-hs256")

type mailbox struct {
	mu   sync.Mutex
	sent []email.Message
}

func (m *mailbox) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mailbox) messages() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Message(nil), m.sent...)
}

type testAPI struct {
	t     *testing.T
	srv   *Server
	gw    *memory.Store
	mail  *mailbox
	ready error
}

func newTestAPI(t *testing.T, opts ...func(*Options)) *testAPI {
	t.Helper()
	api := &testAPI{t: t, gw: memory.New(), mail: &mailbox{}}

	accounts := services.NewAccountService(api.gw)
	svc := Services{
		Accounts:      accounts,
		Invitations:   services.NewInvitationService(api.gw, api.mail, services.InvitationConfig{BaseURL: "https://app.example.com"}),
		Expenses:      services.NewExpenseService(api.gw, accounts),
		Recurring:     services.NewRecurringService(api.gw, accounts),
		Notifications: services.NewNotificationService(api.gw, kv.NewMemory(100), api.mail),
	}
	o := Options{
		JWTSecret:          testSecret,
		RateLimitPerMinute: 1000,
		Ready:              func(context.Context) error { return api.ready },
		Logger:             log.New(log.Config{Output: io.Discard, Component: "test"}),
	}
	for _, fn := range opts {
		fn(&o)
	}

	srv, err := NewServer("127.0.0.1:0", svc, o)
	require.NoError(t, err)
	t.Cleanup(func() { srv.limiter.Stop() })
	api.srv = srv
	return api
}

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return tok
}

// token signs a valid token for profile id with its email.
func (a *testAPI) token(id, addr string) string {
	return signToken(a.t, testSecret, jwt.SigningMethodHS256, Claims{
		Email: addr,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthReadyMetrics(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	api.ready = errors.New("database is gone")
	rec = api.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	api.do(http.MethodGet, "/api/profile", "", nil)
	rec = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `financeapp_http_requests_total{code="401",method="GET",route="GET /api/profile"}`)
}

func TestCommonHeaders(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(trace.HeaderRequestID))
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Error)
}

func TestAuthentication(t *testing.T) {
	api := newTestAPI(t)
	valid := jwt.RegisteredClaims{Subject: "ana", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", signToken(t, []byte("another-secret-another-secret-xx"), jwt.SigningMethodHS256, Claims{Email: "ana@example.com", RegisteredClaims: valid})},
		{"wrong algorithm", signToken(t, testSecret, jwt.SigningMethodHS512, Claims{Email: "ana@example.com", RegisteredClaims: valid})},
		{"expired", signToken(t, testSecret, jwt.SigningMethodHS256, Claims{Email: "ana@example.com", RegisteredClaims: jwt.RegisteredClaims{
			Subject: "ana", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}})},
		{"no expiry", signToken(t, testSecret, jwt.SigningMethodHS256, Claims{Email: "ana@example.com", RegisteredClaims: jwt.RegisteredClaims{Subject: "ana"}})},
		{"no subject", signToken(t, testSecret, jwt.SigningMethodHS256, Claims{Email: "ana@example.com", RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})},
		{"unknown profile without email", signToken(t, testSecret, jwt.SigningMethodHS256, Claims{RegisteredClaims: valid})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodGet, "/api/profile", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthenticated", decode[errorBody](t, rec).Error)
		})
	}
}

func TestFirstSignInCreatesProfile(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token("ana", "Ana@Example.com")

	rec := api.do(http.MethodGet, "/api/profile", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ana", body["id"])
	assert.Equal(t, "ana@example.com", body["email"])
	assert.Equal(t, "free", body["plan_type"])
	assert.NotContains(t, body, "PasswordHash")

	rec = api.do(http.MethodGet, "/api/categories", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]map[string]any](t, rec), "default categories are seeded")
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, func(o *Options) { o.RateLimitPerMinute = 2 })

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", nil).Code)

	rec := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decode[errorBody](t, rec).Error)
}

func TestNewServerRequiresSecret(t *testing.T) {
	_, err := NewServer(":0", Services{}, Options{})
	assert.Error(t, err)

	_, err = NewServer(":0", Services{}, Options{JWTSecret: testSecret, TrustedProxies: []string{"bogus"}})
	assert.Error(t, err)
}

func TestShutdownTwice(t *testing.T) {
	api := newTestAPI(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, api.srv.Shutdown(ctx))
	assert.NoError(t, api.srv.Shutdown(ctx))
}
