// Package http exposes the finance services as a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/marcim390/financeapp/internal/log"
	"github.com/marcim390/financeapp/internal/metrics"
	"github.com/marcim390/financeapp/internal/middleware/ratelimit"
	"github.com/marcim390/financeapp/internal/middleware/security"
	"github.com/marcim390/financeapp/internal/middleware/trace"
	"github.com/marcim390/financeapp/internal/services"
)

// Services are the use cases behind the API.
type Services struct {
	Accounts      *services.AccountService
	Invitations   *services.InvitationService
	Expenses      *services.ExpenseService
	Recurring     *services.RecurringService
	Notifications *services.NotificationService
}

// Options tune the transport.
type Options struct {
	JWTSecret          []byte
	RateLimitPerMinute int
	// TrustedProxies are CIDRs, besides private ranges, allowed to set
	// X-Forwarded-For.
	TrustedProxies []string
	// Ready reports backend health for /readyz. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
}

type Server struct {
	http.Server
	svc      Services
	auth     *Authenticator
	limiter  *ratelimit.Limiter
	detector *security.Detector
	ready    func(context.Context) error
	logger   *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc Services, opts Options) (*Server, error) {
	if len(opts.JWTSecret) == 0 {
		return nil, errors.New("http: JWT secret is required")
	}
	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:      svc,
		auth:     NewAuthenticator(opts.JWTSecret, svc.Accounts),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: detector,
		ready:    opts.Ready,
		logger:   logger,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	s.public(mux, "POST /api/registration/complete", s.handleCompleteRegistration)

	s.private(mux, "POST /api/invitations", s.handleSendInvitation)
	s.private(mux, "GET /api/invitations", s.handleListInvitations)
	s.private(mux, "POST /api/invitations/{id}/accept", s.handleAcceptInvitation)
	s.private(mux, "POST /api/invitations/{id}/reject", s.handleRejectInvitation)
	s.private(mux, "DELETE /api/invitations/{id}", s.handleCancelInvitation)
	s.private(mux, "GET /api/couple", s.handleGetCouple)
	s.private(mux, "DELETE /api/couple/{id}", s.handleBreakCouple)

	s.private(mux, "GET /api/profile", s.handleGetProfile)
	s.private(mux, "PATCH /api/profile", s.handleUpdateProfile)
	s.private(mux, "GET /api/profile/limit", s.handleTransactionLimit)

	s.private(mux, "GET /api/expenses", s.handleListExpenses)
	s.private(mux, "POST /api/expenses", s.handleCreateExpense)
	s.private(mux, "PUT /api/expenses/{id}", s.handleUpdateExpense)
	s.private(mux, "DELETE /api/expenses/{id}", s.handleDeleteExpense)
	s.private(mux, "GET /api/summary", s.handleSummary)

	s.private(mux, "GET /api/categories", s.handleListCategories)
	s.private(mux, "POST /api/categories", s.handleCreateCategory)
	s.private(mux, "PUT /api/categories/{id}", s.handleUpdateCategory)
	s.private(mux, "DELETE /api/categories/{id}", s.handleDeleteCategory)

	s.private(mux, "GET /api/recurring", s.handleListRecurring)
	s.private(mux, "POST /api/recurring", s.handleCreateRecurring)
	s.private(mux, "GET /api/recurring/status", s.handleRecurringStatus)
	s.private(mux, "PUT /api/recurring/{id}", s.handleUpdateRecurring)
	s.private(mux, "DELETE /api/recurring/{id}", s.handleDeleteRecurring)
	s.private(mux, "POST /api/recurring/{id}/pay", s.handleMarkAsPaid)
	s.private(mux, "POST /api/recurring/{id}/active", s.handleSetActive)

	s.private(mux, "GET /api/settings/notifications", s.handleGetSettings)
	s.private(mux, "PUT /api/settings/notifications", s.handleSaveSettings)
	s.private(mux, "GET /api/notifications", s.handleActiveNotifications)

	s.private(mux, "GET /api/admin/notifications", s.handleAdminListNotifications)
	s.private(mux, "POST /api/admin/notifications", s.handleAdminCreateNotification)
	s.private(mux, "POST /api/admin/notifications/{id}/toggle", s.handleAdminToggleNotification)
	s.private(mux, "DELETE /api/admin/notifications/{id}", s.handleAdminDeleteNotification)
	s.private(mux, "GET /api/admin/users", s.handleAdminListUsers)
	s.private(mux, "POST /api/admin/users/{id}/plan", s.handleAdminSetPlan)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "no such route"})
	})
}

func (s *Server) public(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, instrument(pattern, h))
}

func (s *Server) private(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, instrument(pattern, s.auth.Middleware(h)))
}

// middleware wraps the mux, outermost first: tracing, context logger,
// security headers, request screening, rate limiting.
func (s *Server) middleware(next http.Handler) http.Handler {
	access := log.NewAccessLogger(s.logger, trace.GetRequestID, "/healthz", "/readyz", "/metrics")
	onComplete := func(r *http.Request, status int, elapsed time.Duration) {
		access.Completed(r.Context(), r, status, elapsed, s.detector.ExtractClientIP(r))
	}

	h := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(next)
	h = s.detector.Middleware(false, func(r *http.Request, reason string) {
		log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			"reason", reason)
	})(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(h)
	h = log.Middleware(s.logger)(h)
	return trace.NewMiddleware(onComplete).Middleware(h)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r))
	writeError(w, r, errRateLimited)
}

// instrument records request count and latency under the route pattern.
func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wroteHeader {
		rec.status = code
		rec.wroteHeader = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
