package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type loggerKey struct{}

// Middleware puts logger into every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the request logger, or one over the slog default with
// component "unknown".
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// RequestIDMiddleware tags the context logger with the request id.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// AccessLogger writes one record per finished request. Successful hits on
// quiet paths (health checks) drop to debug.
type AccessLogger struct {
	logger    *Logger
	requestID func(context.Context) string
	quiet     map[string]bool
}

// NewAccessLogger builds an access logger. requestID may be nil.
func NewAccessLogger(logger *Logger, requestID func(context.Context) string, quietPaths ...string) *AccessLogger {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}
	return &AccessLogger{logger: logger, requestID: requestID, quiet: quiet}
}

// Completed logs the request at a level derived from its status.
func (a *AccessLogger) Completed(ctx context.Context, r *http.Request, status int, elapsed time.Duration, clientIP string) {
	level := levelForStatus(status)
	if level == slog.LevelInfo && a.quiet[r.URL.Path] {
		level = slog.LevelDebug
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithHTTPResponse(status, elapsed.Milliseconds(), status < 400).
		WithClientIP(clientIP).
		WithComponent(a.logger.Component())
	if a.requestID != nil {
		fields.WithRequestID(a.requestID(ctx))
	}

	a.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// RequestFailed records an error answered with status. Server faults go out
// at error level, caller mistakes at debug.
func RequestFailed(ctx context.Context, err error, status int, op string) {
	fields := NewFields().WithError(err).WithOperation(op)
	fields[FieldStatusCode] = status

	logger := FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "Request failed", fields.ToSlice()...)
		return
	}
	logger.DebugContext(ctx, "Request rejected", fields.ToSlice()...)
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
