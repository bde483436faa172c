package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/log"
	"github.com/marcim390/financeapp/internal/services"
)

type contextKey string

const profileIDKey contextKey = "profile_id"

// Claims is the bearer token payload. Subject is the profile id; Email is
// used to create the profile on first sign-in.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens issued by the hosted auth.
type Authenticator struct {
	secret   []byte
	accounts *services.AccountService
	parser   *jwt.Parser
}

func NewAuthenticator(secret []byte, accounts *services.AccountService) *Authenticator {
	return &Authenticator{
		secret:   secret,
		accounts: accounts,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

// Authenticate returns the caller's profile id, creating the profile on the
// first authenticated request.
func (a *Authenticator) Authenticate(r *http.Request) (string, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errUnauthenticated
	}

	var claims Claims
	if _, err := a.parser.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}); err != nil {
		return "", fmt.Errorf("%w: %v", errUnauthenticated, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", errUnauthenticated)
	}

	p, err := a.accounts.GetProfile(r.Context(), claims.Subject)
	if errors.Is(err, core.ErrNotFound) {
		if claims.Email == "" {
			return "", fmt.Errorf("%w: unknown profile", errUnauthenticated)
		}
		p, err = a.accounts.EnsureProfile(r.Context(), claims.Subject, claims.Email)
	}
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// Middleware rejects unauthenticated requests and stores the profile id in
// the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Authenticate(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), profileIDKey, id)
		logger := log.FromContext(ctx).With(log.FieldProfileID, id)
		next.ServeHTTP(w, r.WithContext(log.WithLogger(ctx, logger)))
	})
}

func profileID(ctx context.Context) string {
	id, _ := ctx.Value(profileIDKey).(string)
	return id
}
