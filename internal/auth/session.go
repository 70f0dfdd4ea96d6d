package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/inventur/internal/model"
	"github.com/erazemk/inventur/internal/ratelimit"
	"github.com/erazemk/inventur/internal/store"
)

// Session errors. Both login failures share one message so a caller cannot
// tell an unknown user from a wrong password.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNoSession          = errors.New("not authenticated")
)

// ThrottledError is returned by Login while a client is locked out.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed logins, retry in %s", e.RetryAfter.Round(time.Second))
}

// Sessions issues, resolves and revokes login sessions.
type Sessions struct {
	DB      *sql.DB
	Secret  []byte
	Limiter *ratelimit.Limiter
}

// Login checks a username and password and returns a signed session token.
func (s *Sessions) Login(ctx context.Context, client, username, password string) (string, *Claims, error) {
	if blocked, retry := s.Limiter.Blocked(ctx, client, username); blocked {
		slog.Warn("login throttled", "username", username, "client", client)
		return "", nil, &ThrottledError{RetryAfter: retry}
	}

	user, err := store.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		return "", nil, err
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if password == "" || !CheckPassword(hash, password) {
		n := s.Limiter.Fail(ctx, client, username)
		slog.Warn("login failed", "username", username, "client", client, "failures", n)
		return "", nil, ErrInvalidCredentials
	}

	s.Limiter.Reset(ctx, client, username)

	token, claims, err := GenerateToken(s.Secret, user)
	if err != nil {
		return "", nil, err
	}
	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	return token, claims, nil
}

// Resolve turns a token into the current identity. The user row is read again
// so a changed role or a deleted account takes effect on the next request.
func (s *Sessions) Resolve(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	claims, err := ValidateToken(s.Secret, token)
	if err != nil {
		return nil, ErrNoSession
	}

	revoked, err := store.IsTokenRevoked(ctx, s.DB, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrNoSession
	}

	user, err := store.GetUser(ctx, s.DB, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoSession
	}
	claims.Username = user.Username
	claims.Role = user.Role
	return claims, nil
}

// Logout revokes the session's token ID until the token would expire.
func (s *Sessions) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	if err := store.RevokeToken(ctx, s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	if _, err := store.PurgeRevokedTokens(ctx, s.DB, time.Now()); err != nil {
		slog.Warn("failed to purge revoked tokens", "error", err)
	}
	slog.Info("user logged out", "user", claims.Username)
	return nil
}

// TokenFromRequest returns the session token from the cookie or, for API
// clients, from an "Authorization: Bearer" header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// SetCookie stores a session token in the browser.
func SetCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
}

// ClearCookie removes the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClientIP returns the remote host of a request, used to key login throttling.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type contextKey struct{}

// WithClaims attaches the resolved identity to ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ClaimsFrom returns the identity attached by WithClaims, or nil.
func ClaimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(contextKey{}).(*Claims)
	return c
}

// IsAdmin reports whether the identity has the Administrator role.
func (c *Claims) IsAdmin() bool {
	return c != nil && model.RoleAtLeast(c.Role, model.RoleAdmin)
}
