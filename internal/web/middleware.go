package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventur/internal/auth"
)

// CookieAuthMiddleware resolves the session cookie and adds the identity to
// the context. Visitors without a valid session are sent to the login page.
func CookieAuthMiddleware(sessions *auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := sessions.Resolve(r.Context(), auth.TokenFromRequest(r))
			if errors.Is(err, auth.ErrNoSession) {
				auth.ClearCookie(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if err != nil {
				slog.Error("failed to resolve session", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// requireAdmin sends non-administrators back to the home page.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.ClaimsFrom(r.Context()).IsAdmin() {
			http.Redirect(w, r, "/home", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
