package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventur/internal/auth"
)

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Sessions.Resolve(r.Context(), auth.TokenFromRequest(r)); err == nil {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Sessions.Resolve(r.Context(), auth.TokenFromRequest(r)); err == nil {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, http.StatusOK, "login.html", &PageData{Title: "Login"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	token, _, err := s.Sessions.Login(r.Context(), auth.ClientIP(r), username, password)
	if err != nil {
		status, msg := http.StatusUnauthorized, "Wrong username or password."
		var throttled *auth.ThrottledError
		switch {
		case errors.As(err, &throttled):
			status, msg = http.StatusTooManyRequests, "Too many failed attempts. Try again later."
		case !errors.Is(err, auth.ErrInvalidCredentials):
			slog.Error("login failed", "error", err)
			status, msg = http.StatusInternalServerError, "Login failed."
		}
		s.Templates.Render(w, status, "login.html", &PageData{Title: "Login", Error: msg})
		return
	}

	auth.SetCookie(w, r, token)
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// Logout handles GET /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, err := s.Sessions.Resolve(r.Context(), auth.TokenFromRequest(r)); err == nil {
		if err := s.Sessions.Logout(r.Context(), claims); err != nil {
			slog.Error("failed to revoke token", "error", err)
		}
	}
	auth.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
