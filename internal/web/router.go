package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/inventur/internal/auth"
	webembed "github.com/erazemk/inventur/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, sessions *auth.Sessions) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Sessions:  sessions,
		Templates: templates,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(sessions)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /{$}", s.Root)
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /home", cookieAuth(http.HandlerFunc(s.Home)))
	mux.Handle("GET /events", cookieAuth(http.HandlerFunc(s.Events)))
	mux.Handle("GET /event_detail/{id}", cookieAuth(http.HandlerFunc(s.EventDetail)))
	mux.Handle("GET /users", cookieAuth(requireAdmin(http.HandlerFunc(s.Users))))

	return mux, nil
}
