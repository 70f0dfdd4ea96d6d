package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventur/internal/auth"
	"github.com/erazemk/inventur/internal/model"
	"github.com/erazemk/inventur/internal/store"
	webembed "github.com/erazemk/inventur/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"stockClass": func(available int) string {
			switch {
			case available < 0:
				return "over"
			case available == 0:
				return "empty"
			default:
				return ""
			}
		},
	}
}

var pages = []string{
	"login.html",
	"home.html",
	"events.html",
	"event_detail.html",
	"users.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl, err := template.New(page).Funcs(FuncMap()).Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		if tmpl, err = tmpl.Parse(string(pageBytes)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title  string
	Nav    string
	User   *auth.Claims
	Active *model.Event
	Error  string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Sessions  *auth.Sessions
	Templates *Templates
}

// page builds the common page data, including the active event banner.
func (s *Server) page(r *http.Request, title, nav string) PageData {
	active, err := store.GetActiveEvent(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to load active event", "error", err)
	}
	return PageData{Title: title, Nav: nav, User: auth.ClaimsFrom(r.Context()), Active: active}
}
