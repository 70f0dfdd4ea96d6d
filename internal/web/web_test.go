package web

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/erazemk/inventur/internal/auth"
	"github.com/erazemk/inventur/internal/db"
	"github.com/erazemk/inventur/internal/model"
	"github.com/erazemk/inventur/internal/store"
)

type testEnv struct {
	server *httptest.Server
	db     *sql.DB
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	adminHash, err := auth.HashPassword("admin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.EnsureAdmin(ctx, database, "Admin", adminHash); err != nil {
		t.Fatal(err)
	}
	userHash, err := auth.HashPassword("1234")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateUser(ctx, database, "helper", userHash, model.RoleUser); err != nil {
		t.Fatal(err)
	}

	router, err := NewRouter(database, &auth.Sessions{DB: database, Secret: []byte("test-secret")})
	if err != nil {
		t.Fatalf("creating router: %v", err)
	}
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, db: database}
}

// newClient returns a client with a cookie jar that does not follow redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) get(t *testing.T, client *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (e *testEnv) submitLogin(t *testing.T, client *http.Client, username, password string) (*http.Response, string) {
	t.Helper()
	resp, err := client.PostForm(e.server.URL+"/login", url.Values{
		"username": {username},
		"password": {password},
	})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (e *testEnv) login(t *testing.T, username, password string) *http.Client {
	t.Helper()
	client := newClient(t)
	resp, _ := e.submitLogin(t, client, username, password)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login as %s: status %d", username, resp.StatusCode)
	}
	return client
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}

func TestRootRedirects(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := env.get(t, newClient(t), "/")
	expectRedirect(t, resp, "/login")

	resp, _ = env.get(t, env.login(t, "Admin", "admin"), "/")
	expectRedirect(t, resp, "/home")
}

func TestLoginPage(t *testing.T) {
	env := setupTestServer(t)
	client := newClient(t)

	resp, body := env.get(t, client, "/login")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `action="/login"`) {
		t.Fatalf("login page: status %d", resp.StatusCode)
	}

	resp, body = env.submitLogin(t, client, "Admin", "wrong")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: status %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Wrong username or password.") {
		t.Error("expected error message on login page")
	}
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			t.Error("failed login must not set a session cookie")
		}
	}

	resp, _ = env.submitLogin(t, client, "Admin", "admin")
	expectRedirect(t, resp, "/home")

	// Already signed in.
	resp, _ = env.get(t, client, "/login")
	expectRedirect(t, resp, "/home")
}

func TestPagesRequireSession(t *testing.T) {
	env := setupTestServer(t)
	client := newClient(t)

	for _, path := range []string{"/home", "/events", "/event_detail/1", "/users"} {
		resp, _ := env.get(t, client, path)
		expectRedirect(t, resp, "/login")
	}
}

func TestHomeShowsInventoryAndActiveEvent(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	item, err := store.CreateItem(ctx, env.db, "Beamer", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateItemField(ctx, env.db, item.ID, "quantity", 4); err != nil {
		t.Fatal(err)
	}
	event, err := store.CreateEvent(ctx, env.db, "Summer Fair")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.SetActiveEvent(ctx, env.db, &event.ID); err != nil {
		t.Fatal(err)
	}

	resp, body := env.get(t, env.login(t, "helper", "1234"), "/home")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{"Beamer", "Active event:", "Summer Fair", model.DefaultGroupName} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	if strings.Contains(body, `href="/users"`) {
		t.Error("users link shown to a non-admin")
	}
}

func TestHomeStockStepAndLanguageControls(t *testing.T) {
	env := setupTestServer(t)
	if _, err := store.CreateItem(context.Background(), env.db, "Lamp", ""); err != nil {
		t.Fatal(err)
	}

	_, body := env.get(t, env.login(t, "Admin", "admin"), "/home")
	for _, want := range []string{`data-step="-1"`, `data-step="1"`, `data-lang-toggle`, `data-i18n="available"`} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %s", want)
		}
	}

	_, script := env.get(t, newClient(t), "/static/app.js")
	for _, want := range []string{"[data-step]", "Verfügbar", "localStorage"} {
		if !strings.Contains(script, want) {
			t.Errorf("app.js missing %q", want)
		}
	}
}

func TestEventDetail(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	client := env.login(t, "Admin", "admin")

	item, err := store.CreateItem(ctx, env.db, "Cable", "")
	if err != nil {
		t.Fatal(err)
	}
	event, err := store.CreateEvent(ctx, env.db, "Concert")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AssignItem(ctx, env.db, event.ID, item.ID, 2); err != nil {
		t.Fatal(err)
	}

	resp, body := env.get(t, client, "/event_detail/"+itoa(event.ID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Concert") || !strings.Contains(body, "Cable") {
		t.Error("event detail missing event or assigned item")
	}

	resp, _ = env.get(t, client, "/event_detail/999")
	expectRedirect(t, resp, "/events")
	resp, _ = env.get(t, client, "/event_detail/abc")
	expectRedirect(t, resp, "/events")
}

func TestUsersPageAdminOnly(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := env.get(t, env.login(t, "helper", "1234"), "/users")
	expectRedirect(t, resp, "/home")

	resp, body := env.get(t, env.login(t, "Admin", "admin"), "/users")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "helper") || !strings.Contains(body, model.RoleAdmin) {
		t.Error("users page missing users or roles")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	env := setupTestServer(t)
	client := env.login(t, "Admin", "admin")

	u, _ := url.Parse(env.server.URL)
	var token string
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == auth.CookieName {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatal("no session cookie after login")
	}

	resp, _ := env.get(t, client, "/logout")
	expectRedirect(t, resp, "/login")

	// Replaying the old token must not work.
	replay := newClient(t)
	replay.Jar.SetCookies(u, []*http.Cookie{{Name: auth.CookieName, Value: token, Path: "/"}})
	resp, _ = env.get(t, replay, "/home")
	expectRedirect(t, resp, "/login")
}

func TestStaticAssets(t *testing.T) {
	env := setupTestServer(t)

	for _, path := range []string{"/static/style.css", "/static/app.js"} {
		resp, body := env.get(t, newClient(t), path)
		if resp.StatusCode != http.StatusOK || body == "" {
			t.Errorf("GET %s: status %d", path, resp.StatusCode)
		}
	}
}

func TestStockClass(t *testing.T) {
	stockClass := FuncMap()["stockClass"].(func(int) string)
	tests := map[int]string{-1: "over", 0: "empty", 3: ""}
	for in, want := range tests {
		if got := stockClass(in); got != want {
			t.Errorf("stockClass(%d) = %q, want %q", in, got, want)
		}
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
