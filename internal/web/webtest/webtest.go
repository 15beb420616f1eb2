// Package webtest builds a complete api on an in-memory database for handler tests.
package webtest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/config"
	"github.com/seqvault/seqvault/internal/db/models"
	"github.com/seqvault/seqvault/internal/db/testdb"
	"github.com/seqvault/seqvault/internal/objectstore"
	"github.com/seqvault/seqvault/internal/web"
	"github.com/seqvault/seqvault/internal/web/handler"
	"github.com/seqvault/seqvault/internal/web/session"
)

// AdminEmail is listed in Dataset.AdminUsers of the test config.
const AdminEmail = "admin@example.org"

// Env is a running api with its services.
type Env struct {
	t        *testing.T
	Services *handler.Services
	Web      *web.Service
	App      *fiber.App
}

// Config returns the config used by New.
func Config() *config.Config {
	return &config.Config{
		Title:   "seqvault-test",
		DevMode: true,
		Webserver: config.Webserver{
			Port:    8080,
			URL:     "http://localhost:8080",
			Session: config.Session{ExpiryTime: time.Hour},
		},
		Security: config.Security{IDSecret: "webtest-secret"},
		Dataset: config.Dataset{
			AllowUserDatasetPurge: true,
			AdminUsers:            []string{AdminEmail},
			PrincipalCacheTTL:     time.Minute,
		},
	}
}

// New returns an api built from cfg, Config() when cfg is nil.
func New(t *testing.T, cfg *config.Config) *Env {
	t.Helper()

	if cfg == nil {
		cfg = Config()
	}

	db := testdb.Open(t)
	files := objectstore.New(afero.NewMemMapFs(), "/objects")

	svc, err := handler.NewServices(cfg, db, files, session.NewGormStorage(db))
	require.NoError(t, err)

	ws, err := web.New(svc, true)
	require.NoError(t, err)

	return &Env{t: t, Services: svc, Web: ws, App: ws.App}
}

// User creates a user with password "password-<name>" and email "<name>@example.org".
func (e *Env) User(name string) (*models.User, *auth.Principal) {
	e.t.Helper()

	ctx := context.Background()

	u, err := e.Services.Users.CreateUser(ctx, auth.CreateUserOptions{
		Username: name,
		Email:    name + "@example.org",
		Password: "password-" + name,
	})
	require.NoError(e.t, err)

	p, err := e.Services.Users.Principal(ctx, u.ID)
	require.NoError(e.t, err)

	return u, p
}

// Login logs name in and returns the session cookie.
func (e *Env) Login(name string) *http.Cookie {
	e.t.Helper()

	resp := e.Do(http.MethodPost, "/api/login", map[string]string{
		"username": name,
		"password": "password-" + name,
	}, nil)
	require.Equal(e.t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}

	e.t.Fatalf("login of %s set no session cookie", name)

	return nil
}

// Do sends a request with body encoded as json. The response body is buffered
// so callers need not close it.
func (e *Env) Do(method, target string, body any, cookie *http.Cookie) *http.Response {
	e.t.Helper()

	var reader io.Reader

	if body != nil {
		raw, ok := body.([]byte)
		if !ok {
			var err error
			raw, err = json.Marshal(body)
			require.NoError(e.t, err)
		}

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := e.App.Test(req)
	require.NoError(e.t, err)

	buf, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	_ = resp.Body.Close()

	resp.Body = io.NopCloser(bytes.NewReader(buf))

	return resp
}

// Decode reads the json body of resp into a T.
func Decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}
