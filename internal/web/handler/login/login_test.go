package login_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqvault/seqvault/internal/web"
	"github.com/seqvault/seqvault/internal/web/handler/login"
	"github.com/seqvault/seqvault/internal/web/session"
	"github.com/seqvault/seqvault/internal/web/webtest"
)

func TestPost(t *testing.T) {
	env := webtest.New(t, nil)
	alice, _ := env.User("alice")

	inactive, _ := env.User("bob")
	require.NoError(t, env.Services.DB.Model(inactive).Update("active", false).Error)

	testCases := []struct {
		name       string
		body       any
		wantStatus int
		wantErr    string
	}{
		{
			name:       "username",
			body:       login.Request{Username: "alice", Password: "password-alice"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "email",
			body:       login.Request{Username: "alice@example.org", Password: "password-alice"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong password",
			body:       login.Request{Username: "alice", Password: "nope"},
			wantStatus: http.StatusUnauthorized,
			wantErr:    login.ErrInvalidCredentials.Error(),
		},
		{
			name:       "unknown user",
			body:       login.Request{Username: "mallory", Password: "password-mallory"},
			wantStatus: http.StatusUnauthorized,
			wantErr:    login.ErrInvalidCredentials.Error(),
		},
		{
			name:       "inactive user",
			body:       login.Request{Username: "bob", Password: "password-bob"},
			wantStatus: http.StatusUnauthorized,
			wantErr:    login.ErrInvalidCredentials.Error(),
		},
		{
			name:       "missing password",
			body:       map[string]string{"username": "alice"},
			wantStatus: http.StatusBadRequest,
			wantErr:    "validation failed",
		},
		{
			name:       "not json",
			body:       []byte("username=alice"),
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid request body",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.Do(http.MethodPost, login.Path, tc.body, nil)
			require.Equal(t, tc.wantStatus, resp.StatusCode)

			if tc.wantErr != "" {
				out := webtest.Decode[web.ErrorResponse](t, resp)
				assert.Equal(t, tc.wantErr, out.Message)

				return
			}

			out := webtest.Decode[login.Response](t, resp)
			assert.Equal(t, env.Services.Codec.Encode(alice.ID), out.ID)
			assert.Equal(t, "alice", out.Username)
			assert.False(t, out.Admin)

			var cookie *http.Cookie
			for _, c := range resp.Cookies() {
				if c.Name == session.CookieName {
					cookie = c
				}
			}

			require.NotNil(t, cookie)
			assert.True(t, cookie.HttpOnly)
			assert.NotEmpty(t, cookie.Value)
		})
	}
}

func TestWhoAmIAndLogout(t *testing.T) {
	env := webtest.New(t, nil)
	env.User("admin")

	resp := env.Do(http.MethodGet, login.WhoAmIPath, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cookie := env.Login("admin")

	resp = env.Do(http.MethodGet, login.WhoAmIPath, nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := webtest.Decode[login.Response](t, resp)
	assert.Equal(t, webtest.AdminEmail, out.Email)
	assert.True(t, out.Admin)

	resp = env.Do(http.MethodPost, login.LogoutPath, nil, cookie)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err := env.Services.Sessions.Read(cookie.Value)
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	resp = env.Do(http.MethodGet, login.WhoAmIPath, nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionOfRemovedUser(t *testing.T) {
	env := webtest.New(t, nil)
	alice, _ := env.User("alice")
	cookie := env.Login("alice")

	require.NoError(t, env.Services.DB.WithContext(context.Background()).Model(alice).Update("deleted_at", time.Now()).Error)
	env.Services.Users.Invalidate(alice.ID)

	resp := env.Do(http.MethodGet, login.WhoAmIPath, nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	env := webtest.New(t, nil)
	env.User("alice")
	cookie := env.Login("alice")

	resp := env.Do(http.MethodPut, login.PasswordPath,
		login.PasswordRequest{OldPassword: "password-alice", NewPassword: "sequencing"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.Do(http.MethodPut, login.PasswordPath,
		login.PasswordRequest{OldPassword: "wrong", NewPassword: "sequencing"}, cookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.Do(http.MethodPut, login.PasswordPath,
		login.PasswordRequest{OldPassword: "password-alice", NewPassword: "short"}, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.Do(http.MethodPut, login.PasswordPath,
		login.PasswordRequest{OldPassword: "password-alice", NewPassword: "sequencing"}, cookie)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.Do(http.MethodPost, login.Path, login.Request{Username: "alice", Password: "password-alice"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.Do(http.MethodPost, login.Path, login.Request{Username: "alice", Password: "sequencing"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
