package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xswkr/chartpattern-backend/internal/auth"
	"github.com/xswkr/chartpattern-backend/internal/middleware"
	"github.com/xswkr/chartpattern-backend/pkg/utils"
)

var handlerTestArgon = utils.Argon2Params{
	Time:        1,
	Memory:      16 * 1024,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type authTestEnv struct {
	router   *chi.Mux
	users    *memUserStore
	sessions *auth.Sessions
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()

	users := newMemUserStore()
	sessions := auth.NewSessions(newMemSessionStore())
	creds := auth.NewCredentials(users, handlerTestArgon)
	h := NewAuthHandler(creds, sessions, users)

	r := chi.NewRouter()
	r.Use(middleware.Session(sessions))
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/logout", h.Logout)
	r.Get("/api/auth/me", h.Me)

	return &authTestEnv{router: r, users: users, sessions: sessions}
}

func (e *authTestEnv) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestRegisterLoginMeFlow(t *testing.T) {
	env := newAuthTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "password": "pass-word-1", "name": "Alice",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	rr = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alice", "password": "pass-word-1",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var loginResp struct {
		Success bool                   `json:"success"`
		User    map[string]interface{} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loginResp))
	assert.True(t, loginResp.Success)
	assert.Equal(t, "alice", loginResp.User["username"])
	assert.NotContains(t, loginResp.User, "passwordHash")

	cookie := sessionCookie(t, rr)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, int(auth.SessionDuration.Seconds()), cookie.MaxAge)

	rr = env.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	var meResp struct {
		User map[string]interface{} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &meResp))
	assert.Equal(t, "alice", meResp.User["username"])
}

func TestRegisterValidation(t *testing.T) {
	env := newAuthTestEnv(t)

	t.Run("missing fields", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{"username": "alice"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad username", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
			"username": "a!", "password": "pass-word-1", "name": "A",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("duplicate username", func(t *testing.T) {
		body := map[string]string{"username": "bob", "password": "pass-word-1", "name": "Bob"}
		rr := env.do(t, http.MethodPost, "/api/auth/register", body)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = env.do(t, http.MethodPost, "/api/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Username already exists")
	})
}

func TestLoginRejections(t *testing.T) {
	env := newAuthTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "carol", "password": "right-pass", "name": "Carol",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	t.Run("wrong password", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"username": "carol", "password": "wrong-pass",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"username": "nobody", "password": "right-pass",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestLogout(t *testing.T) {
	env := newAuthTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "dave", "password": "pass-word-1", "name": "Dave",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "dave", "password": "pass-word-1",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	cookie := sessionCookie(t, rr)

	rr = env.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	cleared := sessionCookie(t, rr)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Empty(t, cleared.Value)

	// the old token no longer resolves
	rr = env.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"user":null}`, rr.Body.String())
}

func TestMeAnonymous(t *testing.T) {
	env := newAuthTestEnv(t)

	t.Run("no cookie", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"user":null}`, rr.Body.String())
	})

	t.Run("garbage cookie", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/auth/me", nil, &http.Cookie{
			Name: middleware.SessionCookieName, Value: "not-a-real-token",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"user":null}`, rr.Body.String())
	})
}
