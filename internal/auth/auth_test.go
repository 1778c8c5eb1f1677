package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/johngerving/3D-Building-Map-sub000/internal/db/dbgen"
)

type memUsers struct {
	mu    sync.Mutex
	bySub map[string]dbgen.User
}

func newMemUsers() *memUsers {
	return &memUsers{bySub: map[string]dbgen.User{}}
}

func (m *memUsers) UpsertUser(_ context.Context, arg dbgen.UpsertUserParams) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.bySub[arg.GoogleSub]
	if !ok {
		u.ID = arg.ID
		u.GoogleSub = arg.GoogleSub
	}
	u.Email = arg.Email
	u.DisplayName = arg.DisplayName
	u.PictureURL = arg.PictureURL
	m.bySub[arg.GoogleSub] = u
	return u, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.bySub {
		if u.ID == id {
			return u, nil
		}
	}
	return dbgen.User{}, pgx.ErrNoRows
}

func newTestService(t *testing.T, users UserStore) *Service {
	t.Helper()
	s, err := NewService(users, Options{
		SessionSecret:      "test-secret",
		GoogleClientID:     "client",
		GoogleClientSecret: "shh",
		GoogleRedirectURL:  "http://localhost/auth/google/callback",
		AdminEmails:        []string{"Boss@Example.com"},
	})
	require.NoError(t, err)
	return s
}

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, info map[string]interface{}) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "good-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func pointAt(s *Service, srv *httptest.Server) {
	s.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	s.userInfoURL = srv.URL + "/userinfo"
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(newMemUsers(), Options{})
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestService(t, newMemUsers())

	token, err := s.IssueToken("user_1", "boss@example.com")
	require.NoError(t, err)

	sess, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", sess.UserID)
	assert.True(t, sess.Admin)

	other, err := NewService(newMemUsers(), Options{SessionSecret: "different"})
	require.NoError(t, err)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenExpires(t *testing.T) {
	s := newTestService(t, newMemUsers())
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }

	token, err := s.IssueToken("user_1", "a@example.com")
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(SessionTTL + time.Minute) }
	_, err = s.ValidateToken(token)
	assert.Error(t, err)
}

func TestStateVerification(t *testing.T) {
	s := newTestService(t, newMemUsers())
	start := time.Now()
	s.now = func() time.Time { return start }

	_, state, err := s.AuthCodeURL()
	require.NoError(t, err)

	assert.NoError(t, s.VerifyState(state, state))
	assert.ErrorIs(t, s.VerifyState(state, "other"), ErrInvalidState)
	assert.ErrorIs(t, s.VerifyState("", ""), ErrInvalidState)

	tampered := strings.Replace(state, ".", "x.", 1)
	assert.ErrorIs(t, s.VerifyState(tampered, tampered), ErrInvalidState)

	s.now = func() time.Time { return start.Add(stateTTL + time.Second) }
	assert.ErrorIs(t, s.VerifyState(state, state), ErrInvalidState)
}

func TestAuthCodeURLDisabled(t *testing.T) {
	s, err := NewService(newMemUsers(), Options{SessionSecret: "x"})
	require.NoError(t, err)
	_, _, err = s.AuthCodeURL()
	assert.ErrorIs(t, err, ErrOAuthDisabled)
}

func TestMiddleware(t *testing.T) {
	s := newTestService(t, newMemUsers())
	token, err := s.IssueToken("user_1", "a@example.com")
	require.NoError(t, err)

	var seen string
	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"none", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) }, http.StatusOK},
		{"bad scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "user_1", seen)
			}
		})
	}
}

func TestLoginCallbackFlow(t *testing.T) {
	users := newMemUsers()
	s := newTestService(t, users)
	pointAt(s, fakeGoogle(t, map[string]interface{}{
		"sub":            "google-123",
		"email":          "boss@example.com",
		"email_verified": true,
		"name":           "The Boss",
	}))
	h := NewHandler(s, false)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	var stateC *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookie {
			stateC = c
		}
	}
	require.NotNil(t, stateC)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=good-code&state="+url.QueryEscape(state), nil)
	req.AddCookie(stateC)
	rec = httptest.NewRecorder()
	h.Callback(rec, req)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	sess, err := s.ValidateToken(session.Value)
	require.NoError(t, err)
	assert.True(t, sess.Admin)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec = httptest.NewRecorder()
	h.Me(rec, req.WithContext(WithSession(req.Context(), sess)))
	require.Equal(t, http.StatusOK, rec.Code)

	var me User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "The Boss", me.DisplayName)
	assert.True(t, me.Admin)
}

func TestCallbackRejectsBadState(t *testing.T) {
	s := newTestService(t, newMemUsers())
	h := NewHandler(s, false)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=x&state=forged", nil)
	rec := httptest.NewRecorder()
	h.Callback(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackRejectsUnverifiedEmail(t *testing.T) {
	s := newTestService(t, newMemUsers())
	pointAt(s, fakeGoogle(t, map[string]interface{}{
		"sub":   "google-9",
		"email": "x@example.com",
	}))

	_, _, err := s.CompleteLogin(context.Background(), "good-code")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLogoutClearsCookie(t *testing.T) {
	h := NewHandler(newTestService(t, newMemUsers()), false)
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}
