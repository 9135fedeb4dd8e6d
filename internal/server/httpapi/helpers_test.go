package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/videotube/internal/cryptox"
	"github.com/dmitrijs2005/videotube/internal/logging"
	"github.com/dmitrijs2005/videotube/internal/server/config"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/dmitrijs2005/videotube/internal/server/ratelimit"
	usersrepo "github.com/dmitrijs2005/videotube/internal/server/repositories/users"
	"github.com/dmitrijs2005/videotube/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTPAddr:                     "127.0.0.1:0",
		AccessTokenSecret:            "access-secret",
		RefreshTokenSecret:           "refresh-secret",
		AccessTokenValidityDuration:  15 * time.Minute,
		RefreshTokenValidityDuration: 24 * time.Hour,
		CookieSecure:                 true,
		CookieSameSite:               "lax",
		ShutdownTimeout:              time.Second,
	}
}

func newTestServer(t *testing.T, limiter ratelimit.Limiter) *Server {
	t.Helper()
	h, err := cryptox.NewHasher(cryptox.AlgorithmBcrypt, cryptox.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	svc := services.NewUserService(usersrepo.NewMemoryRepository(), h, testConfig(), nil, logging.Nop())
	return NewServer(testConfig(), svc, limiter, nil, logging.Nop())
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &v))
	return v
}

func do(h http.Handler, method, path string, body any, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, o := range opts {
		o(req)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func registerAndLogin(t *testing.T, h http.Handler, username, password string) loginResponse {
	t.Helper()
	rec := do(h, http.MethodPost, "/api/v1/users/register", registerRequest{
		Username: username, Email: username + "@example.com", FullName: "Full " + username, Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(h, http.MethodPost, "/api/v1/users/login", loginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeData[loginResponse](t, rec)
}

// stubService returns canned results; used where the real service cannot
// produce the error under test.
type stubService struct {
	err  error
	user *models.PublicUser
}

func (s *stubService) Register(context.Context, services.RegisterInput) (*models.PublicUser, error) {
	return s.user, s.err
}
func (s *stubService) Login(context.Context, string, string) (*models.PublicUser, *services.TokenPair, error) {
	return s.user, &services.TokenPair{}, s.err
}
func (s *stubService) Authenticate(context.Context, string) (*models.PublicUser, error) {
	return s.user, s.err
}
func (s *stubService) Refresh(context.Context, string) (*services.TokenPair, error) {
	return &services.TokenPair{}, s.err
}
func (s *stubService) Logout(context.Context, string) error { return s.err }
func (s *stubService) CurrentUser(context.Context, string) (*models.PublicUser, error) {
	return s.user, s.err
}
func (s *stubService) ChangePassword(context.Context, string, string, string, string) error {
	return s.err
}
func (s *stubService) UpdateAccount(context.Context, string, models.AccountUpdate) (*models.PublicUser, error) {
	return s.user, s.err
}
