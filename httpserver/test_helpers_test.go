package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"moviedb/auth"
	"moviedb/httpserver"
	"moviedb/movie"
	"moviedb/person"
	"moviedb/pipeline"
	"moviedb/pkg/config"
	"moviedb/pkg/jwt"
	"moviedb/user"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = testJWTSecret
	return cfg
}

// newTestServer builds a server with rate limiting off so table tests can
// share one instance.
func newTestServer(t *testing.T, options ...httpserver.Options) *httpserver.Server {
	t.Helper()
	options = append([]httpserver.Options{
		httpserver.WithConfig(testConfig()),
		httpserver.WithRateLimit(0),
	}, options...)
	server, err := httpserver.New(options...)
	require.NoError(t, err)
	return server
}

func signToken(t *testing.T, email, tokenType string, ttl time.Duration) string {
	t.Helper()
	token, err := jwt.NewJWTProvider(testJWTSecret).Issue(email, tokenType, ttl)
	require.NoError(t, err)
	return token.Value
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func makeRequest(server *httpserver.Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	return makeJSONRequest(server, method, path, "", headers)
}

func makeJSONRequest(server *httpserver.Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	server.Router.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) pipeline.ErrorBody {
	t.Helper()
	var body pipeline.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

type MockMovieService struct {
	mock.Mock
}

func (m *MockMovieService) Search(ctx context.Context, p movie.SearchParams) (movie.SearchResult, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(movie.SearchResult), args.Error(1)
}

func (m *MockMovieService) Details(ctx context.Context, imdbID string) (movie.Detail, error) {
	args := m.Called(ctx, imdbID)
	return args.Get(0).(movie.Detail), args.Error(1)
}

type MockPersonService struct {
	mock.Mock
}

func (m *MockPersonService) Get(ctx context.Context, id string) (person.Person, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(person.Person), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, c user.Credentials) (user.Registered, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(user.Registered), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, q user.ProfileQuery) (user.Profile, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(user.Profile), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, r user.ProfileRequest) (user.Profile, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(user.Profile), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, r auth.LoginRequest) (auth.TokenPair, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(auth.TokenPair), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(auth.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) (auth.LoggedOut, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(auth.LoggedOut), args.Error(1)
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
