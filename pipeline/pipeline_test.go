package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"moviedb/errs"
	"moviedb/pipeline"
	"moviedb/pkg/jwt"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type created struct {
	Message string `json:"message"`
}

func (created) StatusCode() int { return http.StatusCreated }

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) pipeline.ErrorBody {
	t.Helper()
	var body pipeline.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestParse(t *testing.T) {
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	carried := errs.Errorf(errs.EUNAUTHORIZED, "carried")

	t.Run("should skip when an error is carried", func(t *testing.T) {
		called := false
		st := pipeline.State[string, string]{Err: carried}

		st = pipeline.Parse(c, st, func(echo.Context, *jwt.Claims) (string, error) {
			called = true
			return "p", nil
		})

		assert.False(t, called)
		assert.Equal(t, carried, st.Err)
		assert.Empty(t, st.Params)
	})

	t.Run("should run and clear the error when told to keep going", func(t *testing.T) {
		st := pipeline.State[string, string]{Err: carried}

		st = pipeline.Parse(c, st, func(echo.Context, *jwt.Claims) (string, error) {
			return "p", nil
		}, pipeline.KeepGoingOnError())

		assert.NoError(t, st.Err)
		assert.Equal(t, "p", st.Params)
	})

	t.Run("should keep structured errors", func(t *testing.T) {
		want := errs.Errorf(errs.EINVALID, "bad")
		st := pipeline.Parse(c, pipeline.State[string, string]{}, func(echo.Context, *jwt.Claims) (string, error) {
			return "", want
		})

		assert.Equal(t, want, st.Err)
	})

	t.Run("should wrap unstructured errors as internal", func(t *testing.T) {
		st := pipeline.Parse(c, pipeline.State[string, string]{}, func(echo.Context, *jwt.Claims) (string, error) {
			return "", errors.New("boom")
		})

		assert.Equal(t, errs.EINTERNAL, errs.ErrorCode(st.Err))
	})

	t.Run("should pass claims to the extractor", func(t *testing.T) {
		claims := &jwt.Claims{Email: "a@b.c"}
		st := pipeline.Parse(c, pipeline.State[string, string]{Claims: claims}, func(_ echo.Context, cl *jwt.Claims) (string, error) {
			return cl.Email, nil
		})

		assert.Equal(t, "a@b.c", st.Params)
	})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("should skip when an error is carried", func(t *testing.T) {
		called := false
		st := pipeline.Execute(ctx, pipeline.State[int, int]{Err: errs.Errorf(errs.EINVALID, "x")}, func(context.Context, int) (int, error) {
			called = true
			return 1, nil
		})

		assert.False(t, called)
		assert.Error(t, st.Err)
	})

	t.Run("should store the result", func(t *testing.T) {
		st := pipeline.Execute(ctx, pipeline.State[int, int]{Params: 20}, func(_ context.Context, p int) (int, error) {
			return p + 1, nil
		})

		assert.NoError(t, st.Err)
		assert.Equal(t, 21, st.Result)
	})

	t.Run("should store the error as is", func(t *testing.T) {
		boom := errors.New("boom")
		st := pipeline.Execute(ctx, pipeline.State[int, int]{}, func(context.Context, int) (int, error) {
			return 0, boom
		})

		assert.Equal(t, boom, st.Err)
	})
}

func TestSend(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedMsg  string
	}{
		{"invalid", errs.Errorf(errs.EINVALID, "bad input"), http.StatusBadRequest, "bad input"},
		{"unauthorized", jwt.ErrTokenExpired, http.StatusUnauthorized, "JWT token has expired"},
		{"forbidden", errs.Errorf(errs.EFORBIDDEN, "Forbidden"), http.StatusForbidden, "Forbidden"},
		{"not found", errs.Errorf(errs.ENOTFOUND, "gone"), http.StatusNotFound, "gone"},
		{"conflict", errs.Errorf(errs.ECONFLICT, "dup"), http.StatusConflict, "dup"},
		{"too many", errs.Errorf(errs.ETOOMANYREQUESTS, "slow down"), http.StatusTooManyRequests, "slow down"},
		{"internal hides text", errs.Internal(errors.New("db password wrong")), http.StatusInternalServerError, "Internal server error"},
		{"plain error", errors.New("raw"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run("error "+tt.name, func(t *testing.T) {
			c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

			require.NoError(t, pipeline.Send(c, pipeline.State[struct{}, struct{}]{Err: tt.err}))

			assert.Equal(t, tt.expectedCode, rec.Code)
			body := decodeError(t, rec)
			assert.True(t, body.Error)
			assert.Equal(t, tt.expectedMsg, body.Message)
		})
	}

	t.Run("success defaults to 200", func(t *testing.T) {
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

		require.NoError(t, pipeline.Send(c, pipeline.State[struct{}, map[string]int]{Result: map[string]int{"n": 1}}))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"n":1}`, rec.Body.String())
	})

	t.Run("success uses the result status", func(t *testing.T) {
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

		require.NoError(t, pipeline.Send(c, pipeline.State[struct{}, created]{Result: created{Message: "User created"}}))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"message":"User created"}`, rec.Body.String())
	})
}

func TestHandle(t *testing.T) {
	verifier := jwt.NewJWTProvider("secret")

	greet := func(_ echo.Context, claims *jwt.Claims) (string, error) {
		if claims == nil {
			return "anonymous", nil
		}
		return claims.Email, nil
	}
	echoQuery := func(_ context.Context, who string) (map[string]string, error) {
		return map[string]string{"who": who}, nil
	}

	newRouter := func(opts ...pipeline.Option) *echo.Echo {
		e := echo.New()
		e.GET("/who", pipeline.Handle(greet, echoQuery, opts...), pipeline.Authorize(verifier))
		return e
	}

	serve := func(e *echo.Echo, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	valid, err := verifier.Issue("a@b.c", jwt.TypeBearer, time.Minute)
	require.NoError(t, err)
	expired, err := jwt.NewJWTProvider("secret").
		WithClock(func() time.Time { return time.Now().Add(-time.Hour) }).
		Issue("a@b.c", jwt.TypeBearer, time.Minute)
	require.NoError(t, err)
	refresh, err := verifier.Issue("a@b.c", jwt.TypeRefresh, time.Minute)
	require.NoError(t, err)

	t.Run("required auth", func(t *testing.T) {
		tests := []struct {
			name    string
			header  string
			code    int
			message string
		}{
			{"missing header", "", http.StatusUnauthorized, "Authorization header ('Bearer token') not found"},
			{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Authorization header ('Bearer token') not found"},
			{"empty bearer", "Bearer ", http.StatusUnauthorized, "Authorization header ('Bearer token') not found"},
			{"expired", "Bearer " + expired.Value, http.StatusUnauthorized, "JWT token has expired"},
			{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, "Invalid JWT token"},
			{"refresh token as bearer", "Bearer " + refresh.Value, http.StatusUnauthorized, "Invalid JWT token"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := serve(newRouter(), tt.header)

				assert.Equal(t, tt.code, rec.Code)
				assert.Equal(t, tt.message, decodeError(t, rec).Message)
			})
		}

		t.Run("valid token", func(t *testing.T) {
			rec := serve(newRouter(), "Bearer "+valid.Value)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"who":"a@b.c"}`, rec.Body.String())
		})
	})

	t.Run("optional auth reads bad tokens as anonymous", func(t *testing.T) {
		e := newRouter(pipeline.KeepGoingOnError())

		for _, header := range []string{"", "Bearer junk", "Bearer " + expired.Value} {
			rec := serve(e, header)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"who":"anonymous"}`, rec.Body.String())
		}

		rec := serve(e, "Bearer "+valid.Value)
		assert.JSONEq(t, `{"who":"a@b.c"}`, rec.Body.String())
	})

	t.Run("error hook sees the final error", func(t *testing.T) {
		var seen error
		rec := serve(newRouter(pipeline.WithErrorHook(func(_ echo.Context, err error) { seen = err })), "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, jwt.ErrTokenMissing, seen)
	})
}
