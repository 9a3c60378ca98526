package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"moviedb/errs"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Run("should render code and message", func(t *testing.T) {
		err := errs.Errorf(errs.ENOTFOUND, "No record exists of a movie with this ID")

		assert.Equal(t, "application error: code=not_found message=No record exists of a movie with this ID", err.Error())
	})

	t.Run("should format the message with args", func(t *testing.T) {
		err := errs.Errorf(errs.EINVALID, "Invalid query parameters: %s. Query parameters are not permitted.", "foo, year")

		assert.Equal(t, errs.EINVALID, err.Code)
		assert.Equal(t, "Invalid query parameters: foo, year. Query parameters are not permitted.", err.Message)
	})

	t.Run("should keep a percent sign passed as an argument", func(t *testing.T) {
		err := errs.Errorf(errs.EINVALID, "%s", "title must match 100%")

		assert.Equal(t, "title must match 100%", err.Message)
	})
}

func TestErrorCodeAndMessage(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{name: "should be empty for nil", err: nil, wantCode: "", wantMessage: ""},
		{
			name:        "should read an application error",
			err:         errs.Errorf(errs.EUNAUTHORIZED, "Incorrect email or password"),
			wantCode:    errs.EUNAUTHORIZED,
			wantMessage: "Incorrect email or password",
		},
		{
			name:        "should unwrap a wrapped application error",
			err:         fmt.Errorf("login: %w", errs.Errorf(errs.ETOOMANYREQUESTS, "Too many failed login attempts, try again later")),
			wantCode:    errs.ETOOMANYREQUESTS,
			wantMessage: "Too many failed login attempts, try again later",
		},
		{
			name:        "should hide a plain error behind internal",
			err:         errors.New("pq: connection refused"),
			wantCode:    errs.EINTERNAL,
			wantMessage: "Internal error.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, errs.ErrorCode(tt.err))
			assert.Equal(t, tt.wantMessage, errs.ErrorMessage(tt.err))
		})
	}
}

func TestInternal(t *testing.T) {
	t.Run("should keep nil", func(t *testing.T) {
		assert.NoError(t, errs.Internal(nil))
	})

	t.Run("should return a structured error untouched", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", errs.Errorf(errs.ECONFLICT, "User already exists"))

		assert.Same(t, err, errs.Internal(err))
	})

	t.Run("should turn a plain error into an internal one", func(t *testing.T) {
		got := errs.Internal(errors.New("redis: nil pool"))

		assert.Equal(t, errs.EINTERNAL, errs.ErrorCode(got))
		assert.Equal(t, "redis: nil pool", errs.ErrorMessage(got))
	})
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "invalid", err: errs.Errorf(errs.EINVALID, "x"), want: http.StatusBadRequest},
		{name: "unauthorized", err: errs.Errorf(errs.EUNAUTHORIZED, "x"), want: http.StatusUnauthorized},
		{name: "forbidden", err: errs.Errorf(errs.EFORBIDDEN, "x"), want: http.StatusForbidden},
		{name: "not found", err: errs.Errorf(errs.ENOTFOUND, "x"), want: http.StatusNotFound},
		{name: "conflict", err: errs.Errorf(errs.ECONFLICT, "x"), want: http.StatusConflict},
		{name: "too many requests", err: errs.Errorf(errs.ETOOMANYREQUESTS, "x"), want: http.StatusTooManyRequests},
		{name: "not implemented", err: errs.Errorf(errs.ENOTIMPLEMENTED, "x"), want: http.StatusNotImplemented},
		{name: "internal", err: errs.Errorf(errs.EINTERNAL, "x"), want: http.StatusInternalServerError},
		{name: "unknown code", err: errs.Errorf("teapot", "x"), want: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("x"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run("should map "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errs.StatusCode(tt.err))
		})
	}
}
