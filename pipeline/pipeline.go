// Package pipeline runs a request through parse, query and send stages.
//
// Each stage receives the State produced by the previous one and returns a
// new State. A stage skips its work when the State already carries an error,
// unless it was built with KeepGoingOnError. Send is the only place that
// decides the HTTP status.
package pipeline

import (
	"context"
	"net/http"

	"moviedb/errs"
	"moviedb/pkg/jwt"

	"github.com/labstack/echo/v4"
)

const internalErrorMessage = "Internal server error"

// State is the per-request value threaded through the stages.
type State[P, R any] struct {
	Err    error
	Params P
	Result R
	// Claims holds the decoded bearer token, nil for anonymous requests.
	Claims *jwt.Claims
}

// StatusCoder lets a result choose a success status other than 200.
type StatusCoder interface {
	StatusCode() int
}

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// NewErrorBody renders err the way clients see it. Internal errors never
// expose their text.
func NewErrorBody(err error) ErrorBody {
	msg := errs.ErrorMessage(err)
	if errs.ErrorCode(err) == errs.EINTERNAL {
		msg = internalErrorMessage
	}
	return ErrorBody{Error: true, Message: msg}
}

type Extractor[P any] func(c echo.Context, claims *jwt.Claims) (P, error)

type Query[P, R any] func(ctx context.Context, params P) (R, error)

type ErrorHook func(c echo.Context, err error)

type options struct {
	skipOnError bool
	onError     ErrorHook
}

type Option func(*options)

// KeepGoingOnError makes the stage run even when an earlier stage failed.
// If it then succeeds, the earlier error is dropped.
func KeepGoingOnError() Option {
	return func(o *options) {
		o.skipOnError = false
	}
}

// WithErrorHook registers fn to observe the error a request ends with.
func WithErrorHook(fn ErrorHook) Option {
	return func(o *options) {
		o.onError = fn
	}
}

func newOptions(opts []Option) options {
	o := options{skipOnError: true}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Begin seeds a State with whatever Authorize left on the context.
func Begin[P, R any](c echo.Context) State[P, R] {
	var st State[P, R]
	if claims, ok := c.Get(claimsKey).(*jwt.Claims); ok {
		st.Claims = claims
	}
	if err, ok := c.Get(authErrorKey).(error); ok {
		st.Err = err
	}
	return st
}

// Parse fills Params from the request.
func Parse[P, R any](c echo.Context, st State[P, R], extract Extractor[P], opts ...Option) State[P, R] {
	o := newOptions(opts)
	if st.Err != nil && o.skipOnError {
		return st
	}

	params, err := extract(c, st.Claims)
	if err != nil {
		st.Err = errs.Internal(err)
		return st
	}
	st.Params = params
	st.Err = nil
	return st
}

// Execute runs query with the parsed Params and stores its outcome.
func Execute[P, R any](ctx context.Context, st State[P, R], query Query[P, R], opts ...Option) State[P, R] {
	o := newOptions(opts)
	if st.Err != nil && o.skipOnError {
		return st
	}

	result, err := query(ctx, st.Params)
	if err != nil {
		st.Err = err
		return st
	}
	st.Result = result
	st.Err = nil
	return st
}

// Send writes the terminal response for st.
func Send[P, R any](c echo.Context, st State[P, R]) error {
	if st.Err != nil {
		return c.JSON(errs.StatusCode(st.Err), NewErrorBody(st.Err))
	}

	status := http.StatusOK
	if sc, ok := any(st.Result).(StatusCoder); ok {
		status = sc.StatusCode()
	}
	return c.JSON(status, st.Result)
}

// Handle composes the stages into a handler. Options apply to both Parse
// and Execute.
func Handle[P, R any](extract Extractor[P], query Query[P, R], opts ...Option) echo.HandlerFunc {
	o := newOptions(opts)
	return func(c echo.Context) error {
		st := Begin[P, R](c)
		st = Parse(c, st, extract, opts...)
		st = Execute(c.Request().Context(), st, query, opts...)
		if st.Err != nil && o.onError != nil {
			o.onError(c, st.Err)
		}
		return Send(c, st)
	}
}

// NoParams is an Extractor for routes that take no input.
func NoParams(echo.Context, *jwt.Claims) (struct{}, error) {
	return struct{}{}, nil
}
