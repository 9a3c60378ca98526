package sentry

import (
	"os"
	"time"

	sentrygo "github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

// FlushTime bounds how long Fatal waits for buffered events.
var FlushTime = 2 * time.Second

// Sentry reports an error on the hub of the request it was built from, or on
// the current hub outside of a request.
type Sentry struct {
	context echo.Context
	level   sentrygo.Level
}

func (s *Sentry) WithContext(c echo.Context) *Sentry {
	s.context = c
	return s
}

func (s *Sentry) Error(err error) {
	s.level = sentrygo.LevelError
	s.capture(err)
}

// Fatal reports err and waits up to FlushTime for delivery. It does not exit.
func (s *Sentry) Fatal(err error) {
	s.level = sentrygo.LevelFatal
	s.capture(err)
	s.getHub().Flush(FlushTime)
}

func (s *Sentry) capture(err error) {
	if !enabled() || err == nil {
		return
	}
	hub := s.getHub()
	hub.WithScope(func(scope *sentrygo.Scope) {
		s.configScope(scope)
		hub.CaptureException(err)
	})
}

func (s *Sentry) getHub() *sentrygo.Hub {
	if s.context != nil {
		if hub := sentryecho.GetHubFromContext(s.context); hub != nil {
			return hub
		}
	}
	return sentrygo.CurrentHub()
}

func (s *Sentry) configScope(scope *sentrygo.Scope) {
	scope.SetLevel(s.level)
	if s.context == nil || s.context.Request() == nil {
		return
	}
	scope.SetRequest(s.context.Request())
	if id := s.context.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		scope.SetTag("request_id", id)
	}
}

func enabled() bool {
	return os.Getenv("APP_ENV") != "local" && os.Getenv("SENTRY_DSN") != ""
}

func WithContext(c echo.Context) *Sentry {
	return new(Sentry).WithContext(c)
}

func Error(err error) { new(Sentry).Error(err) }
func Fatal(err error) { new(Sentry).Fatal(err) }
