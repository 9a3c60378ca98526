package httpserver

import (
	"errors"
	"net/http"

	"moviedb/errs"
	"moviedb/pipeline"
	"moviedb/pkg/sentry"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// handleHTTPError renders errors that escape the pipeline: unknown routes,
// rate limiting, recovered panics.
func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		body   pipeline.ErrorBody
	)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		body = pipeline.ErrorBody{Error: true, Message: http.StatusText(he.Code)}
		if msg, ok := he.Message.(string); ok {
			body.Message = msg
		}
	} else {
		s.logError(c, err)
		status = errs.StatusCode(err)
		body = pipeline.NewErrorBody(err)
	}

	if err := c.JSON(status, body); err != nil {
		s.Logger.Errorw("write error response", zap.Error(err))
	}
}

// logError records a failed request. Client errors are informational,
// server errors also go to Sentry.
func (s *Server) logError(c echo.Context, err error) {
	status := errs.StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Errorw(
			err.Error(),
			zap.String("request_id", s.requestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
		sentry.WithContext(c).Error(err)
		return
	}

	s.Logger.Infow(
		errs.ErrorMessage(err),
		zap.String("request_id", s.requestID(c)),
		zap.String("path", c.Path()),
		zap.Int("status", status),
	)
}

func (s *Server) errorHook() pipeline.Option {
	return pipeline.WithErrorHook(s.logError)
}

func (s *Server) requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
