package pipeline

import (
	"errors"

	"moviedb/errs"
	"moviedb/pkg/jwt"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	claimsKey    = "pipeline.claims"
	authErrorKey = "pipeline.auth_error"
)

type TokenVerifier interface {
	Parse(raw, tokenType string) (*jwt.Claims, error)
}

// Authorize reads an "Authorization: Bearer" header. It never blocks the
// request: on success the claims are stored for Begin, on failure the
// error is. Missing or malformed headers report jwt.ErrTokenMissing.
func Authorize(v TokenVerifier) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             claimsKey,
		ContinueOnIgnoredError: true,
		ParseTokenFunc: func(_ echo.Context, raw string) (interface{}, error) {
			return v.Parse(raw, jwt.TypeBearer)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var appErr *errs.Error
			if errors.As(err, &appErr) {
				c.Set(authErrorKey, appErr)
			} else {
				c.Set(authErrorKey, jwt.ErrTokenMissing)
			}
			return nil
		},
	})
}
