package httpserver

import (
	"context"

	"moviedb/auth"
	"moviedb/errs"
	"moviedb/pipeline"
	"moviedb/pkg/jwt"

	"github.com/labstack/echo/v4"
)

var errAuthServiceMissing = errs.Errorf(errs.ENOTIMPLEMENTED, "auth service not configured")

func (s *Server) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/login", pipeline.Handle(parseLogin, s.login, s.errorHook()))
	g.POST("/refresh", pipeline.Handle(parseRefreshToken, s.refresh, s.errorHook()))
	g.POST("/logout", pipeline.Handle(parseRefreshToken, s.logout, s.errorHook()))
}

func parseLogin(c echo.Context, _ *jwt.Claims) (auth.LoginRequest, error) {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return auth.LoginRequest{}, err
	}
	return req.ToLogin(), nil
}

func parseRefreshToken(c echo.Context, _ *jwt.Claims) (string, error) {
	var req RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return "", err
	}
	return req.RefreshToken, nil
}

// login godoc
// @Summary User Login
// @Description Authenticate and return a bearer and refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials and optional lifetimes"
// @Success 200 {object} auth.TokenPair
// @Failure 400 {object} pipeline.ErrorBody
// @Failure 401 {object} pipeline.ErrorBody
// @Failure 429 {object} pipeline.ErrorBody
// @Router /user/login [post]
func (s *Server) login(ctx context.Context, r auth.LoginRequest) (auth.TokenPair, error) {
	if s.AuthService == nil {
		return auth.TokenPair{}, errAuthServiceMissing
	}
	return s.AuthService.Login(ctx, r)
}

// refresh godoc
// @Summary Refresh Tokens
// @Description Exchange the current refresh token for a new pair
// @Tags auth
// @Accept json
// @Produce json
// @Param token body RefreshRequest true "Refresh token"
// @Success 200 {object} auth.TokenPair
// @Failure 400 {object} pipeline.ErrorBody
// @Failure 401 {object} pipeline.ErrorBody
// @Router /user/refresh [post]
func (s *Server) refresh(ctx context.Context, token string) (auth.TokenPair, error) {
	if s.AuthService == nil {
		return auth.TokenPair{}, errAuthServiceMissing
	}
	return s.AuthService.Refresh(ctx, token)
}

// logout godoc
// @Summary Logout
// @Description Invalidate the current refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param token body RefreshRequest true "Refresh token"
// @Success 200 {object} auth.LoggedOut
// @Failure 400 {object} pipeline.ErrorBody
// @Failure 401 {object} pipeline.ErrorBody
// @Router /user/logout [post]
func (s *Server) logout(ctx context.Context, token string) (auth.LoggedOut, error) {
	if s.AuthService == nil {
		return auth.LoggedOut{}, errAuthServiceMissing
	}
	return s.AuthService.Logout(ctx, token)
}
