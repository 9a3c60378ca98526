package httpserver

import (
	"context"
	"net/url"

	"moviedb/errs"
	"moviedb/pipeline"
	"moviedb/pkg/jwt"
	"moviedb/user"

	"github.com/labstack/echo/v4"
)

var errUserServiceMissing = errs.Errorf(errs.ENOTIMPLEMENTED, "user service not configured")

func (s *Server) RegisterUserRoutes(g *echo.Group) {
	g.POST("/register", pipeline.Handle(parseCredentials, s.register, s.errorHook()))

	// Anyone may read a profile; a valid token only widens the view.
	g.GET("/:email/profile",
		pipeline.Handle(parseProfileQuery, s.getProfile, pipeline.KeepGoingOnError(), s.errorHook()),
		pipeline.Authorize(s.Tokens),
	)
	g.PUT("/:email/profile",
		pipeline.Handle(parseProfileUpdate, s.updateProfile, s.errorHook()),
		pipeline.Authorize(s.Tokens),
	)
}

func parseCredentials(c echo.Context, _ *jwt.Claims) (user.Credentials, error) {
	var req CredentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return user.Credentials{}, err
	}
	return req.ToCredentials(), nil
}

func parseProfileQuery(c echo.Context, claims *jwt.Claims) (user.ProfileQuery, error) {
	q := user.ProfileQuery{Email: emailParam(c)}
	if claims != nil {
		q.Viewer = claims.Email
	}
	return q, nil
}

func parseProfileUpdate(c echo.Context, claims *jwt.Claims) (user.ProfileRequest, error) {
	var req UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return user.ProfileRequest{}, err
	}
	return user.ProfileRequest{
		Email:  emailParam(c),
		Caller: claims.Email,
		Update: req.ToUpdate(),
	}, nil
}

// emailParam returns the unescaped :email path segment.
func emailParam(c echo.Context) string {
	raw := c.Param("email")
	if email, err := url.PathUnescape(raw); err == nil {
		return email
	}
	return raw
}

// register godoc
// @Summary User Register
// @Description Create an account
// @Tags user
// @Accept json
// @Produce json
// @Param credentials body CredentialsRequest true "Email and password"
// @Success 201 {object} user.Registered
// @Failure 400 {object} pipeline.ErrorBody
// @Failure 409 {object} pipeline.ErrorBody
// @Router /user/register [post]
func (s *Server) register(ctx context.Context, c user.Credentials) (user.Registered, error) {
	if s.UserService == nil {
		return user.Registered{}, errUserServiceMissing
	}
	return s.UserService.Register(ctx, c)
}

// getProfile godoc
// @Summary Get Profile
// @Description Public profile; dob and address only for the owner
// @Tags user
// @Produce json
// @Param email path string true "User email"
// @Success 200 {object} user.Profile
// @Failure 404 {object} pipeline.ErrorBody
// @Router /user/{email}/profile [get]
func (s *Server) getProfile(ctx context.Context, q user.ProfileQuery) (user.Profile, error) {
	if s.UserService == nil {
		return user.Profile{}, errUserServiceMissing
	}
	return s.UserService.GetProfile(ctx, q)
}

// updateProfile godoc
// @Summary Update Profile
// @Description Replace the personal fields of the caller's own profile
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param email path string true "User email"
// @Param profile body UpdateProfileRequest true "firstName, lastName, dob, address"
// @Success 200 {object} user.Profile
// @Failure 400 {object} pipeline.ErrorBody
// @Failure 401 {object} pipeline.ErrorBody
// @Failure 403 {object} pipeline.ErrorBody
// @Failure 404 {object} pipeline.ErrorBody
// @Router /user/{email}/profile [put]
func (s *Server) updateProfile(ctx context.Context, r user.ProfileRequest) (user.Profile, error) {
	if s.UserService == nil {
		return user.Profile{}, errUserServiceMissing
	}
	return s.UserService.UpdateProfile(ctx, r)
}
