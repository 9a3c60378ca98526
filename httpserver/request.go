package httpserver

import (
	"moviedb/auth"
	"moviedb/errs"
	"moviedb/user"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var errMalformedBody = errs.Errorf(errs.EINVALID, "Request body invalid: malformed JSON.")

type CredentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (CredentialsRequest) validationError(validator.ValidationErrors) error {
	return user.ErrCredentialsRequired
}

func (r CredentialsRequest) ToCredentials() user.Credentials {
	return user.Credentials{Email: r.Email, Password: r.Password}
}

type LoginRequest struct {
	CredentialsRequest
	LongExpiry       bool `json:"longExpiry"`
	BearerExpiresIn  *int `json:"bearerExpiresInSeconds" validate:"omitempty,gt=0,lte=3153600000"`
	RefreshExpiresIn *int `json:"refreshExpiresInSeconds" validate:"omitempty,gt=0,lte=3153600000"`
}

func (LoginRequest) validationError(fails validator.ValidationErrors) error {
	if hasTag(fails, "required") {
		return user.ErrCredentialsRequired
	}
	return auth.ErrInvalidExpiry
}

func (r LoginRequest) ToLogin() auth.LoginRequest {
	req := auth.LoginRequest{
		Email:      r.Email,
		Password:   r.Password,
		LongExpiry: r.LongExpiry,
	}
	if r.BearerExpiresIn != nil {
		req.BearerExpiresIn = *r.BearerExpiresIn
	}
	if r.RefreshExpiresIn != nil {
		req.RefreshExpiresIn = *r.RefreshExpiresIn
	}
	return req
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (RefreshRequest) validationError(validator.ValidationErrors) error {
	return auth.ErrRefreshTokenRequired
}

// UpdateProfileRequest keeps raw JSON values so that missing fields and
// fields of the wrong type can be told apart.
type UpdateProfileRequest struct {
	FirstName interface{} `json:"firstName"`
	LastName  interface{} `json:"lastName"`
	DOB       interface{} `json:"dob"`
	Address   interface{} `json:"address"`
}

func (UpdateProfileRequest) validationError(fails validator.ValidationErrors) error {
	if hasTag(fails, "present") {
		return user.ErrProfileIncomplete
	}
	return user.ErrProfileNotStrings
}

// ToUpdate must only be called on a validated request. A dob that is not a
// string becomes empty and fails date parsing downstream.
func (r UpdateProfileRequest) ToUpdate() user.ProfileUpdate {
	dob, _ := r.DOB.(string)
	return user.ProfileUpdate{
		FirstName: r.FirstName.(string),
		LastName:  r.LastName.(string),
		DOB:       dob,
		Address:   r.Address.(string),
	}
}

// bindAndValidate decodes the JSON body into req and validates it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, req); err != nil {
		return errMalformedBody
	}
	return c.Validate(req)
}
