package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"moviedb/errs"
)

var (
	ErrCredentialsRequired = errs.Errorf(errs.EINVALID, "Request body incomplete, both email and password are required")
	ErrUserExists          = errs.Errorf(errs.ECONFLICT, "User already exists")
	ErrUserNotFound        = errs.Errorf(errs.ENOTFOUND, "User not found")
	ErrForbidden           = errs.Errorf(errs.EFORBIDDEN, "Forbidden")

	ErrProfileIncomplete = errs.Errorf(errs.EINVALID, "Request body incomplete: firstName, lastName, dob and address are required.")
	ErrProfileNotStrings = errs.Errorf(errs.EINVALID, "Request body invalid: firstName, lastName and address must be strings only.")
	ErrInvalidDOB        = errs.Errorf(errs.EINVALID, "Invalid input: dob must be a real date in format YYYY-MM-DD.")
	ErrDOBNotInPast      = errs.Errorf(errs.EINVALID, "Invalid input: dob must be a date in the past.")

	// ErrStaleSession is returned by conditional session writes when the
	// stored session no longer matches the expected one.
	ErrStaleSession = errors.New("user: session was replaced")
)

// Session identifies the refresh token currently accepted for a user.
// The zero value means no active session.
type Session struct {
	IssuedAt  int64
	ExpiresAt int64
	ID        string
}

func (s Session) IsZero() bool {
	return s == Session{}
}

type User struct {
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	// DOB is kept as YYYY-MM-DD.
	DOB     *string
	Address *string
	Session Session
}

// ProfileUpdate holds the personal fields written by a profile update.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	DOB       string
	Address   string
}

// Profile is a user's public view. dob and address are only rendered when
// Owner is set.
type Profile struct {
	Email     string
	FirstName *string
	LastName  *string
	DOB       *string
	Address   *string
	Owner     bool
}

func NewProfile(u User, owner bool) Profile {
	return Profile{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		DOB:       u.DOB,
		Address:   u.Address,
		Owner:     owner,
	}
}

type publicProfile struct {
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func (p Profile) MarshalJSON() ([]byte, error) {
	pub := publicProfile{Email: p.Email, FirstName: p.FirstName, LastName: p.LastName}
	if !p.Owner {
		return json.Marshal(pub)
	}
	return json.Marshal(struct {
		publicProfile
		DOB     *string `json:"dob"`
		Address *string `json:"address"`
	}{pub, p.DOB, p.Address})
}

// Registered is the result of a successful registration.
type Registered struct {
	Message string `json:"message"`
}

func (Registered) StatusCode() int { return http.StatusCreated }
