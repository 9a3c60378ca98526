package user

import (
	"context"
	"errors"
	"time"

	"moviedb/pkg/coerce"
)

type Service interface {
	Register(ctx context.Context, c Credentials) (Registered, error)
	GetProfile(ctx context.Context, q ProfileQuery) (Profile, error)
	UpdateProfile(ctx context.Context, r ProfileRequest) (Profile, error)
}

type Repository interface {
	// EnsureTable creates the users store when it does not exist yet.
	EnsureTable(ctx context.Context) error
	// CreateUser returns ErrUserExists for a taken email.
	CreateUser(ctx context.Context, u User) error
	// GetByEmail returns ErrUserNotFound when absent.
	GetByEmail(ctx context.Context, email string) (User, error)
	// UpdateProfile returns ErrUserNotFound when absent.
	UpdateProfile(ctx context.Context, email string, p ProfileUpdate) (User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashed, plain string) error
}

type Credentials struct {
	Email    string
	Password string
}

// ProfileQuery asks for Email's profile as seen by Viewer. An empty Viewer
// is anonymous.
type ProfileQuery struct {
	Email  string
	Viewer string
}

// ProfileRequest is an update of Email's profile made by Caller.
type ProfileRequest struct {
	Email  string
	Caller string
	Update ProfileUpdate
}

type Usecase struct {
	r      Repository
	hasher PasswordHasher
	now    func() time.Time
}

func NewUsecase(r Repository, h PasswordHasher) *Usecase {
	return &Usecase{
		r:      r,
		hasher: h,
		now:    time.Now,
	}
}

// WithClock replaces the clock used to decide whether a dob is in the past.
func (uc *Usecase) WithClock(now func() time.Time) *Usecase {
	uc.now = now
	return uc
}

func (uc *Usecase) Register(ctx context.Context, c Credentials) (Registered, error) {
	if c.Email == "" || c.Password == "" {
		return Registered{}, ErrCredentialsRequired
	}
	if err := uc.r.EnsureTable(ctx); err != nil {
		return Registered{}, err
	}

	_, err := uc.r.GetByEmail(ctx, c.Email)
	if err == nil {
		return Registered{}, ErrUserExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return Registered{}, err
	}

	hashed, err := uc.hasher.Hash(c.Password)
	if err != nil {
		return Registered{}, err
	}
	if err := uc.r.CreateUser(ctx, User{Email: c.Email, PasswordHash: hashed}); err != nil {
		return Registered{}, err
	}
	return Registered{Message: "User created"}, nil
}

func (uc *Usecase) GetProfile(ctx context.Context, q ProfileQuery) (Profile, error) {
	u, err := uc.r.GetByEmail(ctx, q.Email)
	if err != nil {
		return Profile{}, err
	}
	return NewProfile(u, q.Viewer != "" && q.Viewer == q.Email), nil
}

func (uc *Usecase) UpdateProfile(ctx context.Context, r ProfileRequest) (Profile, error) {
	dob, err := coerce.ToDate(r.Update.DOB)
	if err != nil {
		return Profile{}, ErrInvalidDOB
	}
	y, m, d := uc.now().In(time.Local).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	if !dob.Before(today) {
		return Profile{}, ErrDOBNotInPast
	}

	if r.Caller != r.Email {
		return Profile{}, ErrForbidden
	}

	u, err := uc.r.UpdateProfile(ctx, r.Email, r.Update)
	if err != nil {
		return Profile{}, err
	}
	return NewProfile(u, true), nil
}
