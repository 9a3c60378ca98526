// nolint: nestif
package auth

import (
	"context"
	"errors"
	"time"

	"moviedb/errs"
	"moviedb/pkg/jwt"
	"moviedb/user"
)

var (
	ErrInvalidCredentials   = errs.Errorf(errs.EUNAUTHORIZED, "Incorrect email or password")
	ErrAccountLocked        = errs.Errorf(errs.ETOOMANYREQUESTS, "Too many failed login attempts, try again later")
	ErrRefreshTokenRequired = errs.Errorf(errs.EINVALID, "Request body incomplete, refresh token required")
	ErrInvalidExpiry        = errs.Errorf(errs.EINVALID, "Request body invalid: bearerExpiresInSeconds and refreshExpiresInSeconds must be positive numbers.")
)

// MaxExpiresIn is the longest explicit token lifetime accepted, in seconds.
const MaxExpiresIn = 100 * 365 * 24 * 60 * 60

// unknownUserHash is compared against when the email has no account, so that
// both login failures cost one bcrypt comparison.
const unknownUserHash = "$2a$10$nRwEHKsFZCJ1zGcJ0FNaFeeWpQeHNzRBwG3CePwbCGPTRcCyIvkAC"

type Service interface {
	Login(ctx context.Context, r LoginRequest) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Logout(ctx context.Context, refreshToken string) (LoggedOut, error)
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	// StartSession replaces whatever session the user had.
	StartSession(ctx context.Context, email string, s user.Session) error
	// RotateSession and EndSession only write when the stored session
	// equals expected, otherwise they return user.ErrStaleSession.
	RotateSession(ctx context.Context, email string, expected, next user.Session) error
	EndSession(ctx context.Context, email string, expected user.Session) error
}

type LoginAttempt struct {
	FailedCount int
	JailedUntil time.Time
}

type LoginAttemptRepository interface {
	Get(ctx context.Context, email string) (LoginAttempt, error)
	Save(ctx context.Context, email string, attempt LoginAttempt) error
	Reset(ctx context.Context, email string) error
}

type PasswordHasher interface {
	Compare(hashed, plain string) error
}

type TokenProvider interface {
	Issue(email, tokenType string, ttl time.Duration) (jwt.Token, error)
	Parse(raw, tokenType string) (*jwt.Claims, error)
}

type Config struct {
	BearerTTL  time.Duration
	RefreshTTL time.Duration
	// LongTTL replaces both defaults when a login asks for long expiry.
	LongTTL time.Duration
	// MaxLoginAttempts consecutive failures lock the account for
	// LockDuration. Zero disables the lockout.
	MaxLoginAttempts int
	LockDuration     time.Duration
}

func DefaultConfig() Config {
	return Config{
		BearerTTL:        600 * time.Second,
		RefreshTTL:       24 * time.Hour,
		LongTTL:          365 * 24 * time.Hour,
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

type LoginRequest struct {
	Email      string
	Password   string
	LongExpiry bool
	// Explicit lifetimes in seconds; zero means not given.
	BearerExpiresIn  int
	RefreshExpiresIn int
}

type Token struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

type TokenPair struct {
	BearerToken  Token `json:"bearerToken"`
	RefreshToken Token `json:"refreshToken"`

	session user.Session
}

type LoggedOut struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type Usecase struct {
	userRepo      UserRepository
	attemptsRepo  LoginAttemptRepository
	hasher        PasswordHasher
	tokenProvider TokenProvider
	cfg           Config
	now           func() time.Time
}

func NewUsecase(
	userRepo UserRepository,
	attemptsRepo LoginAttemptRepository,
	hasher PasswordHasher,
	tokenProvider TokenProvider,
	cfg Config,
) *Usecase {
	return &Usecase{
		userRepo:      userRepo,
		attemptsRepo:  attemptsRepo,
		hasher:        hasher,
		tokenProvider: tokenProvider,
		cfg:           cfg,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock replaces the clock used for the login lockout.
func (uc *Usecase) WithClock(now func() time.Time) *Usecase {
	uc.now = now
	return uc
}

func (uc *Usecase) Login(ctx context.Context, r LoginRequest) (TokenPair, error) {
	if r.Email == "" || r.Password == "" {
		return TokenPair{}, user.ErrCredentialsRequired
	}
	if !validExpiry(r.BearerExpiresIn) || !validExpiry(r.RefreshExpiresIn) {
		return TokenPair{}, ErrInvalidExpiry
	}

	var attempt LoginAttempt
	if uc.lockoutEnabled() {
		var err error
		attempt, err = uc.attemptsRepo.Get(ctx, r.Email)
		if err != nil {
			return TokenPair{}, err
		}

		if !attempt.JailedUntil.IsZero() {
			if attempt.JailedUntil.After(uc.now()) {
				return TokenPair{}, ErrAccountLocked
			}
			attempt.JailedUntil = time.Time{}
			attempt.FailedCount = 0
			if err := uc.attemptsRepo.Save(ctx, r.Email, attempt); err != nil {
				return TokenPair{}, err
			}
		}
	}

	u, err := uc.userRepo.GetByEmail(ctx, r.Email)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			return TokenPair{}, err
		}
		_ = uc.hasher.Compare(unknownUserHash, r.Password)
		if err := uc.recordFailure(ctx, r.Email, attempt); err != nil {
			return TokenPair{}, err
		}
		return TokenPair{}, ErrInvalidCredentials
	}

	if err := uc.hasher.Compare(u.PasswordHash, r.Password); err != nil {
		if err := uc.recordFailure(ctx, r.Email, attempt); err != nil {
			return TokenPair{}, err
		}
		return TokenPair{}, ErrInvalidCredentials
	}

	if uc.lockoutEnabled() {
		if err := uc.attemptsRepo.Reset(ctx, r.Email); err != nil {
			return TokenPair{}, err
		}
	}

	bearerTTL, refreshTTL := uc.cfg.BearerTTL, uc.cfg.RefreshTTL
	if r.LongExpiry {
		bearerTTL, refreshTTL = uc.cfg.LongTTL, uc.cfg.LongTTL
	}
	if r.BearerExpiresIn > 0 {
		bearerTTL = time.Duration(r.BearerExpiresIn) * time.Second
	}
	if r.RefreshExpiresIn > 0 {
		refreshTTL = time.Duration(r.RefreshExpiresIn) * time.Second
	}

	pair, err := uc.issue(u.Email, bearerTTL, refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := uc.userRepo.StartSession(ctx, u.Email, pair.session); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// validExpiry accepts zero (not given) and lifetimes up to MaxExpiresIn.
func validExpiry(seconds int) bool {
	return seconds >= 0 && int64(seconds) <= MaxExpiresIn
}

// Refresh exchanges the current refresh token for a new pair. The
// presented token stops being accepted.
func (uc *Usecase) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	email, current, err := uc.verifySession(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	pair, err := uc.issue(email, uc.cfg.BearerTTL, uc.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := uc.userRepo.RotateSession(ctx, email, current, pair.session); err != nil {
		if errors.Is(err, user.ErrStaleSession) {
			return TokenPair{}, jwt.ErrTokenInvalid
		}
		return TokenPair{}, err
	}
	return pair, nil
}

// Logout ends the session the refresh token belongs to.
func (uc *Usecase) Logout(ctx context.Context, refreshToken string) (LoggedOut, error) {
	email, current, err := uc.verifySession(ctx, refreshToken)
	if err != nil {
		return LoggedOut{}, err
	}

	if err := uc.userRepo.EndSession(ctx, email, current); err != nil {
		if errors.Is(err, user.ErrStaleSession) {
			return LoggedOut{}, jwt.ErrTokenInvalid
		}
		return LoggedOut{}, err
	}
	return LoggedOut{Error: false, Message: "Token successfully invalidated"}, nil
}

// verifySession checks the refresh token and that it is the one stored for
// its user.
func (uc *Usecase) verifySession(ctx context.Context, refreshToken string) (string, user.Session, error) {
	if refreshToken == "" {
		return "", user.Session{}, ErrRefreshTokenRequired
	}
	claims, err := uc.tokenProvider.Parse(refreshToken, jwt.TypeRefresh)
	if err != nil {
		return "", user.Session{}, err
	}

	u, err := uc.userRepo.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", user.Session{}, jwt.ErrTokenInvalid
		}
		return "", user.Session{}, err
	}

	presented := user.Session{
		IssuedAt:  claims.IssuedAtUnix(),
		ExpiresAt: claims.ExpiresAtUnix(),
		ID:        claims.ID,
	}
	if u.Session.IsZero() || u.Session != presented {
		return "", user.Session{}, jwt.ErrTokenInvalid
	}
	return u.Email, presented, nil
}

func (uc *Usecase) issue(email string, bearerTTL, refreshTTL time.Duration) (TokenPair, error) {
	bearer, err := uc.tokenProvider.Issue(email, jwt.TypeBearer, bearerTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := uc.tokenProvider.Issue(email, jwt.TypeRefresh, refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		BearerToken: Token{
			Token:     bearer.Value,
			TokenType: jwt.TypeBearer,
			ExpiresIn: bearer.ExpiresIn(),
		},
		RefreshToken: Token{
			Token:     refresh.Value,
			TokenType: jwt.TypeRefresh,
			ExpiresIn: refresh.ExpiresIn(),
		},
		session: user.Session{
			IssuedAt:  refresh.Claims.IssuedAtUnix(),
			ExpiresAt: refresh.Claims.ExpiresAtUnix(),
			ID:        refresh.Claims.ID,
		},
	}, nil
}

func (uc *Usecase) lockoutEnabled() bool {
	return uc.cfg.MaxLoginAttempts > 0 && uc.attemptsRepo != nil
}

func (uc *Usecase) recordFailure(ctx context.Context, email string, attempt LoginAttempt) error {
	if !uc.lockoutEnabled() {
		return nil
	}
	attempt.FailedCount++
	if attempt.FailedCount >= uc.cfg.MaxLoginAttempts {
		attempt.FailedCount = 0
		attempt.JailedUntil = uc.now().Add(uc.cfg.LockDuration)
	}
	return uc.attemptsRepo.Save(ctx, email, attempt)
}
