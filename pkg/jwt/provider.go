package jwt

import (
	"errors"
	"time"

	"moviedb/errs"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TypeBearer  = "Bearer"
	TypeRefresh = "Refresh"
)

var (
	ErrTokenMissing = errs.Errorf(errs.EUNAUTHORIZED, "Authorization header ('Bearer token') not found")
	ErrTokenExpired = errs.Errorf(errs.EUNAUTHORIZED, "JWT token has expired")
	ErrTokenInvalid = errs.Errorf(errs.EUNAUTHORIZED, "Invalid JWT token")
)

type Claims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// IssuedAtUnix and ExpiresAtUnix return the claims as unix seconds, 0 when absent.
func (c *Claims) IssuedAtUnix() int64 {
	if c.IssuedAt == nil {
		return 0
	}
	return c.IssuedAt.Unix()
}

func (c *Claims) ExpiresAtUnix() int64 {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Unix()
}

// Token is a signed token together with the claims it carries.
type Token struct {
	Value  string
	Claims Claims
}

// ExpiresIn is the lifetime in seconds the token was issued with.
func (t Token) ExpiresIn() int64 {
	return t.Claims.ExpiresAtUnix() - t.Claims.IssuedAtUnix()
}

type JWTProvider struct {
	secret []byte
	now    func() time.Time
}

func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating.
func (p *JWTProvider) WithClock(now func() time.Time) *JWTProvider {
	p.now = now
	return p
}

// Issue signs an HS256 token of the given type for email. Refresh tokens get
// a random jti so two tokens issued within the same second stay distinct.
func (p *JWTProvider) Issue(email, tokenType string, ttl time.Duration) (Token, error) {
	iat := p.now().Truncate(time.Second)
	claims := Claims{
		Email: email,
		Type:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
		},
	}
	if tokenType == TypeRefresh {
		claims.ID = uuid.NewString()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, Claims: claims}, nil
}

// Parse verifies signature, expiry and token type. Failures are reported as
// ErrTokenExpired or ErrTokenInvalid.
func (p *JWTProvider) Parse(raw, tokenType string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, ErrTokenInvalid
	}

	if claims.Type != tokenType || claims.Email == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
