package postgres

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"moviedb/user"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// UserModel represents the database model for users. The refresh_* columns
// identify the one refresh token accepted for the user and are NULL when
// the user has no session.
type UserModel struct {
	Email        string `gorm:"primaryKey"`
	PasswordHash string `gorm:"not null"`
	FirstName    *string
	LastName     *string
	DOB          *string `gorm:"column:dob"`
	Address      *string
	RefreshIat   *int64
	RefreshExp   *int64
	RefreshJti   *string
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// UserRepository implements user.Repository and auth.UserRepository.
type UserRepository struct {
	db    *gorm.DB
	ready atomic.Bool
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// EnsureTable creates the users table on first use.
func (r *UserRepository) EnsureTable(ctx context.Context) error {
	if r.ready.Load() {
		return nil
	}
	m := r.db.WithContext(ctx).Migrator()
	if !m.HasTable(&UserModel{}) {
		// another instance may have won the race
		if err := m.CreateTable(&UserModel{}); err != nil && !m.HasTable(&UserModel{}) {
			return err
		}
	}
	r.ready.Store(true)
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if err := r.EnsureTable(ctx); err != nil {
		return user.User{}, err
	}

	var model UserModel
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, err
	}

	return toDomainUser(model), nil
}

func (r *UserRepository) CreateUser(ctx context.Context, u user.User) error {
	model := UserModel{Email: u.Email, PasswordHash: u.PasswordHash}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isDuplicateEmailError(err) {
			return user.ErrUserExists
		}
		return err
	}
	return nil
}

// UpdateProfile overwrites the personal fields and returns the updated user.
func (r *UserRepository) UpdateProfile(ctx context.Context, email string, p user.ProfileUpdate) (user.User, error) {
	result := r.db.WithContext(ctx).Model(&UserModel{}).Where("email = ?", email).Updates(map[string]interface{}{
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"dob":        p.DOB,
		"address":    p.Address,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return user.User{}, result.Error
	}
	if result.RowsAffected == 0 {
		return user.User{}, user.ErrUserNotFound
	}
	return r.GetByEmail(ctx, email)
}

func (r *UserRepository) StartSession(ctx context.Context, email string, s user.Session) error {
	result := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("email = ?", email).
		Updates(sessionColumns(s))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// RotateSession replaces the session only if it still equals expected.
func (r *UserRepository) RotateSession(ctx context.Context, email string, expected, next user.Session) error {
	return r.swapSession(ctx, email, expected, next)
}

// EndSession clears the session only if it still equals expected.
func (r *UserRepository) EndSession(ctx context.Context, email string, expected user.Session) error {
	return r.swapSession(ctx, email, expected, user.Session{})
}

func (r *UserRepository) swapSession(ctx context.Context, email string, expected, next user.Session) error {
	if expected.IsZero() {
		return user.ErrStaleSession
	}
	result := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("email = ? AND refresh_iat = ? AND refresh_exp = ? AND refresh_jti = ?",
			email, expected.IssuedAt, expected.ExpiresAt, expected.ID).
		Updates(sessionColumns(next))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrStaleSession
	}
	return nil
}

func sessionColumns(s user.Session) map[string]interface{} {
	cols := map[string]interface{}{
		"refresh_iat": nil,
		"refresh_exp": nil,
		"refresh_jti": nil,
		"updated_at":  time.Now().UTC(),
	}
	if !s.IsZero() {
		cols["refresh_iat"] = s.IssuedAt
		cols["refresh_exp"] = s.ExpiresAt
		cols["refresh_jti"] = s.ID
	}
	return cols
}

func toDomainUser(model UserModel) user.User {
	u := user.User{
		Email:        model.Email,
		PasswordHash: model.PasswordHash,
		FirstName:    model.FirstName,
		LastName:     model.LastName,
		DOB:          model.DOB,
		Address:      model.Address,
	}
	if model.RefreshIat != nil && model.RefreshExp != nil && model.RefreshJti != nil {
		u.Session = user.Session{
			IssuedAt:  *model.RefreshIat,
			ExpiresAt: *model.RefreshExp,
			ID:        *model.RefreshJti,
		}
	}
	return u
}

func isDuplicateEmailError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && strings.Contains(strings.ToLower(pqErr.Constraint), "email")
	}
	return false
}
