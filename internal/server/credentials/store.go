// Package credentials is the durable store behind the session and account
// flows: user identity records, password hashing and refresh tokens.
package credentials

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/bookkeeper/internal/server/validate"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// PasswordHasher turns plain passwords into stored hashes and back.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}

// Store is bound either to the connection pool or, inside WithinTx, to one
// transaction.
type Store struct {
	repos  repomanager.RepositoryManager
	tx     dbx.Transactor
	db     dbx.DBTX
	inTx   bool
	hasher PasswordHasher
}

func NewStore(repos repomanager.RepositoryManager, tx dbx.Transactor, hasher PasswordHasher) *Store {
	return &Store{repos: repos, tx: tx, db: tx.Conn(), hasher: hasher}
}

func (s *Store) users() users.Repository {
	return s.repos.Users(s.db)
}

func (s *Store) refreshTokens() refreshtokens.Repository {
	return s.repos.RefreshTokens(s.db)
}

// WithinTx runs fn against a store bound to a single transaction. Nested
// calls reuse the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, store *Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		bound := *s
		bound.db = tx
		bound.inTx = true
		return fn(ctx, &bound)
	})
}

// NewUser carries the fields of a user being created. Email is normalised
// before validation.
type NewUser struct {
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	PersonalIDCode string `json:"personalIdCode"`
	Email          string `json:"email"`
	Password       string `json:"password"`

	ActionToken   string               `json:"-"`
	ActionPurpose models.ActionPurpose `json:"-"`
}

func (n NewUser) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&n.Surname, validation.Required, validation.Length(1, 100)),
		validation.Field(&n.PersonalIDCode, validation.Required, validation.Length(11, 11), is.Digit),
		validation.Field(&n.Email, validation.Required, validation.Length(3, 254), is.Email),
	)
}

// ValidateNewUser checks every field of n, including the password policy,
// and returns a *common.ValidationError listing each violated rule.
func ValidateNewUser(n NewUser) error {
	ve := &common.ValidationError{}
	if err := validate.Struct(n); err != nil {
		fe, ok := err.(*common.ValidationError)
		if !ok {
			return err
		}
		ve.Fields = append(ve.Fields, fe.Fields...)
	}
	validate.Password(ve, "password", n.Password)
	return ve.OrNil()
}

// UserUpdate is a partial update; nil fields are left unchanged. A non-nil
// ActionToken replaces the pending action token, ClearActionToken drops it.
type UserUpdate struct {
	Name             *string
	Surname          *string
	Password         *string
	IsVerified       *bool
	ActionToken      *string
	ActionPurpose    models.ActionPurpose
	ClearActionToken bool
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users().GetByEmail(ctx, common.NormalizeEmail(email))
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.users().GetByID(ctx, id)
}

// CreateUser validates n, hashes the password and inserts an unverified user.
func (s *Store) CreateUser(ctx context.Context, n NewUser) (*models.User, error) {
	n.Email = common.NormalizeEmail(n.Email)
	if err := ValidateNewUser(n); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(n.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:           n.Name,
		Surname:        n.Surname,
		PersonalIDCode: n.PersonalIDCode,
		Email:          n.Email,
		PasswordHash:   hash,
	}
	if n.ActionToken != "" {
		user.SetActionToken(n.ActionToken, n.ActionPurpose)
	}
	return s.users().Create(ctx, user)
}

// UpdateUser applies u to the user with id. A new password is checked
// against the policy and re-hashed before it is stored.
func (s *Store) UpdateUser(ctx context.Context, id string, u UserUpdate) (*models.User, error) {
	user, err := s.users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ve := &common.ValidationError{}
	if u.Name != nil {
		if err := validation.Validate(*u.Name, validation.Required, validation.Length(1, 100)); err != nil {
			ve.Add("name", err.Error())
		}
		user.Name = *u.Name
	}
	if u.Surname != nil {
		if err := validation.Validate(*u.Surname, validation.Required, validation.Length(1, 100)); err != nil {
			ve.Add("surname", err.Error())
		}
		user.Surname = *u.Surname
	}
	if u.Password != nil {
		validate.Password(ve, "password", *u.Password)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if u.Password != nil {
		hash, err := s.hasher.Hash(*u.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if u.IsVerified != nil {
		user.IsVerified = *u.IsVerified
	}
	switch {
	case u.ActionToken != nil:
		user.SetActionToken(*u.ActionToken, u.ActionPurpose)
	case u.ClearActionToken:
		user.ClearActionToken()
	}

	return s.users().Update(ctx, user)
}

// ComparePassword reports whether plain matches hash in constant time.
func (s *Store) ComparePassword(hash, plain string) bool {
	return s.hasher.Compare(hash, plain)
}

// HashPassword exposes the configured hasher.
func (s *Store) HashPassword(plain string) (string, error) {
	return s.hasher.Hash(plain)
}

func (s *Store) CreateRefreshToken(ctx context.Context, token, userID string, expiresAt time.Time) (*models.RefreshToken, error) {
	return s.refreshTokens().Create(ctx, userID, token, expiresAt)
}

// FindActiveRefreshToken returns common.ErrorNotFound for unknown or
// revoked tokens.
func (s *Store) FindActiveRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return s.refreshTokens().FindActive(ctx, token)
}

// RevokeRefreshToken revokes token if it is still active. A token that is
// unknown or already revoked yields common.ErrInvalidToken, so of two
// concurrent callers exactly one succeeds.
func (s *Store) RevokeRefreshToken(ctx context.Context, token string) error {
	ok, err := s.refreshTokens().Revoke(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrInvalidToken
	}
	return nil
}

// RevokeAllRefreshTokens revokes every active token of userID and returns
// the number revoked.
func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) (int64, error) {
	return s.refreshTokens().RevokeAllForUser(ctx, userID)
}
