// Package auth signs and verifies the bearer tokens of the service: access,
// refresh and single-use action tokens (email verification, password reset).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind names a token class. Each class has its own secret and lifetime.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindAction  Kind = "action"
)

// Claims is the payload of every token. Type binds a token to its Kind and
// Purpose binds an action token to the flow that issued it.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"userId,omitempty"`
	Email   string `json:"email"`
	Type    Kind   `json:"typ"`
	Purpose string `json:"purpose,omitempty"`
}

// Config holds secrets and lifetimes per Kind. Now defaults to time.Now.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	ActionSecret  []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ActionTTL  time.Duration

	Now func() time.Time
}

// Codec is safe for concurrent use; it holds no mutable state.
type Codec struct {
	cfg Config
}

func NewCodec(cfg Config) *Codec {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Codec{cfg: cfg}
}

func (c *Codec) params(kind Kind) ([]byte, time.Duration, bool) {
	switch kind {
	case KindAccess:
		return c.cfg.AccessSecret, c.cfg.AccessTTL, true
	case KindRefresh:
		return c.cfg.RefreshSecret, c.cfg.RefreshTTL, true
	case KindAction:
		return c.cfg.ActionSecret, c.cfg.ActionTTL, true
	}
	return nil, 0, false
}

// TTL is the validity window of kind.
func (c *Codec) TTL(kind Kind) time.Duration {
	_, ttl, _ := c.params(kind)
	return ttl
}

// Now is the codec clock.
func (c *Codec) Now() time.Time {
	return c.cfg.Now()
}

// Sign issues an HS256 token of kind carrying claims. IssuedAt, ExpiresAt,
// the token id and the type claim are set here and override any input.
func (c *Codec) Sign(kind Kind, claims Claims) (string, error) {
	secret, ttl, ok := c.params(kind)
	if !ok || len(secret) == 0 {
		return "", fmt.Errorf("%w: no secret for %q tokens", common.ErrSigning, kind)
	}

	now := c.cfg.Now()
	claims.Type = kind
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrSigning, err)
	}
	return token, nil
}

// Verify checks signature, expiry and kind of token and returns its claims.
// Expired tokens yield common.ErrTokenExpired; anything else wrong yields
// common.ErrInvalidToken.
func (c *Codec) Verify(kind Kind, token string) (*Claims, error) {
	secret, _, ok := c.params(kind)
	if !ok || len(secret) == 0 {
		return nil, fmt.Errorf("%w: no secret for %q tokens", common.ErrSigning, kind)
	}
	if token == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.cfg.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !parsed.Valid || claims.Type != kind {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
