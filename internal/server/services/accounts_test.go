package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_CreatesUnverifiedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pub, err := f.accounts.Signup(ctx, signupInput())
	require.NoError(t, err)
	assert.False(t, pub.IsVerified)
	assert.Equal(t, "alice@example.com", pub.Email)

	u := f.user(t, "alice@example.com")
	assert.Equal(t, pub.ID, u.ID)
	require.NotNil(t, u.ActionToken)
	assert.Equal(t, models.PurposeVerifyEmail, u.ActionPurpose)
	assert.NotEqual(t, "Secret1!", u.PasswordHash)

	claims, err := f.codec.Verify(auth.KindAction, *u.ActionToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)

	require.Equal(t, 1, f.notifier.count())
	sent := f.notifier.sent[0]
	assert.Equal(t, "alice@example.com", sent.to)
	assert.Contains(t, sent.body, url.QueryEscape(*u.ActionToken))
}

func TestSignup_ReissuesForUnverified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.accounts.Signup(ctx, signupInput())
	require.NoError(t, err)
	firstToken := *f.user(t, "alice@example.com").ActionToken

	again := signupInput()
	again.Email = "ALICE@example.com"
	again.PersonalIDCode = "49001010000"
	second, err := f.accounts.Signup(ctx, again)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "no second row")
	assert.Equal(t, "39001010000", second.PersonalIDCode)

	u := f.user(t, "alice@example.com")
	assert.NotEqual(t, firstToken, *u.ActionToken)
	assert.Equal(t, 2, f.notifier.count())

	// the superseded token no longer verifies
	assert.ErrorIs(t, f.accounts.VerifyEmail(ctx, firstToken), common.ErrInvalidToken)
	assert.NoError(t, f.accounts.VerifyEmail(ctx, *u.ActionToken))
}

func TestSignup_AlreadyVerified(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t)

	_, err := f.accounts.Signup(context.Background(), signupInput())
	assert.ErrorIs(t, err, common.ErrAlreadyVerified)
}

func TestSignup_Validation(t *testing.T) {
	f := newFixture(t)

	in := signupInput()
	in.Email = "nope"
	in.PersonalIDCode = "123"
	in.Password = "password"

	_, err := f.accounts.Signup(context.Background(), in)
	require.ErrorIs(t, err, common.ErrValidation)

	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.GreaterOrEqual(t, len(ve.Fields), 5)
	assert.Zero(t, f.notifier.count())
}

func TestSignup_DuplicatePersonalID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Signup(ctx, signupInput())
	require.NoError(t, err)

	other := signupInput()
	other.Email = "bob@example.com"
	_, err = f.accounts.Signup(ctx, other)
	assert.ErrorIs(t, err, common.ErrDuplicatePersonalID)
}

func TestSignup_NotifierFailureIsHard(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	ctx := context.Background()

	_, err := f.accounts.Signup(ctx, signupInput())
	assert.ErrorIs(t, err, common.ErrNotificationFailed)

	// the unverified row stays and a later signup reissues the link
	f.notifier.err = nil
	_, err = f.accounts.Signup(ctx, signupInput())
	require.NoError(t, err)
	assert.Equal(t, 1, f.notifier.count())
}

func TestVerifyEmail_OnceThenAlreadyVerified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Signup(ctx, signupInput())
	require.NoError(t, err)
	token := *f.user(t, "alice@example.com").ActionToken

	require.NoError(t, f.accounts.VerifyEmail(ctx, token))

	u := f.user(t, "alice@example.com")
	assert.True(t, u.IsVerified)
	assert.Nil(t, u.ActionToken)

	assert.ErrorIs(t, f.accounts.VerifyEmail(ctx, token), common.ErrAlreadyVerified)
}

func TestVerifyEmail_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Signup(ctx, signupInput())
	require.NoError(t, err)
	token := *f.user(t, "alice@example.com").ActionToken

	ghost, err := f.codec.Sign(auth.KindAction, auth.Claims{Email: "ghost@example.com", Purpose: "verify_email"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.accounts.VerifyEmail(ctx, ghost), common.ErrInvalidToken)

	wrongPurpose, err := f.codec.Sign(auth.KindAction, auth.Claims{Email: "alice@example.com", Purpose: "reset_password"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.accounts.VerifyEmail(ctx, wrongPurpose), common.ErrInvalidToken)

	access, err := f.codec.Sign(auth.KindAccess, auth.Claims{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.accounts.VerifyEmail(ctx, access), common.ErrInvalidToken)

	assert.ErrorIs(t, f.accounts.VerifyEmail(ctx, "garbage"), common.ErrInvalidToken)

	f.clock.Advance(time.Hour + time.Second)
	assert.ErrorIs(t, f.accounts.VerifyEmail(ctx, token), common.ErrTokenExpired)
	assert.False(t, f.user(t, "alice@example.com").IsVerified)
}

func TestResendVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.accounts.ResendVerification(ctx, "ghost@example.com"))
	assert.Zero(t, f.notifier.count())

	_, err := f.accounts.Signup(ctx, signupInput())
	require.NoError(t, err)
	first := *f.user(t, "alice@example.com").ActionToken

	require.NoError(t, f.accounts.ResendVerification(ctx, "alice@example.com"))
	second := *f.user(t, "alice@example.com").ActionToken
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, f.notifier.count())

	f.notifier.err = errors.New("smtp down")
	assert.ErrorIs(t, f.accounts.ResendVerification(ctx, "alice@example.com"), common.ErrNotificationFailed)

	f.notifier.err = nil
	require.NoError(t, f.accounts.VerifyEmail(ctx, *f.user(t, "alice@example.com").ActionToken))
	require.NoError(t, f.accounts.ResendVerification(ctx, "alice@example.com"))
	assert.Equal(t, 2, f.notifier.count(), "verified accounts get nothing")
}

func TestForgotPassword_AntiEnumeration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.accounts.ForgotPassword(ctx, "ghost@example.com"))
	assert.Zero(t, f.notifier.count())

	_, err := f.accounts.Signup(ctx, signupInput())
	require.NoError(t, err)
	pending := *f.user(t, "alice@example.com").ActionToken

	// unverified accounts keep their verification token
	assert.NoError(t, f.accounts.ForgotPassword(ctx, "alice@example.com"))
	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, pending, *f.user(t, "alice@example.com").ActionToken)
}

func TestForgotPassword_IssuesResetToken(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t)
	before := f.notifier.count()
	ctx := context.Background()

	require.NoError(t, f.accounts.ForgotPassword(ctx, "Alice@Example.com"))

	u := f.user(t, "alice@example.com")
	require.NotNil(t, u.ActionToken)
	assert.Equal(t, models.PurposeResetPassword, u.ActionPurpose)
	assert.Equal(t, before+1, f.notifier.count())

	claims, err := f.codec.Verify(auth.KindAction, *u.ActionToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "reset_password", claims.Purpose)
}

func TestForgotPassword_NotifierFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t)
	f.notifier.err = errors.New("smtp down")

	assert.NoError(t, f.accounts.ForgotPassword(context.Background(), "alice@example.com"))
	assert.NotNil(t, f.user(t, "alice@example.com").ActionToken)
}

func TestResetPassword_Success(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t)
	ctx := context.Background()

	session, err := f.sessions.Login(ctx, "alice@example.com", "Secret1!")
	require.NoError(t, err)

	require.NoError(t, f.accounts.ForgotPassword(ctx, "alice@example.com"))
	token := *f.user(t, "alice@example.com").ActionToken
	sentBefore := f.notifier.count()

	require.NoError(t, f.accounts.ResetPassword(ctx, token, "BrandNew2@"))

	u := f.user(t, "alice@example.com")
	assert.Nil(t, u.ActionToken)
	assert.Equal(t, sentBefore+1, f.notifier.count(), "confirmation sent")

	_, err = f.sessions.Login(ctx, "alice@example.com", "Secret1!")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = f.sessions.Login(ctx, "alice@example.com", "BrandNew2@")
	assert.NoError(t, err)

	_, err = f.sessions.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "existing sessions are revoked")

	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, token, "Another3#"), common.ErrInvalidToken, "single use")
}

func TestResetPassword_SupersededToken(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t)
	ctx := context.Background()

	require.NoError(t, f.accounts.ForgotPassword(ctx, "alice@example.com"))
	old := *f.user(t, "alice@example.com").ActionToken
	require.NoError(t, f.accounts.ForgotPassword(ctx, "alice@example.com"))

	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, old, "BrandNew2@"), common.ErrInvalidToken)
}

func TestResetPassword_Rejections(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t)
	ctx := context.Background()

	ghost, err := f.codec.Sign(auth.KindAction, auth.Claims{Email: "ghost@example.com", Purpose: "reset_password"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, ghost, "BrandNew2@"), common.ErrInvalidToken)

	verify, err := f.codec.Sign(auth.KindAction, auth.Claims{Email: "alice@example.com", Purpose: "verify_email"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, verify, "BrandNew2@"), common.ErrInvalidToken)

	require.NoError(t, f.accounts.ForgotPassword(ctx, "alice@example.com"))
	token := *f.user(t, "alice@example.com").ActionToken

	err = f.accounts.ResetPassword(ctx, token, "weak")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, token, *f.user(t, "alice@example.com").ActionToken, "token survives a rejected password")

	f.clock.Advance(2 * time.Hour)
	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, token, "BrandNew2@"), common.ErrTokenExpired)
}

func TestResetPassword_ConfirmationIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t)
	ctx := context.Background()

	require.NoError(t, f.accounts.ForgotPassword(ctx, "alice@example.com"))
	token := *f.user(t, "alice@example.com").ActionToken

	f.notifier.err = errors.New("smtp down")
	require.NoError(t, f.accounts.ResetPassword(ctx, token, "BrandNew2@"))

	_, err := f.sessions.Login(ctx, "alice@example.com", "BrandNew2@")
	assert.NoError(t, err)
}
