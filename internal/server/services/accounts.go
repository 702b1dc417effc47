package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
	"github.com/dmitrijs2005/bookkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/notify"
)

// SignupInput is the registration payload.
type SignupInput struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	PersonalIDCode string `json:"personalIdCode"`
}

// AccountService drives signup, email verification and password reset.
// Each user holds at most one pending action token, tagged with the flow
// that issued it; a newer token supersedes the previous one.
type AccountService struct {
	store     *credentials.Store
	codec     *auth.Codec
	notifier  notify.Notifier
	templates *notify.Templates
	log       logging.Logger
}

func NewAccountService(store *credentials.Store, codec *auth.Codec, notifier notify.Notifier, templates *notify.Templates, log logging.Logger) *AccountService {
	return &AccountService{
		store:     store,
		codec:     codec,
		notifier:  notifier,
		templates: templates,
		log:       log.With("module", "accounts"),
	}
}

// Signup registers a new unverified user, or reissues the verification token
// of an existing unverified one. Verified accounts yield ErrAlreadyVerified.
// The verification email is required: failing to send it fails the call with
// ErrNotificationFailed.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.PublicUser, error) {
	email := common.NormalizeEmail(in.Email)

	existing, err := s.store.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsVerified {
			return nil, common.ErrAlreadyVerified
		}
		token, err := s.actionToken(existing.ID, existing.Email, models.PurposeVerifyEmail)
		if err != nil {
			return nil, err
		}
		user, err := s.store.UpdateUser(ctx, existing.ID, credentials.UserUpdate{
			ActionToken: &token, ActionPurpose: models.PurposeVerifyEmail,
		})
		if err != nil {
			return nil, err
		}
		if err := s.sendVerification(ctx, user, token); err != nil {
			return nil, err
		}
		s.log.Info(ctx, "verification reissued on signup", "user_id", user.ID)
		return user.Public(), nil

	case errors.Is(err, common.ErrorNotFound):
		token, err := s.actionToken("", email, models.PurposeVerifyEmail)
		if err != nil {
			return nil, err
		}
		user, err := s.store.CreateUser(ctx, credentials.NewUser{
			Name:           in.Name,
			Surname:        in.Surname,
			PersonalIDCode: in.PersonalIDCode,
			Email:          email,
			Password:       in.Password,
			ActionToken:    token,
			ActionPurpose:  models.PurposeVerifyEmail,
		})
		if err != nil {
			return nil, err
		}
		if err := s.sendVerification(ctx, user, token); err != nil {
			return nil, err
		}
		s.log.Info(ctx, "user signed up", "user_id", user.ID)
		return user.Public(), nil

	default:
		return nil, err
	}
}

// VerifyEmail marks the account verified when token is its current
// verification token. The transition happens once; a repeated call with the
// same token yields ErrAlreadyVerified.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.codec.Verify(auth.KindAction, token)
	if err != nil {
		return err
	}
	if claims.Purpose != string(models.PurposeVerifyEmail) {
		return common.ErrInvalidToken
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx *credentials.Store) error {
		user, err := tx.FindUserByEmail(ctx, claims.Email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}
		if user.IsVerified {
			return common.ErrAlreadyVerified
		}
		if !user.HasActionToken(token, models.PurposeVerifyEmail) {
			return common.ErrInvalidToken
		}

		verified := true
		if _, err := tx.UpdateUser(ctx, user.ID, credentials.UserUpdate{IsVerified: &verified, ClearActionToken: true}); err != nil {
			return err
		}
		s.log.Info(ctx, "email verified", "user_id", user.ID)
		return nil
	})
}

// ResendVerification issues a fresh verification token for an unverified
// account. Unknown and verified emails succeed silently.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Info(ctx, "verification resend for unknown email")
			return nil
		}
		return err
	}
	if user.IsVerified {
		s.log.Info(ctx, "verification resend for verified account", "user_id", user.ID)
		return nil
	}

	token, err := s.actionToken(user.ID, user.Email, models.PurposeVerifyEmail)
	if err != nil {
		return err
	}
	user, err = s.store.UpdateUser(ctx, user.ID, credentials.UserUpdate{
		ActionToken: &token, ActionPurpose: models.PurposeVerifyEmail,
	})
	if err != nil {
		return err
	}
	return s.sendVerification(ctx, user, token)
}

// ForgotPassword issues a reset token to a verified account. The result is
// the same whether or not the email belongs to anyone.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Info(ctx, "password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.IsVerified {
		s.log.Info(ctx, "password reset requested for unverified account", "user_id", user.ID)
		return nil
	}

	token, err := s.actionToken(user.ID, user.Email, models.PurposeResetPassword)
	if err != nil {
		return err
	}
	if _, err := s.store.UpdateUser(ctx, user.ID, credentials.UserUpdate{
		ActionToken: &token, ActionPurpose: models.PurposeResetPassword,
	}); err != nil {
		return err
	}

	msg, err := s.templates.PasswordReset(user.Name, token)
	if err == nil {
		_, err = s.notifier.Send(ctx, user.Email, msg.Subject, msg.Body)
	}
	if err != nil {
		s.log.Error(ctx, "failed to send password reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword sets a new password when token is the account's current
// reset token, clears the token and revokes every session of the user.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.codec.Verify(auth.KindAction, token)
	if err != nil {
		return err
	}
	if claims.Purpose != string(models.PurposeResetPassword) {
		return common.ErrInvalidToken
	}

	var user *models.User
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx *credentials.Store) error {
		u, err := tx.FindUserByEmail(ctx, claims.Email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}
		if !u.HasActionToken(token, models.PurposeResetPassword) {
			return common.ErrInvalidToken
		}

		u, err = tx.UpdateUser(ctx, u.ID, credentials.UserUpdate{Password: &newPassword, ClearActionToken: true})
		if err != nil {
			return err
		}
		if _, err := tx.RevokeAllRefreshTokens(ctx, u.ID); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "password reset", "user_id", user.ID)

	msg, err := s.templates.PasswordChanged(user.Name)
	if err == nil {
		_, err = s.notifier.Send(ctx, user.Email, msg.Subject, msg.Body)
	}
	if err != nil {
		s.log.Error(ctx, "failed to send password change confirmation", "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *AccountService) actionToken(userID, email string, purpose models.ActionPurpose) (string, error) {
	return s.codec.Sign(auth.KindAction, auth.Claims{UserID: userID, Email: email, Purpose: string(purpose)})
}

func (s *AccountService) sendVerification(ctx context.Context, user *models.User, token string) error {
	msg, err := s.templates.Verification(user.Name, token)
	if err != nil {
		return err
	}
	id, err := s.notifier.Send(ctx, user.Email, msg.Subject, msg.Body)
	if err != nil {
		s.log.Error(ctx, "failed to send verification email", "user_id", user.ID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrNotificationFailed, err)
	}
	s.log.Debug(ctx, "verification email sent", "user_id", user.ID, "delivery_id", id)
	return nil
}
