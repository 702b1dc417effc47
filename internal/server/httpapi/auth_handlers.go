package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const refreshCookie = common.RefreshTokenCookieName

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// bind decodes the JSON body into dst, writing a 400 on failure.
func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.logger.Debug(c.Request.Context(), "bind json failed", "path", c.Request.URL.Path, "error", err)
		s.fail(c, errBadRequest)
		return false
	}
	return true
}

func (s *Server) setRefreshCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, token, maxAge, "/", "", s.opts.SecureCookies, true)
}

func (s *Server) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, "", -1, "/", "", s.opts.SecureCookies, true)
}

func (s *Server) signup(c *gin.Context) {
	var req services.SignupInput
	if !s.bind(c, &req) {
		return
	}

	user, err := s.accounts.Signup(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "verification email sent",
		"user":    user,
	})
}

func (s *Server) verifyEmail(c *gin.Context) {
	var req tokenRequest
	if !s.bind(c, &req) {
		return
	}
	s.doVerify(c, req.Token)
}

func (s *Server) verifyEmailLink(c *gin.Context) {
	s.doVerify(c, c.Query("token"))
}

func (s *Server) doVerify(c *gin.Context, token string) {
	if err := s.accounts.VerifyEmail(c.Request.Context(), token); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "email verified"})
}

func (s *Server) resendVerification(c *gin.Context) {
	var req emailRequest
	if !s.bind(c, &req) {
		return
	}
	if err := s.accounts.ResendVerification(c.Request.Context(), req.Email); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "if the account is awaiting verification, a new email has been sent"})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !s.bind(c, &req) {
		return
	}

	res, err := s.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setRefreshCookie(c, res.RefreshToken, res.RefreshExpiresAt)
	c.JSON(http.StatusOK, gin.H{
		"accessToken": res.AccessToken,
		"user":        res.User,
	})
}

func (s *Server) refresh(c *gin.Context) {
	presented, err := c.Cookie(refreshCookie)
	if err != nil || presented == "" {
		s.fail(c, common.ErrMissingToken)
		return
	}

	res, err := s.sessions.Refresh(c.Request.Context(), presented)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			s.clearRefreshCookie(c)
		}
		s.fail(c, err)
		return
	}

	s.setRefreshCookie(c, res.RefreshToken, res.RefreshExpiresAt)
	c.JSON(http.StatusOK, gin.H{"accessToken": res.AccessToken})
}

func (s *Server) logout(c *gin.Context) {
	presented, _ := c.Cookie(refreshCookie)
	if err := s.sessions.Logout(c.Request.Context(), presented); err != nil {
		s.fail(c, err)
		return
	}
	s.clearRefreshCookie(c)
	c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) logoutAll(c *gin.Context) {
	if err := s.sessions.LogoutAll(c.Request.Context(), userID(c)); err != nil {
		s.fail(c, err)
		return
	}
	s.clearRefreshCookie(c)
	c.JSON(http.StatusOK, messageResponse{Message: "all sessions revoked"})
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req emailRequest
	if !s.bind(c, &req) {
		return
	}
	if err := s.accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "if the email is registered, a reset link has been sent"})
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !s.bind(c, &req) {
		return
	}
	if err := s.accounts.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}
