package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/gin-gonic/gin"
)

var errBadRequest = errors.New("malformed request body")

type errorResponse struct {
	Error   string              `json:"error"`
	Details []common.FieldError `json:"details,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrUnverifiedAccount):
		return http.StatusForbidden
	case errors.Is(err, common.ErrCompanyNotFound), errors.Is(err, common.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateEmail),
		errors.Is(err, common.ErrDuplicatePersonalID),
		errors.Is(err, common.ErrAlreadyVerified):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) errorBody(c *gin.Context, err error) (int, errorResponse) {
	status := statusFor(err)

	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return status, errorResponse{Error: common.ErrValidation.Error(), Details: ve.Fields}
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
		if !s.opts.Development {
			return status, errorResponse{Error: "internal error"}
		}
	}
	return status, errorResponse{Error: err.Error()}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, body := s.errorBody(c, err)
	c.JSON(status, body)
}

func (s *Server) abort(c *gin.Context, err error) {
	status, body := s.errorBody(c, err)
	c.AbortWithStatusJSON(status, body)
}
