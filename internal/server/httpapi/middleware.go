package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// requireAuth accepts "Authorization: Bearer <access token>" and stores the
// caller id in the gin context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(common.AuthorizationHeaderName))
		if !ok {
			s.abort(c, common.ErrMissingToken)
			return
		}

		claims, err := s.sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.abort(c, err)
			return
		}
		if claims.UserID == "" {
			s.abort(c, common.ErrInvalidToken)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Warn(c.Request.Context(), "request", args...)
			return
		}
		s.logger.Info(c.Request.Context(), "request", args...)
	}
}

// recovery turns a handler panic into an opaque 500.
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		s.logger.Error(c.Request.Context(), "panic in handler", "panic", rec, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}
