// Package httpapi exposes the session, account and company services over
// HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Options tune the HTTP surface.
type Options struct {
	Address string
	// SecureCookies marks the refresh cookie Secure. Only plain-HTTP local
	// development turns it off.
	SecureCookies bool
	// Development exposes internal error messages in 500 responses.
	Development bool
}

type Server struct {
	opts      Options
	router    *gin.Engine
	sessions  *services.SessionService
	accounts  *services.AccountService
	companies *services.CompanyService
	logger    logging.Logger
}

func NewServer(opts Options, l logging.Logger, ss *services.SessionService, as *services.AccountService, cs *services.CompanyService) *Server {
	s := &Server{
		opts:      opts,
		sessions:  ss,
		accounts:  as,
		companies: cs,
		logger:    l.With("module", "http_server"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.requestLogger(), s.recovery())

	r.GET("/healthz", s.health)

	api := r.Group("/api")

	a := api.Group("/auth")
	a.POST("/signup", s.signup)
	a.POST("/verify-email", s.verifyEmail)
	a.GET("/verify-email", s.verifyEmailLink)
	a.POST("/resend-verification", s.resendVerification)
	a.POST("/login", s.login)
	a.POST("/refresh", s.refresh)
	a.POST("/logout", s.logout)
	a.POST("/forgot-password", s.forgotPassword)
	a.POST("/reset-password", s.resetPassword)

	protected := api.Group("", s.requireAuth())
	protected.POST("/me/logout-all", s.logoutAll)
	protected.GET("/companies", s.listCompanies)
	protected.POST("/companies", s.createCompany)
	protected.GET("/companies/:id", s.getCompany)
	protected.PUT("/companies/:id", s.updateCompany)
	protected.DELETE("/companies/:id", s.deleteCompany)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
