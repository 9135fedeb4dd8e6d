// Package httpapi serves the account and session operations over HTTP
// under /api/v1/users, plus /metrics and /healthz.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/videotube/internal/logging"
	"github.com/dmitrijs2005/videotube/internal/server/config"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/dmitrijs2005/videotube/internal/server/ratelimit"
	"github.com/dmitrijs2005/videotube/internal/server/services"
	"github.com/gin-gonic/gin"
)

// UserService is what the handlers need from the service layer.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicUser, error)
	Login(ctx context.Context, identifier, password string) (*models.PublicUser, *services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*models.PublicUser, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	CurrentUser(ctx context.Context, userID string) (*models.PublicUser, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error
	UpdateAccount(ctx context.Context, userID string, upd models.AccountUpdate) (*models.PublicUser, error)
}

type Server struct {
	address         string
	shutdownTimeout time.Duration
	router          *gin.Engine
	users           UserService
	limiter         ratelimit.Limiter
	cookies         cookieSettings
	logger          logging.Logger
}

// NewServer builds the router. metrics may be nil, in which case /metrics
// is not served.
func NewServer(cfg *config.Config, users UserService, limiter ratelimit.Limiter, metrics http.Handler, logger logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		address:         cfg.HTTPAddr,
		shutdownTimeout: cfg.ShutdownTimeout,
		router:          gin.New(),
		users:           users,
		limiter:         limiter,
		cookies:         newCookieSettings(cfg),
		logger:          logger.With("module", "http_server"),
	}
	if s.limiter == nil {
		s.limiter = ratelimit.Noop{}
	}

	s.router.Use(gin.Recovery(), requestID(), s.requestLogger())
	s.routes(metrics)
	return s
}

func (s *Server) routes(metrics http.Handler) {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		s.router.GET("/metrics", gin.WrapH(metrics))
	}

	users := s.router.Group("/api/v1/users")
	users.POST("/register", s.register)
	users.POST("/login", s.login)
	users.POST("/refresh-token", s.refreshToken)

	secured := users.Group("", s.authRequired())
	secured.POST("/logout", s.logout)
	secured.POST("/change-password", s.changePassword)
	secured.GET("/current-user", s.currentUser)
	secured.PATCH("/update-account", s.updateAccount)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
