package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/videotube/internal/authpb"
	"github.com/dmitrijs2005/videotube/internal/logging"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/dmitrijs2005/videotube/internal/server/ratelimit"
	"github.com/dmitrijs2005/videotube/internal/server/services"
	"google.golang.org/grpc"
)

// UserService is the part of the service layer exposed over gRPC.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicUser, error)
	Login(ctx context.Context, identifier, password string) (*models.PublicUser, *services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*models.PublicUser, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	CurrentUser(ctx context.Context, userID string) (*models.PublicUser, error)
}

type GRPCServer struct {
	address string
	users   UserService
	limiter ratelimit.Limiter
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, us UserService, limiter ratelimit.Limiter) *GRPCServer {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		limiter: limiter,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestInterceptor, s.accessTokenInterceptor))
	authpb.RegisterAuthServiceServer(srv, s)
	return srv
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}
