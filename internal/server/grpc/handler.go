package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dmitrijs2005/videotube/internal/authpb"
	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/dmitrijs2005/videotube/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func userMessage(u *models.PublicUser) *structpb.Struct {
	return authpb.Strings(map[string]string{
		authpb.FieldID:         u.ID,
		authpb.FieldUsername:   u.Username,
		authpb.FieldEmail:      u.Email,
		authpb.FieldFullName:   u.FullName,
		authpb.FieldAvatar:     u.Avatar,
		authpb.FieldCoverImage: u.CoverImage,
		authpb.FieldCreatedAt:  u.CreatedAt.UTC().Format(time.RFC3339),
		authpb.FieldUpdatedAt:  u.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func withUser(msg *structpb.Struct, u *models.PublicUser) *structpb.Struct {
	msg.Fields[authpb.FieldUser] = structpb.NewStructValue(userMessage(u))
	return msg
}

func pairMessage(pair *services.TokenPair) *structpb.Struct {
	return authpb.Strings(map[string]string{
		authpb.FieldAccessToken:  pair.AccessToken,
		authpb.FieldRefreshToken: pair.RefreshToken,
	})
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	s.logger.Info(ctx, "Registration request")

	user, err := s.users.Register(ctx, services.RegisterInput{
		Username:   authpb.String(req, authpb.FieldUsername),
		Email:      authpb.String(req, authpb.FieldEmail),
		FullName:   authpb.String(req, authpb.FieldFullName),
		Password:   authpb.String(req, authpb.FieldPassword),
		Avatar:     authpb.String(req, authpb.FieldAvatar),
		CoverImage: authpb.String(req, authpb.FieldCoverImage),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "username", user.Username)
	return withUser(authpb.Strings(nil), user), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	identifiers := models.LoginIdentifiers(authpb.String(req, authpb.FieldUsername), authpb.String(req, authpb.FieldEmail))
	if len(identifiers) == 0 {
		return nil, toStatus(fmt.Errorf("%w: username or email is required", common.ErrMissingInput))
	}

	if !s.allowLogin(ctx, identifiers[0]) {
		return nil, status.Error(codes.ResourceExhausted, common.ErrRateLimited.Error())
	}

	user, pair, err := services.LoginAny(ctx, s.users, identifiers, authpb.String(req, authpb.FieldPassword))
	if err != nil {
		return nil, toStatus(err)
	}

	return withUser(pairMessage(pair), user), nil
}

// allowLogin throttles per client host and identifier. The source port is
// dropped so reconnecting does not reset the budget.
func (s *GRPCServer) allowLogin(ctx context.Context, identifier string) bool {
	ok, err := s.limiter.Allow(ctx, peerHost(ctx)+"|"+identifier)
	if err != nil {
		s.logger.Warn(ctx, "login throttling skipped", "error", err)
		return true
	}
	return ok
}

func (s *GRPCServer) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	pair, err := s.users.Refresh(ctx, authpb.String(req, authpb.FieldRefreshToken))
	if err != nil {
		return nil, toStatus(err)
	}

	return pairMessage(pair), nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	user, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	if err := s.users.Logout(ctx, user.ID); err != nil {
		return nil, toStatus(err)
	}

	return authpb.Strings(nil), nil
}

func (s *GRPCServer) CurrentUser(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	user, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	current, err := s.users.CurrentUser(ctx, user.ID)
	if err != nil {
		return nil, toStatus(err)
	}

	return withUser(authpb.Strings(nil), current), nil
}

func peerHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
