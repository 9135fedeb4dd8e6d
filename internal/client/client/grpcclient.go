// Package client talks to the videotube AuthService over gRPC and keeps the
// current token pair, refreshing it when the access token has expired.
package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/videotube/internal/authpb"
	"github.com/dmitrijs2005/videotube/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// authAPI is the generated-style client surface; tests replace it.
type authAPI interface {
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Refresh(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CurrentUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type User struct {
	ID        string
	Username  string
	Email     string
	FullName  string
	Avatar    string
	CreatedAt string
}

type RegisterRequest struct {
	Username string
	Email    string
	FullName string
	Avatar   string
	Password []byte
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      authAPI

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && strings.Contains(st.Message(), "token expired")
}

// accessTokenInterceptor attaches the access token to every call. When the
// server reports it expired, the pair is refreshed once and the call retried.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if method == authpb.FullMethod(authpb.MethodRefresh) {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := s.Tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)

	if err == nil || !isTokenExpired(err) || refresh == "" {
		return err
	}

	if err := s.refresh(ctx, refresh); err != nil {
		return err
	}

	access, _ = s.Tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = authpb.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = access, refresh
}

func (s *GRPCClient) Tokens() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) Register(ctx context.Context, r RegisterRequest) (*User, error) {
	req := authpb.Strings(map[string]string{
		authpb.FieldUsername: r.Username,
		authpb.FieldEmail:    r.Email,
		authpb.FieldFullName: r.FullName,
		authpb.FieldAvatar:   r.Avatar,
		authpb.FieldPassword: string(r.Password),
	})

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return userFrom(resp), nil
}

// Login accepts a username or an email as identifier and keeps the
// returned token pair.
func (s *GRPCClient) Login(ctx context.Context, identifier string, password []byte) (*User, error) {
	field := authpb.FieldUsername
	if strings.Contains(identifier, "@") {
		field = authpb.FieldEmail
	}
	req := authpb.Strings(map[string]string{field: identifier, authpb.FieldPassword: string(password)})

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.SetTokens(authpb.String(resp, authpb.FieldAccessToken), authpb.String(resp, authpb.FieldRefreshToken))
	return userFrom(resp), nil
}

func (s *GRPCClient) refresh(ctx context.Context, refreshToken string) error {
	resp, err := s.client.Refresh(ctx, authpb.Strings(map[string]string{authpb.FieldRefreshToken: refreshToken}))
	if err != nil {
		return s.mapError(err)
	}
	s.SetTokens(authpb.String(resp, authpb.FieldAccessToken), authpb.String(resp, authpb.FieldRefreshToken))
	return nil
}

// Refresh exchanges the stored refresh token for a new pair.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	_, refresh := s.Tokens()
	if refresh == "" {
		return ErrUnauthorized
	}
	return s.refresh(ctx, refresh)
}

// Logout ends the session on the server and forgets the local tokens.
func (s *GRPCClient) Logout(ctx context.Context) error {
	if _, err := s.client.Logout(ctx, authpb.Strings(nil)); err != nil {
		return s.mapError(err)
	}
	s.SetTokens("", "")
	return nil
}

func (s *GRPCClient) CurrentUser(ctx context.Context) (*User, error) {
	resp, err := s.client.CurrentUser(ctx, authpb.Strings(nil))
	if err != nil {
		return nil, s.mapError(err)
	}
	return userFrom(resp), nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func userFrom(resp *structpb.Struct) *User {
	u := authpb.Nested(resp, authpb.FieldUser)
	return &User{
		ID:        authpb.String(u, authpb.FieldID),
		Username:  authpb.String(u, authpb.FieldUsername),
		Email:     authpb.String(u, authpb.FieldEmail),
		FullName:  authpb.String(u, authpb.FieldFullName),
		Avatar:    authpb.String(u, authpb.FieldAvatar),
		CreatedAt: authpb.String(u, authpb.FieldCreatedAt),
	}
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists, codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
