package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/videotube/internal/authpb"
	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/cryptox"
	"github.com/dmitrijs2005/videotube/internal/logging"
	"github.com/dmitrijs2005/videotube/internal/server/config"
	usersrepo "github.com/dmitrijs2005/videotube/internal/server/repositories/users"
	"github.com/dmitrijs2005/videotube/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	gs "github.com/dmitrijs2005/videotube/internal/server/grpc"
)

/*************
 * Fake auth API
 *************/

type fakeAPI struct {
	lastRefreshReq *structpb.Struct
	refreshResp    *structpb.Struct
	refreshErr     error
	refreshCalls   int

	loginReq  *structpb.Struct
	loginResp *structpb.Struct
	loginErr  error

	logoutErr error
}

func (f *fakeAPI) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return in, nil
}
func (f *fakeAPI) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.loginReq = in
	return f.loginResp, f.loginErr
}
func (f *fakeAPI) Refresh(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.refreshCalls++
	f.lastRefreshReq = in
	return f.refreshResp, f.refreshErr
}
func (f *fakeAPI) Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return authpb.Strings(nil), f.logoutErr
}
func (f *fakeAPI) CurrentUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return authpb.Strings(nil), nil
}

func pair(access, refresh string) *structpb.Struct {
	return authpb.Strings(map[string]string{authpb.FieldAccessToken: access, authpb.FieldRefreshToken: refresh})
}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_RefreshesTokenOnExpiredAndRetries(t *testing.T) {
	f := &fakeAPI{refreshResp: pair("A2", "R2")}
	c := &GRPCClient{client: f}
	c.SetTokens("A1", "R1")

	callCount := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		callCount++
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(common.AccessTokenHeaderName)
		require.Len(t, toks, 1)

		if callCount == 1 {
			require.Equal(t, "A1", toks[0])
			return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		require.Equal(t, "A2", toks[0])
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, callCount)
	require.Equal(t, "R1", authpb.String(f.lastRefreshReq, authpb.FieldRefreshToken))

	access, refresh := c.Tokens()
	require.Equal(t, "A2", access)
	require.Equal(t, "R2", refresh)
}

func TestInterceptor_OtherErrorsPassThrough(t *testing.T) {
	f := &fakeAPI{}
	c := &GRPCClient{client: f}
	c.SetTokens("A1", "R1")

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "unauthenticated: invalid token")
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Equal(t, codes.Unauthenticated, status.Code(err))
	require.Zero(t, f.refreshCalls)
}

func TestInterceptor_NoRefreshToken(t *testing.T) {
	f := &fakeAPI{}
	c := &GRPCClient{client: f}
	c.SetTokens("A1", "")

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Zero(t, f.refreshCalls)
}

func TestInterceptor_RefreshFails(t *testing.T) {
	f := &fakeAPI{refreshErr: status.Error(codes.Unauthenticated, "refresh token is expired or used")}
	c := &GRPCClient{client: f}
	c.SetTokens("A1", "R1")

	calls := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, 1, calls)
}

func TestInterceptor_RefreshCallIsNotIntercepted(t *testing.T) {
	c := &GRPCClient{client: &fakeAPI{}}
	c.SetTokens("A1", "R1")

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccessTokenHeaderName))
		return nil
	}

	require.NoError(t, c.accessTokenInterceptor(context.Background(), authpb.FullMethod(authpb.MethodRefresh), nil, nil, nil, invoker))
}

func TestLogin_PicksIdentifierField(t *testing.T) {
	f := &fakeAPI{loginResp: pair("A", "R")}
	c := &GRPCClient{client: f}

	_, err := c.Login(context.Background(), "alice@example.com", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", authpb.String(f.loginReq, authpb.FieldEmail))
	assert.Empty(t, authpb.String(f.loginReq, authpb.FieldUsername))

	_, err = c.Login(context.Background(), "alice", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "alice", authpb.String(f.loginReq, authpb.FieldUsername))

	access, refresh := c.Tokens()
	assert.Equal(t, "A", access)
	assert.Equal(t, "R", refresh)
}

func TestRefresh_WithoutToken(t *testing.T) {
	c := &GRPCClient{client: &fakeAPI{}}
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrUnauthorized)
}

func TestLogout_KeepsTokensOnError(t *testing.T) {
	c := &GRPCClient{client: &fakeAPI{logoutErr: status.Error(codes.Unavailable, "down")}}
	c.SetTokens("A", "R")

	assert.ErrorIs(t, c.Logout(context.Background()), ErrUnavailable)
	access, _ := c.Tokens()
	assert.Equal(t, "A", access)
}

func TestMapError(t *testing.T) {
	c := &GRPCClient{}
	require.NoError(t, c.mapError(nil))
	assert.ErrorIs(t, c.mapError(status.Error(codes.Unauthenticated, "x")), ErrUnauthorized)
	assert.ErrorIs(t, c.mapError(status.Error(codes.PermissionDenied, "x")), ErrUnauthorized)
	assert.ErrorIs(t, c.mapError(status.Error(codes.Unavailable, "x")), ErrUnavailable)
	assert.ErrorIs(t, c.mapError(status.Error(codes.DeadlineExceeded, "x")), ErrUnavailable)
	assert.ErrorIs(t, c.mapError(status.Error(codes.AlreadyExists, "taken")), ErrRejected)
	assert.ErrorContains(t, c.mapError(errors.New("boom")), "rpc error")
}

/*************
 * against a real server
 *************/

func startServer(t *testing.T) *GRPCClient {
	t.Helper()
	h, err := cryptox.NewHasher(cryptox.AlgorithmBcrypt, cryptox.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	cfg := &config.Config{
		AccessTokenSecret:            "access-secret",
		RefreshTokenSecret:           "refresh-secret",
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: time.Hour,
	}
	svc := services.NewUserService(usersrepo.NewMemoryRepository(), h, cfg, nil, logging.Nop())
	srv := gs.NewGRPCServer("bufnet", logging.Nop(), svc, nil)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, lis)
	}()

	c, err := NewGRPCClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		<-done
	})
	return c
}

func TestGRPCClient_AgainstServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := startServer(t)

	u, err := c.Register(ctx, RegisterRequest{Username: "alice", Email: "alice@x.io", FullName: "Alice", Password: []byte("pw")})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = c.Register(ctx, RegisterRequest{Username: "alice", Email: "alice@x.io", FullName: "Alice", Password: []byte("pw")})
	assert.ErrorIs(t, err, ErrRejected)

	_, err = c.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.Login(ctx, "alice@x.io", []byte("pw"))
	require.NoError(t, err)

	me, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	_, oldRefresh := c.Tokens()
	require.NoError(t, c.Refresh(ctx))
	_, newRefresh := c.Tokens()
	assert.NotEqual(t, oldRefresh, newRefresh)

	require.NoError(t, c.Logout(ctx))
	access, refresh := c.Tokens()
	assert.Empty(t, access)
	assert.Empty(t, refresh)

	c.SetTokens("", newRefresh)
	assert.ErrorIs(t, c.Refresh(ctx), ErrUnauthorized)
}
