package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on authenticated calls.
const AccessTokenHeaderName = "access_token"

// Cookie names used by the HTTP API for the token pair.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)
