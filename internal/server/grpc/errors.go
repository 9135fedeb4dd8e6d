package grpc

import (
	"github.com/dmitrijs2005/videotube/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus converts a service error into a gRPC status by its kind.
func toStatus(err error) error {
	kind := common.KindOf(err)
	switch kind {
	case common.KindMissingInput, common.KindInvalidInput:
		return status.Error(codes.InvalidArgument, err.Error())
	case common.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case common.KindAlreadyExists:
		return status.Error(codes.AlreadyExists, err.Error())
	case common.KindInvalidCredentials, common.KindUnauthenticated:
		return status.Error(codes.Unauthenticated, err.Error())
	case common.KindExpired:
		return status.Error(codes.Unauthenticated, "refresh token is expired or used")
	case common.KindRateLimited:
		return status.Error(codes.ResourceExhausted, err.Error())
	case common.KindStoreUnavailable:
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
