package authpb

import "google.golang.org/protobuf/types/known/structpb"

// Message field names.
const (
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldFullName     = "fullname"
	FieldPassword     = "password"
	FieldAvatar       = "avatar"
	FieldCoverImage   = "coverImage"
	FieldUser         = "user"
	FieldID           = "_id"
	FieldCreatedAt    = "createdAt"
	FieldUpdatedAt    = "updatedAt"
	FieldAccessToken  = "accessToken"
	FieldRefreshToken = "refreshToken"
)

// Strings builds a message with string fields. Empty values are skipped.
func Strings(fields map[string]string) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for k, v := range fields {
		if v != "" {
			s.Fields[k] = structpb.NewStringValue(v)
		}
	}
	return s
}

// String returns the string field key of s, or "" when it is absent or
// not a string.
func String(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// Nested returns the struct field key of s, or nil.
func Nested(s *structpb.Struct, key string) *structpb.Struct {
	return s.GetFields()[key].GetStructValue()
}
