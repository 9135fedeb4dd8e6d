package httpapi

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/logging"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const (
	RequestIDHeader = "X-Request-ID"

	currentUserKey = "current_user"
)

// requestID tags the request with the caller's X-Request-ID or a fresh
// ULID, echoes it back and puts it on the request context for logging.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.Last().Err)
		}
		s.logger.Info(c.Request.Context(), "http request", args...)
	}
}

// authRequired accepts the access token from the accessToken cookie or an
// Authorization: Bearer header and stores the verified user on the context.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(common.AccessTokenCookieName)
		if token == "" {
			token = bearerToken(c.GetHeader("Authorization"))
		}

		user, err := s.users.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func authedUser(c *gin.Context) *models.PublicUser {
	u, _ := c.Get(currentUserKey)
	user, _ := u.(*models.PublicUser)
	return user
}
