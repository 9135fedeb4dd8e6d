package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/dmitrijs2005/videotube/internal/server/services"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"fullname"`
	Password   string `json:"password"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         *models.PublicUser `json:"user"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type updateAccountRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"fullname"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	user, err := s.users.Register(c.Request.Context(), services.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   req.Password,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, user, "User registered successfully")
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	identifiers := models.LoginIdentifiers(req.Username, req.Email)
	if len(identifiers) == 0 {
		abortWithError(c, fmt.Errorf("%w: username or email is required", common.ErrMissingInput))
		return
	}

	ctx := c.Request.Context()
	key := c.ClientIP() + "|" + identifiers[0]
	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "login throttling skipped", "error", err)
		allowed = true
	}
	if !allowed {
		abortWithError(c, common.ErrRateLimited)
		return
	}

	user, pair, err := services.LoginAny(ctx, s.users, identifiers, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	s.setTokenCookies(c, pair)
	respond(c, http.StatusOK, loginResponse{User: user, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, "User logged in successfully")
}

func (s *Server) logout(c *gin.Context) {
	if err := s.users.Logout(c.Request.Context(), authedUser(c).ID); err != nil {
		abortWithError(c, err)
		return
	}

	s.clearTokenCookies(c)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

// refreshToken takes the refresh token from the refreshToken cookie or,
// failing that, from the JSON body.
func (s *Server) refreshToken(c *gin.Context) {
	token, _ := c.Cookie(common.RefreshTokenCookieName)
	if token == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badBody(c, err)
			return
		}
		token = req.RefreshToken
	}

	pair, err := s.users.Refresh(c.Request.Context(), token)
	if err != nil {
		abortWithError(c, err)
		return
	}

	s.setTokenCookies(c, pair)
	respond(c, http.StatusOK, pair, "Access token refreshed")
}

func (s *Server) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	err := s.users.ChangePassword(c.Request.Context(), authedUser(c).ID, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (s *Server) currentUser(c *gin.Context) {
	user, err := s.users.CurrentUser(c.Request.Context(), authedUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, user, "Current user fetched successfully")
}

func (s *Server) updateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	user, err := s.users.UpdateAccount(c.Request.Context(), authedUser(c).ID, models.AccountUpdate{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, user, "Account details updated successfully")
}
