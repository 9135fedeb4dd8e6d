package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/server/config"
	"github.com/dmitrijs2005/videotube/internal/server/services"
	"github.com/gin-gonic/gin"
)

type cookieSettings struct {
	secure        bool
	domain        string
	sameSite      http.SameSite
	accessMaxAge  int
	refreshMaxAge int
}

func newCookieSettings(cfg *config.Config) cookieSettings {
	return cookieSettings{
		secure:        cfg.CookieSecure,
		domain:        cfg.CookieDomain,
		sameSite:      parseSameSite(cfg.CookieSameSite),
		accessMaxAge:  seconds(cfg.AccessTokenValidityDuration),
		refreshMaxAge: seconds(cfg.RefreshTokenValidityDuration),
	}
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

func (s *Server) setTokenCookies(c *gin.Context, pair *services.TokenPair) {
	c.SetSameSite(s.cookies.sameSite)
	c.SetCookie(common.AccessTokenCookieName, pair.AccessToken, s.cookies.accessMaxAge, "/", s.cookies.domain, s.cookies.secure, true)
	c.SetCookie(common.RefreshTokenCookieName, pair.RefreshToken, s.cookies.refreshMaxAge, "/", s.cookies.domain, s.cookies.secure, true)
}

func (s *Server) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(s.cookies.sameSite)
	c.SetCookie(common.AccessTokenCookieName, "", -1, "/", s.cookies.domain, s.cookies.secure, true)
	c.SetCookie(common.RefreshTokenCookieName, "", -1, "/", s.cookies.domain, s.cookies.secure, true)
}
