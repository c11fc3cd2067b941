package handle

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/middleware"
	"github.com/yeisme/filevault/pkg/rule"
)

// AuthHandlers serves the /api/auth routes.
type AuthHandlers struct {
	svc *service.AuthService
	cfg configs.AuthConfig
}

// NewAuthHandlers returns the handlers of svc. cfg supplies the cookie
// settings.
func NewAuthHandlers(svc *service.AuthService, cfg configs.AuthConfig) *AuthHandlers {
	if cfg.CookieName == "" {
		cfg.CookieName = configs.DefaultAuthCookieName
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = configs.DefaultSessionTTL
	}

	return &AuthHandlers{svc: svc, cfg: cfg}
}

// Signup creates an account.
//
//	@Summary	Create an account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		req	body		types.SignupRequest	true	"account"
//	@Success	201	{object}	types.Response[model.User]
//	@Failure	400	{object}	types.ErrorResponse
//	@Failure	409	{object}	types.ErrorResponse
//	@Router		/api/auth/signup [post]
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req types.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	user, err := h.svc.Signup(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.OK("account created", user))
}

// Login opens a session and sets the session cookie.
//
//	@Summary	Log in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		req	body		types.LoginRequest	true	"credentials"
//	@Success	200	{object}	types.Response[model.User]
//	@Failure	400	{object}	types.ErrorResponse
//	@Failure	401	{object}	types.ErrorResponse
//	@Router		/api/auth/login [post]
func (h *AuthHandlers) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	user, token, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	h.setCookie(c, token, int(h.cfg.SessionTTL.Seconds()))
	c.JSON(http.StatusOK, types.OK("logged in", user))
}

// Logout revokes the session of the request, if any, and clears the cookie.
//
//	@Summary	Log out
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	types.Response[any]
//	@Router		/api/auth/logout [post]
func (h *AuthHandlers) Logout(c *gin.Context) {
	if token := middleware.TokenFromRequest(c, h.cfg.CookieName); token != "" {
		if err := h.svc.Logout(c.Request.Context(), token); err != nil {
			fail(c, err)
			return
		}
	}

	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, types.OK[any]("logged out", nil))
}

// Me returns the caller's account.
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	types.Response[model.User]
//	@Failure	401	{object}	types.ErrorResponse
//	@Router		/api/auth/me [get]
func (h *AuthHandlers) Me(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	user, err := h.svc.Me(c.Request.Context(), sess)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, types.OK("current user", user))
}

func (h *AuthHandlers) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, value, maxAge, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}

// bindError turns a binding failure into a validation error carrying the
// first field message.
func bindError(err error) error {
	if errors.Is(err, io.EOF) {
		return apperr.Validation("request body is required")
	}

	return apperr.Validation(rule.First(err))
}
