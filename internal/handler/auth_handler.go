package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anillosguillen/catalog_api/internal/middleware"
	"github.com/anillosguillen/catalog_api/internal/service"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

// AuthHandler issues and clears admin sessions.
type AuthHandler struct {
	authService  *service.AdminAuthService
	limiter      *middleware.LoginRateLimiter
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. limiter may be nil.
func NewAuthHandler(authService *service.AdminAuthService, limiter *middleware.LoginRateLimiter, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter, secureCookie: secureCookie}
}

// Login handles POST /v1/admin/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	token, expiresAt, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if h.limiter != nil {
			h.limiter.Failure(c.ClientIP())
		}
		utils.ErrorFrom(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.authService.SessionTTL().Seconds()))
	utils.Success(c, 200, "Login successful", gin.H{
		"token":     token,
		"expiresAt": expiresAt,
	})
}

// Logout handles POST /v1/admin/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	utils.Success(c, 200, "Logout successful", nil)
}

// Me handles GET /v1/admin/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	utils.Success(c, 200, "Session valid", gin.H{"email": c.GetString(middleware.ContextAdminEmail)})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", h.secureCookie, true)
}
