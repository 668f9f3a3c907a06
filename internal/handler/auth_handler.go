package handler

import (
	"net/http"
	"time"

	"musicsocial/internal/middleware"
	"musicsocial/internal/service"
	"musicsocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService  service.UserService
	secureCookie bool
}

// NewAuthHandler sets up the account endpoints. secureCookie marks the token cookie Secure.
func NewAuthHandler(userService service.UserService, secureCookie bool) *AuthHandler {
	return &AuthHandler{userService: userService, secureCookie: secureCookie}
}

// RegisterRoutes binds the public auth routes and the caller-scoped /api/me routes.
// authenticated must decode the caller; require attaches resolved permissions.
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, authenticated gin.HandlerFunc, require Guard) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
	}

	me := router.Group("/api/me", authenticated)
	{
		me.GET("", h.GetMe)
		me.GET("/permissions", require(), h.GetMyPermissions)
	}
}

// Register creates an account holding the default role
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterUserRequest  true  "Account"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// Login exchanges credentials for a bearer token
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginUserRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginUserRequest
	if !bindJSON(c, &req) {
		return
	}
	token, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	maxAge := int(time.Until(token.ExpiresAt).Seconds())
	middleware.SetTokenCookie(c, token.Token, maxAge, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, token))
}

// Logout clears the token cookie
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out"}))
}

// GetMe returns the authenticated account
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, err := middleware.UserID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// GetMyPermissions returns the permissions resolved for the caller's roles
// @Summary      Current permissions
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]string}
// @Failure      401  {object}  response.Response
// @Router       /api/me/permissions [get]
func (h *AuthHandler) GetMyPermissions(c *gin.Context) {
	perms := middleware.PermissionsFrom(c)
	if perms == nil {
		perms = []string{}
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}
