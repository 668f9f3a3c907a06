package handler

import (
	"net/http"

	"musicsocial/internal/service"
	"musicsocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserRoleHandler struct {
	userRoleService service.UserRoleService
}

func NewUserRoleHandler(userRoleService service.UserRoleService) *UserRoleHandler {
	return &UserRoleHandler{userRoleService: userRoleService}
}

func (h *UserRoleHandler) RegisterRoutes(router *gin.RouterGroup, require Guard) {
	users := router.Group("/api/users/:id/roles")
	{
		users.GET("", require(PermUserReadAll), h.ListUserRoles)
		users.PUT("/:roleId", require(PermRoleAssign), h.AssignRole)
		users.DELETE("/:roleId", require(PermRoleAssign), h.RemoveRole)
	}
}

// ListUserRoles returns the roles held by a user
// @Summary      List user roles
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Response{data=[]model.Role}
// @Router       /api/users/{id}/roles [get]
func (h *UserRoleHandler) ListUserRoles(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	roles, err := h.userRoleService.ListRolesForUser(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// AssignRole grants a role to a user
// @Summary      Assign role to user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      int  true  "User ID"
// @Param        roleId  path      int  true  "Role ID"
// @Success      200     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /api/users/{id}/roles/{roleId} [put]
func (h *UserRoleHandler) AssignRole(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	roleID, ok := parseID(c, "roleId")
	if !ok {
		return
	}
	if err := h.userRoleService.AssignRoleToUser(c.Request.Context(), userID, roleID); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"user_id": userID, "role_id": roleID}))
}

// RemoveRole revokes a role from a user
// @Summary      Remove role from user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      int  true  "User ID"
// @Param        roleId  path      int  true  "Role ID"
// @Success      200     {object}  response.Response
// @Router       /api/users/{id}/roles/{roleId} [delete]
func (h *UserRoleHandler) RemoveRole(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	roleID, ok := parseID(c, "roleId")
	if !ok {
		return
	}
	removed, err := h.userRoleService.RemoveRoleFromUser(c.Request.Context(), userID, roleID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"removed": removed}))
}
