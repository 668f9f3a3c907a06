package handler

import (
	"net/http"

	"musicsocial/internal/service"
	"musicsocial/pkg/apperror"
	"musicsocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService     service.RoleService
	linkService     service.RolePermissionService
	userRoleService service.UserRoleService
}

func NewRoleHandler(roleService service.RoleService, linkService service.RolePermissionService, userRoleService service.UserRoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService, linkService: linkService, userRoleService: userRoleService}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup, require Guard) {
	roles := router.Group("/api/roles")
	{
		roles.GET("", require(PermRoleRead), h.ListRoles)
		roles.GET("/:id", require(PermRoleRead), h.GetRole)
		roles.POST("", require(PermRoleCreate), h.CreateRole)
		roles.PATCH("/:id", require(PermRoleUpdate), h.UpdateRole)
		roles.DELETE("/:id", require(PermRoleDelete), h.DeleteRole)
		roles.GET("/:id/permissions", require(PermRoleRead), h.ListRolePermissions)
		roles.PUT("/:id/permissions/:permissionId", require(PermRoleAssign), h.AssignPermission)
		roles.DELETE("/:id/permissions/:permissionId", require(PermRoleAssign), h.UnassignPermission)
		roles.GET("/:id/users", require(PermUserReadAll), h.ListRoleUsers)
	}
}

// ListRoles returns all roles
// @Summary      List roles
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Role}
// @Failure      403  {object}  response.Response
// @Router       /api/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// GetRole returns a single role by ID
// @Summary      Get role
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  response.Response{data=model.Role}
// @Failure      404  {object}  response.Response
// @Router       /api/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	role, err := h.roleService.FindByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if role == nil {
		response.Fail(c, apperror.NotFound("role", id))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// CreateRole creates a new role
// @Summary      Create role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRoleRequest  true  "Role"
// @Success      201      {object}  response.Response{data=model.Role}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.Create(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// UpdateRole renames a role or changes its description
// @Summary      Update role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                        true  "Role ID"
// @Param        payload  body      service.UpdateRoleRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Role}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/roles/{id} [patch]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// DeleteRole deletes a role and its links
// @Summary      Delete role
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.roleService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role deleted successfully"}))
}

// ListRolePermissions returns the permissions linked to a role
// @Summary      List role permissions
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  response.Response{data=[]model.Permission}
// @Router       /api/roles/{id}/permissions [get]
func (h *RoleHandler) ListRolePermissions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	perms, err := h.linkService.GetPermissionsByRole(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// AssignPermission links a permission to a role
// @Summary      Assign permission
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id            path      int  true  "Role ID"
// @Param        permissionId  path      int  true  "Permission ID"
// @Success      200           {object}  response.Response
// @Failure      404           {object}  response.Response
// @Router       /api/roles/{id}/permissions/{permissionId} [put]
func (h *RoleHandler) AssignPermission(c *gin.Context) {
	roleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	permID, ok := parseID(c, "permissionId")
	if !ok {
		return
	}
	if err := h.linkService.Assign(c.Request.Context(), roleID, permID); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"role_id": roleID, "permission_id": permID}))
}

// UnassignPermission removes a permission from a role
// @Summary      Unassign permission
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id            path      int  true  "Role ID"
// @Param        permissionId  path      int  true  "Permission ID"
// @Success      200           {object}  response.Response
// @Router       /api/roles/{id}/permissions/{permissionId} [delete]
func (h *RoleHandler) UnassignPermission(c *gin.Context) {
	roleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	permID, ok := parseID(c, "permissionId")
	if !ok {
		return
	}
	if err := h.linkService.Unassign(c.Request.Context(), roleID, permID); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"role_id": roleID, "permission_id": permID}))
}

// ListRoleUsers returns the ids of users holding a role
// @Summary      List role members
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  response.Response{data=[]int}
// @Failure      404  {object}  response.Response
// @Router       /api/roles/{id}/users [get]
func (h *RoleHandler) ListRoleUsers(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	role, err := h.roleService.FindByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if role == nil {
		response.Fail(c, apperror.NotFound("role", id))
		return
	}
	ids, err := h.userRoleService.ListUsersForRole(c.Request.Context(), role.Name)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ids))
}
