package handler

import (
	"net/http"

	"musicsocial/internal/service"
	"musicsocial/pkg/apperror"
	"musicsocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	permissionService service.PermissionService
}

func NewPermissionHandler(permissionService service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

func (h *PermissionHandler) RegisterRoutes(router *gin.RouterGroup, require Guard) {
	perms := router.Group("/api/permissions")
	{
		perms.GET("", require(PermPermissionRead), h.ListPermissions)
		perms.GET("/:id", require(PermPermissionRead), h.GetPermission)
		perms.POST("", require(PermPermissionCreate), h.CreatePermission)
		perms.PATCH("/:id", require(PermPermissionUpdate), h.UpdatePermission)
		perms.DELETE("/:id", require(PermPermissionDelete), h.DeletePermission)
	}
}

// ListPermissions returns all available permissions
// @Summary      List permissions
// @Tags         permissions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Permission}
// @Router       /api/permissions [get]
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	perms, err := h.permissionService.GetAll(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// GetPermission returns a permission by ID
// @Summary      Get permission
// @Tags         permissions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Permission ID"
// @Success      200  {object}  response.Response{data=model.Permission}
// @Failure      404  {object}  response.Response
// @Router       /api/permissions/{id} [get]
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	perm, err := h.permissionService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if perm == nil {
		response.Fail(c, apperror.NotFound("permission", id))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perm))
}

// CreatePermission creates a permission
// @Summary      Create permission
// @Tags         permissions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePermissionRequest  true  "Permission"
// @Success      201      {object}  response.Response{data=model.Permission}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/permissions [post]
func (h *PermissionHandler) CreatePermission(c *gin.Context) {
	var req service.CreatePermissionRequest
	if !bindJSON(c, &req) {
		return
	}
	perm, err := h.permissionService.Create(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, perm))
}

// UpdatePermission renames a permission or changes its description
// @Summary      Update permission
// @Tags         permissions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                              true  "Permission ID"
// @Param        payload  body      service.UpdatePermissionRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Permission}
// @Failure      404      {object}  response.Response
// @Router       /api/permissions/{id} [patch]
func (h *PermissionHandler) UpdatePermission(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdatePermissionRequest
	if !bindJSON(c, &req) {
		return
	}
	perm, err := h.permissionService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perm))
}

// DeletePermission deletes a permission and unlinks it from every role
// @Summary      Delete permission
// @Tags         permissions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Permission ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/permissions/{id} [delete]
func (h *PermissionHandler) DeletePermission(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.permissionService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Permission deleted successfully"}))
}
