// Package handler exposes the services over HTTP. Handlers stay thin: bind, call, render.
package handler

import (
	"strconv"

	"musicsocial/pkg/apperror"
	"musicsocial/pkg/response"

	"github.com/gin-gonic/gin"
)

// Permissions a route can require, named after the seed catalog.
const (
	PermRoleCreate       = "role.create"
	PermRoleRead         = "role.read"
	PermRoleUpdate       = "role.update"
	PermRoleDelete       = "role.delete"
	PermRoleAssign       = "role.assign"
	PermPermissionCreate = "permission.create"
	PermPermissionRead   = "permission.read"
	PermPermissionUpdate = "permission.update"
	PermPermissionDelete = "permission.delete"
	PermUserRead         = "user.read"
	PermUserReadAll      = "user.read_all"
	PermUserDelete       = "user.delete"
	PermAuditRead        = "audit.read"
	PermStatisticsRead   = "statistics.read"
	PermArtistCreate     = "artist.create"
	PermArtistCreateAdm  = "artist.create_admin"
	PermArtistRead       = "artist.read"
	PermArtistReadAll    = "artist.read_all"
	PermArtistUpdate     = "artist.update"
	PermArtistUpdateAny  = "artist.update_any"
	PermArtistAccept     = "artist.accept"
	PermArtistReject     = "artist.reject"
	PermArtistDelete     = "artist.delete"
)

// Guard builds route middleware requiring the given permissions.
type Guard func(required ...string) gin.HandlerFunc

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.Fail(c, apperror.InvalidField(name, "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body into req, rendering VALIDATION_ERROR on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Fail(c, apperror.Validation("invalid request payload: "+err.Error()))
		return false
	}
	return true
}

func hasPermission(granted []string, perm string) bool {
	for _, p := range granted {
		if p == perm {
			return true
		}
	}
	return false
}
