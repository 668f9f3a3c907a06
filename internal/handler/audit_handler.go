package handler

import (
	"net/http"
	"strconv"

	"musicsocial/internal/service"
	"musicsocial/pkg/apperror"
	"musicsocial/pkg/pagination"
	"musicsocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup, require Guard) {
	group := router.Group("/api/audit-logs")
	{
		group.GET("", require(PermAuditRead), h.GetAuditLogs)
	}
}

// GetAuditLogs returns authorization and moderation changes, newest first
// @Summary      Get audit logs
// @Description  Role, permission, grant and artist moderation history with the acting user
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action    query     string  false  "Filter by action, e.g. ACCEPT_ARTIST"
// @Param        actor_id  query     int     false  "Filter by acting user"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      400       {object}  response.Response
// @Failure      403       {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	filter := service.AuditListFilter{Action: c.Query("action"), Params: pagination.Parse(c)}
	if raw := c.Query("actor_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			response.Fail(c, apperror.InvalidField("actor_id", "must be a positive integer"))
			return
		}
		filter.ActorID = uint(id)
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": filter.MetaFor(total),
	}))
}
