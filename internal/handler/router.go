package handler

import (
	"net/http"
	"time"

	"musicsocial/internal/auth"
	"musicsocial/internal/logger"
	"musicsocial/internal/metrics"
	"musicsocial/internal/middleware"
	"musicsocial/internal/service"
	"musicsocial/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterDeps is everything the HTTP surface needs.
type RouterDeps struct {
	Logger       *logger.Logger
	Tokens       *auth.TokenManager
	Gate         *middleware.Gate
	Metrics      *metrics.Metrics
	Hub          *websocket.Hub
	CORSOrigins  []string
	SecureCookie bool

	Roles           service.RoleService
	Permissions     service.PermissionService
	RolePermissions service.RolePermissionService
	UserRoles       service.UserRoleService
	Artists         service.ArtistService
	Users           service.UserService
	Audit           service.AuditService
	Statistics      service.StatisticsService
}

// NewRouter builds the engine. Every /api route except /api/me runs Authenticate then the gate.
func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = logger.Global()
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery(log), middleware.AccessLog(log))

	if len(deps.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = deps.CORSOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.HeaderRequestID}
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
		corsConfig.ExposeHeaders = []string{middleware.HeaderRequestID}
		corsConfig.MaxAge = 12 * time.Hour
		router.Use(cors.New(corsConfig))
	}

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if deps.Hub != nil {
		router.GET("/ws", websocket.Handler(deps.Hub, deps.Tokens, deps.Gate))
	}

	authenticated := middleware.Authenticate(deps.Tokens)
	guard := Guard(deps.Gate.Require)

	NewAuthHandler(deps.Users, deps.SecureCookie).RegisterRoutes(&router.RouterGroup, authenticated, guard)

	protected := router.Group("", authenticated)
	NewRoleHandler(deps.Roles, deps.RolePermissions, deps.UserRoles).RegisterRoutes(protected, guard)
	NewPermissionHandler(deps.Permissions).RegisterRoutes(protected, guard)
	NewUserRoleHandler(deps.UserRoles).RegisterRoutes(protected, guard)
	NewArtistHandler(deps.Artists).RegisterRoutes(protected, guard)
	NewUserHandler(deps.Users).RegisterRoutes(protected, guard)
	if deps.Audit != nil {
		NewAuditHandler(deps.Audit).RegisterRoutes(protected, guard)
	}
	if deps.Statistics != nil {
		NewStatisticsHandler(deps.Statistics).RegisterRoutes(protected, guard)
	}

	return router
}
