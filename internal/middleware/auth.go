package middleware

import (
	"context"
	"net/http"
	"strings"

	"musicsocial/internal/auth"
	"musicsocial/internal/logger"
	"musicsocial/internal/metrics"
	"musicsocial/pkg/apperror"
	"musicsocial/pkg/response"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate and the gate.
const (
	ContextIdentity    = "identity"
	ContextUserID      = "userID"
	ContextPermissions = "permissions"
)

// Authenticate decodes the bearer credential into the caller's identity.
// The access_token cookie is tried first, then the Authorization header.
func Authenticate(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c)
		if err != nil {
			response.Fail(c, err)
			return
		}
		id, err := tokens.Parse(raw)
		if err != nil {
			response.Fail(c, apperror.Unauthorized("invalid token"))
			return
		}
		c.Set(ContextIdentity, id)
		c.Set(ContextUserID, id.UserID)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie, nil
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", apperror.Unauthorized("authorization is missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", apperror.Unauthorized("invalid authorization format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(c *gin.Context) (*auth.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil, false
	}
	id, ok := v.(*auth.Identity)
	return id, ok && id != nil
}

// PermissionsFrom returns the permission names attached by the gate.
func PermissionsFrom(c *gin.Context) []string {
	if v, ok := c.Get(ContextPermissions); ok {
		if perms, ok := v.([]string); ok {
			return perms
		}
	}
	return nil
}

// --- Permission-based gate ---

// PermissionResolver resolves role names to permission names, normally through the cache.
type PermissionResolver interface {
	ResolvePermissionNames(ctx context.Context, roleNames []string) ([]string, error)
}

// Gate checks a caller's resolved permissions against the permissions a route requires.
type Gate struct {
	resolver PermissionResolver
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewGate(resolver PermissionResolver, m *metrics.Metrics) *Gate {
	return &Gate{resolver: resolver, metrics: m, log: logger.WithComponent("authz")}
}

// Missing returns the required permissions absent from granted, in required order.
func Missing(granted, required []string) []string {
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[p] = struct{}{}
	}
	missing := make([]string, 0)
	for _, r := range required {
		if _, ok := set[r]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

// Authorize resolves roleNames and checks required. It returns the granted set on success and a
// FORBIDDEN error listing the missing permissions otherwise.
func (g *Gate) Authorize(ctx context.Context, roleNames, required []string) ([]string, error) {
	granted, err := g.resolver.ResolvePermissionNames(ctx, roleNames)
	if err != nil {
		return nil, err
	}
	if missing := Missing(granted, required); len(missing) > 0 {
		g.metrics.AuthzDecision(false)
		return granted, apperror.Forbidden(missing)
	}
	g.metrics.AuthzDecision(true)
	return granted, nil
}

// Require must run after Authenticate. It attaches the caller's permissions to the context.
func (g *Gate) Require(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			response.Fail(c, apperror.Unauthorized(""))
			return
		}

		granted, err := g.Authorize(c.Request.Context(), id.Roles, required)
		if err != nil {
			if apperror.Is(err, apperror.CodeForbidden) {
				g.log.Debug("access denied", logger.Fields(
					logger.FieldUserID, id.UserID,
					"path", c.FullPath(),
				))
			}
			response.Fail(c, err)
			return
		}
		c.Set(ContextPermissions, granted)
		c.Next()
	}
}

// UserID returns the authenticated caller's id, or UNAUTHORIZED.
func UserID(c *gin.Context) (uint, error) {
	id, ok := IdentityFrom(c)
	if !ok {
		return 0, apperror.Unauthorized("")
	}
	return id.UserID, nil
}

// SetTokenCookie stores the access token as an HttpOnly cookie. Cross-site deployments need secure.
func SetTokenCookie(c *gin.Context, token string, maxAge int, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", token, maxAge, "/", "", secure, true)
}

// ClearTokenCookie removes the access token cookie.
func ClearTokenCookie(c *gin.Context, secure bool) {
	SetTokenCookie(c, "", -1, secure)
}
