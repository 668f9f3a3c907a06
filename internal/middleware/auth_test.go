package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"musicsocial/internal/auth"
	"musicsocial/internal/metrics"
	"musicsocial/pkg/apperror"
	"musicsocial/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticResolver map[string][]string

func (r staticResolver) ResolvePermissionNames(_ context.Context, roles []string) ([]string, error) {
	out := []string{}
	for _, role := range roles {
		out = append(out, r[role]...)
	}
	return out, nil
}

type erroringResolver struct{}

func (erroringResolver) ResolvePermissionNames(context.Context, []string) ([]string, error) {
	return nil, apperror.Database("role_permission.by_role_names", context.DeadlineExceeded)
}

func newProtected(t *testing.T, tokens *auth.TokenManager, gate *Gate, required ...string) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.GET("/protected", Authenticate(tokens), gate.Require(required...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"permissions": PermissionsFrom(c)})
	})
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestMissing(t *testing.T) {
	assert.Equal(t, []string{}, Missing([]string{"a", "b"}, []string{"a", "b"}))
	assert.Equal(t, []string{"c", "a"}, Missing(nil, []string{"c", "a"}))
	assert.Equal(t, []string{"c"}, Missing([]string{"a"}, []string{"a", "c"}))
	assert.Empty(t, Missing(nil, nil))
}

func TestGate_Authorize(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	g := NewGate(staticResolver{"admin": {"artist.accept", "artist.reject"}}, m)

	granted, err := g.Authorize(context.Background(), []string{"admin"}, []string{"artist.accept"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"artist.accept", "artist.reject"}, granted)

	_, err = g.Authorize(context.Background(), []string{"common_user"}, []string{"artist.accept"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
	assert.Equal(t, []string{"artist.accept"}, appErr.Details["missing"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDecisionsTotal.WithLabelValues("allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDecisionsTotal.WithLabelValues("deny")))
}

func TestGate_EmptyRequirementAllowsAnyIdentity(t *testing.T) {
	g := NewGate(staticResolver{}, nil)
	_, err := g.Authorize(context.Background(), nil, nil)
	assert.NoError(t, err)
}

func TestRequire(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	gate := NewGate(staticResolver{"admin": {"artist.accept"}}, nil)
	router := newProtected(t, tokens, gate, "artist.accept")

	adminToken, _, err := tokens.Issue(1, []string{"admin"})
	require.NoError(t, err)
	fanToken, _, err := tokens.Issue(2, []string{"common_user"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
		code   apperror.Code
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized, apperror.CodeUnauthorized},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }, http.StatusUnauthorized, apperror.CodeUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, apperror.CodeUnauthorized},
		{"missing permission", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+fanToken) }, http.StatusForbidden, apperror.CodeForbidden},
		{"header allowed", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+adminToken) }, http.StatusOK, ""},
		{"cookie allowed", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: adminToken}) }, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decode(t, w).Code)
			}
		})
	}
}

func TestRequire_ResolverFailure(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	router := newProtected(t, tokens, NewGate(erroringResolver{}, nil), "artist.read")
	token, _, err := tokens.Issue(1, []string{"admin"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeDatabase, decode(t, w).Code)
}

func TestRequire_WithoutAuthenticate(t *testing.T) {
	r := gin.New()
	r.GET("/x", NewGate(staticResolver{}, nil).Require("a"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, err := UserID(c)
	assert.Equal(t, apperror.CodeUnauthorized, apperror.CodeOf(err))

	c.Set(ContextIdentity, &auth.Identity{UserID: 12})
	id, err := UserID(c)
	require.NoError(t, err)
	assert.EqualValues(t, 12, id)
}
