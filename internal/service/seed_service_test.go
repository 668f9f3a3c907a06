package service

import (
	"context"
	"testing"

	"musicsocial/internal/database/dbtest"
	"musicsocial/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedService_CreatesCatalog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	report, err := h.seed.SeedDefaultRolesAndPermissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(PermissionCatalog), report.PermissionsCreated)
	assert.Equal(t, 3, report.RolesCreated)
	wantLinks := len(PermissionCatalog) + len(DefaultRolePermissions[model.RoleArtist]) + len(DefaultRolePermissions[model.RoleCommonUser])
	assert.Equal(t, wantLinks, report.LinksCreated)

	admin, err := h.links.ResolvePermissionNames(ctx, []string{model.RoleAdmin})
	require.NoError(t, err)
	assert.ElementsMatch(t, PermissionCatalog, admin)

	fan, err := h.links.ResolvePermissionNames(ctx, []string{model.RoleCommonUser})
	require.NoError(t, err)
	assert.ElementsMatch(t, DefaultRolePermissions[model.RoleCommonUser], fan)
}

func TestSeedService_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.seed.SeedDefaultRolesAndPermissions(ctx)
	require.NoError(t, err)
	perms := dbtest.Count(t, h.db, "permissions", "")
	links := dbtest.Count(t, h.db, "role_permissions", "")

	report, err := h.seed.SeedDefaultRolesAndPermissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedReport{}, report)
	assert.Equal(t, perms, dbtest.Count(t, h.db, "permissions", ""))
	assert.Equal(t, links, dbtest.Count(t, h.db, "role_permissions", ""))
	assert.EqualValues(t, 3, dbtest.Count(t, h.db, "roles", ""))
}

func TestSeedService_KeepsExistingRows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	existing := h.role(t, model.RoleArtist)
	h.permission(t, "song.create")

	report, err := h.seed.SeedDefaultRolesAndPermissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.RolesCreated)
	assert.Equal(t, len(PermissionCatalog)-1, report.PermissionsCreated)

	r, err := h.roles.FindByName(ctx, model.RoleArtist)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, r.ID)
}
