package service

import (
	"context"
	"testing"

	"musicsocial/internal/database/dbtest"
	"musicsocial/pkg/apperror"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolePermissionService_AssignAndResolve(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.role(t, "admin")
	create := h.permission(t, "artist.create")
	read := h.permission(t, "artist.read")
	h.grant(t, admin, create, read)

	got, err := h.links.ResolvePermissionNames(ctx, []string{"admin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"artist.create", "artist.read"}, got)

	perms, err := h.links.GetPermissionsByRole(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, perms, 2)
}

func TestRolePermissionService_AssignIsIdempotent(t *testing.T) {
	h := newHarness(t)
	r := h.role(t, "admin")
	p := h.permission(t, "artist.create")

	h.grant(t, r, p)
	h.grant(t, r, p)

	assert.EqualValues(t, 1, dbtest.Count(t, h.db, "role_permissions", "role_id = ? AND permission_id = ?", r.ID, p.ID))
}

func TestRolePermissionService_AssignMissingEndpoints(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := h.role(t, "admin")
	p := h.permission(t, "artist.create")

	err := h.links.Assign(ctx, 999, p.ID)
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))

	err = h.links.Assign(ctx, r.ID, 999)
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))

	err = h.links.Assign(ctx, 0, p.ID)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

	assert.EqualValues(t, 0, dbtest.Count(t, h.db, "role_permissions", ""))
}

func TestRolePermissionService_UnassignAbsentIsNoop(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.links.Unassign(context.Background(), 3, 4))
}

func TestRolePermissionService_ResolutionServedFromCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := h.role(t, "artist")
	h.grant(t, r, h.permission(t, "song.create"))

	first, err := h.links.ResolvePermissionNames(ctx, []string{"artist"})
	require.NoError(t, err)

	queries := dbtest.CountQueries(t, h.db)
	second, err := h.links.ResolvePermissionNames(ctx, []string{"artist"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Zero(t, queries.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CacheLookupsTotal.WithLabelValues("hit")))
}

func TestRolePermissionService_KeyIgnoresOrderAndDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.role(t, "artist")
	c := h.role(t, "common_user")
	h.grant(t, a, h.permission(t, "song.create"))
	h.grant(t, c, h.permission(t, "song.read"))

	first, err := h.links.ResolvePermissionNames(ctx, []string{"common_user", "artist"})
	require.NoError(t, err)
	assert.Equal(t, []string{"song.create", "song.read"}, first)

	queries := dbtest.CountQueries(t, h.db)
	second, err := h.links.ResolvePermissionNames(ctx, []string{"artist", "common_user", "artist"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Zero(t, queries.Load())
}

func TestRolePermissionService_ChangesInvalidateCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := h.role(t, "artist")
	create := h.permission(t, "song.create")
	del := h.permission(t, "song.delete")
	h.grant(t, r, create)

	got, err := h.links.ResolvePermissionNames(ctx, []string{"artist"})
	require.NoError(t, err)
	assert.Equal(t, []string{"song.create"}, got)

	h.grant(t, r, del)
	got, err = h.links.ResolvePermissionNames(ctx, []string{"artist"})
	require.NoError(t, err)
	assert.Equal(t, []string{"song.create", "song.delete"}, got)

	require.NoError(t, h.links.Unassign(ctx, r.ID, create.ID))
	got, err = h.links.ResolvePermissionNames(ctx, []string{"artist"})
	require.NoError(t, err)
	assert.Equal(t, []string{"song.delete"}, got)
}

func TestRolePermissionService_UnionAcrossRoles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.role(t, "artist")
	c := h.role(t, "common_user")
	shared := h.permission(t, "song.read")
	h.grant(t, a, shared, h.permission(t, "song.create"))
	h.grant(t, c, shared)

	got, err := h.links.ResolvePermissionNames(ctx, []string{"artist", "common_user"})
	require.NoError(t, err)
	assert.Equal(t, []string{"song.create", "song.read"}, got)
}

func TestRolePermissionService_EmptyAndUnknownRoles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	got, err := h.links.ResolvePermissionNames(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = h.links.ResolvePermissionNames(ctx, []string{"nobody"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
