package service

import (
	"context"
	"encoding/json"
	"testing"

	"musicsocial/internal/auth"
	"musicsocial/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_RecordsActorFromContext(t *testing.T) {
	h := newHarness(t)
	admin, err := h.users.Register(context.Background(), RegisterUserRequest{Username: "boss", Email: "boss@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	ctx := auth.WithIdentity(context.Background(), &auth.Identity{UserID: admin.ID, Roles: []string{model.RoleAdmin}})

	r, err := h.roles.Create(ctx, CreateRoleRequest{Name: "moderator"})
	require.NoError(t, err)

	logs, total, err := h.audit.GetAuditLogs(context.Background(), AuditListFilter{Action: model.ActionCreateRole})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	entry := logs[0]
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, admin.ID, *entry.ActorID)
	assert.Equal(t, "boss", entry.Actor)
	assert.Equal(t, "role", entry.EntityType)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Details, &details))
	assert.Equal(t, "moderator", details["name"])
	assert.NotZero(t, r.ID)
}

func TestAuditService_SystemActions(t *testing.T) {
	h := newHarness(t)
	_, err := h.seed.SeedDefaultRolesAndPermissions(context.Background())
	require.NoError(t, err)

	logs, total, err := h.audit.GetAuditLogs(context.Background(), AuditListFilter{Action: model.ActionSeed})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Nil(t, logs[0].ActorID)
	assert.Equal(t, "system", logs[0].Actor)

	// A second seed changes nothing and records nothing.
	_, err = h.seed.SeedDefaultRolesAndPermissions(context.Background())
	require.NoError(t, err)
	_, total, err = h.audit.GetAuditLogs(context.Background(), AuditListFilter{Action: model.ActionSeed})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestAuditService_ArtistModeration(t *testing.T) {
	h := newHarness(t)
	ctx := auth.WithIdentity(context.Background(), &auth.Identity{UserID: 99})
	h.role(t, model.RoleArtist)
	a, err := h.artists.Create(ctx, validArtist(), uintPtr(7))
	require.NoError(t, err)
	_, err = h.artists.Accept(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, h.artists.LogicalDelete(ctx, a.ID))

	logs, _, err := h.audit.GetAuditLogs(context.Background(), AuditListFilter{ActorID: 99})
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.ElementsMatch(t, []string{model.ActionAssignUserRole, model.ActionAcceptArtist, model.ActionDeleteArtist}, actions)
}

func TestAuditService_NoOpLinkIsNotRecorded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := h.role(t, "artist")
	p := h.permission(t, "song.create")
	h.grant(t, r, p)
	h.grant(t, r, p)

	_, total, err := h.audit.GetAuditLogs(ctx, AuditListFilter{Action: model.ActionAssignPermission})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
