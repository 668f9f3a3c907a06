package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"musicsocial/internal/cache"
	"musicsocial/internal/database/dbtest"
	"musicsocial/internal/logger"
	"musicsocial/internal/model"
	"musicsocial/internal/repository"
	"musicsocial/pkg/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleService_CreateAndFind(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.roles.Create(ctx, CreateRoleRequest{Name: "moderator", Description: "keeps order"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	byID, err := h.roles.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "moderator", byID.Name)
	require.NotNil(t, byID.Description)
	assert.Equal(t, "keeps order", *byID.Description)

	byName, err := h.roles.FindByName(ctx, "moderator")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, created.ID, byName.ID)
}

func TestRoleService_AbsentLookupsReturnNil(t *testing.T) {
	h := newHarness(t)

	r, err := h.roles.FindByID(context.Background(), 4242)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = h.roles.FindByName(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestRoleService_DuplicateName(t *testing.T) {
	h := newHarness(t)
	h.role(t, "admin")

	_, err := h.roles.Create(context.Background(), CreateRoleRequest{Name: "admin"})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeAlreadyExist, apperror.CodeOf(err))
	assert.EqualValues(t, 1, dbtest.Count(t, h.db, "roles", "name = ?", "admin"))
}

func TestRoleService_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := map[string]CreateRoleRequest{
		"empty":     {Name: ""},
		"too short": {Name: "ab"},
		"too long":  {Name: strings.Repeat("r", 51)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.roles.Create(ctx, req)
			require.Error(t, err)
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, "name", appErr.Details["field"])
		})
	}
	assert.EqualValues(t, 0, dbtest.Count(t, h.db, "roles", ""))
}

func TestRoleService_UpdateAndDeleteMissing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.roles.Update(ctx, 99, UpdateRoleRequest{Name: strPtr("renamed")})
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))

	err = h.roles.Delete(ctx, 99)
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))

	err = h.roles.Delete(ctx, 0)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestRoleService_UpdateKeepsUnsetFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r, err := h.roles.Create(ctx, CreateRoleRequest{Name: "curator", Description: "picks songs"})
	require.NoError(t, err)

	updated, err := h.roles.Update(ctx, r.ID, UpdateRoleRequest{Name: strPtr("editor")})
	require.NoError(t, err)
	assert.Equal(t, "editor", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "picks songs", *updated.Description)
}

func TestRoleService_RenameInvalidatesResolution(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := h.role(t, "listener")
	h.grant(t, r, h.permission(t, "song.read"))

	got, err := h.links.ResolvePermissionNames(ctx, []string{"listener"})
	require.NoError(t, err)
	assert.Equal(t, []string{"song.read"}, got)

	_, err = h.roles.Update(ctx, r.ID, UpdateRoleRequest{Name: strPtr("fan")})
	require.NoError(t, err)

	got, err = h.links.ResolvePermissionNames(ctx, []string{"listener"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRoleService_DeleteRemovesLinks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := h.role(t, "temp")
	h.grant(t, r, h.permission(t, "song.read"))
	require.NoError(t, h.userRoles.AssignRoleToUser(ctx, 7, r.ID))

	require.NoError(t, h.roles.Delete(ctx, r.ID))

	assert.EqualValues(t, 0, dbtest.Count(t, h.db, "role_permissions", "role_id = ?", r.ID))
	assert.EqualValues(t, 0, dbtest.Count(t, h.db, "user_roles", "role_id = ?", r.ID))
	got, err := h.links.ResolvePermissionNames(ctx, []string{"temp"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRoleService_DatabaseErrors(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	svc := NewRoleService(repository.NewRoleRepository(db), cache.New(nil),
		Options{QueryTimeout: time.Second, Logger: logger.Nop()})

	mock.ExpectQuery(`SELECT .* FROM "roles"`).WillReturnError(assert.AnError)

	_, err := svc.FindByID(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeDatabase, apperror.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleService_QueryDeadline(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	svc := NewRoleService(repository.NewRoleRepository(db), cache.New(nil),
		Options{QueryTimeout: 20 * time.Millisecond, Logger: logger.Nop()})

	mock.ExpectQuery(`SELECT .* FROM "roles"`).
		WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "admin"))

	start := time.Now()
	_, err := svc.FindByName(context.Background(), "admin")
	require.Error(t, err)
	assert.Equal(t, apperror.CodeDatabase, apperror.CodeOf(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

// deletingRoleRepo removes the row between the service's lookup and its write.
type deletingRoleRepo struct {
	repository.RoleRepository
}

func (r deletingRoleRepo) Update(ctx context.Context, role *model.Role) (bool, error) {
	if _, err := r.RoleRepository.Delete(ctx, role.ID); err != nil {
		return false, err
	}
	return r.RoleRepository.Update(ctx, role)
}

func TestRoleService_UpdateRacingDeleteIsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := h.role(t, "editor")

	svc := NewRoleService(deletingRoleRepo{h.roleRepo}, nil, Options{QueryTimeout: 2 * time.Second, Logger: logger.Nop()})
	_, err := svc.Update(ctx, r.ID, UpdateRoleRequest{Name: strPtr("editor2")})
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
	assert.EqualValues(t, 0, dbtest.Count(t, h.db, "roles", ""))
}
