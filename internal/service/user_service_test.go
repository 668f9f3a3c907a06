package service

import (
	"context"
	"testing"
	"time"

	"musicsocial/internal/auth"
	"musicsocial/internal/database/dbtest"
	"musicsocial/internal/model"
	"musicsocial/pkg/apperror"
	"musicsocial/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_RegisterGrantsCommonUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.role(t, model.RoleCommonUser)

	u, err := h.users.Register(ctx, RegisterUserRequest{Username: "mira", Email: "mira@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleCommonUser}, u.Roles)

	has, err := h.userRoles.UserHasRole(ctx, u.ID, model.RoleCommonUser)
	require.NoError(t, err)
	assert.True(t, has)

	got, err := h.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "mira@example.com", got.Email)
	assert.Equal(t, []string{model.RoleCommonUser}, got.Roles)
}

func TestUserService_RegisterWithoutDefaultRole(t *testing.T) {
	h := newHarness(t)

	u, err := h.users.Register(context.Background(), RegisterUserRequest{Username: "solo", Email: "solo@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Empty(t, u.Roles)
}

func TestUserService_RegisterDuplicate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := RegisterUserRequest{Username: "mira", Email: "mira@example.com", Password: "s3cretpass"}
	_, err := h.users.Register(ctx, req)
	require.NoError(t, err)

	_, err = h.users.Register(ctx, req)
	assert.Equal(t, apperror.CodeAlreadyExist, apperror.CodeOf(err))
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "email", appErr.Details["field"])

	_, err = h.users.Register(ctx, RegisterUserRequest{Username: "mira", Email: "other@example.com", Password: "s3cretpass"})
	assert.Equal(t, apperror.CodeAlreadyExist, apperror.CodeOf(err))
	appErr, ok = apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "username", appErr.Details["field"])
	assert.Contains(t, appErr.Message, "mira")

	_, err = h.users.Register(ctx, RegisterUserRequest{Username: "mi", Email: "bad", Password: "x"})
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestUserService_Login(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.role(t, model.RoleCommonUser)
	u, err := h.users.Register(ctx, RegisterUserRequest{Username: "mira", Email: "mira@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	tok, err := h.users.Login(ctx, LoginUserRequest{Email: "mira@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleCommonUser}, tok.Roles)
	assert.True(t, tok.ExpiresAt.After(time.Now()))

	id, err := auth.NewTokenManager("test-secret", time.Hour).Parse(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, []string{model.RoleCommonUser}, id.Roles)

	_, err = h.users.Login(ctx, LoginUserRequest{Email: "mira@example.com", Password: "wrong-pass"})
	assert.Equal(t, apperror.CodeUnauthorized, apperror.CodeOf(err))

	_, err = h.users.Login(ctx, LoginUserRequest{Email: "nobody@example.com", Password: "s3cretpass"})
	assert.Equal(t, apperror.CodeUnauthorized, apperror.CodeOf(err))
}

func TestUserService_ListAndDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.role(t, model.RoleCommonUser)
	var ids []uint
	for _, name := range []string{"ana", "ben", "cai"} {
		u, err := h.users.Register(ctx, RegisterUserRequest{Username: name, Email: name + "@example.com", Password: "s3cretpass"})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}

	page, total, err := h.users.List(ctx, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "ana", page[0].Username)
	assert.Equal(t, []string{model.RoleCommonUser}, page[0].Roles)

	require.NoError(t, h.users.Delete(ctx, ids[0]))
	assert.EqualValues(t, 0, dbtest.Count(t, h.db, "user_roles", "user_id = ?", ids[0]))
	_, err = h.users.GetByID(ctx, ids[0])
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))

	err = h.users.Delete(ctx, ids[0])
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
}
