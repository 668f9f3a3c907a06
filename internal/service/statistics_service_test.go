package service

import (
	"context"
	"testing"
	"time"

	"musicsocial/internal/model"
	"musicsocial/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsService_Totals(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.seed.SeedDefaultRolesAndPermissions(ctx)
	require.NoError(t, err)
	_, err = h.users.Register(ctx, RegisterUserRequest{Username: "mira", Email: "mira@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	pending, err := h.artists.Create(ctx, validArtist(), nil)
	require.NoError(t, err)
	_, err = h.artists.CreateAsAdmin(ctx, validArtist())
	require.NoError(t, err)
	_, err = h.artists.Reject(ctx, pending.ID)
	require.NoError(t, err)

	stats, err := h.stats.GetStatistics(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.ArtistsByStatus[model.ArtistPending])
	assert.EqualValues(t, 1, stats.ArtistsByStatus[model.ArtistActive])
	assert.EqualValues(t, 1, stats.ArtistsByStatus[model.ArtistRejected])
	assert.EqualValues(t, 1, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.UsersByRole[model.RoleCommonUser])
	assert.EqualValues(t, 0, stats.UsersByRole[model.RoleAdmin])
	assert.EqualValues(t, 3, stats.TotalRoles)
	assert.EqualValues(t, len(PermissionCatalog), stats.TotalPermissions)
}

func TestStatisticsService_InvertedRange(t *testing.T) {
	h := newHarness(t)
	_, err := h.stats.GetStatistics(context.Background(), time.Now(), time.Now().Add(-time.Hour))
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}
