package service

import (
	"context"
	"time"

	"musicsocial/internal/model"
	"musicsocial/internal/repository"
	"musicsocial/pkg/apperror"

	"gorm.io/gorm"
)

// PlatformStatistics summarizes the catalogue and membership for the admin dashboard.
type PlatformStatistics struct {
	TimeRangeStart   time.Time                    `json:"time_range_start"`
	TimeRangeEnd     time.Time                    `json:"time_range_end"`
	ArtistsByStatus  map[model.ArtistStatus]int64 `json:"artists_by_status"`
	ArtistsCreated   int64                        `json:"artists_created"`
	UsersRegistered  int64                        `json:"users_registered"`
	TotalUsers       int64                        `json:"total_users"`
	UsersByRole      map[string]int64             `json:"users_by_role"`
	TotalRoles       int64                        `json:"total_roles"`
	TotalPermissions int64                        `json:"total_permissions"`
}

type StatisticsService interface {
	// GetStatistics reports totals plus the artists and users created in [start, end].
	GetStatistics(ctx context.Context, start, end time.Time) (*PlatformStatistics, error)
}

type statisticsService struct {
	base
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB, opts Options) StatisticsService {
	return &statisticsService{base: newBase(opts, "statistics"), db: db}
}

func (s *statisticsService) GetStatistics(ctx context.Context, start, end time.Time) (*PlatformStatistics, error) {
	if end.Before(start) {
		return nil, apperror.InvalidField("end_date", "must not be before start_date")
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	db := repository.GetDB(ctx, s.db)

	stats := &PlatformStatistics{
		TimeRangeStart:  start,
		TimeRangeEnd:    end,
		ArtistsByStatus: map[model.ArtistStatus]int64{},
		UsersByRole:     map[string]int64{},
	}
	for _, st := range []model.ArtistStatus{model.ArtistPending, model.ArtistActive, model.ArtistRejected, model.ArtistDeleted} {
		stats.ArtistsByStatus[st] = 0
	}

	var byStatus []struct {
		Status model.ArtistStatus
		Total  int64
	}
	if err := db.Model(&model.Artist{}).Select("status, COUNT(*) as total").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, s.dbError("statistics.artists", err)
	}
	for _, row := range byStatus {
		stats.ArtistsByStatus[row.Status] = row.Total
	}

	var byRole []struct {
		Name  string
		Total int64
	}
	err := db.Table("roles").
		Select("roles.name as name, COUNT(user_roles.user_id) as total").
		Joins("LEFT JOIN user_roles ON user_roles.role_id = roles.id").
		Group("roles.name").
		Scan(&byRole).Error
	if err != nil {
		return nil, s.dbError("statistics.roles", err)
	}
	for _, row := range byRole {
		stats.UsersByRole[row.Name] = row.Total
	}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.ArtistsCreated, db.Model(&model.Artist{}).Where("created_at BETWEEN ? AND ?", start, end)},
		{&stats.UsersRegistered, db.Model(&model.User{}).Where("created_at BETWEEN ? AND ?", start, end)},
		{&stats.TotalUsers, db.Model(&model.User{})},
		{&stats.TotalRoles, db.Model(&model.Role{})},
		{&stats.TotalPermissions, db.Model(&model.Permission{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, s.dbError("statistics.count", err)
		}
	}
	return stats, nil
}
