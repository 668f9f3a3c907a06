package repository

import (
	"context"

	"musicsocial/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRoleRepository interface {
	// Link inserts the pair unless it already exists; concurrent identical calls leave one row.
	Link(ctx context.Context, userID, roleID uint) (created bool, err error)
	Unlink(ctx context.Context, userID, roleID uint) (removed bool, err error)
	RolesForUser(ctx context.Context, userID uint) ([]model.Role, error)
	UserIDsForRole(ctx context.Context, roleName string) ([]uint, error)
	UserHasRole(ctx context.Context, userID uint, roleName string) (bool, error)
}

type userRoleRepository struct {
	db *gorm.DB
}

func NewUserRoleRepository(db *gorm.DB) UserRoleRepository {
	return &userRoleRepository{db: db}
}

func (r *userRoleRepository) Link(ctx context.Context, userID, roleID uint) (bool, error) {
	res := GetDB(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserRole{UserID: userID, RoleID: roleID})
	return res.RowsAffected > 0, res.Error
}

func (r *userRoleRepository) Unlink(ctx context.Context, userID, roleID uint) (bool, error) {
	res := GetDB(ctx, r.db).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&model.UserRole{})
	return res.RowsAffected > 0, res.Error
}

func (r *userRoleRepository) RolesForUser(ctx context.Context, userID uint) ([]model.Role, error) {
	roles := make([]model.Role, 0)
	err := GetDB(ctx, r.db).
		Table("roles").
		Select("roles.*").
		Joins("INNER JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name asc").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *userRoleRepository) UserIDsForRole(ctx context.Context, roleName string) ([]uint, error) {
	ids := make([]uint, 0)
	err := GetDB(ctx, r.db).
		Table("user_roles").
		Joins("INNER JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", roleName).
		Order("user_roles.user_id asc").
		Pluck("user_roles.user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userRoleRepository) UserHasRole(ctx context.Context, userID uint, roleName string) (bool, error) {
	var n int64
	err := GetDB(ctx, r.db).
		Table("user_roles").
		Joins("INNER JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.name = ?", userID, roleName).
		Count(&n).Error
	return n > 0, err
}
