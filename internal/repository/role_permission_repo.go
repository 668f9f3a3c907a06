package repository

import (
	"context"

	"musicsocial/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RolePermissionRepository manages the role↔permission join table with explicit join queries.
type RolePermissionRepository interface {
	// Link inserts the pair unless it already exists. created is false for an existing pair.
	Link(ctx context.Context, roleID, permissionID uint) (created bool, err error)
	Unlink(ctx context.Context, roleID, permissionID uint) (removed bool, err error)
	PermissionsByRole(ctx context.Context, roleID uint) ([]model.Permission, error)
	PermissionsByRoleNames(ctx context.Context, roleNames []string) ([]model.Permission, error)
}

type rolePermissionRepository struct {
	db *gorm.DB
}

func NewRolePermissionRepository(db *gorm.DB) RolePermissionRepository {
	return &rolePermissionRepository{db: db}
}

func (r *rolePermissionRepository) Link(ctx context.Context, roleID, permissionID uint) (bool, error) {
	res := GetDB(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.RolePermission{RoleID: roleID, PermissionID: permissionID})
	return res.RowsAffected > 0, res.Error
}

func (r *rolePermissionRepository) Unlink(ctx context.Context, roleID, permissionID uint) (bool, error) {
	res := GetDB(ctx, r.db).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&model.RolePermission{})
	return res.RowsAffected > 0, res.Error
}

func (r *rolePermissionRepository) PermissionsByRole(ctx context.Context, roleID uint) ([]model.Permission, error) {
	var perms []model.Permission
	err := GetDB(ctx, r.db).
		Table("permissions").
		Select("permissions.*").
		Joins("INNER JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Order("permissions.name asc").
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

// PermissionsByRoleNames returns the union of permissions linked to any of the named roles,
// one row per permission.
func (r *rolePermissionRepository) PermissionsByRoleNames(ctx context.Context, roleNames []string) ([]model.Permission, error) {
	perms := make([]model.Permission, 0)
	if len(roleNames) == 0 {
		return perms, nil
	}
	err := GetDB(ctx, r.db).
		Table("permissions").
		Select("DISTINCT permissions.*").
		Joins("INNER JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("INNER JOIN roles ON roles.id = role_permissions.role_id").
		Where("roles.name IN ?", roleNames).
		Order("permissions.name asc").
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}
