package repository

import (
	"context"
	"time"

	"musicsocial/internal/model"

	"gorm.io/gorm"
)

type PermissionRepository interface {
	Create(ctx context.Context, perm *model.Permission) error
	Update(ctx context.Context, perm *model.Permission) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
	FindByID(ctx context.Context, id uint) (*model.Permission, error)
	FindByName(ctx context.Context, name string) (*model.Permission, error)
	ListAll(ctx context.Context) ([]model.Permission, error)
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Create(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Create(perm).Error
}

// Update writes name and description of an existing row. It reports false
// when the row is gone and never inserts.
func (r *permissionRepository) Update(ctx context.Context, perm *model.Permission) (bool, error) {
	now := time.Now()
	res := GetDB(ctx, r.db).Model(&model.Permission{}).Where("id = ?", perm.ID).Updates(map[string]interface{}{
		"name":        perm.Name,
		"description": perm.Description,
		"updated_at":  now,
	})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	perm.UpdatedAt = now
	return true, nil
}

// Delete removes the permission and every role link pointing at it.
func (r *permissionRepository) Delete(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_id = ?", id).Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Permission{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

func (r *permissionRepository) FindByID(ctx context.Context, id uint) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).First(&perm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *permissionRepository) FindByName(ctx context.Context, name string) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *permissionRepository) ListAll(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("name asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}
