package service

import (
	"context"

	"musicsocial/internal/model"
	"musicsocial/internal/repository"
	"musicsocial/pkg/apperror"
)

type CreatePermissionRequest struct {
	Name        string `json:"name" binding:"required" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type UpdatePermissionRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=3,max=100"`
	Description *string `json:"description" validate:"omitnil,max=500"`
}

type PermissionService interface {
	Create(ctx context.Context, req CreatePermissionRequest) (*model.Permission, error)
	Update(ctx context.Context, id uint, req UpdatePermissionRequest) (*model.Permission, error)
	Delete(ctx context.Context, id uint) error
	// GetByID and GetByName return (nil, nil) when the permission is absent.
	GetByID(ctx context.Context, id uint) (*model.Permission, error)
	GetByName(ctx context.Context, name string) (*model.Permission, error)
	GetAll(ctx context.Context) ([]model.Permission, error)
}

type permissionService struct {
	base
	repo  repository.PermissionRepository
	cache CacheInvalidator
}

func NewPermissionService(repo repository.PermissionRepository, cache CacheInvalidator, opts Options) PermissionService {
	return &permissionService{base: newBase(opts, "permission-service"), repo: repo, cache: cache}
}

func (s *permissionService) Create(ctx context.Context, req CreatePermissionRequest) (*model.Permission, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	perm := &model.Permission{Name: req.Name, Description: optionalString(req.Description)}
	if err := s.repo.Create(ctx, perm); err != nil {
		if isDuplicate(err) {
			return nil, apperror.AlreadyExists("permission", req.Name)
		}
		return nil, s.dbError("permission.create", err, "name", req.Name)
	}
	s.record(ctx, model.ActionCreatePermission, "permission", perm.ID, "name", perm.Name)
	return perm, nil
}

func (s *permissionService) Update(ctx context.Context, id uint, req UpdatePermissionRequest) (*model.Permission, error) {
	if err := validID("id", id); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	perm, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("permission", id)
		}
		return nil, s.dbError("permission.update", err, "permission_id", id)
	}

	renamed := req.Name != nil && *req.Name != perm.Name
	if req.Name != nil {
		perm.Name = *req.Name
	}
	if req.Description != nil {
		perm.Description = optionalString(*req.Description)
	}
	updated, err := s.repo.Update(ctx, perm)
	if err != nil {
		if isDuplicate(err) {
			return nil, apperror.AlreadyExists("permission", perm.Name)
		}
		return nil, s.dbError("permission.update", err, "permission_id", id)
	}
	if !updated {
		return nil, apperror.NotFound("permission", id)
	}
	if renamed {
		invalidate(ctx, s.log, s.cache)
	}
	s.record(ctx, model.ActionUpdatePermission, "permission", perm.ID, "name", perm.Name)
	return perm, nil
}

func (s *permissionService) Delete(ctx context.Context, id uint) error {
	if err := validID("id", id); err != nil {
		return err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.dbError("permission.delete", err, "permission_id", id)
	}
	if !deleted {
		return apperror.NotFound("permission", id)
	}
	invalidate(ctx, s.log, s.cache)
	s.record(ctx, model.ActionDeletePermission, "permission", id)
	return nil
}

func (s *permissionService) GetByID(ctx context.Context, id uint) (*model.Permission, error) {
	if err := validID("id", id); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	perm, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, s.dbError("permission.get_by_id", err, "permission_id", id)
	}
	return perm, nil
}

func (s *permissionService) GetByName(ctx context.Context, name string) (*model.Permission, error) {
	if name == "" {
		return nil, apperror.InvalidField("name", "is required")
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	perm, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, s.dbError("permission.get_by_name", err, "name", name)
	}
	return perm, nil
}

func (s *permissionService) GetAll(ctx context.Context) ([]model.Permission, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	perms, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, s.dbError("permission.list", err)
	}
	return perms, nil
}
