package service

import (
	"context"

	"musicsocial/internal/model"
	"musicsocial/internal/repository"
	"musicsocial/pkg/apperror"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required" validate:"required,min=3,max=50"`
	Description string `json:"description" validate:"max=500"`
}

// UpdateRoleRequest is partial: nil fields are left untouched.
type UpdateRoleRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=3,max=50"`
	Description *string `json:"description" validate:"omitnil,max=500"`
}

// CacheInvalidator drops resolved permission sets after a write that can change them.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// --- Interface ---

type RoleService interface {
	Create(ctx context.Context, req CreateRoleRequest) (*model.Role, error)
	Update(ctx context.Context, id uint, req UpdateRoleRequest) (*model.Role, error)
	Delete(ctx context.Context, id uint) error
	// FindByID and FindByName return (nil, nil) when the role is absent.
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
}

type roleService struct {
	base
	repo  repository.RoleRepository
	cache CacheInvalidator
}

func NewRoleService(repo repository.RoleRepository, cache CacheInvalidator, opts Options) RoleService {
	return &roleService{base: newBase(opts, "role-service"), repo: repo, cache: cache}
}

// --- Implementation ---

func (s *roleService) Create(ctx context.Context, req CreateRoleRequest) (*model.Role, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	role := &model.Role{Name: req.Name, Description: optionalString(req.Description)}
	if err := s.repo.Create(ctx, role); err != nil {
		if isDuplicate(err) {
			return nil, apperror.AlreadyExists("role", req.Name)
		}
		return nil, s.dbError("role.create", err, "name", req.Name)
	}
	s.log.Info("role created", map[string]interface{}{"role_id": role.ID, "name": role.Name})
	s.record(ctx, model.ActionCreateRole, "role", role.ID, "name", role.Name)
	return role, nil
}

func (s *roleService) Update(ctx context.Context, id uint, req UpdateRoleRequest) (*model.Role, error) {
	if err := validID("id", id); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("role", id)
		}
		return nil, s.dbError("role.update", err, "role_id", id)
	}

	renamed := req.Name != nil && *req.Name != role.Name
	if req.Name != nil {
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = optionalString(*req.Description)
	}
	updated, err := s.repo.Update(ctx, role)
	if err != nil {
		if isDuplicate(err) {
			return nil, apperror.AlreadyExists("role", role.Name)
		}
		return nil, s.dbError("role.update", err, "role_id", id)
	}
	if !updated {
		return nil, apperror.NotFound("role", id)
	}

	// Cache keys are role names, so a rename changes which entries are reachable.
	if renamed {
		invalidate(ctx, s.log, s.cache)
	}
	s.record(ctx, model.ActionUpdateRole, "role", role.ID, "name", role.Name)
	return role, nil
}

func (s *roleService) Delete(ctx context.Context, id uint) error {
	if err := validID("id", id); err != nil {
		return err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.dbError("role.delete", err, "role_id", id)
	}
	if !deleted {
		return apperror.NotFound("role", id)
	}
	invalidate(ctx, s.log, s.cache)
	s.log.Info("role deleted", map[string]interface{}{"role_id": id})
	s.record(ctx, model.ActionDeleteRole, "role", id)
	return nil
}

func (s *roleService) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	if err := validID("id", id); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, s.dbError("role.find_by_id", err, "role_id", id)
	}
	return role, nil
}

func (s *roleService) FindByName(ctx context.Context, name string) (*model.Role, error) {
	if name == "" {
		return nil, apperror.InvalidField("name", "is required")
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	role, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, s.dbError("role.find_by_name", err, "name", name)
	}
	return role, nil
}

func (s *roleService) List(ctx context.Context) ([]model.Role, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, s.dbError("role.list", err)
	}
	return roles, nil
}
