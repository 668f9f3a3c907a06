package service

import (
	"context"

	"musicsocial/internal/cache"
	"musicsocial/internal/model"
	"musicsocial/internal/repository"
	"musicsocial/pkg/apperror"
)

// RolePermissionService manages role↔permission links and resolves permission sets for role names.
type RolePermissionService interface {
	// Assign links the pair. Re-asserting an existing pair succeeds without a second row.
	Assign(ctx context.Context, roleID, permissionID uint) error
	// Unassign removes the link; an absent link is a no-op.
	Unassign(ctx context.Context, roleID, permissionID uint) error
	GetPermissionsByRole(ctx context.Context, roleID uint) ([]model.Permission, error)
	// GetPermissionsByRoleNames reads the stores directly, bypassing the cache.
	GetPermissionsByRoleNames(ctx context.Context, roleNames []string) ([]model.Permission, error)
	// ResolvePermissionNames is the cached form of GetPermissionsByRoleNames.
	ResolvePermissionNames(ctx context.Context, roleNames []string) ([]string, error)
}

type rolePermissionService struct {
	base
	roles repository.RoleRepository
	perms repository.PermissionRepository
	links repository.RolePermissionRepository
	cache *cache.PermissionCache
}

func NewRolePermissionService(
	roles repository.RoleRepository,
	perms repository.PermissionRepository,
	links repository.RolePermissionRepository,
	permCache *cache.PermissionCache,
	opts Options,
) RolePermissionService {
	if permCache == nil {
		permCache = cache.New(nil)
	}
	return &rolePermissionService{
		base:  newBase(opts, "role-permission-service"),
		roles: roles,
		perms: perms,
		links: links,
		cache: permCache,
	}
}

func (s *rolePermissionService) Assign(ctx context.Context, roleID, permissionID uint) error {
	if err := validID("role_id", roleID); err != nil {
		return err
	}
	if err := validID("permission_id", permissionID); err != nil {
		return err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("role", roleID)
		}
		return s.dbError("role_permission.assign", err, "role_id", roleID)
	}
	if _, err := s.perms.FindByID(ctx, permissionID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("permission", permissionID)
		}
		return s.dbError("role_permission.assign", err, "permission_id", permissionID)
	}

	created, err := s.links.Link(ctx, roleID, permissionID)
	if err != nil {
		return s.dbError("role_permission.assign", err, "role_id", roleID, "permission_id", permissionID)
	}
	if created {
		invalidate(ctx, s.log, s.cache)
		s.record(ctx, model.ActionAssignPermission, "role", roleID, "permission_id", permissionID)
	}
	return nil
}

func (s *rolePermissionService) Unassign(ctx context.Context, roleID, permissionID uint) error {
	if err := validID("role_id", roleID); err != nil {
		return err
	}
	if err := validID("permission_id", permissionID); err != nil {
		return err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	removed, err := s.links.Unlink(ctx, roleID, permissionID)
	if err != nil {
		return s.dbError("role_permission.unassign", err, "role_id", roleID, "permission_id", permissionID)
	}
	if removed {
		invalidate(ctx, s.log, s.cache)
		s.record(ctx, model.ActionUnassignPermission, "role", roleID, "permission_id", permissionID)
	}
	return nil
}

func (s *rolePermissionService) GetPermissionsByRole(ctx context.Context, roleID uint) ([]model.Permission, error) {
	if err := validID("role_id", roleID); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	perms, err := s.links.PermissionsByRole(ctx, roleID)
	if err != nil {
		return nil, s.dbError("role_permission.by_role", err, "role_id", roleID)
	}
	return perms, nil
}

func (s *rolePermissionService) GetPermissionsByRoleNames(ctx context.Context, roleNames []string) ([]model.Permission, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	perms, err := s.links.PermissionsByRoleNames(ctx, roleNames)
	if err != nil {
		return nil, s.dbError("role_permission.by_role_names", err, "roles", roleNames)
	}
	return perms, nil
}

func (s *rolePermissionService) ResolvePermissionNames(ctx context.Context, roleNames []string) ([]string, error) {
	if len(roleNames) == 0 {
		return []string{}, nil
	}
	return s.cache.GetOrLoad(ctx, roleNames, s.loadPermissionNames)
}

func (s *rolePermissionService) loadPermissionNames(ctx context.Context, roleNames []string) ([]string, error) {
	perms, err := s.GetPermissionsByRoleNames(ctx, roleNames)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(perms))
	seen := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		names = append(names, p.Name)
	}
	return names, nil
}
