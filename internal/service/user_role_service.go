package service

import (
	"context"

	"musicsocial/internal/logger"
	"musicsocial/internal/model"
	"musicsocial/internal/repository"
	"musicsocial/pkg/apperror"
)

type UserRoleService interface {
	// AssignRoleToUser grants the role. An existing grant is left as is and reported as success.
	AssignRoleToUser(ctx context.Context, userID, roleID uint) error
	// RemoveRoleFromUser reports whether a grant was removed.
	RemoveRoleFromUser(ctx context.Context, userID, roleID uint) (bool, error)
	ListRolesForUser(ctx context.Context, userID uint) ([]model.Role, error)
	ListUsersForRole(ctx context.Context, roleName string) ([]uint, error)
	UserHasRole(ctx context.Context, userID uint, roleName string) (bool, error)
}

type userRoleService struct {
	base
	roles repository.RoleRepository
	links repository.UserRoleRepository
}

func NewUserRoleService(roles repository.RoleRepository, links repository.UserRoleRepository, opts Options) UserRoleService {
	return &userRoleService{base: newBase(opts, "user-role-service"), roles: roles, links: links}
}

func (s *userRoleService) AssignRoleToUser(ctx context.Context, userID, roleID uint) error {
	if err := validID("user_id", userID); err != nil {
		return err
	}
	if err := validID("role_id", roleID); err != nil {
		return err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("role", roleID)
		}
		return s.dbError("user_role.assign", err, "role_id", roleID)
	}

	created, err := s.links.Link(ctx, userID, roleID)
	if err != nil {
		return s.dbError("user_role.assign", err, "user_id", userID, "role_id", roleID)
	}
	if created {
		s.log.Info("role granted", logFields(userID, roleID))
		s.record(ctx, model.ActionAssignUserRole, "user", userID, "role_id", roleID)
	}
	return nil
}

func (s *userRoleService) RemoveRoleFromUser(ctx context.Context, userID, roleID uint) (bool, error) {
	if err := validID("user_id", userID); err != nil {
		return false, err
	}
	if err := validID("role_id", roleID); err != nil {
		return false, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	removed, err := s.links.Unlink(ctx, userID, roleID)
	if err != nil {
		return false, s.dbError("user_role.remove", err, "user_id", userID, "role_id", roleID)
	}
	if removed {
		s.log.Info("role revoked", logFields(userID, roleID))
		s.record(ctx, model.ActionRemoveUserRole, "user", userID, "role_id", roleID)
	}
	return removed, nil
}

func (s *userRoleService) ListRolesForUser(ctx context.Context, userID uint) ([]model.Role, error) {
	if err := validID("user_id", userID); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	roles, err := s.links.RolesForUser(ctx, userID)
	if err != nil {
		return nil, s.dbError("user_role.roles_for_user", err, "user_id", userID)
	}
	return roles, nil
}

func (s *userRoleService) ListUsersForRole(ctx context.Context, roleName string) ([]uint, error) {
	if roleName == "" {
		return nil, apperror.InvalidField("role_name", "is required")
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	ids, err := s.links.UserIDsForRole(ctx, roleName)
	if err != nil {
		return nil, s.dbError("user_role.users_for_role", err, "role", roleName)
	}
	return ids, nil
}

func (s *userRoleService) UserHasRole(ctx context.Context, userID uint, roleName string) (bool, error) {
	if err := validID("user_id", userID); err != nil {
		return false, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	ok, err := s.links.UserHasRole(ctx, userID, roleName)
	if err != nil {
		return false, s.dbError("user_role.has_role", err, "user_id", userID, "role", roleName)
	}
	return ok, nil
}

func logFields(userID, roleID uint) map[string]interface{} {
	return map[string]interface{}{logger.FieldUserID: userID, "role_id": roleID}
}
