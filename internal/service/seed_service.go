package service

import (
	"context"

	"musicsocial/internal/logger"
	"musicsocial/internal/model"
	"musicsocial/internal/repository"
)

// PermArtistUpdateAny lets a caller edit artists they do not own.
const PermArtistUpdateAny = "artist.update_any"

// PermissionCatalog is the fixed set of permissions ensured at startup.
var PermissionCatalog = []string{
	// artist
	"artist.create", "artist.create_admin", "artist.read", "artist.read_all", "artist.update",
	PermArtistUpdateAny, "artist.accept", "artist.reject", "artist.delete",
	// song
	"song.create", "song.read", "song.update", "song.delete",
	// album
	"album.create", "album.read", "album.update", "album.delete",
	// user
	"user.read", "user.read_all", "user.update", "user.delete",
	// role
	"role.create", "role.read", "role.update", "role.delete", "role.assign",
	// permission
	"permission.create", "permission.read", "permission.update", "permission.delete",
	// follow
	"follow.create", "follow.read", "follow.delete",
	// playlist
	"playlist.create", "playlist.read", "playlist.update", "playlist.delete",
	// comment
	"comment.create", "comment.read", "comment.delete",
	// profile
	"profile.update",
	// admin dashboard
	"audit.read", "statistics.read",
}

// DefaultRolePermissions maps the seeded roles to their permission subsets.
// admin is absent here; it always receives the whole catalog.
var DefaultRolePermissions = map[string][]string{
	model.RoleArtist: {
		"artist.read", "artist.update",
		"song.create", "song.read", "song.update", "song.delete",
		"album.create", "album.read", "album.update", "album.delete",
		"user.read", "follow.create", "follow.read", "follow.delete",
		"playlist.create", "playlist.read", "playlist.update", "playlist.delete",
		"comment.create", "comment.read", "comment.delete", "profile.update",
	},
	model.RoleCommonUser: {
		"artist.create", "artist.read",
		"song.read", "album.read", "user.read",
		"follow.create", "follow.read", "follow.delete",
		"playlist.create", "playlist.read", "playlist.update", "playlist.delete",
		"comment.create", "comment.read", "profile.update",
	},
}

var roleDescriptions = map[string]string{
	model.RoleAdmin:      "Full platform administration",
	model.RoleArtist:     "Approved artist managing their catalogue",
	model.RoleCommonUser: "Default role granted at registration",
}

// SeedReport counts the rows a seed run created. A second run reports zeros.
type SeedReport struct {
	PermissionsCreated int `json:"permissions_created"`
	RolesCreated       int `json:"roles_created"`
	LinksCreated       int `json:"links_created"`
}

type SeedService interface {
	// SeedDefaultRolesAndPermissions ensures the catalog, the default roles and their links exist.
	SeedDefaultRolesAndPermissions(ctx context.Context) (SeedReport, error)
}

type seedService struct {
	base
	tx    repository.TransactionManager
	roles repository.RoleRepository
	perms repository.PermissionRepository
	links repository.RolePermissionRepository
	cache CacheInvalidator
}

func NewSeedService(
	tx repository.TransactionManager,
	roles repository.RoleRepository,
	perms repository.PermissionRepository,
	links repository.RolePermissionRepository,
	cache CacheInvalidator,
	opts Options,
) SeedService {
	return &seedService{
		base:  newBase(opts, "seed"),
		tx:    tx,
		roles: roles,
		perms: perms,
		links: links,
		cache: cache,
	}
}

func (s *seedService) SeedDefaultRolesAndPermissions(ctx context.Context) (SeedReport, error) {
	var report SeedReport
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		permByName := make(map[string]*model.Permission, len(PermissionCatalog))
		for _, name := range PermissionCatalog {
			perm, created, err := s.ensurePermission(txCtx, name)
			if err != nil {
				return s.dbError("seed.permission", err, "name", name)
			}
			if created {
				report.PermissionsCreated++
			}
			permByName[name] = perm
		}

		for _, roleName := range []string{model.RoleAdmin, model.RoleArtist, model.RoleCommonUser} {
			role, created, err := s.ensureRole(txCtx, roleName)
			if err != nil {
				return s.dbError("seed.role", err, "name", roleName)
			}
			if created {
				report.RolesCreated++
			}

			names := DefaultRolePermissions[roleName]
			if roleName == model.RoleAdmin {
				names = PermissionCatalog
			}
			for _, permName := range names {
				perm, ok := permByName[permName]
				if !ok {
					s.log.Warn("seed mapping references unknown permission", logger.Fields("role", roleName, "permission", permName))
					continue
				}
				linked, err := s.links.Link(txCtx, role.ID, perm.ID)
				if err != nil {
					return s.dbError("seed.link", err, "role", roleName, "permission", permName)
				}
				if linked {
					report.LinksCreated++
				}
			}
		}
		return nil
	})
	if err != nil {
		return SeedReport{}, s.dbError("seed", err)
	}

	if report.LinksCreated > 0 {
		invalidate(ctx, s.log, s.cache)
	}
	if report != (SeedReport{}) {
		s.record(ctx, model.ActionSeed, "catalog", 0,
			"permissions_created", report.PermissionsCreated,
			"roles_created", report.RolesCreated,
			"links_created", report.LinksCreated,
		)
	}
	s.log.Info("seed complete", logger.Fields(
		"permissions_created", report.PermissionsCreated,
		"roles_created", report.RolesCreated,
		"links_created", report.LinksCreated,
	))
	return report, nil
}

func (s *seedService) ensurePermission(ctx context.Context, name string) (*model.Permission, bool, error) {
	perm, err := s.perms.FindByName(ctx, name)
	if err == nil {
		return perm, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}
	perm = &model.Permission{Name: name}
	if err := s.perms.Create(ctx, perm); err != nil {
		return nil, false, err
	}
	return perm, true, nil
}

func (s *seedService) ensureRole(ctx context.Context, name string) (*model.Role, bool, error) {
	role, err := s.roles.FindByName(ctx, name)
	if err == nil {
		return role, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}
	role = &model.Role{Name: name, Description: optionalString(roleDescriptions[name])}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, false, err
	}
	return role, true, nil
}
