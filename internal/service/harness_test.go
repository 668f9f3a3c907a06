package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"musicsocial/internal/auth"
	"musicsocial/internal/cache"
	"musicsocial/internal/database/dbtest"
	"musicsocial/internal/logger"
	"musicsocial/internal/metrics"
	"musicsocial/internal/model"
	"musicsocial/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ArtistEvent
}

func (p *recordingPublisher) PublishArtistEvent(e model.ArtistEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}

type harness struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	store   *cache.MemoryStore
	events  *recordingPublisher

	roleRepo     repository.RoleRepository
	permRepo     repository.PermissionRepository
	rolePermRepo repository.RolePermissionRepository
	userRoleRepo repository.UserRoleRepository

	roles     RoleService
	perms     PermissionService
	links     RolePermissionService
	userRoles UserRoleService
	artists   ArtistService
	users     UserService
	seed      SeedService
	audit     AuditService
	stats     StatisticsService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.New(t)
	audit := NewAuditService(repository.NewAuditRepository(db), Options{Logger: logger.Nop()})
	opts := Options{QueryTimeout: 2 * time.Second, Logger: logger.Nop(), Audit: audit}
	m := metrics.New(prometheus.NewRegistry())
	store := cache.NewMemoryStore()
	permCache := cache.New(store, cache.WithMetrics(m), cache.WithLogger(logger.Nop()))

	h := &harness{
		db:           db,
		metrics:      m,
		store:        store,
		events:       &recordingPublisher{},
		roleRepo:     repository.NewRoleRepository(db),
		permRepo:     repository.NewPermissionRepository(db),
		rolePermRepo: repository.NewRolePermissionRepository(db),
		userRoleRepo: repository.NewUserRoleRepository(db),
	}
	tx := repository.NewTransactionManager(db)

	h.roles = NewRoleService(h.roleRepo, permCache, opts)
	h.perms = NewPermissionService(h.permRepo, permCache, opts)
	h.links = NewRolePermissionService(h.roleRepo, h.permRepo, h.rolePermRepo, permCache, opts)
	h.userRoles = NewUserRoleService(h.roleRepo, h.userRoleRepo, opts)
	h.artists = NewArtistService(ArtistServiceDeps{
		Artists:   repository.NewArtistRepository(db),
		Roles:     h.roleRepo,
		UserRoles: h.userRoles,
		Events:    h.events,
		Metrics:   m,
	}, opts)
	h.users = NewUserService(UserServiceDeps{
		Tx:        tx,
		Users:     repository.NewUserRepository(db),
		Roles:     h.roleRepo,
		UserRoles: h.userRoleRepo,
		Tokens:    auth.NewTokenManager("test-secret", time.Hour),
	}, opts)
	h.seed = NewSeedService(tx, h.roleRepo, h.permRepo, h.rolePermRepo, permCache, opts)
	h.audit = audit
	h.stats = NewStatisticsService(db, opts)
	return h
}

func (h *harness) role(t *testing.T, name string) *model.Role {
	t.Helper()
	r, err := h.roles.Create(context.Background(), CreateRoleRequest{Name: name})
	require.NoError(t, err)
	return r
}

func (h *harness) permission(t *testing.T, name string) *model.Permission {
	t.Helper()
	p, err := h.perms.Create(context.Background(), CreatePermissionRequest{Name: name})
	require.NoError(t, err)
	return p
}

func (h *harness) grant(t *testing.T, role *model.Role, perms ...*model.Permission) {
	t.Helper()
	for _, p := range perms {
		require.NoError(t, h.links.Assign(context.Background(), role.ID, p.ID))
	}
}

func uintPtr(v uint) *uint { return &v }

func strPtr(s string) *string { return &s }
