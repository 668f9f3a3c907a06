package service

import (
	"context"

	"musicsocial/internal/logger"
	"musicsocial/internal/metrics"
	"musicsocial/internal/model"
	"musicsocial/internal/repository"
	"musicsocial/pkg/apperror"
	"musicsocial/pkg/pagination"
)

// --- DTOs ---

type CreateArtistRequest struct {
	ArtistName    string `json:"artist_name" binding:"required" validate:"required,notblank,max=255"`
	Biography     string `json:"biography"`
	FormationYear int    `json:"formation_year" binding:"required" validate:"required,gte=1000,lte=9999"`
	CountryCode   string `json:"country_code" validate:"country_code"`
}

// UpdateArtistRequest is partial. Status is not updatable here.
type UpdateArtistRequest struct {
	ArtistName    *string `json:"artist_name" validate:"omitnil,notblank,max=255"`
	Biography     *string `json:"biography"`
	FormationYear *int    `json:"formation_year" validate:"omitnil,gte=1000,lte=9999"`
	CountryCode   *string `json:"country_code" validate:"omitnil,country_code"`
}

type ArtistListFilter struct {
	Status model.ArtistStatus
	pagination.Params
}

// RoleGrantOutcome describes what happened to the owner's role after an accept.
type RoleGrantOutcome string

const (
	RoleGrantGranted     RoleGrantOutcome = "GRANTED"
	RoleGrantNoOwner     RoleGrantOutcome = "NO_OWNER"
	RoleGrantRoleMissing RoleGrantOutcome = "ROLE_MISSING"
	RoleGrantFailed      RoleGrantOutcome = "FAILED"
)

// AcceptResult is returned once the PENDING→ACTIVE transition has committed. The role grant runs
// afterwards and never undoes the transition; a failed grant makes the result partial.
type AcceptResult struct {
	Artist     *model.Artist    `json:"artist"`
	RoleGrant  RoleGrantOutcome `json:"role_grant"`
	GrantError string           `json:"grant_error,omitempty"`
}

// Partial reports an accepted artist whose owner did not receive the artist role.
func (r AcceptResult) Partial() bool {
	return r.RoleGrant == RoleGrantFailed || r.RoleGrant == RoleGrantRoleMissing
}

// ArtistEventPublisher receives lifecycle events. Publishing must not block.
type ArtistEventPublisher interface {
	PublishArtistEvent(event model.ArtistEvent)
}

// --- Interface ---

type ArtistService interface {
	Create(ctx context.Context, req CreateArtistRequest, userID *uint) (*model.Artist, error)
	CreateAsAdmin(ctx context.Context, req CreateArtistRequest) (*model.Artist, error)
	Update(ctx context.Context, id uint, req UpdateArtistRequest) (*model.Artist, error)
	// UpdateOwned is Update restricted to an artist whose artist_user_id is ownerID.
	UpdateOwned(ctx context.Context, id, ownerID uint, req UpdateArtistRequest) (*model.Artist, error)
	Accept(ctx context.Context, id uint) (*AcceptResult, error)
	Reject(ctx context.Context, id uint) (*model.Artist, error)
	LogicalDelete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*model.Artist, error)
	List(ctx context.Context, filter ArtistListFilter) ([]model.Artist, int64, error)
}

type artistService struct {
	base
	repo      repository.ArtistRepository
	roles     repository.RoleRepository
	userRoles UserRoleService
	events    ArtistEventPublisher
	metrics   *metrics.Metrics
}

type ArtistServiceDeps struct {
	Artists   repository.ArtistRepository
	Roles     repository.RoleRepository
	UserRoles UserRoleService
	Events    ArtistEventPublisher
	Metrics   *metrics.Metrics
}

func NewArtistService(deps ArtistServiceDeps, opts Options) ArtistService {
	return &artistService{
		base:      newBase(opts, "artist-service"),
		repo:      deps.Artists,
		roles:     deps.Roles,
		userRoles: deps.UserRoles,
		events:    deps.Events,
		metrics:   deps.Metrics,
	}
}

// --- Implementation ---

func (s *artistService) Create(ctx context.Context, req CreateArtistRequest, userID *uint) (*model.Artist, error) {
	if userID != nil {
		if err := validID("artist_user_id", *userID); err != nil {
			return nil, err
		}
	}
	return s.create(ctx, req, &model.Artist{
		ArtistUserID: userID,
		Verified:     false,
		Status:       model.ArtistPending,
	})
}

// CreateAsAdmin skips the approval workflow: the artist starts ACTIVE and verified, with no owner.
func (s *artistService) CreateAsAdmin(ctx context.Context, req CreateArtistRequest) (*model.Artist, error) {
	artist, err := s.create(ctx, req, &model.Artist{
		Verified: true,
		Status:   model.ArtistActive,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, model.ActionCreateArtistAdmin, "artist", artist.ID, "artist_name", artist.ArtistName)
	return artist, nil
}

func (s *artistService) create(ctx context.Context, req CreateArtistRequest, artist *model.Artist) (*model.Artist, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	artist.ArtistName = req.ArtistName
	artist.Biography = optionalString(req.Biography)
	artist.FormationYear = req.FormationYear
	artist.CountryCode = optionalString(req.CountryCode)

	if err := s.repo.Create(ctx, artist); err != nil {
		return nil, s.dbError("artist.create", err, "artist_name", req.ArtistName)
	}
	s.publish(model.ArtistEventCreated, artist)
	return artist, nil
}

func (s *artistService) Update(ctx context.Context, id uint, req UpdateArtistRequest) (*model.Artist, error) {
	return s.update(ctx, id, nil, req)
}

func (s *artistService) UpdateOwned(ctx context.Context, id, ownerID uint, req UpdateArtistRequest) (*model.Artist, error) {
	if err := validID("owner_id", ownerID); err != nil {
		return nil, err
	}
	return s.update(ctx, id, &ownerID, req)
}

func (s *artistService) update(ctx context.Context, id uint, ownerID *uint, req UpdateArtistRequest) (*model.Artist, error) {
	if err := validID("id", id); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	current, err := s.load(ctx, "artist.update", id)
	if err != nil {
		return nil, err
	}
	if ownerID != nil && (current.ArtistUserID == nil || *current.ArtistUserID != *ownerID) {
		return nil, apperror.Forbidden([]string{PermArtistUpdateAny})
	}

	fields := make(map[string]interface{}, 4)
	if req.ArtistName != nil {
		fields["artist_name"] = *req.ArtistName
	}
	if req.Biography != nil {
		fields["biography"] = optionalString(*req.Biography)
	}
	if req.FormationYear != nil {
		fields["formation_year"] = *req.FormationYear
	}
	if req.CountryCode != nil {
		fields["country_code"] = optionalString(*req.CountryCode)
	}
	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, s.dbError("artist.update", err, "artist_id", id)
	}

	artist, err := s.load(ctx, "artist.update", id)
	if err != nil {
		return nil, err
	}
	s.publish(model.ArtistEventUpdated, artist)
	return artist, nil
}

func (s *artistService) Accept(ctx context.Context, id uint) (*AcceptResult, error) {
	artist, err := s.transitionFromPending(ctx, "artist.accept", id, model.ArtistActive,
		"only a PENDING artist may be accepted")
	if err != nil {
		return nil, err
	}
	s.publish(model.ArtistEventAccepted, artist)

	// The transition is committed; the grant must not be cut short by the caller going away.
	result := &AcceptResult{Artist: artist}
	result.RoleGrant, result.GrantError = s.grantArtistRole(context.WithoutCancel(ctx), artist)
	if result.Partial() {
		s.metrics.RoleGrantFailed()
	}
	s.record(ctx, model.ActionAcceptArtist, "artist", artist.ID, "role_grant", result.RoleGrant)
	return result, nil
}

func (s *artistService) grantArtistRole(ctx context.Context, artist *model.Artist) (RoleGrantOutcome, string) {
	if artist.ArtistUserID == nil {
		return RoleGrantNoOwner, ""
	}
	userID := *artist.ArtistUserID
	log := s.log.WithFields(logger.Fields("artist_id", artist.ID, logger.FieldUserID, userID))

	lookupCtx, cancel := s.withDeadline(ctx)
	role, err := s.roles.FindByName(lookupCtx, model.RoleArtist)
	cancel()
	if err != nil {
		if isNotFound(err) {
			log.Warn("role not found, skipping grant", logger.Fields("role", model.RoleArtist))
			return RoleGrantRoleMissing, "role '" + model.RoleArtist + "' not found"
		}
		log.Warn("artist role lookup failed, skipping grant", logger.Fields(logger.FieldError, err.Error()))
		return RoleGrantFailed, err.Error()
	}

	if err := s.userRoles.AssignRoleToUser(ctx, userID, role.ID); err != nil {
		log.Warn("artist role grant failed", logger.Fields(logger.FieldError, err.Error()))
		return RoleGrantFailed, err.Error()
	}
	return RoleGrantGranted, ""
}

func (s *artistService) Reject(ctx context.Context, id uint) (*model.Artist, error) {
	artist, err := s.transitionFromPending(ctx, "artist.reject", id, model.ArtistRejected,
		"only a PENDING artist may be rejected")
	if err != nil {
		return nil, err
	}
	s.publish(model.ArtistEventRejected, artist)
	s.record(ctx, model.ActionRejectArtist, "artist", artist.ID)
	return artist, nil
}

// transitionFromPending moves a PENDING artist to `to`. The write is conditional on the status
// still being PENDING, so two concurrent accepts cannot both succeed.
func (s *artistService) transitionFromPending(ctx context.Context, op string, id uint, to model.ArtistStatus, rule string) (*model.Artist, error) {
	if err := validID("id", id); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	artist, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if artist.Status != model.ArtistPending {
		return nil, apperror.BusinessRule(rule).WithDetail("status", artist.Status)
	}

	ok, err := s.repo.TransitionStatus(ctx, id, model.ArtistPending, to)
	if err != nil {
		return nil, s.dbError(op, err, "artist_id", id)
	}
	if !ok {
		return nil, apperror.BusinessRule(rule).WithDetail("status", "changed concurrently")
	}

	artist.Status = to
	s.metrics.ArtistTransition(string(to))
	s.log.Info("artist status changed", logger.Fields("artist_id", id, "status", to))
	return artist, nil
}

// LogicalDelete marks the artist DELETED from any state. Deleting twice succeeds.
func (s *artistService) LogicalDelete(ctx context.Context, id uint) error {
	if err := validID("id", id); err != nil {
		return err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	artist, err := s.load(ctx, "artist.delete", id)
	if err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, id, model.ArtistDeleted); err != nil {
		return s.dbError("artist.delete", err, "artist_id", id)
	}
	artist.Status = model.ArtistDeleted
	s.metrics.ArtistTransition(string(model.ArtistDeleted))
	s.publish(model.ArtistEventDeleted, artist)
	s.record(ctx, model.ActionDeleteArtist, "artist", id)
	return nil
}

func (s *artistService) GetByID(ctx context.Context, id uint) (*model.Artist, error) {
	if err := validID("id", id); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	return s.load(ctx, "artist.get", id)
}

func (s *artistService) List(ctx context.Context, filter ArtistListFilter) ([]model.Artist, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperror.InvalidField("status", "must be one of PENDING, ACTIVE, REJECTED, DELETED")
	}
	filter.Params = pagination.New(filter.Page, filter.Limit)
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	artists, total, err := s.repo.List(ctx, repository.ArtistFilter{
		Status: filter.Status,
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, 0, s.dbError("artist.list", err, "status", filter.Status)
	}
	return artists, total, nil
}

// --- Helpers ---

func (s *artistService) load(ctx context.Context, op string, id uint) (*model.Artist, error) {
	artist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("artist", id)
		}
		return nil, s.dbError(op, err, "artist_id", id)
	}
	return artist, nil
}

func (s *artistService) publish(event string, artist *model.Artist) {
	if s.events == nil {
		return
	}
	s.events.PublishArtistEvent(model.ArtistEvent{Event: event, ArtistID: artist.ID, Status: artist.Status})
}
