package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"musicsocial/internal/auth"
	"musicsocial/internal/logger"
	"musicsocial/internal/model"
	"musicsocial/internal/repository"
	"musicsocial/pkg/pagination"
)

// AuditEntry is one action to record. The actor comes from the request context.
type AuditEntry struct {
	Action     string
	EntityType string
	EntityID   uint
	Details    map[string]interface{}
}

// AuditRecorder stores audit entries. Recording is best effort and never fails the caller.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type AuditLogResponse struct {
	ID         uint            `json:"id"`
	ActorID    *uint           `json:"actor_id"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Details    json.RawMessage `json:"details" swaggertype:"object"`
	CreatedAt  time.Time       `json:"created_at"`
}

type AuditListFilter struct {
	Action  string
	ActorID uint
	pagination.Params
}

type AuditService interface {
	AuditRecorder
	GetAuditLogs(ctx context.Context, filter AuditListFilter) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	base
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository, opts Options) AuditService {
	opts.Audit = nil
	return &auditService{base: newBase(opts, "audit"), repo: repo}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	// Runs after the audited write has committed.
	ctx, cancel := s.withDeadline(context.WithoutCancel(ctx))
	defer cancel()

	details := "{}"
	if len(entry.Details) > 0 {
		if b, err := json.Marshal(entry.Details); err == nil {
			details = string(b)
		}
	}
	row := &model.AuditLog{
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   strconv.FormatUint(uint64(entry.EntityID), 10),
		Details:    details,
	}
	if id, ok := auth.IdentityFromContext(ctx); ok {
		actor := id.UserID
		row.ActorID = &actor
	}

	if err := s.repo.Log(ctx, row); err != nil {
		s.log.Warn("audit entry dropped", logger.Fields(
			"action", entry.Action,
			"entity_id", row.EntityID,
			logger.FieldError, err.Error(),
		))
	}
}

func (s *auditService) GetAuditLogs(ctx context.Context, filter AuditListFilter) ([]AuditLogResponse, int64, error) {
	filter.Params = pagination.New(filter.Page, filter.Limit)
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	logs, total, err := s.repo.List(ctx, repository.AuditFilter{
		Action:  filter.Action,
		ActorID: filter.ActorID,
		Offset:  filter.Offset,
		Limit:   filter.Limit,
	})
	if err != nil {
		return nil, 0, s.dbError("audit.list", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		actor := "system"
		if l.Actor != nil {
			actor = l.Actor.Username
		}
		details := json.RawMessage(l.Details)
		if !json.Valid(details) {
			details = json.RawMessage("{}")
		}
		res = append(res, AuditLogResponse{
			ID:         l.ID,
			ActorID:    l.ActorID,
			Actor:      actor,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			Details:    details,
			CreatedAt:  l.CreatedAt,
		})
	}
	return res, total, nil
}

