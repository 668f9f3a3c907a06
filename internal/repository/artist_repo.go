package repository

import (
	"context"

	"musicsocial/internal/model"

	"gorm.io/gorm"
)

// ArtistFilter narrows List. An empty Status matches every state.
type ArtistFilter struct {
	Status model.ArtistStatus
	Offset int
	Limit  int
}

type ArtistRepository interface {
	Create(ctx context.Context, artist *model.Artist) error
	FindByID(ctx context.Context, id uint) (*model.Artist, error)
	// UpdateFields writes only the given columns; status is never among them.
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	// TransitionStatus moves the artist to `to` only while its status equals `from`.
	// It reports false when another writer changed the status first.
	TransitionStatus(ctx context.Context, id uint, from, to model.ArtistStatus) (bool, error)
	SetStatus(ctx context.Context, id uint, to model.ArtistStatus) error
	List(ctx context.Context, filter ArtistFilter) ([]model.Artist, int64, error)
}

type artistRepository struct {
	db *gorm.DB
}

func NewArtistRepository(db *gorm.DB) ArtistRepository {
	return &artistRepository{db: db}
}

func (r *artistRepository) Create(ctx context.Context, artist *model.Artist) error {
	return GetDB(ctx, r.db).Create(artist).Error
}

func (r *artistRepository) FindByID(ctx context.Context, id uint) (*model.Artist, error) {
	var artist model.Artist
	if err := GetDB(ctx, r.db).First(&artist, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &artist, nil
}

func (r *artistRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.Artist{}).Where("id = ?", id).Updates(fields).Error
}

func (r *artistRepository) TransitionStatus(ctx context.Context, id uint, from, to model.ArtistStatus) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Artist{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (r *artistRepository) SetStatus(ctx context.Context, id uint, to model.ArtistStatus) error {
	return GetDB(ctx, r.db).Model(&model.Artist{}).Where("id = ?", id).Update("status", to).Error
}

func (r *artistRepository) List(ctx context.Context, filter ArtistFilter) ([]model.Artist, int64, error) {
	var artists []model.Artist
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Artist{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetchQuery := db.Model(&model.Artist{})
	if filter.Status != "" {
		fetchQuery = fetchQuery.Where("status = ?", filter.Status)
	}
	if err := fetchQuery.Order("created_at DESC, id DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&artists).Error; err != nil {
		return nil, 0, err
	}

	return artists, total, nil
}
