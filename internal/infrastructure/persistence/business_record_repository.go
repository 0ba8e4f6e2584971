package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frontdesk/backend/internal/domain/business"
	"github.com/frontdesk/backend/internal/domain/shared"
	"github.com/frontdesk/backend/internal/infrastructure/persistence/models"
)

// GormBusinessRecordRepository implements business.RecordRepository using GORM
type GormBusinessRecordRepository struct {
	db *gorm.DB
}

// NewGormBusinessRecordRepository creates a new GormBusinessRecordRepository
func NewGormBusinessRecordRepository(db *gorm.DB) *GormBusinessRecordRepository {
	return &GormBusinessRecordRepository{db: db}
}

// FindByOwner loads the owner's business record. An owner has at most one.
func (r *GormBusinessRecordRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*business.BusinessRecord, error) {
	var model models.BusinessRecordModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Save upserts the record keyed by owner, so the lazy first write and every
// later field-group overwrite go through the same path
func (r *GormBusinessRecordRepository) Save(ctx context.Context, record *business.BusinessRecord) error {
	model, err := models.BusinessRecordModelFromDomain(record)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// Ensure GormBusinessRecordRepository implements business.RecordRepository
var _ business.RecordRepository = (*GormBusinessRecordRepository)(nil)
