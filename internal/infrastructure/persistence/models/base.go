package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/frontdesk/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// OwnerModel provides common persistence fields for owner-scoped models
type OwnerModel struct {
	BaseModel
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// ToDomainOwnerEntity converts OwnerModel to domain OwnerEntity
func (m *OwnerModel) ToDomainOwnerEntity() shared.OwnerEntity {
	return shared.OwnerEntity{
		BaseEntity: m.BaseModel.ToDomain(),
		OwnerID:    m.OwnerID,
	}
}

// FromDomainOwnerEntity populates OwnerModel from domain OwnerEntity
func (m *OwnerModel) FromDomainOwnerEntity(e shared.OwnerEntity) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.OwnerID = e.OwnerID
}
