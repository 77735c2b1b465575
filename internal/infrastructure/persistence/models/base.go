package models

import (
	"time"

	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides the id and timestamp columns shared by entity tables.
// Timestamps come from the domain clock, so gorm's automatic stamping is off.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
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
	m.CreatedAt = e.CreatedAt.UTC()
	m.UpdatedAt = e.UpdatedAt.UTC()
}

// utcPtr stores optional instants in UTC so that text-backed engines compare them correctly
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// AllModels returns every persistence model, for AutoMigrate in tests and sqlite mode
func AllModels() []any {
	return []any{
		&CatalogItemModel{},
		&BidderModel{},
		&BidModel{},
	}
}
