package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/frontdesk/backend/internal/domain/importer"
)

// ImportTaskModel is the persistence model for the ImportTask domain entity.
// The payload is stored as a tagged JSON envelope in a jsonb column.
type ImportTaskModel struct {
	OwnerModel
	ConnectionID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	TaskType        importer.TaskType   `gorm:"type:varchar(20);not null"`
	Status          importer.TaskStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	ProgressMessage string              `gorm:"type:varchar(255);not null;default:''"`
	ErrorMessage    string              `gorm:"type:text;not null;default:''"`
	Payload         []byte              `gorm:"type:jsonb"`
	RetryCount      int                 `gorm:"not null;default:0"`
	MaxRetries      int                 `gorm:"not null;default:3"`
	NextRetryAt     *time.Time          `gorm:"type:timestamptz;index"`
	StartedAt       *time.Time          `gorm:"type:timestamptz"`
	CompletedAt     *time.Time          `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (ImportTaskModel) TableName() string {
	return "import_tasks"
}

// ToDomain converts the persistence model to a domain ImportTask entity
func (m *ImportTaskModel) ToDomain() (*importer.ImportTask, error) {
	payload, err := importer.UnmarshalPayload(m.Payload)
	if err != nil {
		return nil, err
	}
	return &importer.ImportTask{
		OwnerEntity:     m.ToDomainOwnerEntity(),
		ConnectionID:    m.ConnectionID,
		TaskType:        m.TaskType,
		Status:          m.Status,
		ProgressMessage: m.ProgressMessage,
		ErrorMessage:    m.ErrorMessage,
		Payload:         payload,
		RetryCount:      m.RetryCount,
		MaxRetries:      m.MaxRetries,
		NextRetryAt:     m.NextRetryAt,
		StartedAt:       m.StartedAt,
		CompletedAt:     m.CompletedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain ImportTask entity
func (m *ImportTaskModel) FromDomain(t *importer.ImportTask) error {
	payload, err := importer.MarshalPayload(t.Payload)
	if err != nil {
		return err
	}
	m.FromDomainOwnerEntity(t.OwnerEntity)
	m.ConnectionID = t.ConnectionID
	m.TaskType = t.TaskType
	m.Status = t.Status
	m.ProgressMessage = t.ProgressMessage
	m.ErrorMessage = t.ErrorMessage
	m.Payload = payload
	m.RetryCount = t.RetryCount
	m.MaxRetries = t.MaxRetries
	m.NextRetryAt = t.NextRetryAt
	m.StartedAt = t.StartedAt
	m.CompletedAt = t.CompletedAt
	return nil
}

// ImportTaskModelFromDomain creates a new persistence model from a domain
// ImportTask entity
func ImportTaskModelFromDomain(t *importer.ImportTask) (*ImportTaskModel, error) {
	m := &ImportTaskModel{}
	if err := m.FromDomain(t); err != nil {
		return nil, err
	}
	return m, nil
}
