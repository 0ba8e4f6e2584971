package business

import (
	"context"

	"github.com/google/uuid"
)

// RecordRepository is the durable store for business records
type RecordRepository interface {
	// FindByOwner loads the owner's record. Returns shared.ErrNotFound when
	// no record exists yet.
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*BusinessRecord, error)

	// Save creates or updates the owner's record. There is at most one
	// record per owner.
	Save(ctx context.Context, record *BusinessRecord) error
}
