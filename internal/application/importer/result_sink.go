package importapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frontdesk/backend/internal/domain/business"
	"github.com/frontdesk/backend/internal/domain/importer"
	"github.com/frontdesk/backend/internal/domain/shared"
)

// ErrSinkFailed marks a failure writing into the business record. The
// orchestrator counts it against the task's retry budget, same as a
// provider failure.
var ErrSinkFailed = errors.New("import: business record write failed")

// PayloadSink merges a completed task's payload into the owner's business
// record
type PayloadSink interface {
	// Apply merges one payload's field group. It must be idempotent:
	// applying the same payload twice leaves the record unchanged.
	Apply(ctx context.Context, ownerID uuid.UUID, payload importer.Payload) error
}

// BusinessRecordSink is the PayloadSink backed by the record repository.
// Only the field group belonging to the payload's kind is written; other
// groups are untouched. The record is created lazily on the first apply.
type BusinessRecordSink struct {
	records business.RecordRepository
	logger  *zap.Logger
}

// NewBusinessRecordSink creates a new BusinessRecordSink
func NewBusinessRecordSink(records business.RecordRepository, logger *zap.Logger) *BusinessRecordSink {
	return &BusinessRecordSink{
		records: records,
		logger:  logger,
	}
}

// Apply merges the payload into the owner's record
func (s *BusinessRecordSink) Apply(ctx context.Context, ownerID uuid.UUID, payload importer.Payload) error {
	record, err := s.records.FindByOwner(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrSinkFailed, err)
		}
		record = business.NewBusinessRecord(ownerID)
		s.logger.Info("Creating business record on first import",
			zap.String("owner_id", ownerID.String()),
		)
	}

	switch p := payload.(type) {
	case importer.MerchantPayload:
		record.ApplyMerchant(p.Merchant)
	case importer.LocationsPayload:
		record.ApplyLocations(p.Locations)
	case importer.CatalogPayload:
		record.ApplyCatalog(p.Catalog)
	default:
		return fmt.Errorf("%w: unsupported payload kind %q", ErrSinkFailed, payload.Kind())
	}

	if err := s.records.Save(ctx, record); err != nil {
		return fmt.Errorf("%w: %v", ErrSinkFailed, err)
	}
	return nil
}

// Ensure BusinessRecordSink implements PayloadSink
var _ PayloadSink = (*BusinessRecordSink)(nil)
