package importapp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/frontdesk/backend/internal/domain/business"
	"github.com/frontdesk/backend/internal/domain/importer"
	"github.com/frontdesk/backend/internal/domain/integration"
	"github.com/frontdesk/backend/internal/domain/shared"
)

type memRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*business.BusinessRecord
	saveErr error
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{records: make(map[uuid.UUID]*business.BusinessRecord)}
}

func (r *memRecordRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) (*business.BusinessRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[ownerID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (r *memRecordRepo) Save(_ context.Context, record *business.BusinessRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	copied := *record
	r.records[record.OwnerID] = &copied
	return nil
}

var _ business.RecordRepository = (*memRecordRepo)(nil)

func TestBusinessRecordSink_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the record lazily on first apply", func(t *testing.T) {
		repo := newMemRecordRepo()
		sink := NewBusinessRecordSink(repo, zap.NewNop())
		ownerID := uuid.New()

		err := sink.Apply(ctx, ownerID, importer.MerchantPayload{
			Merchant: &integration.MerchantInfo{BusinessName: "Luna Salon", Currency: "USD"},
		})

		require.NoError(t, err)
		record, err := repo.FindByOwner(ctx, ownerID)
		require.NoError(t, err)
		assert.Equal(t, "Luna Salon", record.BusinessName)
		assert.Equal(t, "USD", record.Currency)
	})

	t.Run("writes only the payload's field group", func(t *testing.T) {
		repo := newMemRecordRepo()
		sink := NewBusinessRecordSink(repo, zap.NewNop())
		ownerID := uuid.New()

		require.NoError(t, sink.Apply(ctx, ownerID, importer.MerchantPayload{
			Merchant: &integration.MerchantInfo{BusinessName: "Luna Salon"},
		}))
		require.NoError(t, sink.Apply(ctx, ownerID, importer.LocationsPayload{
			Locations: []integration.LocationInfo{{Name: "Downtown", City: "Portland"}},
		}))

		record, err := repo.FindByOwner(ctx, ownerID)
		require.NoError(t, err)
		assert.Equal(t, "Luna Salon", record.BusinessName, "merchant group untouched by locations apply")
		assert.Equal(t, "Downtown", record.LocationName)
		assert.Equal(t, "Portland", record.City)
	})

	t.Run("empty payload leaves the record unchanged", func(t *testing.T) {
		repo := newMemRecordRepo()
		sink := NewBusinessRecordSink(repo, zap.NewNop())
		ownerID := uuid.New()

		require.NoError(t, sink.Apply(ctx, ownerID, importer.CatalogPayload{
			Catalog: &integration.CatalogInfo{Items: []integration.ItemInfo{{Name: "Shampoo"}}},
		}))
		require.NoError(t, sink.Apply(ctx, ownerID, importer.CatalogPayload{}))

		record, err := repo.FindByOwner(ctx, ownerID)
		require.NoError(t, err)
		require.Len(t, record.Items, 1, "existing catalog survives an empty reimport")
		assert.Equal(t, "Shampoo", record.Items[0].Name)
	})

	t.Run("apply is idempotent", func(t *testing.T) {
		repo := newMemRecordRepo()
		sink := NewBusinessRecordSink(repo, zap.NewNop())
		ownerID := uuid.New()
		payload := importer.LocationsPayload{
			Locations: []integration.LocationInfo{{Name: "Downtown", BusinessHours: []string{"Mon 9-5"}}},
		}

		require.NoError(t, sink.Apply(ctx, ownerID, payload))
		first, err := repo.FindByOwner(ctx, ownerID)
		require.NoError(t, err)

		require.NoError(t, sink.Apply(ctx, ownerID, payload))
		second, err := repo.FindByOwner(ctx, ownerID)
		require.NoError(t, err)

		assert.Equal(t, first.LocationName, second.LocationName)
		assert.Equal(t, first.BusinessHours, second.BusinessHours)
	})

	t.Run("save failure wraps ErrSinkFailed", func(t *testing.T) {
		repo := newMemRecordRepo()
		repo.saveErr = errors.New("deadlock detected")
		sink := NewBusinessRecordSink(repo, zap.NewNop())

		err := sink.Apply(ctx, uuid.New(), importer.MerchantPayload{
			Merchant: &integration.MerchantInfo{BusinessName: "Luna Salon"},
		})

		assert.ErrorIs(t, err, ErrSinkFailed)
		assert.Contains(t, err.Error(), "deadlock detected")
	})
}
