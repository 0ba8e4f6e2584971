package importer

import (
	"encoding/json"
	"fmt"

	"github.com/frontdesk/backend/internal/domain/integration"
	"github.com/frontdesk/backend/internal/domain/shared"
)

// Payload is the tagged union of task results. Each task type has exactly
// one payload variant carrying a concrete, statically-typed field set; the
// result sink matches on Kind rather than probing field presence.
type Payload interface {
	// Kind returns the task type this payload belongs to
	Kind() TaskType
	// IsEmpty reports whether the provider returned nothing of this kind
	IsEmpty() bool
}

// MerchantPayload carries the fetched merchant profile
type MerchantPayload struct {
	Merchant *integration.MerchantInfo `json:"merchant,omitempty"`
}

// Kind returns TaskTypeMerchant
func (MerchantPayload) Kind() TaskType { return TaskTypeMerchant }

// IsEmpty reports whether the provider had no merchant data
func (p MerchantPayload) IsEmpty() bool { return p.Merchant == nil }

// LocationsPayload carries the fetched store locations
type LocationsPayload struct {
	Locations []integration.LocationInfo `json:"locations,omitempty"`
}

// Kind returns TaskTypeLocations
func (LocationsPayload) Kind() TaskType { return TaskTypeLocations }

// IsEmpty reports whether the provider had no locations
func (p LocationsPayload) IsEmpty() bool { return len(p.Locations) == 0 }

// CatalogPayload carries the fetched catalog
type CatalogPayload struct {
	Catalog *integration.CatalogInfo `json:"catalog,omitempty"`
}

// Kind returns TaskTypeCatalog
func (CatalogPayload) Kind() TaskType { return TaskTypeCatalog }

// IsEmpty reports whether the provider had no catalog
func (p CatalogPayload) IsEmpty() bool { return p.Catalog.IsEmpty() }

// payloadEnvelope is the serialized form stored in the task row
type payloadEnvelope struct {
	Kind TaskType        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalPayload serializes a payload with its kind tag
func MarshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", p.Kind(), err)
	}
	return json.Marshal(payloadEnvelope{Kind: p.Kind(), Data: data})
}

// UnmarshalPayload deserializes a tagged payload. Empty input yields nil.
func UnmarshalPayload(raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var env payloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal payload envelope: %w", err)
	}
	switch env.Kind {
	case TaskTypeMerchant:
		var p MerchantPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal merchant payload: %w", err)
		}
		return p, nil
	case TaskTypeLocations:
		var p LocationsPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal locations payload: %w", err)
		}
		return p, nil
	case TaskTypeCatalog:
		var p CatalogPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal catalog payload: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown payload kind %q", shared.ErrInvalidInput, env.Kind)
	}
}
