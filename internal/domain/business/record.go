package business

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frontdesk/backend/internal/domain/integration"
	"github.com/frontdesk/backend/internal/domain/shared"
)

// BusinessRecord is the owner's normalized business profile: the single
// document the phone assistant answers from. It is mutated only by the
// import result sink, one field group at a time, and every group write is a
// plain overwrite so re-applying the same payload is a no-op.
type BusinessRecord struct {
	shared.OwnerEntity

	// Merchant group (written by merchant tasks)
	ProviderMerchantID string
	BusinessName       string
	Country            string
	Language           string
	Currency           string

	// Primary location group (written by locations tasks)
	ProviderLocationID string
	LocationName       string
	AddressLine1       string
	AddressLine2       string
	City               string
	Region             string
	PostalCode         string
	PhoneNumber        string
	BusinessHours      []string
	Timezone           string

	// Catalog group (written by catalog tasks)
	Categories []Category
	Services   []Service
	Items      []Item
}

// Category is a normalized catalog category
type Category struct {
	ProviderCategoryID string `json:"provider_category_id"`
	Name               string `json:"name"`
}

// Service is a bookable service with its variations
type Service struct {
	ProviderServiceID string             `json:"provider_service_id"`
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	CategoryID        string             `json:"category_id,omitempty"`
	Variations        []ServiceVariation `json:"variations,omitempty"`
}

// ServiceVariation is one bookable flavor of a service
type ServiceVariation struct {
	ProviderVariationID string          `json:"provider_variation_id"`
	Name                string          `json:"name"`
	DurationMinutes     int             `json:"duration_minutes,omitempty"`
	Price               decimal.Decimal `json:"price"`
	Bookable            bool            `json:"bookable"`
}

// Item is a plain, non-bookable catalog item
type Item struct {
	ProviderItemID string          `json:"provider_item_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	CategoryID     string          `json:"category_id,omitempty"`
	Price          decimal.Decimal `json:"price"`
}

// NewBusinessRecord creates an empty record for an owner. Records are
// created lazily, on the first successful import task.
func NewBusinessRecord(ownerID uuid.UUID) *BusinessRecord {
	return &BusinessRecord{
		OwnerEntity: shared.NewOwnerEntity(ownerID),
	}
}

// ApplyMerchant overwrites the merchant field group
func (r *BusinessRecord) ApplyMerchant(info *integration.MerchantInfo) {
	if info == nil {
		return
	}
	r.ProviderMerchantID = info.ProviderMerchantID
	r.BusinessName = info.BusinessName
	r.Country = info.Country
	r.Language = info.Language
	r.Currency = info.Currency
}

// ApplyLocations overwrites the primary-location field group. The first
// location reported by the provider is treated as primary; the assistant
// handles a single storefront per owner.
func (r *BusinessRecord) ApplyLocations(locations []integration.LocationInfo) {
	if len(locations) == 0 {
		return
	}
	primary := locations[0]
	r.ProviderLocationID = primary.ProviderLocationID
	r.LocationName = primary.Name
	r.AddressLine1 = primary.AddressLine1
	r.AddressLine2 = primary.AddressLine2
	r.City = primary.City
	r.Region = primary.Region
	r.PostalCode = primary.PostalCode
	r.PhoneNumber = primary.PhoneNumber
	r.BusinessHours = append([]string(nil), primary.BusinessHours...)
	r.Timezone = primary.Timezone
}

// ApplyCatalog overwrites the catalog field group
func (r *BusinessRecord) ApplyCatalog(catalog *integration.CatalogInfo) {
	if catalog.IsEmpty() {
		return
	}
	r.Categories = make([]Category, 0, len(catalog.Categories))
	for _, c := range catalog.Categories {
		r.Categories = append(r.Categories, Category{
			ProviderCategoryID: c.ProviderCategoryID,
			Name:               c.Name,
		})
	}
	r.Services = make([]Service, 0, len(catalog.Services))
	for _, s := range catalog.Services {
		svc := Service{
			ProviderServiceID: s.ProviderServiceID,
			Name:              s.Name,
			Description:       s.Description,
			CategoryID:        s.CategoryID,
		}
		for _, v := range s.Variations {
			svc.Variations = append(svc.Variations, ServiceVariation{
				ProviderVariationID: v.ProviderVariationID,
				Name:                v.Name,
				DurationMinutes:     v.DurationMinutes,
				Price:               v.Price,
				Bookable:            v.Bookable,
			})
		}
		r.Services = append(r.Services, svc)
	}
	r.Items = make([]Item, 0, len(catalog.Items))
	for _, i := range catalog.Items {
		r.Items = append(r.Items, Item{
			ProviderItemID: i.ProviderItemID,
			Name:           i.Name,
			Description:    i.Description,
			CategoryID:     i.CategoryID,
			Price:          i.Price,
		})
	}
}
