package integration

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// Provider DTOs
//
// These are the normalized shapes the import pipeline persists. The raw wire
// format of the provider is an adapter concern; only the fields below are
// extracted from it.
// ---------------------------------------------------------------------------

// MerchantInfo is the merchant profile as reported by the provider
type MerchantInfo struct {
	// ProviderMerchantID is the merchant's ID on the provider side
	ProviderMerchantID string `json:"provider_merchant_id"`
	// BusinessName is the registered business name
	BusinessName string `json:"business_name"`
	// Country is the ISO 3166-1 alpha-2 country code
	Country string `json:"country"`
	// Language is the BCP-47 language tag of the merchant account
	Language string `json:"language"`
	// Currency is the ISO 4217 currency code
	Currency string `json:"currency"`
}

// LocationInfo is one store location as reported by the provider
type LocationInfo struct {
	// ProviderLocationID is the location's ID on the provider side
	ProviderLocationID string `json:"provider_location_id"`
	// Name is the location's display name
	Name string `json:"name"`
	// AddressLine1 and AddressLine2 are the street address
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	// City, Region and PostalCode complete the address
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	// PhoneNumber is the location's public phone number
	PhoneNumber string `json:"phone_number"`
	// BusinessHours holds formatted opening hours, one entry per day,
	// e.g. "MON 09:00-17:00"
	BusinessHours []string `json:"business_hours,omitempty"`
	// Timezone is the IANA timezone of the location
	Timezone string `json:"timezone"`
}

// CatalogInfo is the merchant's full catalog as reported by the provider
type CatalogInfo struct {
	Categories []CategoryInfo `json:"categories,omitempty"`
	Services   []ServiceInfo  `json:"services,omitempty"`
	Items      []ItemInfo     `json:"items,omitempty"`
}

// IsEmpty reports whether the catalog carries no entries at all
func (c *CatalogInfo) IsEmpty() bool {
	return c == nil || (len(c.Categories) == 0 && len(c.Services) == 0 && len(c.Items) == 0)
}

// CategoryInfo is a catalog category
type CategoryInfo struct {
	ProviderCategoryID string `json:"provider_category_id"`
	Name               string `json:"name"`
}

// ServiceInfo is a bookable service offered by the merchant
type ServiceInfo struct {
	ProviderServiceID string `json:"provider_service_id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	CategoryID        string `json:"category_id,omitempty"`
	// Variations are the bookable flavors of the service (e.g. 30/60 min)
	Variations []ServiceVariationInfo `json:"variations,omitempty"`
}

// ServiceVariationInfo is one bookable variation of a service
type ServiceVariationInfo struct {
	ProviderVariationID string `json:"provider_variation_id"`
	Name                string `json:"name"`
	// DurationMinutes is the bookable slot length; zero when not bookable
	DurationMinutes int `json:"duration_minutes,omitempty"`
	// Price is the variation price in the merchant currency
	Price decimal.Decimal `json:"price"`
	// Bookable indicates the variation can be scheduled through the assistant
	Bookable bool `json:"bookable"`
}

// ItemInfo is a plain (non-bookable) catalog item
type ItemInfo struct {
	ProviderItemID string          `json:"provider_item_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	CategoryID     string          `json:"category_id,omitempty"`
	Price          decimal.Decimal `json:"price"`
}
