package square

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/frontdesk/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the Square API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Adapter implements the integration.Provider port against the Square REST
// API. Credentials are resolved per connection through the credential store;
// the adapter itself is stateless and safe for concurrent use.
type Adapter struct {
	config      Config
	credentials integration.CredentialStore
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewAdapter creates a new Square adapter
func NewAdapter(config Config, credentials integration.CredentialStore, logger *zap.Logger) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		config:      config,
		credentials: credentials,
		httpClient:  &http.Client{Timeout: config.Timeout},
		logger:      logger.Named("square"),
	}, nil
}

// FetchMerchant retrieves the merchant profile for a connection
func (a *Adapter) FetchMerchant(ctx context.Context, connectionID uuid.UUID) (*integration.MerchantInfo, error) {
	body, err := a.doGet(ctx, connectionID, "/v2/merchants", nil)
	if err != nil {
		return nil, err
	}

	var resp listMerchantsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse merchants response: %v", integration.ErrProviderInvalidResponse, err)
	}
	if len(resp.Merchant) == 0 {
		return nil, nil
	}

	// A Square account holds exactly one merchant; the endpoint still
	// returns a list.
	m := resp.Merchant[0]
	return &integration.MerchantInfo{
		ProviderMerchantID: m.ID,
		BusinessName:       m.BusinessName,
		Country:            m.Country,
		Language:           m.LanguageCode,
		Currency:           m.Currency,
	}, nil
}

// FetchLocations retrieves the merchant's active store locations
func (a *Adapter) FetchLocations(ctx context.Context, connectionID uuid.UUID) ([]integration.LocationInfo, error) {
	body, err := a.doGet(ctx, connectionID, "/v2/locations", nil)
	if err != nil {
		return nil, err
	}

	var resp listLocationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse locations response: %v", integration.ErrProviderInvalidResponse, err)
	}

	var locations []integration.LocationInfo
	for _, loc := range resp.Locations {
		if loc.Status != "" && loc.Status != locationStatusActive {
			continue
		}
		info := integration.LocationInfo{
			ProviderLocationID: loc.ID,
			Name:               loc.Name,
			PhoneNumber:        loc.PhoneNumber,
			BusinessHours:      formatBusinessHours(loc.BusinessHours),
			Timezone:           loc.Timezone,
		}
		if loc.Address != nil {
			info.AddressLine1 = loc.Address.AddressLine1
			info.AddressLine2 = loc.Address.AddressLine2
			info.City = loc.Address.Locality
			info.Region = loc.Address.AdminArea
			info.PostalCode = loc.Address.PostalCode
		}
		locations = append(locations, info)
	}
	return locations, nil
}

// FetchCatalog retrieves the merchant's catalog, following pagination
// cursors until the listing is exhausted
func (a *Adapter) FetchCatalog(ctx context.Context, connectionID uuid.UUID) (*integration.CatalogInfo, error) {
	catalog := &integration.CatalogInfo{}
	cursor := ""

	for {
		query := url.Values{}
		query.Set("types", strings.Join([]string{catalogTypeCategory, catalogTypeItem}, ","))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		body, err := a.doGet(ctx, connectionID, "/v2/catalog/list", query)
		if err != nil {
			return nil, err
		}

		var resp listCatalogResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: failed to parse catalog response: %v", integration.ErrProviderInvalidResponse, err)
		}

		for _, obj := range resp.Objects {
			a.collectCatalogObject(catalog, obj)
		}

		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}

	if catalog.IsEmpty() {
		return nil, nil
	}
	return catalog, nil
}

// collectCatalogObject sorts one catalog object into the right collection.
// Items flagged as appointment services become bookable services; everything
// else is a plain item.
func (a *Adapter) collectCatalogObject(catalog *integration.CatalogInfo, obj catalogObject) {
	switch obj.Type {
	case catalogTypeCategory:
		if obj.CategoryData == nil {
			return
		}
		catalog.Categories = append(catalog.Categories, integration.CategoryInfo{
			ProviderCategoryID: obj.ID,
			Name:               obj.CategoryData.Name,
		})

	case catalogTypeItem:
		if obj.ItemData == nil {
			return
		}
		if obj.ItemData.ProductType == productTypeAppointmentsService {
			catalog.Services = append(catalog.Services, a.toService(obj))
		} else {
			catalog.Items = append(catalog.Items, a.toItem(obj))
		}

	default:
		a.logger.Debug("Skipping unhandled catalog object type",
			zap.String("type", obj.Type),
			zap.String("id", obj.ID),
		)
	}
}

func (a *Adapter) toService(obj catalogObject) integration.ServiceInfo {
	service := integration.ServiceInfo{
		ProviderServiceID: obj.ID,
		Name:              obj.ItemData.Name,
		Description:       obj.ItemData.Description,
		CategoryID:        obj.ItemData.CategoryID,
	}
	for _, v := range obj.ItemData.Variations {
		if v.ItemVariationData == nil {
			continue
		}
		data := v.ItemVariationData
		service.Variations = append(service.Variations, integration.ServiceVariationInfo{
			ProviderVariationID: v.ID,
			Name:                data.Name,
			DurationMinutes:     int(time.Duration(data.ServiceDuration) * time.Millisecond / time.Minute),
			Price:               moneyToDecimal(data.PriceMoney),
			Bookable:            data.AvailableForBooking,
		})
	}
	return service
}

func (a *Adapter) toItem(obj catalogObject) integration.ItemInfo {
	item := integration.ItemInfo{
		ProviderItemID: obj.ID,
		Name:           obj.ItemData.Name,
		Description:    obj.ItemData.Description,
		CategoryID:     obj.ItemData.CategoryID,
	}
	// Plain items carry a single price; take it from the first variation
	for _, v := range obj.ItemData.Variations {
		if v.ItemVariationData != nil && v.ItemVariationData.PriceMoney != nil {
			item.Price = moneyToDecimal(v.ItemVariationData.PriceMoney)
			break
		}
	}
	return item
}

// doGet performs an authenticated GET and maps transport failures onto the
// provider error taxonomy
func (a *Adapter) doGet(ctx context.Context, connectionID uuid.UUID, path string, query url.Values) ([]byte, error) {
	token, err := a.credentials.AccessToken(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	endpoint := a.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("square: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Square-Version", apiVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("square: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, a.mapHTTPError(resp.StatusCode, body, path)
	}
	return body, nil
}

// mapHTTPError classifies an HTTP failure status into the provider taxonomy
func (a *Adapter) mapHTTPError(status int, body []byte, path string) error {
	detail := extractErrorDetail(body)
	a.logger.Warn("Square API request failed",
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("detail", detail),
	)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d: %s", integration.ErrProviderAuthFailed, status, detail)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d: %s", integration.ErrProviderRateLimited, status, detail)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", integration.ErrProviderUnavailable, status, detail)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", integration.ErrProviderRequestFailed, status, detail)
	}
}

// extractErrorDetail pulls the first error detail out of a Square error body
func extractErrorDetail(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Errors) == 0 {
		return ""
	}
	first := resp.Errors[0]
	if first.Detail != "" {
		return first.Detail
	}
	return first.Code
}

// formatBusinessHours renders Square's period list as display strings, one
// per period, e.g. "MON 09:00-17:00"
func formatBusinessHours(hours *businessHours) []string {
	if hours == nil || len(hours.Periods) == 0 {
		return nil
	}
	out := make([]string, 0, len(hours.Periods))
	for _, p := range hours.Periods {
		out = append(out, fmt.Sprintf("%s %s-%s", p.DayOfWeek, p.StartLocalTime, p.EndLocalTime))
	}
	return out
}

// moneyToDecimal converts minor currency units to a decimal amount
func moneyToDecimal(m *money) decimal.Decimal {
	if m == nil {
		return decimal.Zero
	}
	return decimal.New(m.Amount, -2)
}

// Ensure Adapter implements integration.Provider
var _ integration.Provider = (*Adapter)(nil)
