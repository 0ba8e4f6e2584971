package integration

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Provider Errors
// ---------------------------------------------------------------------------

var (
	// ErrProviderNotConfigured indicates no credentials exist for the connection
	ErrProviderNotConfigured = errors.New("integration: provider not configured")
	// ErrProviderUnavailable indicates the provider is temporarily unreachable
	ErrProviderUnavailable = errors.New("integration: provider temporarily unavailable")
	// ErrProviderRequestFailed indicates the provider rejected the request
	ErrProviderRequestFailed = errors.New("integration: provider request failed")
	// ErrProviderInvalidResponse indicates the provider returned an unparseable body
	ErrProviderInvalidResponse = errors.New("integration: invalid provider response")
	// ErrProviderAuthFailed indicates the stored credential was rejected
	ErrProviderAuthFailed = errors.New("integration: provider authentication failed")
	// ErrProviderRateLimited indicates the provider throttled the request
	ErrProviderRateLimited = errors.New("integration: provider rate limited")
)

// IsProviderError reports whether err belongs to the provider error taxonomy.
// All provider errors are treated as retryable by the import pipeline.
func IsProviderError(err error) bool {
	switch {
	case errors.Is(err, ErrProviderNotConfigured),
		errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ErrProviderRequestFailed),
		errors.Is(err, ErrProviderInvalidResponse),
		errors.Is(err, ErrProviderAuthFailed),
		errors.Is(err, ErrProviderRateLimited):
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Provider Port
// ---------------------------------------------------------------------------

// Provider is the read-only port to the external point-of-sale system.
// Each fetch is independent: it returns the provider's data, or a nil/empty
// result when the provider simply has nothing of that kind. Ordinary absence
// is never an error; the error taxonomy above is reserved for transport,
// auth and rate-limit failures.
type Provider interface {
	// FetchMerchant retrieves the merchant profile for a connection.
	// Returns (nil, nil) when the provider has no merchant data.
	FetchMerchant(ctx context.Context, connectionID uuid.UUID) (*MerchantInfo, error)

	// FetchLocations retrieves the merchant's store locations.
	// Returns (nil, nil) when the provider has no locations.
	FetchLocations(ctx context.Context, connectionID uuid.UUID) ([]LocationInfo, error)

	// FetchCatalog retrieves the merchant's product/service catalog.
	// Returns (nil, nil) when the provider has no catalog.
	FetchCatalog(ctx context.Context, connectionID uuid.UUID) (*CatalogInfo, error)
}

// CredentialStore resolves a connection reference to a live provider
// credential. The OAuth handshake that produces these credentials is owned
// by a separate subsystem; the import pipeline only ever sees the opaque
// connection ID.
type CredentialStore interface {
	// AccessToken returns the bearer token for the connection.
	// Returns ErrProviderNotConfigured when no credential exists.
	AccessToken(ctx context.Context, connectionID uuid.UUID) (string, error)
}
