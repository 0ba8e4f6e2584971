package square

import (
	"context"

	"github.com/google/uuid"

	"github.com/frontdesk/backend/internal/domain/integration"
)

// StaticCredentialStore resolves every connection to one fixed access
// token. It backs single-tenant deployments and local development, where
// the token comes from configuration instead of the OAuth flow.
type StaticCredentialStore struct {
	token string
}

// NewStaticCredentialStore creates a credential store around a fixed token
func NewStaticCredentialStore(token string) *StaticCredentialStore {
	return &StaticCredentialStore{token: token}
}

// AccessToken returns the configured token for any connection
func (s *StaticCredentialStore) AccessToken(_ context.Context, _ uuid.UUID) (string, error) {
	if s.token == "" {
		return "", integration.ErrProviderNotConfigured
	}
	return s.token, nil
}

// Ensure StaticCredentialStore implements integration.CredentialStore
var _ integration.CredentialStore = (*StaticCredentialStore)(nil)
