package catalog

import (
	"context"

	"github.com/datatrellis/catalog-engine/pkg/apperrors"
)

// NullClient is the fallback implementation selected when catalog
// integration is disabled by configuration. Callers always go through the
// Client interface; they never branch on whether the integration exists.
// Lookups answer "absent", reads answer "empty", writes report unavailable,
// and the health check gates batch operations to skipped.
type NullClient struct{}

// NewNullClient returns the disabled-integration client.
func NewNullClient() Client {
	return NullClient{}
}

var _ Client = NullClient{}

func (NullClient) HealthCheck(ctx context.Context) bool { return false }

func (NullClient) GetDatabaseService(ctx context.Context, name string) (*Entity, error) {
	return nil, nil
}

func (NullClient) CreateDatabaseService(ctx context.Context, name, serviceType, description string) (*Entity, error) {
	return nil, apperrors.ErrUnavailable
}

func (NullClient) GetDatabase(ctx context.Context, fqn string) (*Entity, error) {
	return nil, nil
}

func (NullClient) CreateDatabase(ctx context.Context, name, serviceFQN, description string) (*Entity, error) {
	return nil, apperrors.ErrUnavailable
}

func (NullClient) GetTable(ctx context.Context, fqn string, includeColumns bool) (*Table, error) {
	return nil, nil
}

func (NullClient) CreateTable(ctx context.Context, req CreateTableRequest) (*Table, error) {
	return nil, apperrors.ErrUnavailable
}

func (NullClient) UpdateTable(ctx context.Context, fqn string, update TableUpdate) (*Table, error) {
	return nil, apperrors.ErrUnavailable
}

func (NullClient) AddLineage(ctx context.Context, from, to EntityRef, description string) error {
	return apperrors.ErrUnavailable
}

func (NullClient) GetLineage(ctx context.Context, entityType, fqn string, upstreamDepth, downstreamDepth int) (*LineageResponse, error) {
	return &LineageResponse{}, nil
}
