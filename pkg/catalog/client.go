package catalog

import (
	"context"
)

// Entity is a generic remote catalog entity (database service, database).
type Entity struct {
	ID                 string `json:"id,omitempty"`
	Name               string `json:"name"`
	FullyQualifiedName string `json:"fullyQualifiedName,omitempty"`
	Description        string `json:"description,omitempty"`
}

// Column is the catalog-side representation of a table column.
type Column struct {
	Name        string   `json:"name"`
	DataType    string   `json:"dataType"`
	DataLength  int      `json:"dataLength,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Table is the catalog's stored table definition, returned by GetTable and
// used by the diff engine as the "existing" side.
type Table struct {
	ID                 string            `json:"id,omitempty"`
	Name               string            `json:"name"`
	FullyQualifiedName string            `json:"fullyQualifiedName,omitempty"`
	Description        string            `json:"description,omitempty"`
	TableType          string            `json:"tableType,omitempty"`
	Columns            []Column          `json:"columns,omitempty"`
	CustomProperties   map[string]string `json:"customProperties,omitempty"`
}

// CreateTableRequest carries everything needed to create a table entity.
type CreateTableRequest struct {
	Name             string            `json:"name"`
	DatabaseFQN      string            `json:"database"`
	Columns          []Column          `json:"columns"`
	Description      string            `json:"description,omitempty"`
	TableType        string            `json:"tableType,omitempty"`
	CustomProperties map[string]string `json:"customProperties,omitempty"`
}

// TableUpdate is a partial update pushed after a diff detected changes.
// Columns is the full merged column list; a nil Description leaves the
// remote description untouched.
type TableUpdate struct {
	Columns          []Column          `json:"columns,omitempty"`
	Description      *string           `json:"description,omitempty"`
	CustomProperties map[string]string `json:"customProperties,omitempty"`
}

// EntityRef identifies one endpoint of a lineage edge.
type EntityRef struct {
	Type        string `json:"type"`
	FQN         string `json:"fullyQualifiedName"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// LineageEdge is one edge of a lineage query response.
type LineageEdge struct {
	From        EntityRef `json:"fromEntity"`
	To          EntityRef `json:"toEntity"`
	Description string    `json:"description,omitempty"`
}

// LineageResponse is the remote catalog's answer to a lineage graph query.
type LineageResponse struct {
	UpstreamEdges   []LineageEdge `json:"upstreamEdges"`
	DownstreamEdges []LineageEdge `json:"downstreamEdges"`
}

// Client is the synchronous request/response interface to the remote
// catalog. The catalog's wire protocol is a black box behind this interface;
// implementations translate 404 on any Get* call to (nil, nil) and report
// every other non-2xx response as *apperrors.RemoteError.
type Client interface {
	// HealthCheck is a short-timeout liveness probe. It never returns an
	// error; an unreachable catalog is simply "false".
	HealthCheck(ctx context.Context) bool

	GetDatabaseService(ctx context.Context, name string) (*Entity, error)
	CreateDatabaseService(ctx context.Context, name, serviceType, description string) (*Entity, error)

	GetDatabase(ctx context.Context, fqn string) (*Entity, error)
	CreateDatabase(ctx context.Context, name, serviceFQN, description string) (*Entity, error)

	GetTable(ctx context.Context, fqn string, includeColumns bool) (*Table, error)
	CreateTable(ctx context.Context, req CreateTableRequest) (*Table, error)
	UpdateTable(ctx context.Context, fqn string, update TableUpdate) (*Table, error)

	AddLineage(ctx context.Context, from, to EntityRef, description string) error
	GetLineage(ctx context.Context, entityType, fqn string, upstreamDepth, downstreamDepth int) (*LineageResponse, error)
}
