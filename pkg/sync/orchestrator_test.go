package sync

import (
	"context"
	"net/http"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datatrellis/catalog-engine/pkg/apperrors"
	"github.com/datatrellis/catalog-engine/pkg/catalog"
	"github.com/datatrellis/catalog-engine/pkg/models"
)

// ============================================================================
// Mock catalog client
// ============================================================================

type pushedEdge struct {
	from        catalog.EntityRef
	to          catalog.EntityRef
	description string
}

type mockClient struct {
	mu gosync.Mutex

	healthy   bool
	services  map[string]*catalog.Entity
	databases map[string]*catalog.Entity
	tables    map[string]*catalog.Table
	edges     []pushedEdge

	// createTableErr fails CreateTable for the named tables.
	createTableErr map[string]error
	// addLineageErr fails every AddLineage call.
	addLineageErr error

	writeCalls int
}

func newMockClient() *mockClient {
	return &mockClient{
		healthy:        true,
		services:       make(map[string]*catalog.Entity),
		databases:      make(map[string]*catalog.Entity),
		tables:         make(map[string]*catalog.Table),
		createTableErr: make(map[string]error),
	}
}

var _ catalog.Client = (*mockClient)(nil)

func (m *mockClient) HealthCheck(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

func (m *mockClient) GetDatabaseService(ctx context.Context, name string) (*catalog.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.services[name], nil
}

func (m *mockClient) CreateDatabaseService(ctx context.Context, name, serviceType, description string) (*catalog.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls++
	e := &catalog.Entity{Name: name, FullyQualifiedName: name, Description: description}
	m.services[name] = e
	return e, nil
}

func (m *mockClient) GetDatabase(ctx context.Context, fqn string) (*catalog.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.databases[fqn], nil
}

func (m *mockClient) CreateDatabase(ctx context.Context, name, serviceFQN, description string) (*catalog.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls++
	fqn := serviceFQN + "." + name
	e := &catalog.Entity{Name: name, FullyQualifiedName: fqn}
	m.databases[fqn] = e
	return e, nil
}

func (m *mockClient) GetTable(ctx context.Context, fqn string, includeColumns bool) (*catalog.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables[fqn], nil
}

func (m *mockClient) CreateTable(ctx context.Context, req catalog.CreateTableRequest) (*catalog.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.createTableErr[req.Name]; err != nil {
		return nil, err
	}
	m.writeCalls++
	fqn := req.DatabaseFQN + "." + req.Name
	t := &catalog.Table{
		Name:               req.Name,
		FullyQualifiedName: fqn,
		Description:        req.Description,
		TableType:          req.TableType,
		Columns:            req.Columns,
		CustomProperties:   req.CustomProperties,
	}
	m.tables[fqn] = t
	return t, nil
}

func (m *mockClient) UpdateTable(ctx context.Context, fqn string, update catalog.TableUpdate) (*catalog.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[fqn]
	if !ok {
		return nil, &apperrors.RemoteError{Op: "updateTable", StatusCode: http.StatusNotFound, Message: fqn}
	}
	m.writeCalls++
	if update.Columns != nil {
		t.Columns = update.Columns
	}
	if update.Description != nil {
		t.Description = *update.Description
	}
	if update.CustomProperties != nil {
		t.CustomProperties = update.CustomProperties
	}
	return t, nil
}

func (m *mockClient) AddLineage(ctx context.Context, from, to catalog.EntityRef, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addLineageErr != nil {
		return m.addLineageErr
	}
	m.writeCalls++
	m.edges = append(m.edges, pushedEdge{from: from, to: to, description: description})
	return nil
}

func (m *mockClient) GetLineage(ctx context.Context, entityType, fqn string, upstreamDepth, downstreamDepth int) (*catalog.LineageResponse, error) {
	return &catalog.LineageResponse{}, nil
}

func (m *mockClient) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeCalls
}

// ============================================================================
// Orchestrator tests
// ============================================================================

func testOrchestrator(client catalog.Client) *Orchestrator {
	cfg := DefaultConfig("svc")
	cfg.Workers = 2
	return NewOrchestrator(client, cfg, zap.NewNop())
}

func ordersTable() TableSyncRequest {
	return TableSyncRequest{
		Table: models.TableDef{
			DatabaseName: "sales",
			TableName:    "orders",
			Columns: []models.ColumnDef{
				{Name: "id", DataType: "int"},
				{Name: "total", DataType: "decimal(10,2)"},
			},
		},
	}
}

func TestSyncTable_CreatesMissingTable(t *testing.T) {
	client := newMockClient()
	o := testOrchestrator(client)

	table, result, err := o.SyncTable(context.Background(), ordersTable())
	require.NoError(t, err)
	require.NotNil(t, table)

	assert.Equal(t, models.SyncActionCreated, result.Action)
	assert.True(t, result.Success)
	assert.Equal(t, "sales", result.Database)

	created := client.tables["svc.sales.orders"]
	require.NotNil(t, created)
	require.Len(t, created.Columns, 2)
	assert.Equal(t, "INT", created.Columns[0].DataType)
	assert.Equal(t, "DECIMAL", created.Columns[1].DataType)

	// Parent service and database were created on the way.
	assert.NotNil(t, client.services["svc"])
	assert.NotNil(t, client.databases["svc.sales"])
}

func TestSyncTable_SecondSyncSkipsWithZeroWrites(t *testing.T) {
	client := newMockClient()
	o := testOrchestrator(client)

	_, first, err := o.SyncTable(context.Background(), ordersTable())
	require.NoError(t, err)
	require.Equal(t, models.SyncActionCreated, first.Action)

	writesAfterCreate := client.writeCount()

	_, second, err := o.SyncTable(context.Background(), ordersTable())
	require.NoError(t, err)
	assert.Equal(t, models.SyncActionSkipped, second.Action)
	assert.Equal(t, writesAfterCreate, client.writeCount(), "a skip must issue zero write calls")
}

func TestSyncTable_ForceUpdatePushesWithoutChanges(t *testing.T) {
	client := newMockClient()
	o := testOrchestrator(client)

	_, _, err := o.SyncTable(context.Background(), ordersTable())
	require.NoError(t, err)

	req := ordersTable()
	req.ForceUpdate = true
	_, result, err := o.SyncTable(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.SyncActionUpdated, result.Action)
	assert.Nil(t, result.Changes)
}

func TestSyncTable_UpdateMergesColumns(t *testing.T) {
	client := newMockClient()
	client.tables["svc.sales.orders"] = &catalog.Table{
		Name:               "orders",
		FullyQualifiedName: "svc.sales.orders",
		Columns: []catalog.Column{
			{Name: "id", DataType: "INT"},
			{Name: "legacy_code", DataType: "TEXT"},
		},
		CustomProperties: map[string]string{"owner": "data-team"},
	}
	client.services["svc"] = &catalog.Entity{Name: "svc"}
	client.databases["svc.sales"] = &catalog.Entity{Name: "sales"}

	o := testOrchestrator(client)
	req := TableSyncRequest{
		Table: models.TableDef{
			DatabaseName: "sales",
			TableName:    "orders",
			Columns: []models.ColumnDef{
				{Name: "id", DataType: "bigint"},
				{Name: "total", DataType: "decimal"},
			},
		},
		CustomProperties: map[string]string{"tier": "gold"},
	}

	_, result, err := o.SyncTable(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.SyncActionUpdated, result.Action)

	require.NotNil(t, result.Changes)
	added, modified, deleted := result.Changes.Counts()
	assert.Equal(t, 1, added, "total is new")
	assert.Equal(t, 1, modified, "id changed type")
	assert.Equal(t, 1, deleted, "legacy_code is gone locally")

	updated := client.tables["svc.sales.orders"]
	require.Len(t, updated.Columns, 3, "unmentioned remote columns are preserved, never deleted")
	assert.Equal(t, "BIGINT", updated.Columns[0].DataType)
	assert.Equal(t, "legacy_code", updated.Columns[1].Name)
	assert.Equal(t, "total", updated.Columns[2].Name)

	assert.Equal(t, "data-team", updated.CustomProperties["owner"], "existing keys preserved")
	assert.Equal(t, "gold", updated.CustomProperties["tier"], "new keys merged in")
}

func TestSyncTable_RemoteErrorPropagates(t *testing.T) {
	client := newMockClient()
	client.createTableErr["orders"] = &apperrors.RemoteError{
		Op: "createTable", StatusCode: http.StatusInternalServerError, Message: "boom",
	}
	o := testOrchestrator(client)

	_, result, err := o.SyncTable(context.Background(), ordersTable())
	require.Error(t, err, "single-item operations propagate remote errors")
	var re *apperrors.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, models.SyncActionFailed, result.Action)
	assert.False(t, result.Success)
}

func TestSyncTable_UnavailableSkips(t *testing.T) {
	client := newMockClient()
	client.healthy = false
	o := testOrchestrator(client)

	table, result, err := o.SyncTable(context.Background(), ordersTable())
	require.NoError(t, err)
	assert.Nil(t, table)
	assert.Equal(t, models.SyncActionSkipped, result.Action)
	assert.Zero(t, client.writeCount())
}

func TestSyncAll_BatchIsolation(t *testing.T) {
	client := newMockClient()
	client.createTableErr["t2"] = &apperrors.RemoteError{
		Op: "createTable", StatusCode: http.StatusInternalServerError, Message: "boom",
	}
	o := testOrchestrator(client)

	requests := []TableSyncRequest{
		{Table: models.TableDef{DatabaseName: "sales", TableName: "t1", Columns: []models.ColumnDef{{Name: "id", DataType: "int"}}}},
		{Table: models.TableDef{DatabaseName: "sales", TableName: "t2", Columns: []models.ColumnDef{{Name: "id", DataType: "int"}}}},
		{Table: models.TableDef{DatabaseName: "sales", TableName: "t3", Columns: []models.ColumnDef{{Name: "id", DataType: "int"}}}},
	}

	stats, results := o.SyncAll(context.Background(), requests)
	assert.Equal(t, models.SyncStats{Synced: 2, Failed: 1, Skipped: 0}, stats)
	assert.Len(t, results, 3)

	assert.NotNil(t, client.tables["svc.sales.t1"])
	assert.NotNil(t, client.tables["svc.sales.t3"], "a failing table must not abort the rest")
}

func TestSyncAll_UnavailableShortCircuits(t *testing.T) {
	client := newMockClient()
	client.healthy = false
	o := testOrchestrator(client)

	requests := []TableSyncRequest{ordersTable(), ordersTable(), ordersTable()}
	stats, results := o.SyncAll(context.Background(), requests)

	assert.Equal(t, models.SyncStats{Synced: 0, Failed: 0, Skipped: 3}, stats)
	assert.Len(t, results, 3)
	assert.Zero(t, client.writeCount())
}

func TestSyncAll_ResultsAreAttributable(t *testing.T) {
	client := newMockClient()
	o := testOrchestrator(client)

	requests := []TableSyncRequest{
		{Table: models.TableDef{DatabaseName: "sales", TableName: "a", Columns: []models.ColumnDef{{Name: "id", DataType: "int"}}}},
		{Table: models.TableDef{DatabaseName: "sales", TableName: "b", Columns: []models.ColumnDef{{Name: "id", DataType: "int"}}}},
	}

	_, results := o.SyncAll(context.Background(), requests)
	names := make(map[string]bool)
	for _, r := range results {
		names[r.TableName] = true
	}
	assert.True(t, names["a"] && names["b"], "every result carries its table identity")
}

func TestAuthBreaker(t *testing.T) {
	b := newAuthBreaker(2)
	authErr := &apperrors.RemoteError{Op: "createTable", StatusCode: http.StatusUnauthorized}

	assert.False(t, b.Open())
	b.Record(authErr)
	assert.False(t, b.Open())
	b.Record(authErr)
	assert.True(t, b.Open())

	// Any non-auth outcome resets the streak.
	b.Record(nil)
	assert.False(t, b.Open())
}
