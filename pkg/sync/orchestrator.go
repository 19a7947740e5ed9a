// Package sync drives diff-based, idempotent synchronization of local
// metadata into the remote catalog: table schemas through the Orchestrator
// and lineage edges through the LineageOrchestrator. Batch operations share
// availability gating, per-item failure isolation and aggregate statistics.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datatrellis/catalog-engine/pkg/catalog"
	"github.com/datatrellis/catalog-engine/pkg/config"
	"github.com/datatrellis/catalog-engine/pkg/diff"
	"github.com/datatrellis/catalog-engine/pkg/logging"
	"github.com/datatrellis/catalog-engine/pkg/mapping"
	"github.com/datatrellis/catalog-engine/pkg/models"
	"github.com/datatrellis/catalog-engine/pkg/workpool"
)

// Config configures both orchestrators.
type Config struct {
	// ServiceName is the database service local entities register under;
	// it is the first FQN segment of every synced table.
	ServiceName string
	// ServiceType is the catalog-side type of that service.
	ServiceType string
	// Workers bounds batch parallelism.
	Workers int
	// ForceUpdate pushes updates even when the diff found no changes.
	ForceUpdate bool
	// MaxAuthFailures trips the batch circuit breaker.
	MaxAuthFailures int
}

// DefaultConfig returns sensible defaults for catalog synchronization.
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:     serviceName,
		ServiceType:     "Postgres",
		Workers:         4,
		MaxAuthFailures: 3,
	}
}

// ConfigFrom maps the application configuration onto orchestrator settings.
func ConfigFrom(app *config.Config) Config {
	return Config{
		ServiceName:     app.Catalog.ServiceName,
		ServiceType:     app.Catalog.ServiceType,
		Workers:         app.Sync.Workers,
		ForceUpdate:     app.Sync.ForceUpdate,
		MaxAuthFailures: app.Sync.MaxAuthFailures,
	}
}

// TableSyncRequest is one table to reconcile against the catalog.
type TableSyncRequest struct {
	Table models.TableDef
	// CustomProperties are table-level properties merged with the per-column
	// properties collected during conversion.
	CustomProperties map[string]string
	// ForceUpdate overrides the orchestrator-wide setting for this table.
	ForceUpdate bool
}

// Orchestrator reconciles local table definitions with the remote catalog.
type Orchestrator struct {
	client catalog.Client
	cfg    Config
	pool   *workpool.Pool
	logger *zap.Logger
}

// NewOrchestrator creates a schema sync orchestrator.
func NewOrchestrator(client catalog.Client, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	return &Orchestrator{
		client: client,
		cfg:    cfg,
		pool:   workpool.New(workpool.Config{MaxConcurrent: cfg.Workers}, logger),
		logger: logger.Named("schema-sync"),
	}
}

// Available probes the catalog. The client bounds the probe with its short
// health timeout; an unreachable catalog is "false", never an error.
func (o *Orchestrator) Available(ctx context.Context) bool {
	return o.client.HealthCheck(ctx)
}

func (o *Orchestrator) databaseFQN(database string) string {
	return o.cfg.ServiceName + "." + database
}

func (o *Orchestrator) tableFQN(database, table string) string {
	return o.cfg.ServiceName + "." + database + "." + table
}

// SyncTable reconciles one table: ensures the parent service and database
// exist, then creates, updates or skips the table depending on the diff.
// The returned SyncResult is always usable; the error is non-nil only for
// remote failures, which single-item callers are expected to handle.
func (o *Orchestrator) SyncTable(ctx context.Context, req TableSyncRequest) (*catalog.Table, *models.SyncResult, error) {
	if !o.Available(ctx) {
		o.logger.Warn("catalog not available, skipping table sync",
			zap.String("database", req.Table.DatabaseName),
			zap.String("table", req.Table.TableName))
		return nil, skippedResult(req.Table, 0), nil
	}
	return o.syncTable(ctx, req)
}

// syncTable is SyncTable without the availability gate; batch operations
// probe once for the whole batch.
func (o *Orchestrator) syncTable(ctx context.Context, req TableSyncRequest) (*catalog.Table, *models.SyncResult, error) {
	start := time.Now()
	table := req.Table

	fail := func(err error) (*catalog.Table, *models.SyncResult, error) {
		o.logger.Error("table sync failed",
			zap.String("fqn", o.tableFQN(table.DatabaseName, table.TableName)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, &models.SyncResult{
			Database:   table.DatabaseName,
			TableName:  table.TableName,
			Action:     models.SyncActionFailed,
			Error:      logging.SanitizeError(err),
			DurationMs: time.Since(start).Milliseconds(),
		}, err
	}

	if err := o.ensureDatabase(ctx, table.DatabaseName); err != nil {
		return fail(err)
	}

	columns, props := mapping.ConvertColumns(table.Columns)
	mergedProps := mergeProperties(props, req.CustomProperties)

	fqn := o.tableFQN(table.DatabaseName, table.TableName)
	existing, err := o.client.GetTable(ctx, fqn, true)
	if err != nil {
		return fail(fmt.Errorf("lookup table %s: %w", fqn, err))
	}

	if existing == nil {
		created, err := o.client.CreateTable(ctx, catalog.CreateTableRequest{
			Name:             table.TableName,
			DatabaseFQN:      o.databaseFQN(table.DatabaseName),
			Columns:          columns,
			Description:      table.Description,
			TableType:        "Regular",
			CustomProperties: mergedProps,
		})
		if err != nil {
			return fail(fmt.Errorf("create table %s: %w", fqn, err))
		}
		o.logger.Info("table created in catalog",
			zap.String("fqn", fqn),
			zap.Int("columns", len(columns)))
		return created, &models.SyncResult{
			Success:    true,
			Database:   table.DatabaseName,
			TableName:  table.TableName,
			Action:     models.SyncActionCreated,
			DurationMs: time.Since(start).Milliseconds(),
		}, nil
	}

	change := diff.DetectChanges(existing, table)
	force := req.ForceUpdate || o.cfg.ForceUpdate
	if change == nil && !force {
		return existing, skippedResult(table, time.Since(start).Milliseconds()), nil
	}

	update := catalog.TableUpdate{
		Columns:          mergeColumns(existing.Columns, columns),
		CustomProperties: mergeProperties(existing.CustomProperties, mergedProps),
	}
	if table.Description != existing.Description {
		desc := table.Description
		update.Description = &desc
	}

	updated, err := o.client.UpdateTable(ctx, fqn, update)
	if err != nil {
		return fail(fmt.Errorf("update table %s: %w", fqn, err))
	}

	logFields := []zap.Field{zap.String("fqn", fqn)}
	if change != nil {
		added, modified, deleted := change.Counts()
		logFields = append(logFields,
			zap.Int("added", added),
			zap.Int("modified", modified),
			zap.Int("deleted", deleted))
		if deleted > 0 {
			// Deletions are reported only; remote columns are never dropped.
			o.logger.Warn("columns deleted locally remain in catalog",
				zap.String("fqn", fqn),
				zap.Int("deleted", deleted))
		}
	}
	o.logger.Info("table updated in catalog", logFields...)

	return updated, &models.SyncResult{
		Success:    true,
		Database:   table.DatabaseName,
		TableName:  table.TableName,
		Action:     models.SyncActionUpdated,
		Changes:    change,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// ensureDatabase makes sure the parent database service and database exist,
// creating them when absent. Both lookups go by fully-qualified name so the
// operation stays idempotent.
func (o *Orchestrator) ensureDatabase(ctx context.Context, database string) error {
	svc, err := o.client.GetDatabaseService(ctx, o.cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("lookup database service %s: %w", o.cfg.ServiceName, err)
	}
	if svc == nil {
		if _, err := o.client.CreateDatabaseService(ctx, o.cfg.ServiceName, o.cfg.ServiceType, ""); err != nil {
			return fmt.Errorf("create database service %s: %w", o.cfg.ServiceName, err)
		}
		o.logger.Info("database service created in catalog",
			zap.String("service", o.cfg.ServiceName))
	}

	dbFQN := o.databaseFQN(database)
	db, err := o.client.GetDatabase(ctx, dbFQN)
	if err != nil {
		return fmt.Errorf("lookup database %s: %w", dbFQN, err)
	}
	if db == nil {
		if _, err := o.client.CreateDatabase(ctx, database, o.cfg.ServiceName, ""); err != nil {
			return fmt.Errorf("create database %s: %w", dbFQN, err)
		}
		o.logger.Info("database created in catalog", zap.String("fqn", dbFQN))
	}
	return nil
}

// SyncAll reconciles a batch of tables on the worker pool. One health probe
// gates the whole batch: an unavailable catalog short-circuits every item to
// skipped. Individual failures are isolated; repeated authentication
// failures trip the circuit breaker and stop new dispatches.
func (o *Orchestrator) SyncAll(ctx context.Context, requests []TableSyncRequest) (models.SyncStats, []*models.SyncResult) {
	var stats models.SyncStats
	if len(requests) == 0 {
		return stats, nil
	}

	batchID := uuid.New().String()
	log := o.logger.With(zap.String("batch_id", batchID))

	if !o.Available(ctx) {
		log.Warn("catalog not available, skipping batch", zap.Int("tables", len(requests)))
		results := make([]*models.SyncResult, 0, len(requests))
		for _, req := range requests {
			r := skippedResult(req.Table, 0)
			results = append(results, r)
			stats.Add(r)
		}
		return stats, results
	}

	breaker := newAuthBreaker(o.cfg.MaxAuthFailures)

	items := make([]workpool.Item[*models.SyncResult], 0, len(requests))
	for _, req := range requests {
		req := req
		items = append(items, workpool.Item[*models.SyncResult]{
			Key: o.tableFQN(req.Table.DatabaseName, req.Table.TableName),
			Execute: func(ctx context.Context) (*models.SyncResult, error) {
				if breaker.Open() {
					err := fmt.Errorf("authentication circuit breaker open")
					return &models.SyncResult{
						Database:  req.Table.DatabaseName,
						TableName: req.Table.TableName,
						Action:    models.SyncActionFailed,
						Error:     err.Error(),
					}, err
				}
				_, result, err := o.syncTable(ctx, req)
				breaker.Record(err)
				return result, err
			},
		})
	}

	log.Info("starting batch schema sync",
		zap.Int("tables", len(requests)),
		zap.Int("workers", o.cfg.Workers))

	results := make([]*models.SyncResult, 0, len(requests))
	for _, r := range workpool.Process(ctx, o.pool, items) {
		result := r.Value
		if result == nil {
			// Breaker short-circuit or pool-level cancellation.
			result = &models.SyncResult{
				Action: models.SyncActionFailed,
				Error:  logging.SanitizeError(r.Err),
			}
		}
		results = append(results, result)
		stats.Add(result)
	}

	log.Info("batch schema sync finished",
		zap.Int("synced", stats.Synced),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped))
	return stats, results
}

func skippedResult(table models.TableDef, durationMs int64) *models.SyncResult {
	return &models.SyncResult{
		Success:    true,
		Database:   table.DatabaseName,
		TableName:  table.TableName,
		Action:     models.SyncActionSkipped,
		DurationMs: durationMs,
	}
}

// mergeColumns overlays proposed columns onto the existing remote list by
// name. Existing columns keep their position; columns the snapshot does not
// mention are preserved, never deleted. New columns append in proposed order.
func mergeColumns(existing, proposed []catalog.Column) []catalog.Column {
	merged := make([]catalog.Column, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(existing))
	for i, col := range existing {
		index[col.Name] = i
	}
	for _, col := range proposed {
		if i, ok := index[col.Name]; ok {
			merged[i] = col
		} else {
			merged = append(merged, col)
		}
	}
	return merged
}

// mergeProperties overlays updates onto base: new keys overwrite, all other
// keys are preserved. Returns nil when both sides are empty.
func mergeProperties(base, updates map[string]string) map[string]string {
	if len(base) == 0 && len(updates) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(updates))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}
