package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datatrellis/catalog-engine/pkg/catalog"
	"github.com/datatrellis/catalog-engine/pkg/logging"
	"github.com/datatrellis/catalog-engine/pkg/models"
	"github.com/datatrellis/catalog-engine/pkg/workpool"
)

// LineageEndpoint is one end of a locally known lineage edge, identified by
// local names rather than a catalog FQN.
type LineageEndpoint struct {
	Type models.NodeType
	// Database qualifies table endpoints; pipelines are service-scoped.
	Database string
	Name     string
}

// LocalLineageEdge is a lineage edge known to the local catalog, pushed to
// the remote catalog by the LineageOrchestrator.
type LocalLineageEdge struct {
	Source      LineageEndpoint
	Target      LineageEndpoint
	Description string
}

// LineagePushResult records one successfully pushed edge.
type LineagePushResult struct {
	SourceFQN string
	TargetFQN string
}

// TableRef names one table of a pipeline's inputs or outputs.
type TableRef struct {
	Database string
	Name     string
}

// LineageOrchestrator pushes locally known lineage edges to the remote
// catalog, symmetric to the schema Orchestrator: same availability gating,
// per-item isolation and aggregate statistics.
type LineageOrchestrator struct {
	client catalog.Client
	cfg    Config
	pool   *workpool.Pool
	logger *zap.Logger
}

// NewLineageOrchestrator creates a lineage sync orchestrator.
func NewLineageOrchestrator(client catalog.Client, cfg Config, logger *zap.Logger) *LineageOrchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	return &LineageOrchestrator{
		client: client,
		cfg:    cfg,
		pool:   workpool.New(workpool.Config{MaxConcurrent: cfg.Workers}, logger),
		logger: logger.Named("lineage-sync"),
	}
}

// Available probes the catalog, mirroring Orchestrator.Available.
func (o *LineageOrchestrator) Available(ctx context.Context) bool {
	return o.client.HealthCheck(ctx)
}

// resolve builds the catalog FQN for a local endpoint. Tables resolve to
// service.database.table and pipelines to a dedicated pipeline service;
// anything else is unresolvable and the edge is skipped, never failed.
func (o *LineageOrchestrator) resolve(e LineageEndpoint) (catalog.EntityRef, bool) {
	switch e.Type {
	case models.NodeTypeTable:
		if e.Database == "" || e.Name == "" {
			return catalog.EntityRef{}, false
		}
		return catalog.EntityRef{
			Type: string(models.NodeTypeTable),
			FQN:  fmt.Sprintf("%s.%s.%s", o.cfg.ServiceName, e.Database, e.Name),
			Name: e.Name,
		}, true
	case models.NodeTypePipeline:
		if e.Name == "" {
			return catalog.EntityRef{}, false
		}
		return catalog.EntityRef{
			Type: string(models.NodeTypePipeline),
			FQN:  fmt.Sprintf("%s-pipelines.%s", o.cfg.ServiceName, e.Name),
			Name: e.Name,
		}, true
	default:
		return catalog.EntityRef{}, false
	}
}

// PushEdge upserts one lineage edge. A nil result with nil error means the
// edge was skipped: either the catalog is unavailable or an endpoint could
// not be resolved to an FQN. Remote failures propagate to the caller.
func (o *LineageOrchestrator) PushEdge(ctx context.Context, edge LocalLineageEdge) (*LineagePushResult, error) {
	if !o.Available(ctx) {
		o.logger.Warn("catalog not available, skipping lineage edge")
		return nil, nil
	}
	return o.pushEdge(ctx, edge)
}

func (o *LineageOrchestrator) pushEdge(ctx context.Context, edge LocalLineageEdge) (*LineagePushResult, error) {
	from, ok := o.resolve(edge.Source)
	if !ok {
		o.logger.Debug("lineage edge source unresolvable, skipping",
			zap.String("type", string(edge.Source.Type)),
			zap.String("name", edge.Source.Name))
		return nil, nil
	}
	to, ok := o.resolve(edge.Target)
	if !ok {
		o.logger.Debug("lineage edge target unresolvable, skipping",
			zap.String("type", string(edge.Target.Type)),
			zap.String("name", edge.Target.Name))
		return nil, nil
	}

	if err := o.client.AddLineage(ctx, from, to, edge.Description); err != nil {
		return nil, fmt.Errorf("add lineage %s -> %s: %w", from.FQN, to.FQN, err)
	}
	return &LineagePushResult{SourceFQN: from.FQN, TargetFQN: to.FQN}, nil
}

// PushAll pushes a batch of edges on the worker pool with the same batch
// semantics as Orchestrator.SyncAll: one health probe gates the batch,
// per-item failures are isolated and repeated authentication failures trip
// the circuit breaker.
func (o *LineageOrchestrator) PushAll(ctx context.Context, edges []LocalLineageEdge) models.SyncStats {
	var stats models.SyncStats
	if len(edges) == 0 {
		return stats
	}

	batchID := uuid.New().String()
	log := o.logger.With(zap.String("batch_id", batchID))

	if !o.Available(ctx) {
		log.Warn("catalog not available, skipping lineage batch", zap.Int("edges", len(edges)))
		stats.Skipped = len(edges)
		return stats
	}

	breaker := newAuthBreaker(o.cfg.MaxAuthFailures)

	items := make([]workpool.Item[*LineagePushResult], 0, len(edges))
	for i, edge := range edges {
		edge := edge
		items = append(items, workpool.Item[*LineagePushResult]{
			Key: fmt.Sprintf("edge-%d", i),
			Execute: func(ctx context.Context) (*LineagePushResult, error) {
				if breaker.Open() {
					return nil, fmt.Errorf("authentication circuit breaker open")
				}
				result, err := o.pushEdge(ctx, edge)
				breaker.Record(err)
				return result, err
			},
		})
	}

	log.Info("starting batch lineage push",
		zap.Int("edges", len(edges)),
		zap.Int("workers", o.cfg.Workers))

	for _, r := range workpool.Process(ctx, o.pool, items) {
		switch {
		case r.Err != nil:
			stats.Failed++
			log.Warn("lineage edge push failed",
				zap.String("edge", r.Key),
				zap.String("error", logging.SanitizeError(r.Err)))
		case r.Value == nil:
			stats.Skipped++
		default:
			stats.Synced++
		}
	}

	log.Info("batch lineage push finished",
		zap.Int("synced", stats.Synced),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped))
	return stats
}

// PushPipelineLineage records that a pipeline reads the input tables and
// writes the output tables, expanded to the full input×output cross-product.
// Each pair is pushed as an independent edge carrying the pipeline name in
// its description; a failing pair never aborts the remaining pairs.
func (o *LineageOrchestrator) PushPipelineLineage(ctx context.Context, pipelineName string, inputs, outputs []TableRef, description string) models.SyncStats {
	edgeDescription := fmt.Sprintf("pipeline %s", pipelineName)
	if description != "" {
		edgeDescription += ": " + description
	}

	edges := make([]LocalLineageEdge, 0, len(inputs)*len(outputs))
	for _, in := range inputs {
		for _, out := range outputs {
			edges = append(edges, LocalLineageEdge{
				Source:      LineageEndpoint{Type: models.NodeTypeTable, Database: in.Database, Name: in.Name},
				Target:      LineageEndpoint{Type: models.NodeTypeTable, Database: out.Database, Name: out.Name},
				Description: edgeDescription,
			})
		}
	}
	return o.PushAll(ctx, edges)
}
