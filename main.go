package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/datatrellis/catalog-engine/pkg/catalog"
	"github.com/datatrellis/catalog-engine/pkg/config"
	"github.com/datatrellis/catalog-engine/pkg/export"
	"github.com/datatrellis/catalog-engine/pkg/lineage"
	"github.com/datatrellis/catalog-engine/pkg/models"
	"github.com/datatrellis/catalog-engine/pkg/sync"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("catalog engine starting",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.Bool("catalog_enabled", cfg.Catalog.Enabled),
		zap.String("service", cfg.Catalog.ServiceName))

	client := newClient(cfg, logger)

	snap, err := loadSnapshot(cfg.SnapshotPath)
	if err != nil {
		logger.Fatal("failed to load local catalog snapshot", zap.Error(err))
	}

	ctx := context.Background()
	syncCfg := sync.ConfigFrom(cfg)

	// Reconcile table schemas.
	orchestrator := sync.NewOrchestrator(client, syncCfg, logger)
	requests := make([]sync.TableSyncRequest, 0, len(snap.Tables))
	for _, t := range snap.Tables {
		requests = append(requests, t.toRequest())
	}
	schemaStats, _ := orchestrator.SyncAll(ctx, requests)
	logger.Info("schema sync complete",
		zap.Int("synced", schemaStats.Synced),
		zap.Int("failed", schemaStats.Failed),
		zap.Int("skipped", schemaStats.Skipped))

	// Push locally known lineage.
	lineageOrchestrator := sync.NewLineageOrchestrator(client, syncCfg, logger)
	edges := make([]sync.LocalLineageEdge, 0, len(snap.Lineage))
	for _, e := range snap.Lineage {
		edges = append(edges, e.toEdge())
	}
	lineageStats := lineageOrchestrator.PushAll(ctx, edges)
	for _, p := range snap.Pipelines {
		stats := lineageOrchestrator.PushPipelineLineage(ctx, p.Name, p.tableRefs(p.Inputs), p.tableRefs(p.Outputs), p.Description)
		lineageStats.Synced += stats.Synced
		lineageStats.Failed += stats.Failed
		lineageStats.Skipped += stats.Skipped
	}
	logger.Info("lineage push complete",
		zap.Int("synced", lineageStats.Synced),
		zap.Int("failed", lineageStats.Failed),
		zap.Int("skipped", lineageStats.Skipped))

	// Query lineage for the configured root and write the rendered graph.
	if cfg.Lineage.RootFQN != "" {
		if err := exportLineage(ctx, client, cfg, logger); err != nil {
			logger.Fatal("lineage export failed", zap.Error(err))
		}
	}
}

func exportLineage(ctx context.Context, client catalog.Client, cfg *config.Config, logger *zap.Logger) error {
	format, err := export.ParseFormat(cfg.Lineage.Format)
	if err != nil {
		return err
	}

	resp, err := client.GetLineage(ctx, string(models.NodeTypeTable), cfg.Lineage.RootFQN,
		cfg.Lineage.UpstreamDepth, cfg.Lineage.DownstreamDepth)
	if err != nil {
		return fmt.Errorf("query lineage for %s: %w", cfg.Lineage.RootFQN, err)
	}

	graph := lineage.BuildFromRemote(cfg.Lineage.RootFQN, models.NodeTypeTable, resp)
	logger.Info("lineage graph built",
		zap.String("root", cfg.Lineage.RootFQN),
		zap.Int("nodes", len(graph.Nodes())),
		zap.Int("edges", len(graph.Edges())))

	out, err := export.Export(graph, format)
	if err != nil {
		return err
	}
	_, err = os.Stdout.WriteString(out)
	return err
}

func newClient(cfg *config.Config, logger *zap.Logger) catalog.Client {
	if !cfg.Catalog.Enabled {
		logger.Warn("catalog integration disabled, using null client")
		return catalog.NewNullClient()
	}
	clientCfg := catalog.DefaultHTTPClientConfig(cfg.Catalog.BaseURL, cfg.Catalog.Token)
	clientCfg.CallTimeout = cfg.Catalog.CallTimeout()
	clientCfg.HealthTimeout = cfg.Catalog.HealthTimeout()
	return catalog.NewHTTPClient(clientCfg, logger)
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
