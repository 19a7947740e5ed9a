package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/datatrellis/catalog-engine/pkg/models"
	"github.com/datatrellis/catalog-engine/pkg/sync"
)

// snapshot is the local catalog state consumed by the one-shot runner:
// table definitions to reconcile plus the lineage known locally.
type snapshot struct {
	Tables    []snapshotTable    `yaml:"tables"`
	Lineage   []snapshotEdge     `yaml:"lineage"`
	Pipelines []snapshotPipeline `yaml:"pipelines"`
}

type snapshotColumn struct {
	Name             string   `yaml:"name"`
	Type             string   `yaml:"type"`
	Length           int      `yaml:"length"`
	Description      string   `yaml:"description"`
	SensitivityLevel string   `yaml:"sensitivity_level"`
	SensitivityType  string   `yaml:"sensitivity_type"`
	AIDescription    string   `yaml:"ai_description"`
	BusinessTerm     string   `yaml:"business_term"`
	QualityScore     *float64 `yaml:"quality_score"`
	NullRate         *float64 `yaml:"null_rate"`
	Uniqueness       *float64 `yaml:"uniqueness"`
	Stale            *bool    `yaml:"stale"`
}

type snapshotTable struct {
	Database    string            `yaml:"database"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Columns     []snapshotColumn  `yaml:"columns"`
	Properties  map[string]string `yaml:"properties"`
}

type snapshotEndpoint struct {
	Type     string `yaml:"type"`
	Database string `yaml:"database"`
	Name     string `yaml:"name"`
}

type snapshotEdge struct {
	Source      snapshotEndpoint `yaml:"source"`
	Target      snapshotEndpoint `yaml:"target"`
	Description string           `yaml:"description"`
}

type snapshotTableRef struct {
	Database string `yaml:"database"`
	Name     string `yaml:"name"`
}

type snapshotPipeline struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Inputs      []snapshotTableRef `yaml:"inputs"`
	Outputs     []snapshotTableRef `yaml:"outputs"`
}

func loadSnapshot(path string) (*snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return &snap, nil
}

func (t snapshotTable) toRequest() sync.TableSyncRequest {
	columns := make([]models.ColumnDef, 0, len(t.Columns))
	for _, c := range t.Columns {
		columns = append(columns, models.ColumnDef{
			Name:             c.Name,
			DataType:         c.Type,
			Length:           c.Length,
			Description:      c.Description,
			SensitivityLevel: c.SensitivityLevel,
			SensitivityType:  c.SensitivityType,
			AIDescription:    c.AIDescription,
			BusinessTerm:     c.BusinessTerm,
			QualityScore:     c.QualityScore,
			NullRate:         c.NullRate,
			Uniqueness:       c.Uniqueness,
			Stale:            c.Stale,
		})
	}
	return sync.TableSyncRequest{
		Table: models.TableDef{
			DatabaseName: t.Database,
			TableName:    t.Name,
			Description:  t.Description,
			Columns:      columns,
		},
		CustomProperties: t.Properties,
	}
}

func (e snapshotEndpoint) toEndpoint() sync.LineageEndpoint {
	return sync.LineageEndpoint{
		Type:     models.ParseNodeType(e.Type),
		Database: e.Database,
		Name:     e.Name,
	}
}

func (e snapshotEdge) toEdge() sync.LocalLineageEdge {
	return sync.LocalLineageEdge{
		Source:      e.Source.toEndpoint(),
		Target:      e.Target.toEndpoint(),
		Description: e.Description,
	}
}

func (p snapshotPipeline) tableRefs(refs []snapshotTableRef) []sync.TableRef {
	out := make([]sync.TableRef, 0, len(refs))
	for _, r := range refs {
		out = append(out, sync.TableRef{Database: r.Database, Name: r.Name})
	}
	return out
}
