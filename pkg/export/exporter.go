// Package export renders a lineage graph into text visualization formats.
// All formats are deterministic for a given graph instance: nodes are walked
// in discovery order and edges in insertion order.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/datatrellis/catalog-engine/pkg/lineage"
	"github.com/datatrellis/catalog-engine/pkg/logging"
	"github.com/datatrellis/catalog-engine/pkg/models"
)

// Format selects the output syntax.
type Format string

const (
	FormatMermaid  Format = "mermaid"
	FormatJSON     Format = "json"
	FormatDOT      Format = "dot"
	FormatPlantUML Format = "plantuml"
)

// ParseFormat validates a format string from configuration.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatMermaid:
		return FormatMermaid, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatDOT:
		return FormatDOT, nil
	case FormatPlantUML:
		return FormatPlantUML, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// maxLabelDescription bounds how much of a node description ends up in
// diagram labels.
const maxLabelDescription = 40

// Export renders the graph in the given format. An empty graph produces a
// syntactically valid empty diagram; unknown node types render with the
// table style.
func Export(g *lineage.Graph, format Format) (string, error) {
	switch format {
	case FormatMermaid:
		return exportMermaid(g), nil
	case FormatJSON:
		return exportJSON(g)
	case FormatDOT:
		return exportDOT(g), nil
	case FormatPlantUML:
		return exportPlantUML(g), nil
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

// styleClass returns the diagram style bucket for a node type. Types outside
// the styled set share the table style.
func styleClass(t models.NodeType) string {
	switch t {
	case models.NodeTypePipeline:
		return "pipeline"
	case models.NodeTypeDashboard:
		return "dashboard"
	default:
		return "table"
	}
}

func exportMermaid(g *lineage.Graph) string {
	var b strings.Builder
	b.WriteString("flowchart LR\n")

	nodes := g.Nodes()
	edges := g.Edges()

	// Synthetic IDs N0, N1, ... in discovery order.
	alias := make(map[string]string, len(nodes))
	for i, n := range nodes {
		id := fmt.Sprintf("N%d", i)
		alias[n.ID] = id

		label := n.ShortName()
		if n.Description != "" {
			label += "<br/>" + logging.TruncateString(n.Description, maxLabelDescription)
		}
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", id, escapeQuotes(label))
	}

	for _, e := range edges {
		from, okFrom := alias[e.SourceID]
		to, okTo := alias[e.TargetID]
		if !okFrom || !okTo {
			continue
		}
		fmt.Fprintf(&b, "    %s --> %s\n", from, to)
	}

	for i, n := range nodes {
		fmt.Fprintf(&b, "    class N%d %sStyle\n", i, styleClass(n.Type))
	}
	b.WriteString("    classDef tableStyle fill:#e3f2fd,stroke:#1976d2\n")
	b.WriteString("    classDef pipelineStyle fill:#fff3e0,stroke:#f57c00\n")
	b.WriteString("    classDef dashboardStyle fill:#e8f5e9,stroke:#388e3c\n")
	return b.String()
}

// jsonGraph is the field-for-field wire mirror of the in-memory graph.
type jsonGraph struct {
	Nodes    []models.LineageNode `json:"nodes"`
	Edges    []models.LineageEdge `json:"edges"`
	RootNode string               `json:"root_node,omitempty"`
}

func exportJSON(g *lineage.Graph) (string, error) {
	doc := jsonGraph{
		Nodes:    g.Nodes(),
		Edges:    g.Edges(),
		RootNode: g.Root(),
	}
	if doc.Nodes == nil {
		doc.Nodes = []models.LineageNode{}
	}
	if doc.Edges == nil {
		doc.Edges = []models.LineageEdge{}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal lineage graph: %w", err)
	}
	return string(out) + "\n", nil
}

// dotFillColor keys Graphviz fill colors by node type.
func dotFillColor(t models.NodeType) string {
	switch t {
	case models.NodeTypePipeline:
		return "#ffe0b2"
	case models.NodeTypeDashboard:
		return "#c8e6c9"
	default:
		return "#bbdefb"
	}
}

func exportDOT(g *lineage.Graph) string {
	var b strings.Builder
	b.WriteString("digraph lineage {\n")
	b.WriteString("    rankdir=LR;\n")
	b.WriteString("    node [shape=box, style=filled];\n")

	for _, n := range g.Nodes() {
		label := n.ShortName()
		if n.Description != "" {
			label += "\\n" + logging.TruncateString(n.Description, maxLabelDescription)
		}
		fmt.Fprintf(&b, "    \"%s\" [label=\"%s\", fillcolor=\"%s\"];\n",
			dotID(n.ID), escapeQuotes(label), dotFillColor(n.Type))
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "    \"%s\" -> \"%s\";\n", dotID(e.SourceID), dotID(e.TargetID))
	}
	b.WriteString("}\n")
	return b.String()
}

func exportPlantUML(g *lineage.Graph) string {
	var b strings.Builder
	b.WriteString("@startuml\n")

	nodes := g.Nodes()
	alias := make(map[string]string, len(nodes))
	for i, n := range nodes {
		id := fmt.Sprintf("E%d", i)
		alias[n.ID] = id
		fmt.Fprintf(&b, "class \"%s\" as %s <<%s>>\n",
			escapeQuotes(n.ShortName()), id, styleClass(n.Type))
	}
	for _, e := range g.Edges() {
		from, okFrom := alias[e.SourceID]
		to, okTo := alias[e.TargetID]
		if !okFrom || !okTo {
			continue
		}
		if e.Description != "" {
			fmt.Fprintf(&b, "%s --> %s : %s\n", from, to,
				logging.TruncateString(e.Description, maxLabelDescription))
		} else {
			fmt.Fprintf(&b, "%s --> %s\n", from, to)
		}
	}
	b.WriteString("@enduml\n")
	return b.String()
}

// dotID makes an FQN usable as a Graphviz node identifier.
func dotID(fqn string) string {
	return strings.NewReplacer(".", "_", ":", "_").Replace(fqn)
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
