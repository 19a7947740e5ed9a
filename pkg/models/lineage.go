package models

import "strings"

// NodeType is the closed set of lineage entity kinds. Exporters and FQN
// resolution switch on it; anything outside the set falls back to table
// styling rather than failing.
type NodeType string

const (
	NodeTypeTable     NodeType = "table"
	NodeTypePipeline  NodeType = "pipeline"
	NodeTypeDashboard NodeType = "dashboard"
	NodeTypeTopic     NodeType = "topic"
	NodeTypeMLModel   NodeType = "mlmodel"
)

// ParseNodeType normalizes a catalog entity-type string to a NodeType.
// Unknown strings map to NodeTypeTable so malformed remote responses degrade
// instead of breaking traversal or export.
func ParseNodeType(s string) NodeType {
	switch NodeType(strings.ToLower(strings.TrimSpace(s))) {
	case NodeTypePipeline:
		return NodeTypePipeline
	case NodeTypeDashboard:
		return NodeTypeDashboard
	case NodeTypeTopic:
		return NodeTypeTopic
	case NodeTypeMLModel:
		return NodeTypeMLModel
	default:
		return NodeTypeTable
	}
}

// LineageNode is one entity in a lineage graph. Identity is the catalog
// fully-qualified name; nodes are deduplicated by ID within one graph build.
type LineageNode struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        NodeType          `json:"type"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// ShortName returns the last two FQN segments, used as a display label.
func (n LineageNode) ShortName() string {
	parts := strings.Split(n.ID, ".")
	if len(parts) >= 2 {
		return parts[len(parts)-2] + "." + parts[len(parts)-1]
	}
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// LineageEdge is a directed edge between two nodes of the same graph.
// Malformed input may produce cycles; every traversal must carry a visited
// set and a depth bound.
type LineageEdge struct {
	SourceID       string `json:"source"`
	TargetID       string `json:"target"`
	Description    string `json:"description,omitempty"`
	Transformation string `json:"transformation,omitempty"`
}
