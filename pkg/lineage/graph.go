// Package lineage holds the in-memory lineage graph built from catalog
// query responses. A graph lives for one request; it is built, queried and
// exported, never persisted.
package lineage

import (
	"strings"

	"github.com/datatrellis/catalog-engine/pkg/catalog"
	"github.com/datatrellis/catalog-engine/pkg/models"
)

// Graph is a directed graph of lineage nodes keyed by fully-qualified name.
// Node iteration order is discovery order and edge iteration order is
// insertion order, so exports over the same instance are deterministic.
// Malformed catalog data may contain cycles; every traversal carries a
// visited set.
type Graph struct {
	nodes map[string]*models.LineageNode
	order []string // node IDs in discovery order
	edges []models.LineageEdge
	// Adjacency list: source -> target IDs in edge insertion order
	adjacency map[string][]string
	root      string
}

// NewGraph creates an empty lineage graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]*models.LineageNode),
		adjacency: make(map[string][]string),
	}
}

// addNode inserts a node if its ID is new. Rediscovering an existing ID is a
// no-op merge: the first node wins, with empty fields filled in from the
// newcomer.
func (g *Graph) addNode(n models.LineageNode) {
	if n.ID == "" {
		return
	}
	if existing, ok := g.nodes[n.ID]; ok {
		if existing.Name == "" {
			existing.Name = n.Name
		}
		if existing.Description == "" {
			existing.Description = n.Description
		}
		return
	}
	stored := n
	g.nodes[n.ID] = &stored
	g.order = append(g.order, n.ID)
}

// AddEdge inserts both endpoint nodes (by ID, if new) and appends the edge.
// Edges whose IDs do not match their endpoint nodes are silently dropped;
// the graph never holds a dangling edge.
func (g *Graph) AddEdge(from, to models.LineageNode, edge models.LineageEdge) {
	if from.ID == "" || to.ID == "" {
		return
	}
	if edge.SourceID != from.ID || edge.TargetID != to.ID {
		return
	}
	g.addNode(from)
	g.addNode(to)
	g.edges = append(g.edges, edge)
	g.adjacency[edge.SourceID] = append(g.adjacency[edge.SourceID], edge.TargetID)
}

// SetRoot marks the node the graph was queried for, inserting it if absent
// so a graph built for a root is never empty.
func (g *Graph) SetRoot(n models.LineageNode) {
	g.addNode(n)
	g.root = n.ID
}

// Root returns the root node ID, or "" when none was set.
func (g *Graph) Root() string { return g.root }

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *models.LineageNode {
	return g.nodes[id]
}

// Nodes returns all nodes in discovery order.
func (g *Graph) Nodes() []models.LineageNode {
	out := make([]models.LineageNode, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []models.LineageEdge {
	out := make([]models.LineageEdge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Upstream returns the one-hop sources of the given node: every node that is
// the source of an edge targeting nodeID, in edge insertion order,
// deduplicated. Deeper traversal goes through Path.
func (g *Graph) Upstream(nodeID string) []models.LineageNode {
	var out []models.LineageNode
	seen := make(map[string]struct{})
	for _, e := range g.edges {
		if e.TargetID != nodeID {
			continue
		}
		if _, dup := seen[e.SourceID]; dup {
			continue
		}
		if n, ok := g.nodes[e.SourceID]; ok {
			seen[e.SourceID] = struct{}{}
			out = append(out, *n)
		}
	}
	return out
}

// Downstream returns the one-hop targets of the given node, symmetric to
// Upstream.
func (g *Graph) Downstream(nodeID string) []models.LineageNode {
	var out []models.LineageNode
	seen := make(map[string]struct{})
	for _, e := range g.edges {
		if e.SourceID != nodeID {
			continue
		}
		if _, dup := seen[e.TargetID]; dup {
			continue
		}
		if n, ok := g.nodes[e.TargetID]; ok {
			seen[e.TargetID] = struct{}{}
			out = append(out, *n)
		}
	}
	return out
}

// Path finds a path from sourceID to targetID following edges forward,
// using an iterative depth-first search with an explicit visited set so it
// terminates on cyclic graphs. Neighbors are explored in edge insertion
// order, so the first path found follows the earliest-inserted edges; the
// graph is unweighted and no shortest-path guarantee is made. Returns the
// node IDs of the path, or nil when no path exists within maxDepth hops.
func (g *Graph) Path(sourceID, targetID string, maxDepth int) []string {
	if maxDepth <= 0 {
		return nil
	}
	if _, ok := g.nodes[sourceID]; !ok {
		return nil
	}
	if _, ok := g.nodes[targetID]; !ok {
		return nil
	}
	if sourceID == targetID {
		return []string{sourceID}
	}

	type frame struct {
		id   string
		path []string
	}

	visited := map[string]struct{}{sourceID: {}}
	stack := []frame{{id: sourceID, path: []string{sourceID}}}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(current.path)-1 >= maxDepth {
			continue
		}

		neighbors := g.adjacency[current.id]
		// Push in reverse so the earliest-inserted edge is explored first.
		for i := len(neighbors) - 1; i >= 0; i-- {
			next := neighbors[i]
			if next == targetID {
				return append(append([]string{}, current.path...), next)
			}
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			nextPath := append(append([]string{}, current.path...), next)
			stack = append(stack, frame{id: next, path: nextPath})
		}
	}
	return nil
}

// BuildFromRemote normalizes a catalog lineage query response into a graph
// rooted at rootFQN. Edges with an unresolvable endpoint are dropped, never
// an error. When the response holds no edge touching the root, the root node
// is still inserted so a graph built for a requested entity is never empty.
func BuildFromRemote(rootFQN string, rootType models.NodeType, resp *catalog.LineageResponse) *Graph {
	g := NewGraph()
	if resp != nil {
		for _, e := range resp.UpstreamEdges {
			g.addRemoteEdge(e)
		}
		for _, e := range resp.DownstreamEdges {
			g.addRemoteEdge(e)
		}
	}
	if rootFQN != "" {
		g.SetRoot(nodeFromRef(catalog.EntityRef{Type: string(rootType), FQN: rootFQN}))
	}
	return g
}

func (g *Graph) addRemoteEdge(e catalog.LineageEdge) {
	if e.From.FQN == "" || e.To.FQN == "" {
		return
	}
	g.AddEdge(nodeFromRef(e.From), nodeFromRef(e.To), models.LineageEdge{
		SourceID:    e.From.FQN,
		TargetID:    e.To.FQN,
		Description: e.Description,
	})
}

func nodeFromRef(ref catalog.EntityRef) models.LineageNode {
	name := ref.Name
	if name == "" {
		parts := strings.Split(ref.FQN, ".")
		name = parts[len(parts)-1]
	}
	return models.LineageNode{
		ID:          ref.FQN,
		Name:        name,
		Type:        models.ParseNodeType(ref.Type),
		Description: ref.Description,
	}
}
