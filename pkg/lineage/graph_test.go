package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datatrellis/catalog-engine/pkg/catalog"
	"github.com/datatrellis/catalog-engine/pkg/models"
)

func tableNode(id string) models.LineageNode {
	return models.LineageNode{ID: id, Name: id, Type: models.NodeTypeTable}
}

func edge(from, to string) models.LineageEdge {
	return models.LineageEdge{SourceID: from, TargetID: to}
}

// chain builds a linear graph n0 -> n1 -> ... -> n(length).
func chain(ids ...string) *Graph {
	g := NewGraph()
	for i := 0; i+1 < len(ids); i++ {
		g.AddEdge(tableNode(ids[i]), tableNode(ids[i+1]), edge(ids[i], ids[i+1]))
	}
	return g
}

func TestAddEdge_DeduplicatesNodes(t *testing.T) {
	g := NewGraph()
	g.AddEdge(tableNode("a"), tableNode("b"), edge("a", "b"))
	g.AddEdge(tableNode("a"), tableNode("c"), edge("a", "c"))

	assert.Len(t, g.Nodes(), 3, "rediscovering a is a no-op merge, not a duplicate")
	assert.Len(t, g.Edges(), 2)
}

func TestAddEdge_MergeFillsEmptyFields(t *testing.T) {
	g := NewGraph()
	g.AddEdge(models.LineageNode{ID: "a", Type: models.NodeTypeTable},
		tableNode("b"), edge("a", "b"))
	g.AddEdge(models.LineageNode{ID: "a", Name: "alpha", Description: "first table", Type: models.NodeTypeTable},
		tableNode("c"), edge("a", "c"))

	n := g.Node("a")
	require.NotNil(t, n)
	assert.Equal(t, "alpha", n.Name)
	assert.Equal(t, "first table", n.Description)
}

func TestAddEdge_DropsDanglingEdges(t *testing.T) {
	g := NewGraph()
	// Edge IDs that do not match their endpoint nodes must be dropped.
	g.AddEdge(tableNode("a"), tableNode("b"), edge("a", "x"))
	g.AddEdge(models.LineageNode{}, tableNode("b"), edge("", "b"))

	assert.Empty(t, g.Edges())
}

func TestUpstreamDownstream_OneHop(t *testing.T) {
	g := chain("raw", "curated", "mart")
	g.AddEdge(tableNode("events"), tableNode("curated"), edge("events", "curated"))

	up := g.Upstream("curated")
	require.Len(t, up, 2)
	assert.Equal(t, "raw", up[0].ID, "edge insertion order preserved")
	assert.Equal(t, "events", up[1].ID)

	down := g.Downstream("curated")
	require.Len(t, down, 1)
	assert.Equal(t, "mart", down[0].ID)

	assert.Empty(t, g.Upstream("raw"))
	assert.Empty(t, g.Downstream("mart"))
	assert.Empty(t, g.Upstream("unknown"))
}

func TestPath_LinearChain(t *testing.T) {
	g := chain("a", "b", "c", "d")

	assert.Equal(t, []string{"a", "b", "c", "d"}, g.Path("a", "d", 10))
	assert.Equal(t, []string{"b", "c"}, g.Path("b", "c", 10))
	assert.Nil(t, g.Path("d", "a", 10), "edges are followed forward only")
}

func TestPath_CycleSafety(t *testing.T) {
	// A -> B -> C -> A: traversal must terminate and find [A B C].
	g := chain("A", "B", "C")
	g.AddEdge(tableNode("C"), tableNode("A"), edge("C", "A"))

	assert.Equal(t, []string{"A", "B", "C"}, g.Path("A", "C", 10))
}

func TestPath_DepthBound(t *testing.T) {
	g := chain("n0", "n1", "n2", "n3", "n4", "n5")

	assert.Nil(t, g.Path("n0", "n5", 3), "a chain of five hops is out of reach at depth 3")
	assert.Equal(t, []string{"n0", "n1", "n2", "n3"}, g.Path("n0", "n3", 3),
		"a path of exactly maxDepth hops is within bound")
}

func TestPath_EdgeCases(t *testing.T) {
	g := chain("a", "b")

	assert.Equal(t, []string{"a"}, g.Path("a", "a", 5))
	assert.Nil(t, g.Path("a", "missing", 5))
	assert.Nil(t, g.Path("missing", "b", 5))
	assert.Nil(t, g.Path("a", "b", 0))
}

func TestPath_FollowsInsertionOrder(t *testing.T) {
	// Two routes a->x->d and a->y->d; the earlier-inserted edge wins.
	g := NewGraph()
	g.AddEdge(tableNode("a"), tableNode("x"), edge("a", "x"))
	g.AddEdge(tableNode("a"), tableNode("y"), edge("a", "y"))
	g.AddEdge(tableNode("x"), tableNode("d"), edge("x", "d"))
	g.AddEdge(tableNode("y"), tableNode("d"), edge("y", "d"))

	assert.Equal(t, []string{"a", "x", "d"}, g.Path("a", "d", 10))
}

func TestBuildFromRemote(t *testing.T) {
	t.Run("normalizes both directions", func(t *testing.T) {
		resp := &catalog.LineageResponse{
			UpstreamEdges: []catalog.LineageEdge{{
				From: catalog.EntityRef{Type: "table", FQN: "svc.db.raw"},
				To:   catalog.EntityRef{Type: "table", FQN: "svc.db.orders"},
			}},
			DownstreamEdges: []catalog.LineageEdge{{
				From: catalog.EntityRef{Type: "table", FQN: "svc.db.orders"},
				To:   catalog.EntityRef{Type: "dashboard", FQN: "bi.sales_overview"},
			}},
		}

		g := BuildFromRemote("svc.db.orders", models.NodeTypeTable, resp)
		assert.Len(t, g.Nodes(), 3)
		assert.Len(t, g.Edges(), 2)
		assert.Equal(t, "svc.db.orders", g.Root())

		up := g.Upstream("svc.db.orders")
		require.Len(t, up, 1)
		assert.Equal(t, "svc.db.raw", up[0].ID)
	})

	t.Run("empty response still holds the root", func(t *testing.T) {
		g := BuildFromRemote("svc.db.orders", models.NodeTypeTable, &catalog.LineageResponse{})
		nodes := g.Nodes()
		require.Len(t, nodes, 1)
		assert.Equal(t, "svc.db.orders", nodes[0].ID)
		assert.Equal(t, "orders", nodes[0].Name, "name derived from the last FQN segment")
	})

	t.Run("unresolvable endpoints dropped", func(t *testing.T) {
		resp := &catalog.LineageResponse{
			UpstreamEdges: []catalog.LineageEdge{{
				From: catalog.EntityRef{Type: "table", FQN: ""},
				To:   catalog.EntityRef{Type: "table", FQN: "svc.db.orders"},
			}},
		}
		g := BuildFromRemote("svc.db.orders", models.NodeTypeTable, resp)
		assert.Empty(t, g.Edges())
		assert.Len(t, g.Nodes(), 1)
	})

	t.Run("nil response", func(t *testing.T) {
		g := BuildFromRemote("svc.db.orders", models.NodeTypeTable, nil)
		assert.Len(t, g.Nodes(), 1)
	})
}
