package topology

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/edp1096/toy-ybus/pkg/bus"
	"github.com/edp1096/toy-ybus/pkg/device"
)

// Network is the part of a circuit the bus graph is built from.
type Network interface {
	Buses() []*bus.Bus
	Branches() []device.Branch
}

// busGraph returns an undirected graph with one node per bus, keyed by bus
// position, and an edge per connected bus pair.
func busGraph(n Network) (*simple.UndirectedGraph, map[int64]string) {
	g := simple.NewUndirectedGraph()
	names := make(map[int64]string)
	ids := make(map[string]int64)

	for _, b := range n.Buses() {
		id := int64(b.Index())
		g.AddNode(simple.Node(id))
		names[id] = b.Name()
		ids[b.Name()] = id
	}

	for _, br := range n.Branches() {
		terminals := br.GetNodeNames()
		from, ok1 := ids[terminals[0]]
		to, ok2 := ids[terminals[1]]
		if !ok1 || !ok2 || from == to {
			continue
		}
		// parallel branches collapse into one edge
		if !g.HasEdgeBetween(from, to) {
			g.SetEdge(g.NewEdge(g.Node(from), g.Node(to)))
		}
	}

	return g, names
}

// Islands returns the groups of buses connected through branch elements.
// Buses within an island follow bus position; islands are ordered by their
// first bus.
func Islands(n Network) [][]string {
	g, names := busGraph(n)
	components := topo.ConnectedComponents(g)

	ids := make([][]int64, len(components))
	for i, comp := range components {
		ids[i] = sortedIDs(comp)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a][0] < ids[b][0] })

	islands := make([][]string, len(ids))
	for i, comp := range ids {
		islands[i] = make([]string, len(comp))
		for j, id := range comp {
			islands[i][j] = names[id]
		}
	}
	return islands
}

// Isolated returns the buses no branch element touches, in position order.
func Isolated(n Network) []string {
	g, names := busGraph(n)

	var ids []int64
	nodes := g.Nodes()
	for nodes.Next() {
		id := nodes.Node().ID()
		if g.From(id).Len() == 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = names[id]
	}
	return out
}

func sortedIDs(nodes []graph.Node) []int64 {
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}
