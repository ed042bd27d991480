package pointsto

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// Categories decides whether two pointees may share a node in a
// PointsToGraph. Grouping related pointees collapses their out-edges and
// trades precision for size.
type Categories interface {
	SameCategory(p, q Pointee) bool
}

// separateCategories keeps every pointee in its own node, so the graph
// reproduces the flat relation exactly.
type separateCategories struct{}

func (separateCategories) SameCategory(Pointee, Pointee) bool { return false }

type graphNode struct {
	elems PointeeSet
	edges map[*graphNode]struct{}
}

func newGraphNode(p Pointee) *graphNode {
	n := &graphNode{
		elems: PointeeSet{},
		edges: make(map[*graphNode]struct{}),
	}
	n.elems.insert(p)
	return n
}

func (n *graphNode) contains(p Pointee) bool { return n.elems.Contains(p) }

func (n *graphNode) addNeighbour(m *graphNode) bool {
	if _, found := n.edges[m]; found {
		return false
	}
	n.edges[m] = struct{}{}
	return true
}

// anyElem returns one element of the node. A node holds only elements of
// one category, so one representative is enough for category checks.
func (n *graphNode) anyElem() Pointee {
	for p := range n.elems {
		return p
	}
	panic("graphNode: empty node")
}

// PointsToGraph is an alternative, categorised representation of the
// points-to relation: nodes hold pointees of one category, edges mean
// "may point to". It converts into the flat relation on demand.
type PointsToGraph struct {
	cats  Categories
	nodes []*graphNode
}

// NewPointsToGraph creates an empty graph. A nil policy keeps every
// pointee separate.
func NewPointsToGraph(cats Categories) *PointsToGraph {
	if cats == nil {
		cats = separateCategories{}
	}
	return &PointsToGraph{cats: cats}
}

func (g *PointsToGraph) findNode(p Pointee) *graphNode {
	for _, n := range g.nodes {
		if n.contains(p) {
			return n
		}
	}
	return nil
}

func (g *PointsToGraph) addNode(p Pointee) *graphNode {
	n := newGraphNode(p)
	g.nodes = append(g.nodes, n)
	return n
}

// shouldAddTo looks for an existing successor of root that already holds
// pointees of p's category.
func (g *PointsToGraph) shouldAddTo(root *graphNode, p Pointee) *graphNode {
	for m := range root.edges {
		if g.cats.SameCategory(m.anyElem(), p) {
			return m
		}
	}
	return nil
}

// Insert records that p may point to location.
func (g *PointsToGraph) Insert(p Pointer, location Pointee) bool {
	from := g.findNode(p)
	if from == nil {
		from = g.addNode(p)
	}

	if to := g.shouldAddTo(from, location); to != nil {
		return to.elems.insert(location)
	}

	if to := g.findNode(location); to != nil {
		return from.addNeighbour(to)
	}

	to := g.addNode(location)
	from.addNeighbour(to)
	return true
}

// InsertSet records that p may point to every location in the set.
func (g *PointsToGraph) InsertSet(p Pointer, locations PointeeSet) bool {
	changed := false
	for _, loc := range locations.items() {
		changed = g.Insert(p, loc) || changed
	}
	return changed
}

// InsertDerefPointee records p -> *location: p inherits the successors of
// location. Nothing is recorded when location has no node or no
// successors; p -> location itself is deliberately not added.
func (g *PointsToGraph) InsertDerefPointee(p Pointer, location Pointee) bool {
	locationNode := g.findNode(location)
	if locationNode == nil || len(locationNode.edges) == 0 {
		return false
	}

	pointerNode := g.findNode(p)
	if pointerNode == nil {
		pointerNode = g.addNode(p)
	}

	changed := false
	for m := range locationNode.edges {
		changed = pointerNode.addNeighbour(m) || changed
	}
	return changed
}

// InsertDerefPointer records *p -> location: every successor of p gains an
// edge to location.
func (g *PointsToGraph) InsertDerefPointer(p Pointer, location Pointee) bool {
	pointerNode := g.findNode(p)
	if pointerNode == nil || len(pointerNode.edges) == 0 {
		return false
	}

	locationNode := g.findNode(location)
	if locationNode == nil {
		locationNode = g.addNode(location)
	}

	changed := false
	for m := range pointerNode.edges {
		changed = m.addNeighbour(locationNode) || changed
	}
	return changed
}

// ToPointsToSets flattens the graph into s: every element of a node with
// successors points to all elements of those successors.
func (g *PointsToGraph) ToPointsToSets(s PointsToSets) PointsToSets {
	for _, n := range g.nodes {
		if len(n.edges) == 0 {
			continue
		}
		for elem := range n.elems {
			set := s.get(elem)
			for m := range n.edges {
				for p := range m.elems {
					set.insert(p)
				}
			}
		}
	}
	return s
}

// Dump logs the graph on the debug channel.
func (g *PointsToGraph) Dump() {
	if len(g.nodes) == 0 {
		log.Debug("PointsToGraph is empty")
		return
	}

	for _, n := range g.nodes {
		log.Debugf("%s", formatNode(n))
		for m := range n.edges {
			log.Debugf("    --> %s", formatNode(m))
		}
	}
}

func formatNode(n *graphNode) string {
	inner := make([]string, 0, len(n.elems))
	for _, p := range n.elems.Sorted() {
		inner = append(inner, p.String())
	}
	return "[" + strings.Join(inner, ", ") + "]"
}
