package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/lueurxax/telegrasper/internal/core/ports"
)

type nodeID struct {
	kind  ports.EntityKind
	value string
}

type edgeID struct {
	kind ports.EntityKind
	from nodeID
	to   nodeID
}

// GraphStore is a thread-safe in-memory implementation of ports.GraphStore
// with merge-by-natural-key semantics.
type GraphStore struct {
	mu    sync.RWMutex
	nodes map[nodeID]map[string]any
	edges map[edgeID]map[string]any
	calls int

	// MergeFn overrides Merge when set.
	MergeFn func(ctx context.Context, op ports.MergeOp) (ports.MergeSummary, error)
}

// NewGraphStore creates an empty graph.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		nodes: make(map[nodeID]map[string]any),
		edges: make(map[edgeID]map[string]any),
	}
}

func refID(r *ports.NodeRef) nodeID {
	return nodeID{kind: r.Kind, value: fmt.Sprint(r.Value)}
}

// Merge creates the node or edge if absent and then applies props.
// Edge endpoints are merged implicitly.
func (g *GraphStore) Merge(ctx context.Context, op ports.MergeOp) (ports.MergeSummary, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	if g.MergeFn != nil {
		return g.MergeFn(ctx, op)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var sum ports.MergeSummary

	if !op.IsEdge() {
		props, created := g.ensureNode(refID(op.Node))
		if created {
			sum.NodesCreated++
		}

		apply(props, op)

		return sum, nil
	}

	from, to := refID(op.From), refID(op.To)

	for _, id := range []nodeID{from, to} {
		if _, created := g.ensureNode(id); created {
			sum.NodesCreated++
		}
	}

	eid := edgeID{kind: op.Kind, from: from, to: to}

	props, ok := g.edges[eid]
	if !ok {
		props = make(map[string]any)
		g.edges[eid] = props
		sum.RelationshipsCreated++
	}

	apply(props, op)

	return sum, nil
}

func (g *GraphStore) ensureNode(id nodeID) (map[string]any, bool) {
	props, ok := g.nodes[id]
	if ok {
		return props, false
	}

	props = make(map[string]any)
	g.nodes[id] = props

	return props, true
}

func apply(props map[string]any, op ports.MergeOp) {
	for k, v := range op.Props {
		props[k] = v
	}

	for k, v := range op.SetAppend {
		list, _ := props[k].([]any)

		found := false

		for _, existing := range list {
			if existing == v {
				found = true

				break
			}
		}

		if !found {
			list = append(list, v)
		}

		props[k] = list
	}
}

// NodeCount returns the number of nodes of a kind.
func (g *GraphStore) NodeCount(kind ports.EntityKind) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0

	for id := range g.nodes {
		if id.kind == kind {
			n++
		}
	}

	return n
}

// EdgeCount returns the number of edges of a kind.
func (g *GraphStore) EdgeCount(kind ports.EntityKind) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0

	for id := range g.edges {
		if id.kind == kind {
			n++
		}
	}

	return n
}

// Node returns a copy of a node's properties.
func (g *GraphStore) Node(kind ports.EntityKind, value any) (map[string]any, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	props, ok := g.nodes[nodeID{kind: kind, value: fmt.Sprint(value)}]

	return copyProps(props), ok
}

// Edge returns a copy of an edge's properties.
func (g *GraphStore) Edge(kind ports.EntityKind, from, to ports.NodeRef) (map[string]any, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	props, ok := g.edges[edgeID{kind: kind, from: refID(&from), to: refID(&to)}]

	return copyProps(props), ok
}

// Calls returns how many merges were issued.
func (g *GraphStore) Calls() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.calls
}

func copyProps(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}

	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
