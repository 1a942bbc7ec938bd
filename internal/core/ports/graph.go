package ports

import "context"

// GraphStore performs merge-by-natural-key writes.
type GraphStore interface {
	Merge(ctx context.Context, op MergeOp) (MergeSummary, error)
}

// EntityKind names a node label or relationship type.
type EntityKind string

const (
	NodeChannel EntityKind = "Channel"
	NodeArgot   EntityKind = "Argot"
	NodeDrug    EntityKind = "Drug"
	EdgeSells   EntityKind = "SELLS"
	EdgeRefers  EntityKind = "REFERS_TO"
)

// NodeRef addresses a node by its natural key.
type NodeRef struct {
	Kind  EntityKind
	Key   string
	Value any
}

// MergeOp describes one node or edge upsert.
// For nodes, Node is set; for edges, Kind is the relationship type and From/To are set.
// Props are assigned on every merge. SetAppend values are added to a list property
// unless already present.
type MergeOp struct {
	Kind      EntityKind
	Node      *NodeRef
	From      *NodeRef
	To        *NodeRef
	Props     map[string]any
	SetAppend map[string]any
}

// IsEdge reports whether the op merges a relationship.
func (op MergeOp) IsEdge() bool {
	return op.From != nil && op.To != nil
}

// MergeSummary carries store counters for a merge.
type MergeSummary struct {
	NodesCreated         int
	RelationshipsCreated int
}

// NodeOp builds a node merge.
func NodeOp(kind EntityKind, key string, value any, props map[string]any) MergeOp {
	return MergeOp{Kind: kind, Node: &NodeRef{Kind: kind, Key: key, Value: value}, Props: props}
}

// EdgeOp builds a relationship merge.
func EdgeOp(kind EntityKind, from, to NodeRef) MergeOp {
	return MergeOp{Kind: kind, From: &from, To: &to}
}
