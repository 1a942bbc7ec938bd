package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/ports"
)

func TestBuildMerge_Node(t *testing.T) {
	op := ports.NodeOp(ports.NodeDrug, "id", "D1", map[string]any{"name": "Methamphetamine"})

	query, params, err := buildMerge(op)
	require.NoError(t, err)

	assert.Equal(t, "MERGE (n:Drug {id: $key}) SET n += $props", query)
	assert.Equal(t, "D1", params[paramKey])
	assert.Equal(t, map[string]any{"name": "Methamphetamine"}, params[paramProps])
}

func TestBuildMerge_NodeWithoutProps(t *testing.T) {
	query, params, err := buildMerge(ports.NodeOp(ports.NodeChannel, "id", int64(5), nil))
	require.NoError(t, err)

	assert.Equal(t, "MERGE (n:Channel {id: $key})", query)
	assert.NotContains(t, params, paramProps)
}

func TestBuildMerge_EdgeWithAppend(t *testing.T) {
	op := ports.EdgeOp(ports.EdgeSells,
		ports.NodeRef{Kind: ports.NodeChannel, Key: "id", Value: int64(100)},
		ports.NodeRef{Kind: ports.NodeArgot, Key: "name", Value: "ice"},
	)
	op.SetAppend = map[string]any{"chatIds": int64(2)}

	query, params, err := buildMerge(op)
	require.NoError(t, err)

	assert.Equal(t,
		"MERGE (a:Channel {id: $fromKey}) MERGE (b:Argot {name: $toKey}) MERGE (a)-[r:SELLS]->(b)"+
			" SET r.chatIds = CASE WHEN r.chatIds IS NULL THEN [$append_chatIds]"+
			" WHEN $append_chatIds IN r.chatIds THEN r.chatIds ELSE r.chatIds + $append_chatIds END",
		query)
	assert.Equal(t, int64(100), params[paramFromKey])
	assert.Equal(t, "ice", params[paramToKey])
	assert.Equal(t, int64(2), params["append_chatIds"])
}

func TestBuildMerge_RejectsUnsafeIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		op   ports.MergeOp
	}{
		{name: "label", op: ports.NodeOp("Drug) DETACH DELETE n //", "id", "x", nil)},
		{name: "key", op: ports.NodeOp(ports.NodeDrug, "id}", "x", nil)},
		{name: "prop", op: ports.NodeOp(ports.NodeDrug, "id", "x", map[string]any{"a b": 1})},
		{name: "empty", op: ports.MergeOp{Kind: ports.NodeDrug}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildMerge(tt.op)
			assert.ErrorIs(t, err, coreerrors.ErrInvalidInput)
		})
	}
}
