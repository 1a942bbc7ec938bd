package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/ports"
)

// Labels, relationship types and property names are spliced into the query
// text, so only plain identifiers are accepted.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const (
	paramKey     = "key"
	paramFromKey = "fromKey"
	paramToKey   = "toKey"
	paramProps   = "props"
	appendPrefix = "append_"
)

func buildMerge(op ports.MergeOp) (string, map[string]any, error) {
	if op.IsEdge() {
		return buildEdgeMerge(op)
	}

	if op.Node == nil {
		return "", nil, fmt.Errorf("%w: merge %s without node or endpoints", coreerrors.ErrInvalidInput, op.Kind)
	}

	return buildNodeMerge(op)
}

func buildNodeMerge(op ports.MergeOp) (string, map[string]any, error) {
	if err := checkIdentifiers(string(op.Node.Kind), op.Node.Key); err != nil {
		return "", nil, err
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "MERGE (n:%s {%s: $%s})", op.Node.Kind, op.Node.Key, paramKey)

	params := map[string]any{paramKey: op.Node.Value}

	if err := writeSets(&sb, "n", op, params); err != nil {
		return "", nil, err
	}

	return sb.String(), params, nil
}

func buildEdgeMerge(op ports.MergeOp) (string, map[string]any, error) {
	if err := checkIdentifiers(string(op.Kind), string(op.From.Kind), op.From.Key, string(op.To.Kind), op.To.Key); err != nil {
		return "", nil, err
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "MERGE (a:%s {%s: $%s}) ", op.From.Kind, op.From.Key, paramFromKey)
	fmt.Fprintf(&sb, "MERGE (b:%s {%s: $%s}) ", op.To.Kind, op.To.Key, paramToKey)
	fmt.Fprintf(&sb, "MERGE (a)-[r:%s]->(b)", op.Kind)

	params := map[string]any{
		paramFromKey: op.From.Value,
		paramToKey:   op.To.Value,
	}

	if err := writeSets(&sb, "r", op, params); err != nil {
		return "", nil, err
	}

	return sb.String(), params, nil
}

// writeSets appends SET clauses for Props and SetAppend. Appended values land
// in a list property only when not already present.
func writeSets(sb *strings.Builder, v string, op ports.MergeOp, params map[string]any) error {
	if len(op.Props) > 0 {
		for k := range op.Props {
			if err := checkIdentifiers(k); err != nil {
				return err
			}
		}

		fmt.Fprintf(sb, " SET %s += $%s", v, paramProps)

		params[paramProps] = op.Props
	}

	fields := make([]string, 0, len(op.SetAppend))
	for k := range op.SetAppend {
		fields = append(fields, k)
	}

	sort.Strings(fields)

	for _, f := range fields {
		if err := checkIdentifiers(f); err != nil {
			return err
		}

		p := appendPrefix + f
		params[p] = op.SetAppend[f]

		fmt.Fprintf(sb,
			" SET %[1]s.%[2]s = CASE WHEN %[1]s.%[2]s IS NULL THEN [$%[3]s] WHEN $%[3]s IN %[1]s.%[2]s THEN %[1]s.%[2]s ELSE %[1]s.%[2]s + $%[3]s END",
			v, f, p)
	}

	return nil
}

func checkIdentifiers(ids ...string) error {
	for _, id := range ids {
		if !identifierRe.MatchString(id) {
			return fmt.Errorf("%w: graph identifier %q", coreerrors.ErrInvalidInput, id)
		}
	}

	return nil
}
