// Package linking detects argot in message text and records the matches
// in the knowledge graph.
package linking

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/ports"
	"github.com/lueurxax/telegrasper/internal/platform/observability"
)

// Graph property names.
const (
	propID          = "id"
	propName        = "name"
	propDrugID      = "drugId"
	propType        = "type"
	propEnglishName = "englishName"
	propChatIDs     = "chatIds"
)

// Linker matches text against a lexicon snapshot and merges the matched
// entities into the graph.
type Linker struct {
	drugs  ports.ReferenceStore
	graph  ports.GraphStore
	logger *zerolog.Logger
}

// New creates a Linker.
func New(drugs ports.ReferenceStore, graph ports.GraphStore, logger *zerolog.Logger) *Linker {
	return &Linker{drugs: drugs, graph: graph, logger: logger}
}

// Link returns the ids of matched argot terms and, position for position,
// the drugs they refer to, in lexicon order. Merges run for every match
// whether or not the message is already stored. A term pointing at a
// missing drug aborts with ErrDanglingDrugReference.
func (l *Linker) Link(ctx context.Context, channelID int64, chatID int, text string, lex domain.Lexicon) ([]string, []string, error) {
	argotIDs := []string{}
	drugIDs := []string{}

	if text == "" {
		return argotIDs, drugIDs, nil
	}

	for term := range lex.All() {
		if term.Name == "" || !strings.Contains(text, term.Name) {
			continue
		}

		observability.ArgotMatches.Inc()

		drug, err := l.drugs.FindDrug(ctx, term.DrugID)
		if err != nil {
			if coreerrors.Is(err, coreerrors.ErrNotFound) {
				return nil, nil, fmt.Errorf("argot %q drug %q: %w", term.ID, term.DrugID, coreerrors.ErrDanglingDrugReference)
			}

			return nil, nil, fmt.Errorf("find drug %q: %w", term.DrugID, err)
		}

		if err := l.mergeMatch(ctx, channelID, chatID, term, drug); err != nil {
			return nil, nil, err
		}

		argotIDs = append(argotIDs, term.ID)
		drugIDs = append(drugIDs, drug.ID)
	}

	return argotIDs, drugIDs, nil
}

func (l *Linker) mergeMatch(ctx context.Context, channelID int64, chatID int, term domain.ArgotTerm, drug *domain.Drug) error {
	channelRef := ports.NodeRef{Kind: ports.NodeChannel, Key: propID, Value: channelID}
	argotRef := ports.NodeRef{Kind: ports.NodeArgot, Key: propName, Value: term.Name}
	drugRef := ports.NodeRef{Kind: ports.NodeDrug, Key: propID, Value: drug.ID}

	sells := ports.EdgeOp(ports.EdgeSells, channelRef, argotRef)
	sells.SetAppend = map[string]any{propChatIDs: int64(chatID)}

	ops := []ports.MergeOp{
		ports.NodeOp(ports.NodeArgot, propName, term.Name, map[string]any{
			propID:     term.ID,
			propDrugID: term.DrugID,
		}),
		ports.NodeOp(ports.NodeDrug, propID, drug.ID, map[string]any{
			propName:        drug.Name,
			propType:        drug.Type,
			propEnglishName: drug.EnglishName,
		}),
		sells,
		ports.EdgeOp(ports.EdgeRefers, argotRef, drugRef),
	}

	for _, op := range ops {
		sum, err := l.graph.Merge(ctx, op)
		if err != nil {
			return fmt.Errorf("merge %s: %w", op.Kind, err)
		}

		if sum.NodesCreated > 0 {
			observability.GraphNodesCreated.Add(float64(sum.NodesCreated))
			l.logger.Info().
				Str("kind", string(op.Kind)).
				Str("argot", term.Name).
				Str("drug", drug.ID).
				Int("nodes_created", sum.NodesCreated).
				Msg("Graph nodes created")
		}
	}

	return nil
}
