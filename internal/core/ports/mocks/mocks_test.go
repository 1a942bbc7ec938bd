package mocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/ports"
)

const (
	testChannelID = int64(7)
	testChatID    = 42
)

func TestDocumentStore_InsertDuplicate(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	msg := &domain.Message{ChannelID: testChannelID, ID: testChatID}

	if err := store.InsertMessage(ctx, msg); err != nil {
		t.Fatalf("InsertMessage() error = %v", err)
	}

	if err := store.InsertMessage(ctx, msg); !errors.Is(err, coreerrors.ErrDuplicate) {
		t.Errorf("second InsertMessage() error = %v, want %v", err, coreerrors.ErrDuplicate)
	}

	if store.Count() != 1 {
		t.Errorf("Count() = %d, want 1", store.Count())
	}
}

func TestDocumentStore_TouchChannelForwardOnly(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	newer := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	_ = store.TouchChannel(ctx, testChannelID, newer)
	_ = store.TouchChannel(ctx, testChannelID, older)

	got, ok := store.UpdatedAt(testChannelID)
	if !ok || !got.Equal(newer) {
		t.Errorf("UpdatedAt() = %v, want %v", got, newer)
	}
}

func TestDocumentStore_FindDrugMissing(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.FindDrug(context.Background(), "nope")
	if !errors.Is(err, coreerrors.ErrNotFound) {
		t.Errorf("FindDrug() error = %v, want %v", err, coreerrors.ErrNotFound)
	}
}

func TestGraphStore_MergeIsIdempotent(t *testing.T) {
	g := NewGraphStore()
	ctx := context.Background()

	channel := ports.NodeRef{Kind: ports.NodeChannel, Key: "id", Value: testChannelID}
	argot := ports.NodeRef{Kind: ports.NodeArgot, Key: "name", Value: "ice"}

	op := ports.EdgeOp(ports.EdgeSells, channel, argot)
	op.SetAppend = map[string]any{"chatIds": testChatID}

	first, err := g.Merge(ctx, op)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if first.NodesCreated != 2 || first.RelationshipsCreated != 1 {
		t.Errorf("first Merge() = %+v, want 2 nodes and 1 relationship", first)
	}

	second, _ := g.Merge(ctx, op)
	if second.NodesCreated != 0 || second.RelationshipsCreated != 0 {
		t.Errorf("second Merge() = %+v, want no creations", second)
	}

	props, ok := g.Edge(ports.EdgeSells, channel, argot)
	if !ok {
		t.Fatal("edge missing")
	}

	ids, _ := props["chatIds"].([]any)
	if len(ids) != 1 {
		t.Errorf("chatIds = %v, want one entry", ids)
	}
}

func TestSession_HistoryFailsAfterMessages(t *testing.T) {
	s := NewSession()
	errBoom := errors.New("boom")
	ch := domain.Channel{ID: testChannelID}

	s.AddChannel("@chan", ch, domain.SourceMessage{ID: 1}, domain.SourceMessage{ID: 2})
	s.FailHistory(testChannelID, errBoom)

	it := s.History(context.Background(), &ch)

	n := 0
	for it.Next(context.Background()) {
		n++
	}

	if n != 2 {
		t.Errorf("iterated %d messages, want 2", n)
	}

	if !errors.Is(it.Err(), errBoom) {
		t.Errorf("Err() = %v, want %v", it.Err(), errBoom)
	}
}
