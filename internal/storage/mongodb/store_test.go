package mongodb

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lueurxax/telegrasper/internal/core/domain"
)

func TestMessageFilter(t *testing.T) {
	assert.Equal(t, bson.M{"channelId": int64(7), "id": 3}, messageFilter(7, 3))
}

func TestTouchUpdate_UsesMax(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	p := touchUpdate(ts)
	require.Len(t, p, 1)

	set, ok := p[0][0].Value.(bson.D)
	require.True(t, ok)
	require.Len(t, set, 1)
	assert.Equal(t, "updatedAt", set[0].Key)

	maxExpr, ok := set[0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, "$max", maxExpr[0].Key)
	assert.Equal(t, bson.A{"$updatedAt", ts}, maxExpr[0].Value)
}

func TestUsableTerms(t *testing.T) {
	logger := zerolog.Nop()

	terms := []domain.ArgotTerm{
		{ID: "A1", Name: "ice", DrugID: "D1"},
		{ID: "A2", Name: "", DrugID: "D2"},
		{ID: "A3", Name: "crystal", DrugID: "D1"},
	}

	got := usableTerms(terms, &logger)
	require.Len(t, got, 2)
	assert.Equal(t, "A1", got[0].ID)
	assert.Equal(t, "A3", got[1].ID)
}

func TestMessageDocumentShape(t *testing.T) {
	views := 10
	msg := domain.Message{
		ChannelID: 5,
		ID:        2,
		Text:      "buy ice now",
		Views:     &views,
		Media:     &domain.Media{URL: "https://example/x", MimeType: "image/jpeg"},
		ArgotIDs:  []string{"A1"},
		DrugIDs:   []string{"D1"},
	}

	raw, err := bson.Marshal(msg)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))

	for _, field := range []string{"channelId", "id", "timestamp", "text", "sender", "views", "url", "media", "argot", "drugs"} {
		assert.Contains(t, doc, field)
	}

	var shape struct {
		Media struct {
			Type string `bson:"type"`
		} `bson:"media"`
	}

	require.NoError(t, bson.Unmarshal(raw, &shape))
	assert.Equal(t, "image/jpeg", shape.Media.Type)
}

func TestHandleUpdate_LeavesUpdatedAtAlone(t *testing.T) {
	update := handleUpdate(&domain.Channel{ID: 5, AccessHash: 99, Username: "bazaar", Title: "Bazaar"})

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"accessHash": int64(99), "username": "bazaar", "title": "Bazaar"}, set)
	assert.NotContains(t, set, "updatedAt")
}

func TestArgotDoc_IDForms(t *testing.T) {
	oid := bson.NewObjectID()
	drugOID := bson.NewObjectID()

	tests := []struct {
		name       string
		doc        bson.M
		wantID     string
		wantDrugID string
	}{
		{name: "object ids", doc: bson.M{"_id": oid, "name": "ice", "drugId": drugOID}, wantID: oid.Hex(), wantDrugID: drugOID.Hex()},
		{name: "strings", doc: bson.M{"_id": "A1", "name": "ice", "drugId": "D1"}, wantID: "A1", wantDrugID: "D1"},
		{name: "integers", doc: bson.M{"_id": int32(7), "name": "ice", "drugId": int64(12)}, wantID: "7", wantDrugID: "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(tt.doc)
			require.NoError(t, err)

			var doc argotDoc
			require.NoError(t, bson.Unmarshal(raw, &doc))

			term := doc.term()
			assert.Equal(t, tt.wantID, term.ID)
			assert.Equal(t, "ice", term.Name)
			assert.Equal(t, tt.wantDrugID, term.DrugID)
		})
	}
}

func TestIDCandidates(t *testing.T) {
	oid := bson.NewObjectID()

	assert.Equal(t, bson.A{oid.Hex(), oid}, idCandidates(oid.Hex()))
	assert.Equal(t, bson.A{"D1"}, idCandidates("D1"))
	assert.Equal(t, bson.A{"12", int64(12), int32(12)}, idCandidates("12"))
}
