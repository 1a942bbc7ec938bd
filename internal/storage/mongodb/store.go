// Package mongodb stores message records and reads the argot and drug
// reference collections from MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
)

// Collection names.
const (
	CollectionChannelInfo = "channel_info"
	CollectionChannelData = "channel_data"
	CollectionArgot       = "argot"
	CollectionDrugs       = "drugs"
)

const (
	fieldID        = "_id"
	fieldChannelID = "channelId"
	fieldMsgID     = "id"
	fieldUpdatedAt = "updatedAt"
	fieldHash      = "accessHash"
	fieldUsername  = "username"
	fieldTitle     = "title"

	serverSelectionTimeout = 10 * time.Second
	messageIndexName       = "channel_message_unique"
)

// Store implements ports.DocumentStore.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zerolog.Logger
}

// Connect opens a client and pings the primary.
func Connect(ctx context.Context, uri, database string, logger *zerolog.Logger) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)

		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info().Str("database", database).Msg("Connected to MongoDB")

	return &Store{client: client, db: client.Database(database), logger: logger}, nil
}

func (s *Store) Name() string { return "mongo" }

func (s *Store) channels() *mongo.Collection { return s.db.Collection(CollectionChannelInfo) }
func (s *Store) messages() *mongo.Collection { return s.db.Collection(CollectionChannelData) }
func (s *Store) argot() *mongo.Collection    { return s.db.Collection(CollectionArgot) }
func (s *Store) drugs() *mongo.Collection    { return s.db.Collection(CollectionDrugs) }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}

	return nil
}

// Migrate creates the unique (channelId, id) index on the message collection.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.messages().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: fieldChannelID, Value: 1}, {Key: fieldMsgID, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(messageIndexName),
	})
	if err != nil {
		return fmt.Errorf("create message index: %w", err)
	}

	s.logger.Info().Str("index", messageIndexName).Msg("Mongo indexes ensured")

	return nil
}

func messageFilter(channelID int64, id int) bson.M {
	return bson.M{fieldChannelID: channelID, fieldMsgID: id}
}

func (s *Store) MessageExists(ctx context.Context, channelID int64, id int) (bool, error) {
	n, err := s.messages().CountDocuments(ctx, messageFilter(channelID, id), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count message: %w", err)
	}

	return n > 0, nil
}

func (s *Store) InsertMessage(ctx context.Context, msg *domain.Message) error {
	if _, err := s.messages().InsertOne(ctx, msg); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert message %d/%d: %w", msg.ChannelID, msg.ID, coreerrors.ErrDuplicate)
		}

		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

// touchUpdate keeps the later of the stored and the given timestamp.
func touchUpdate(ts time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: fieldUpdatedAt, Value: bson.D{
			{Key: "$max", Value: bson.A{"$" + fieldUpdatedAt, ts}},
		}}}}},
	}
}

func (s *Store) TouchChannel(ctx context.Context, channelID int64, ts time.Time) error {
	_, err := s.channels().UpdateOne(ctx,
		bson.M{fieldID: channelID},
		touchUpdate(ts.UTC()),
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("touch channel %d: %w", channelID, err)
	}

	return nil
}

// channelDoc is a channel_info document. updatedAt is managed by TouchChannel only.
type channelDoc struct {
	ID         int64  `bson:"_id"`
	AccessHash int64  `bson:"accessHash,omitempty"`
	Username   string `bson:"username,omitempty"`
	Title      string `bson:"title,omitempty"`
}

func handleUpdate(ch *domain.Channel) bson.M {
	return bson.M{"$set": bson.M{
		fieldHash:     ch.AccessHash,
		fieldUsername: ch.Username,
		fieldTitle:    ch.Title,
	}}
}

func (s *Store) SaveChannel(ctx context.Context, ch *domain.Channel) error {
	_, err := s.channels().UpdateOne(ctx, bson.M{fieldID: ch.ID}, handleUpdate(ch), options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save channel %d: %w", ch.ID, err)
	}

	return nil
}

func (s *Store) LookupChannel(ctx context.Context, id int64) (*domain.Channel, error) {
	var doc channelDoc

	err := s.channels().FindOne(ctx, bson.M{fieldID: id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("channel %d: %w", id, coreerrors.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("find channel %d: %w", id, err)
	}

	return &domain.Channel{ID: doc.ID, AccessHash: doc.AccessHash, Username: doc.Username, Title: doc.Title}, nil
}

func (s *Store) ListChannelIDs(ctx context.Context) ([]int64, error) {
	cur, err := s.channels().Find(ctx, bson.M{},
		options.Find().
			SetProjection(bson.M{fieldID: 1}).
			SetSort(bson.D{{Key: fieldID, Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	var docs []channelDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode channels: %w", err)
	}

	return lo.Map(docs, func(d channelDoc, _ int) int64 { return d.ID }), nil
}

func (s *Store) LoadLexicon(ctx context.Context) (domain.Lexicon, error) {
	cur, err := s.argot().Find(ctx, bson.M{})
	if err != nil {
		return domain.Lexicon{}, fmt.Errorf("load argot: %w", err)
	}

	var docs []argotDoc
	if err := cur.All(ctx, &docs); err != nil {
		return domain.Lexicon{}, fmt.Errorf("decode argot: %w", err)
	}

	terms := lo.Map(docs, func(d argotDoc, _ int) domain.ArgotTerm { return d.term() })

	return domain.NewLexicon(usableTerms(terms, s.logger)), nil
}

// usableTerms drops entries without a name. An empty name would match every message.
func usableTerms(terms []domain.ArgotTerm, logger *zerolog.Logger) []domain.ArgotTerm {
	kept := lo.Filter(terms, func(t domain.ArgotTerm, _ int) bool { return t.Name != "" })
	if dropped := len(terms) - len(kept); dropped > 0 {
		logger.Warn().Int("dropped", dropped).Msg("Skipping argot terms without a name")
	}

	return kept
}

func (s *Store) FindDrug(ctx context.Context, id string) (*domain.Drug, error) {
	var d drugDoc

	err := s.drugs().FindOne(ctx, bson.M{fieldID: bson.M{"$in": idCandidates(id)}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("drug %q: %w", id, coreerrors.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("find drug %q: %w", id, err)
	}

	drug := d.drug()

	return &drug, nil
}
