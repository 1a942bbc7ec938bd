// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"
	"time"

	"github.com/lueurxax/telegrasper/internal/core/domain"
)

// MessageIterator streams channel messages newest first.
// Next returns false when the source is exhausted or an error occurred; Err tells which.
type MessageIterator interface {
	Next(ctx context.Context) bool
	Value() domain.SourceMessage
	Err() error
}

// Session is a live connection to the messaging platform.
type Session interface {
	Resolve(ctx context.Context, key domain.ChannelKey) (*domain.Channel, error)
	History(ctx context.Context, ch *domain.Channel) MessageIterator
	Download(ctx context.Context, a *domain.Attachment) ([]byte, error)
}

// ChannelConnector resolves a key through a session. It returns nil when
// the channel cannot be reached; callers treat that as "cannot proceed".
type ChannelConnector interface {
	Connect(ctx context.Context, session Session, key domain.ChannelKey) *domain.Channel
}

// Classifier decides whether a text sample looks like illicit trade.
type Classifier interface {
	Classify(ctx context.Context, sample string) (bool, error)
}

// ObjectStore holds message media.
type ObjectStore interface {
	// Stat returns nil, nil when the object is absent.
	Stat(ctx context.Context, bucket, folder, file string) (*domain.Media, error)
	EnsureFolder(ctx context.Context, bucket, folder string) error
	Upload(ctx context.Context, bucket, folder, file string, data []byte, mimeType string) (string, error)
}

// MessageStore persists canonical message records.
type MessageStore interface {
	MessageExists(ctx context.Context, channelID int64, id int) (bool, error)
	// InsertMessage returns errors.ErrDuplicate when (channelId, id) is taken.
	InsertMessage(ctx context.Context, msg *domain.Message) error
	// TouchChannel moves the channel's updatedAt forward. Older timestamps are ignored.
	TouchChannel(ctx context.Context, channelID int64, ts time.Time) error
	ListChannelIDs(ctx context.Context) ([]int64, error)
}

// ReferenceStore exposes the read-only argot and drug collections.
type ReferenceStore interface {
	LoadLexicon(ctx context.Context) (domain.Lexicon, error)
	// FindDrug returns errors.ErrNotFound for unknown ids.
	FindDrug(ctx context.Context, id string) (*domain.Drug, error)
}

// ChannelDirectory keeps resolved channel handles in channel metadata so
// numeric keys can be resolved in later sessions.
type ChannelDirectory interface {
	// LookupChannel returns errors.ErrNotFound for channels never saved.
	LookupChannel(ctx context.Context, id int64) (*domain.Channel, error)
	// SaveChannel upserts the handle. It never touches updatedAt.
	SaveChannel(ctx context.Context, ch *domain.Channel) error
}

// DocumentStore combines message, channel and reference data access.
type DocumentStore interface {
	MessageStore
	ChannelDirectory
	ReferenceStore
	Ping(ctx context.Context) error
	Name() string
}

// ProgressReporter receives periodic scrape progress.
type ProgressReporter interface {
	Report(ctx context.Context, p domain.Progress)
}

// ResultPublisher receives the outcome of every scrape.
type ResultPublisher interface {
	Publish(ctx context.Context, key string, res domain.ScrapeResult)
}
