// Package domain holds the data model shared by the ingestion pipeline,
// the entity linker and the storage backends.
package domain

import (
	"iter"
	"time"
)

// Channel is a resolved Telegram channel handle.
type Channel struct {
	ID         int64
	Username   string
	Title      string
	AccessHash int64
}

// AttachmentKind enumerates the media kinds the resolver knows how to fetch.
type AttachmentKind string

const (
	AttachmentPhoto    AttachmentKind = "photo"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment describes downloadable media on a source message.
// Location is an opaque handle interpreted by the session that produced it.
type Attachment struct {
	Kind     AttachmentKind
	MimeType string
	Size     int64
	Location any
}

// SourceMessage is a message as streamed from a channel, before record assembly.
type SourceMessage struct {
	ID         int
	Date       time.Time
	Text       string
	Views      *int
	Sender     any
	Attachment *Attachment
}

// SenderType classifies the author of a message.
type SenderType string

const (
	SenderUser    SenderType = "user"
	SenderChannel SenderType = "channel"
	SenderUnknown SenderType = "unknown"
)

// SenderInfo is the persisted description of a message author.
type SenderInfo struct {
	Type      SenderType `bson:"type" json:"type"`
	Name      *string    `bson:"name" json:"name"`
	FirstName *string    `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName  *string    `bson:"lastName,omitempty" json:"lastName,omitempty"`
	SenderID  *int64     `bson:"senderId" json:"senderId"`
}

// Media points at a message attachment stored in object storage.
type Media struct {
	URL      string `bson:"url" json:"url"`
	MimeType string `bson:"type" json:"type"`
}

// Message is the canonical persisted record. (ChannelID, ID) is unique.
type Message struct {
	ChannelID int64      `bson:"channelId" json:"channelId"`
	ID        int        `bson:"id" json:"id"`
	Timestamp time.Time  `bson:"timestamp" json:"timestamp"`
	Text      string     `bson:"text" json:"text"`
	Sender    SenderInfo `bson:"sender" json:"sender"`
	Views     *int       `bson:"views" json:"views"`
	URL       string     `bson:"url" json:"url"`
	Media     *Media     `bson:"media" json:"media"`
	ArgotIDs  []string   `bson:"argot" json:"argot"`
	DrugIDs   []string   `bson:"drugs" json:"drugs"`
}

// ArgotTerm is a slang term tied to exactly one drug.
type ArgotTerm struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	DrugID string `json:"drugId"`
}

// Drug is an entry of the drug taxonomy.
type Drug struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	EnglishName string `json:"englishName"`
}

// Lexicon is a read-only snapshot of argot terms taken at the start of a pass.
// Updates to the underlying collection are not observed until the next pass.
type Lexicon struct {
	terms []ArgotTerm
}

// NewLexicon copies terms into a new snapshot.
func NewLexicon(terms []ArgotTerm) Lexicon {
	cp := make([]ArgotTerm, len(terms))
	copy(cp, terms)

	return Lexicon{terms: cp}
}

// Terms returns a copy of the snapshot contents.
func (l Lexicon) Terms() []ArgotTerm {
	cp := make([]ArgotTerm, len(l.terms))
	copy(cp, l.terms)

	return cp
}

// All yields the terms in order without copying the snapshot.
func (l Lexicon) All() iter.Seq[ArgotTerm] {
	return func(yield func(ArgotTerm) bool) {
		for _, term := range l.terms {
			if !yield(term) {
				return
			}
		}
	}
}

// Len reports the number of terms.
func (l Lexicon) Len() int {
	return len(l.terms)
}

// ScrapeStatus is the outcome class of a scrape.
type ScrapeStatus string

const (
	ScrapeSuccess ScrapeStatus = "success"
	ScrapeWarning ScrapeStatus = "warning"
	ScrapeError   ScrapeStatus = "error"
)

// ScrapeResult is returned by a scrape. Counters are informational.
type ScrapeResult struct {
	Status     ScrapeStatus `json:"status"`
	Message    string       `json:"message"`
	ChannelID  int64        `json:"channelId,omitempty"`
	Processed  int          `json:"processed"`
	Persisted  int          `json:"persisted"`
	Duplicates int          `json:"duplicates"`
}

// Progress is emitted periodically while a channel is being scraped.
type Progress struct {
	RunID     string `json:"runId"`
	Key       string `json:"key"`
	ChannelID int64  `json:"channelId"`
	Processed int    `json:"processed"`
}
