package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
)

type messageKey struct {
	channelID int64
	id        int
}

// DocumentStore is a thread-safe in-memory implementation of ports.DocumentStore.
// InsertMessage enforces (channelId, id) uniqueness like the real unique index.
type DocumentStore struct {
	mu       sync.RWMutex
	messages map[messageKey]domain.Message
	order    []messageKey
	updated  map[int64]time.Time
	handles  map[int64]domain.Channel
	argot    []domain.ArgotTerm
	drugs    map[string]domain.Drug

	insertCalls int

	// InsertMessageFn overrides InsertMessage when set.
	InsertMessageFn func(ctx context.Context, msg *domain.Message) error
	// MessageExistsFn overrides MessageExists when set.
	MessageExistsFn func(ctx context.Context, channelID int64, id int) (bool, error)
	// FindDrugFn overrides FindDrug when set.
	FindDrugFn func(ctx context.Context, id string) (*domain.Drug, error)
	// SaveChannelFn overrides SaveChannel when set.
	SaveChannelFn func(ctx context.Context, ch *domain.Channel) error
	// PingFn overrides Ping when set.
	PingFn func(ctx context.Context) error
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		messages: make(map[messageKey]domain.Message),
		updated:  make(map[int64]time.Time),
		handles:  make(map[int64]domain.Channel),
		drugs:    make(map[string]domain.Drug),
	}
}

// Name implements ports.DocumentStore.
func (s *DocumentStore) Name() string {
	return "memory"
}

// Ping implements ports.DocumentStore.
func (s *DocumentStore) Ping(ctx context.Context) error {
	if s.PingFn != nil {
		return s.PingFn(ctx)
	}

	return nil
}

// MessageExists reports whether a record exists for (channelID, id).
func (s *DocumentStore) MessageExists(ctx context.Context, channelID int64, id int) (bool, error) {
	if s.MessageExistsFn != nil {
		return s.MessageExistsFn(ctx, channelID, id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.messages[messageKey{channelID, id}]

	return ok, nil
}

// InsertMessage stores a copy of msg.
func (s *DocumentStore) InsertMessage(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	s.insertCalls++
	s.mu.Unlock()

	if s.InsertMessageFn != nil {
		return s.InsertMessageFn(ctx, msg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := messageKey{msg.ChannelID, msg.ID}
	if _, ok := s.messages[k]; ok {
		return coreerrors.ErrDuplicate
	}

	s.messages[k] = *msg
	s.order = append(s.order, k)

	return nil
}

// TouchChannel moves updatedAt forward only.
func (s *DocumentStore) TouchChannel(_ context.Context, channelID int64, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.updated[channelID]; !ok || ts.After(cur) {
		s.updated[channelID] = ts
	}

	return nil
}

// ListChannelIDs returns ids of channels that have metadata, ascending.
func (s *DocumentStore) ListChannelIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{}, len(s.updated)+len(s.handles))
	for id := range s.updated {
		seen[id] = struct{}{}
	}

	for id := range s.handles {
		seen[id] = struct{}{}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}

// LookupChannel returns a saved handle.
func (s *DocumentStore) LookupChannel(_ context.Context, id int64) (*domain.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.handles[id]
	if !ok {
		return nil, coreerrors.ErrNotFound
	}

	return &ch, nil
}

// SaveChannel stores a copy of ch.
func (s *DocumentStore) SaveChannel(ctx context.Context, ch *domain.Channel) error {
	if s.SaveChannelFn != nil {
		return s.SaveChannelFn(ctx, ch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.handles[ch.ID] = *ch

	return nil
}

// LoadLexicon snapshots the argot terms.
func (s *DocumentStore) LoadLexicon(_ context.Context) (domain.Lexicon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.NewLexicon(s.argot), nil
}

// FindDrug looks a drug up by id.
func (s *DocumentStore) FindDrug(ctx context.Context, id string) (*domain.Drug, error) {
	if s.FindDrugFn != nil {
		return s.FindDrugFn(ctx, id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drugs[id]
	if !ok {
		return nil, coreerrors.ErrNotFound
	}

	return &d, nil
}

// AddArgot appends terms to the lexicon.
func (s *DocumentStore) AddArgot(terms ...domain.ArgotTerm) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.argot = append(s.argot, terms...)
}

// AddDrug registers drugs.
func (s *DocumentStore) AddDrug(drugs ...domain.Drug) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range drugs {
		s.drugs[d.ID] = d
	}
}

// SetUpdatedAt seeds channel metadata.
func (s *DocumentStore) SetUpdatedAt(channelID int64, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updated[channelID] = ts
}

// UpdatedAt returns the stored updatedAt for a channel.
func (s *DocumentStore) UpdatedAt(channelID int64) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, ok := s.updated[channelID]

	return ts, ok
}

// Message returns a stored record.
func (s *DocumentStore) Message(channelID int64, id int) (domain.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[messageKey{channelID, id}]

	return m, ok
}

// Messages returns stored records in insertion order.
func (s *DocumentStore) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.messages[k])
	}

	return out
}

// Count returns the number of stored records.
func (s *DocumentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages)
}

// InsertCalls returns how many times InsertMessage was invoked.
func (s *DocumentStore) InsertCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.insertCalls
}
