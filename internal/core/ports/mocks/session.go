package mocks

import (
	"context"
	"sync"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	"github.com/lueurxax/telegrasper/internal/core/ports"
)

// Session is a thread-safe in-memory implementation of ports.Session.
type Session struct {
	mu            sync.RWMutex
	channels      map[string]*domain.Channel
	history       map[int64][]domain.SourceMessage
	payloads      map[any][]byte
	failAfter     map[int64]error
	pulled        map[int64]int
	resolveCalls  int
	downloadCalls int

	// ResolveFn overrides Resolve when set.
	ResolveFn func(ctx context.Context, key domain.ChannelKey) (*domain.Channel, error)
	// DownloadFn overrides Download when set.
	DownloadFn func(ctx context.Context, a *domain.Attachment) ([]byte, error)
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		channels:  make(map[string]*domain.Channel),
		history:   make(map[int64][]domain.SourceMessage),
		payloads:  make(map[any][]byte),
		failAfter: make(map[int64]error),
		pulled:    make(map[int64]int),
	}
}

// AddChannel makes ch resolvable under key and gives it a message history.
func (s *Session) AddChannel(key string, ch domain.Channel, msgs ...domain.SourceMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := ch
	s.channels[key] = &c
	s.history[ch.ID] = append([]domain.SourceMessage(nil), msgs...)
}

// FailHistory makes the iterator for channelID fail with err after the stored messages.
func (s *Session) FailHistory(channelID int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failAfter[channelID] = err
}

// SetPayload registers bytes returned for an attachment location.
func (s *Session) SetPayload(location any, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payloads[location] = data
}

// Resolve looks the key up by its string form.
func (s *Session) Resolve(ctx context.Context, key domain.ChannelKey) (*domain.Channel, error) {
	s.mu.Lock()
	s.resolveCalls++
	s.mu.Unlock()

	if s.ResolveFn != nil {
		return s.ResolveFn(ctx, key)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[key.String()]
	if !ok {
		return nil, ErrChannelNotFound
	}

	c := *ch

	return &c, nil
}

// History returns an iterator over the stored messages.
func (s *Session) History(_ context.Context, ch *domain.Channel) ports.MessageIterator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &sliceIterator{
		session: s,
		chID:    ch.ID,
		msgs:    s.history[ch.ID],
		failErr: s.failAfter[ch.ID],
		idx:     -1,
	}
}

// Download returns the registered payload.
func (s *Session) Download(ctx context.Context, a *domain.Attachment) ([]byte, error) {
	s.mu.Lock()
	s.downloadCalls++
	s.mu.Unlock()

	if s.DownloadFn != nil {
		return s.DownloadFn(ctx, a)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.payloads[a.Location]
	if !ok {
		return nil, ErrNoPayload
	}

	return data, nil
}

// Pulled returns how many messages were consumed from channelID's history.
func (s *Session) Pulled(channelID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pulled[channelID]
}

// DownloadCalls returns the number of Download invocations.
func (s *Session) DownloadCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.downloadCalls
}

// ResolveCalls returns the number of Resolve invocations.
func (s *Session) ResolveCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.resolveCalls
}

type sliceIterator struct {
	session *Session
	chID    int64
	msgs    []domain.SourceMessage
	failErr error
	idx     int
	err     error
}

func (it *sliceIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}

	if err := ctx.Err(); err != nil {
		it.err = err

		return false
	}

	if it.idx+1 >= len(it.msgs) {
		it.err = it.failErr

		return false
	}

	it.idx++

	it.session.mu.Lock()
	it.session.pulled[it.chID]++
	it.session.mu.Unlock()

	return true
}

func (it *sliceIterator) Value() domain.SourceMessage {
	return it.msgs[it.idx]
}

func (it *sliceIterator) Err() error {
	return it.err
}

// Connector resolves keys through the session it is handed.
type Connector struct{}

// Connect implements ports.ChannelConnector.
func (Connector) Connect(ctx context.Context, session ports.Session, key domain.ChannelKey) *domain.Channel {
	ch, err := session.Resolve(ctx, key)
	if err != nil {
		return nil
	}

	return ch
}
