package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	"github.com/lueurxax/telegrasper/internal/core/ports/mocks"
	"github.com/lueurxax/telegrasper/internal/platform/config"
)

type memDocStore struct {
	*mocks.DocumentStore
	migrations *int
	migrateErr error
}

func (s memDocStore) Migrate(context.Context) error {
	if s.migrations != nil {
		*s.migrations++
	}

	return s.migrateErr
}

type recordingBridge struct {
	keys []domain.ChannelKey
	err  error
}

func (b *recordingBridge) Scrape(_ context.Context, key domain.ChannelKey) (domain.ScrapeResult, error) {
	b.keys = append(b.keys, key)

	return domain.ScrapeResult{Status: domain.ScrapeSuccess}, b.err
}

func (b *recordingBridge) Check(context.Context, domain.ChannelKey) (bool, error) {
	return false, nil
}

func newTestApp(docs *mocks.DocumentStore) *App {
	logger := zerolog.Nop()

	return &App{
		cfg:    &config.Config{RescrapePause: time.Millisecond},
		logger: &logger,
		docs:   memDocStore{DocumentStore: docs},
	}
}

func TestRescrapeAll_ScrapesEveryTrackedChannel(t *testing.T) {
	docs := mocks.NewDocumentStore()
	docs.SetUpdatedAt(300, time.Now())
	docs.SetUpdatedAt(100, time.Now())

	bridge := &recordingBridge{}

	require.NoError(t, newTestApp(docs).rescrapeAll(context.Background(), bridge))

	require.Len(t, bridge.keys, 2)
	assert.Equal(t, domain.KeyNumericID, bridge.keys[0].Kind)
	assert.Equal(t, int64(100), bridge.keys[0].ID)
	assert.Equal(t, int64(300), bridge.keys[1].ID)
}

func TestRescrapeAll_StopsOnBridgeError(t *testing.T) {
	docs := mocks.NewDocumentStore()
	docs.SetUpdatedAt(1, time.Now())
	docs.SetUpdatedAt(2, time.Now())

	errClosed := errors.New("closed")
	bridge := &recordingBridge{err: errClosed}

	err := newTestApp(docs).rescrapeAll(context.Background(), bridge)
	require.ErrorIs(t, err, errClosed)
	assert.Len(t, bridge.keys, 1)
}

func TestRescrapeAll_NoChannels(t *testing.T) {
	bridge := &recordingBridge{}

	require.NoError(t, newTestApp(mocks.NewDocumentStore()).rescrapeAll(context.Background(), bridge))
	assert.Empty(t, bridge.keys)
}

func TestAttachDocStore_Migrates(t *testing.T) {
	a := newTestApp(mocks.NewDocumentStore())

	var migrations, closed int

	docs := memDocStore{DocumentStore: mocks.NewDocumentStore(), migrations: &migrations}

	require.NoError(t, a.attachDocStore(context.Background(), docs, func() { closed++ }))
	assert.Equal(t, 1, migrations)
	assert.Equal(t, docs, a.docs)

	a.Close()
	assert.Equal(t, 1, closed)
}

func TestAttachDocStore_MigrationFailureKeepsCloser(t *testing.T) {
	a := newTestApp(mocks.NewDocumentStore())
	errIndex := errors.New("index build failed")

	var closed int

	err := a.attachDocStore(context.Background(), memDocStore{DocumentStore: mocks.NewDocumentStore(), migrateErr: errIndex}, func() { closed++ })
	require.ErrorIs(t, err, errIndex)

	a.Close()
	assert.Equal(t, 1, closed)
}
