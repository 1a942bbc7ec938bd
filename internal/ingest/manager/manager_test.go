package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/ports"
	"github.com/lueurxax/telegrasper/internal/core/ports/mocks"
)

const waitTimeout = 2 * time.Second

type fakeRunner struct {
	session ports.Session
	openErr error
	runs    atomic.Int32
}

func (r *fakeRunner) Run(ctx context.Context, fn func(ctx context.Context, session ports.Session) error) error {
	r.runs.Add(1)

	if r.openErr != nil {
		return r.openErr
	}

	return fn(ctx, r.session)
}

type fakeScraper struct {
	fn func(ctx context.Context, session ports.Session, key domain.ChannelKey) domain.ScrapeResult
}

func (s fakeScraper) Scrape(ctx context.Context, session ports.Session, key domain.ChannelKey) domain.ScrapeResult {
	return s.fn(ctx, session, key)
}

type fakeScreener struct {
	verdict bool
}

func (s fakeScreener) Screen(context.Context, ports.Session, any) bool {
	return s.verdict
}

func mustKey(t *testing.T, s string) domain.ChannelKey {
	t.Helper()

	k, err := domain.ParseChannelKey(s)
	require.NoError(t, err)

	return k
}

func newManager(t *testing.T, runner Runner, scraper Scraper, screener Screener) *Manager {
	t.Helper()

	logger := zerolog.Nop()
	m := New(runner, scraper, screener, &logger)

	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Close() })

	return m
}

func TestManager_ScrapeAndCheck(t *testing.T) {
	runner := &fakeRunner{session: mocks.NewSession()}
	scraper := fakeScraper{fn: func(_ context.Context, _ ports.Session, key domain.ChannelKey) domain.ScrapeResult {
		return domain.ScrapeResult{Status: domain.ScrapeSuccess, Message: key.String()}
	}}

	m := newManager(t, runner, scraper, fakeScreener{verdict: true})

	res, err := m.Scrape(context.Background(), mustKey(t, "@alpha"))
	require.NoError(t, err)
	assert.Equal(t, domain.ScrapeSuccess, res.Status)
	assert.Equal(t, "@alpha", res.Message)

	ok, err := m.Check(context.Background(), mustKey(t, "@alpha"))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestManager_ConcurrentCallersInterleave(t *testing.T) {
	const callers = 4

	var (
		entered sync.WaitGroup
		release = make(chan struct{})
	)

	entered.Add(callers)

	scraper := fakeScraper{fn: func(context.Context, ports.Session, domain.ChannelKey) domain.ScrapeResult {
		entered.Done()
		<-release

		return domain.ScrapeResult{Status: domain.ScrapeSuccess}
	}}

	m := newManager(t, &fakeRunner{session: mocks.NewSession()}, scraper, fakeScreener{})

	results := make(chan error, callers)
	for range callers {
		go func() {
			_, err := m.Scrape(context.Background(), mustKey(t, "@alpha"))
			results <- err
		}()
	}

	allIn := make(chan struct{})
	go func() {
		entered.Wait()
		close(allIn)
	}()

	select {
	case <-allIn:
	case <-time.After(waitTimeout):
		t.Fatal("tasks did not run concurrently on the session")
	}

	close(release)

	for range callers {
		require.NoError(t, <-results)
	}
}

func TestManager_PanicPropagatesToCaller(t *testing.T) {
	scraper := fakeScraper{fn: func(context.Context, ports.Session, domain.ChannelKey) domain.ScrapeResult {
		panic("kaboom")
	}}

	m := newManager(t, &fakeRunner{session: mocks.NewSession()}, scraper, fakeScreener{})

	_, err := m.Scrape(context.Background(), mustKey(t, "@alpha"))
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.ErrTaskPanicked)
	assert.Contains(t, err.Error(), "kaboom")

	ok, err := m.Check(context.Background(), mustKey(t, "@alpha"))
	require.NoError(t, err, "loop must survive a panicking task")
	assert.False(t, ok)
}

func TestManager_Lifecycle(t *testing.T) {
	logger := zerolog.Nop()
	m := New(&fakeRunner{session: mocks.NewSession()}, fakeScraper{}, fakeScreener{}, &logger)

	_, err := m.Check(context.Background(), mustKey(t, "@alpha"))
	assert.ErrorIs(t, err, coreerrors.ErrManagerNotStarted)

	require.NoError(t, m.Start(context.Background()))

	select {
	case <-m.Ready():
	case <-time.After(waitTimeout):
		t.Fatal("session never became ready")
	}

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = m.Check(context.Background(), mustKey(t, "@alpha"))
	assert.ErrorIs(t, err, coreerrors.ErrManagerClosed)
	assert.ErrorIs(t, m.Start(context.Background()), coreerrors.ErrManagerClosed)
}

func TestManager_SessionOpenFailure(t *testing.T) {
	errAuth := errors.New("auth failed")
	logger := zerolog.Nop()
	m := New(&fakeRunner{openErr: errAuth}, fakeScraper{}, fakeScreener{}, &logger)

	require.NoError(t, m.Start(context.Background()))

	select {
	case <-m.Done():
	case <-time.After(waitTimeout):
		t.Fatal("loop did not exit")
	}

	_, err := m.Check(context.Background(), mustKey(t, "@alpha"))
	assert.ErrorIs(t, err, coreerrors.ErrManagerClosed)
	assert.ErrorIs(t, err, errAuth)
	assert.ErrorIs(t, m.Close(), errAuth)
}

func TestManager_CloseWaitsForInflight(t *testing.T) {
	started := make(chan struct{})
	finished := atomic.Bool{}

	scraper := fakeScraper{fn: func(ctx context.Context, _ ports.Session, _ domain.ChannelKey) domain.ScrapeResult {
		close(started)
		<-ctx.Done()
		finished.Store(true)

		return domain.ScrapeResult{Status: domain.ScrapeError, Message: ctx.Err().Error()}
	}}

	logger := zerolog.Nop()
	m := New(&fakeRunner{session: mocks.NewSession()}, scraper, fakeScreener{}, &logger)
	require.NoError(t, m.Start(context.Background()))

	done := make(chan domain.ScrapeResult, 1)
	go func() {
		res, _ := m.Scrape(context.Background(), mustKey(t, "@alpha"))
		done <- res
	}()

	<-started
	require.NoError(t, m.Close())
	assert.True(t, finished.Load())

	res := <-done
	assert.Equal(t, domain.ScrapeError, res.Status)
}

func TestManager_CallerContextCancelled(t *testing.T) {
	m := newManager(t, &fakeRunner{session: mocks.NewSession()}, fakeScraper{fn: func(ctx context.Context, _ ports.Session, _ domain.ChannelKey) domain.ScrapeResult {
		<-ctx.Done()

		return domain.ScrapeResult{Status: domain.ScrapeError}
	}}, fakeScreener{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := m.Scrape(ctx, mustKey(t, "@alpha"))
	require.NoError(t, err)
	assert.Equal(t, domain.ScrapeError, res.Status)
}
