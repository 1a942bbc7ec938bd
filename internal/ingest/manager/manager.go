// Package manager owns the long-lived platform session and bridges
// synchronous callers onto it.
//
// One Manager runs one session loop. Scrape and Check enqueue a task and
// block until it finishes. Tasks from different callers run concurrently
// on the same session with no isolation between them; processing inside
// a single task is sequential.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/ports"
	"github.com/lueurxax/telegrasper/internal/platform/observability"
)

// Runner opens a session and keeps it alive while fn runs.
type Runner interface {
	Run(ctx context.Context, fn func(ctx context.Context, session ports.Session) error) error
}

// Scraper runs the ingestion pass for one channel.
type Scraper interface {
	Scrape(ctx context.Context, session ports.Session, key domain.ChannelKey) domain.ScrapeResult
}

// Screener runs the suspicion pre-check for one channel.
type Screener interface {
	Screen(ctx context.Context, session ports.Session, target any) bool
}

type taskFunc func(ctx context.Context, session ports.Session) (any, error)

type taskResult struct {
	value any
	err   error
}

type task struct {
	name   string
	ctx    context.Context
	fn     taskFunc
	result chan taskResult
}

// Manager is the session bridge.
type Manager struct {
	runner   Runner
	scraper  Scraper
	screener Screener
	logger   *zerolog.Logger

	tasks chan task
	ready chan struct{}
	done  chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	runErr  error

	inflight sync.WaitGroup
}

// New creates a Manager. Call Start before scheduling work.
func New(runner Runner, scraper Scraper, screener Screener, logger *zerolog.Logger) *Manager {
	return &Manager{
		runner:   runner,
		scraper:  scraper,
		screener: screener,
		logger:   logger,
		tasks:    make(chan task),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the session loop. It returns immediately; Ready is closed
// once the session accepts tasks.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return coreerrors.ErrManagerClosed
	}

	if m.started {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.started = true

	go func() {
		defer close(m.done)

		err := m.runner.Run(loopCtx, m.loop)
		if err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error().Err(err).Msg("Session loop stopped")
		}

		m.mu.Lock()
		m.runErr = err
		m.mu.Unlock()
	}()

	return nil
}

// Ready is closed when the session is up.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Done is closed when the session loop has exited.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

func (m *Manager) loop(ctx context.Context, session ports.Session) error {
	close(m.ready)
	m.logger.Info().Msg("Session loop ready")

	for {
		select {
		case <-ctx.Done():
			m.inflight.Wait()

			return ctx.Err()
		case t := <-m.tasks:
			m.inflight.Add(1)

			go m.dispatch(ctx, session, t)
		}
	}
}

func (m *Manager) dispatch(loopCtx context.Context, session ports.Session, t task) {
	defer m.inflight.Done()

	observability.SessionTasksInFlight.Inc()
	defer observability.SessionTasksInFlight.Dec()

	ctx, cancel := context.WithCancel(t.ctx)
	defer cancel()

	stop := context.AfterFunc(loopCtx, cancel)
	defer stop()

	var res taskResult

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Str("task", t.name).Interface("panic", r).Msg("Session task panicked")
			res = taskResult{err: fmt.Errorf("%s: %w: %v", t.name, coreerrors.ErrTaskPanicked, r)}
		}

		t.result <- res
	}()

	value, err := t.fn(ctx, session)
	res = taskResult{value: value, err: err}
}

func (m *Manager) submit(ctx context.Context, name string, fn taskFunc) (any, error) {
	m.mu.Lock()
	started, closed := m.started, m.closed
	m.mu.Unlock()

	if closed {
		return nil, coreerrors.ErrManagerClosed
	}

	if !started {
		return nil, coreerrors.ErrManagerNotStarted
	}

	select {
	case <-m.ready:
	case <-m.done:
		return nil, m.stoppedErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	t := task{name: name, ctx: ctx, fn: fn, result: make(chan taskResult, 1)}

	select {
	case m.tasks <- t:
	case <-m.done:
		return nil, m.stoppedErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r := <-t.result

	return r.value, r.err
}

func (m *Manager) stoppedErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.runErr != nil && !errors.Is(m.runErr, context.Canceled) {
		return fmt.Errorf("%w: %w", coreerrors.ErrManagerClosed, m.runErr)
	}

	return coreerrors.ErrManagerClosed
}

// Scrape ingests the channel and blocks until the pass finishes.
func (m *Manager) Scrape(ctx context.Context, key domain.ChannelKey) (domain.ScrapeResult, error) {
	v, err := m.submit(ctx, "scrape", func(ctx context.Context, session ports.Session) (any, error) {
		return m.scraper.Scrape(ctx, session, key), nil
	})
	if err != nil {
		return domain.ScrapeResult{}, err
	}

	res, _ := v.(domain.ScrapeResult)

	return res, nil
}

// Check screens the channel and blocks for the verdict.
func (m *Manager) Check(ctx context.Context, key domain.ChannelKey) (bool, error) {
	v, err := m.submit(ctx, "check", func(ctx context.Context, session ports.Session) (any, error) {
		return m.screener.Screen(ctx, session, key), nil
	})
	if err != nil {
		return false, err
	}

	ok, _ := v.(bool)

	return ok, nil
}

// Close stops the loop after in-flight tasks return.
func (m *Manager) Close() error {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()

		return nil
	}

	m.closed = true
	started, cancel := m.started, m.cancel
	m.mu.Unlock()

	if !started {
		return nil
	}

	cancel()
	<-m.done

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.runErr != nil && !errors.Is(m.runErr, context.Canceled) {
		return m.runErr
	}

	return nil
}
