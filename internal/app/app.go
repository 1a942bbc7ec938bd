// Package app wires the stores, the Telegram session bridge and the HTTP
// API together and exposes the run modes used by the CLI:
//
//   - Serve: long-running session with HTTP API and optional periodic re-scrape
//   - Scrape / Check: one-shot operations on a single channel
//   - Migrate: document store schema setup
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/llm"
	"github.com/lueurxax/telegrasper/internal/ingest/manager"
	"github.com/lueurxax/telegrasper/internal/ingest/reader"
	"github.com/lueurxax/telegrasper/internal/platform/config"
	"github.com/lueurxax/telegrasper/internal/platform/events"
	"github.com/lueurxax/telegrasper/internal/platform/worker"
	"github.com/lueurxax/telegrasper/internal/process/linking"
	"github.com/lueurxax/telegrasper/internal/process/media"
	"github.com/lueurxax/telegrasper/internal/process/pipeline"
	"github.com/lueurxax/telegrasper/internal/process/screening"
	"github.com/lueurxax/telegrasper/internal/server"
	"github.com/lueurxax/telegrasper/internal/storage/graph"
	"github.com/lueurxax/telegrasper/internal/storage/objects"
)

const (
	logFieldChannelID = "channel_id"
	taskRescrape      = "rescrape"
)

// App holds the opened backends.
type App struct {
	cfg     *config.Config
	logger  *zerolog.Logger
	docs    DocStore
	graph   *graph.Store
	objects *objects.GCS
	bus     *events.Bus
	closers []func()
}

// Open connects every backend a session needs.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	if err := a.open(ctx); err != nil {
		a.Close()

		return nil, err
	}

	return a, nil
}

func (a *App) open(ctx context.Context) error {
	docs, closeDocs, err := OpenDocStore(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}

	if err := a.attachDocStore(ctx, docs, closeDocs); err != nil {
		return err
	}

	g, err := graph.New(ctx, graph.Options{
		URI:      a.cfg.Neo4jURI,
		User:     a.cfg.Neo4jUser,
		Password: a.cfg.Neo4jPassword,
		Database: a.cfg.Neo4jDatabase,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("graph store: %w", err)
	}

	a.graph = g
	a.closers = append(a.closers, func() { _ = g.Close(context.Background()) })

	gcs, err := objects.NewGCS(ctx, a.cfg.GCSCredentialsFile, a.logger)
	if err != nil {
		return fmt.Errorf("object store: %w", err)
	}

	a.objects = gcs
	a.closers = append(a.closers, func() { _ = gcs.Close() })

	bus, err := events.New(a.cfg.NATSURL, a.cfg.NATSSubjectPrefix, a.logger)
	if err != nil {
		return fmt.Errorf("event bus: %w", err)
	}

	a.bus = bus
	a.closers = append(a.closers, bus.Close)

	return nil
}

// attachDocStore adopts docs and brings its schema up to date. Concurrent
// scrapes rely on the unique message index it creates.
func (a *App) attachDocStore(ctx context.Context, docs DocStore, closeDocs func()) error {
	a.docs = docs
	a.closers = append(a.closers, closeDocs)

	if err := docs.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", docs.Name(), err)
	}

	return nil
}

// Close releases backends in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}

	a.closers = nil
}

func (a *App) newManager() *manager.Manager {
	connector := reader.NewConnector(a.docs, a.logger)

	pipe := pipeline.New(
		connector,
		a.docs,
		linking.New(a.docs, a.graph, a.logger),
		media.New(a.objects, a.cfg.GCSBucket, a.logger),
		a.bus,
		a.cfg.MessageURLBase,
		a.logger,
	)

	screener := screening.New(connector, llm.NewClassifier(a.cfg, a.logger), a.logger)

	return manager.New(reader.NewClient(a.cfg, a.logger), pipe, screener, a.logger)
}

// Serve runs the session, the HTTP API and, when configured, the periodic
// re-scrape until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	m := a.newManager()
	if err := m.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	defer func() {
		if err := m.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Session closed with error")
		}
	}()

	srv := server.New(fmt.Sprintf(":%d", a.cfg.HTTPPort), m, []server.Check{
		{Name: a.docs.Name(), Fn: a.docs.Ping},
		{Name: "neo4j", Fn: a.graph.Ping},
	}, a.logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)

	go func() { errCh <- srv.Run(runCtx) }()

	running := 1

	if a.cfg.RescrapeSchedule != "" {
		running++

		go func() {
			errCh <- worker.RunCron(runCtx, taskRescrape, []worker.CronTask{{
				Name:    taskRescrape,
				Spec:    a.cfg.RescrapeSchedule,
				Timeout: a.cfg.RescrapeTimeout,
				Run:     func(ctx context.Context) error { return a.rescrapeAll(ctx, m) },
			}}, a.logger)
		}()
	}

	var firstErr error

	select {
	case <-ctx.Done():
	case <-m.Done():
		firstErr = m.Close()
		if firstErr == nil {
			firstErr = coreerrors.ErrManagerClosed
		}
	case err := <-errCh:
		running--
		firstErr = err
	}

	cancel()

	for ; running > 0; running-- {
		if err := <-errCh; firstErr == nil && !errors.Is(err, context.Canceled) {
			firstErr = err
		}
	}

	if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
		return firstErr
	}

	return ctx.Err()
}

// rescrapeAll scrapes every tracked channel in turn. Scrapes are idempotent,
// so re-running over already archived messages only touches the graph.
func (a *App) rescrapeAll(ctx context.Context, bridge server.Bridge) error {
	defer worker.RecoverPanic(a.logger, taskRescrape)

	ids, err := a.docs.ListChannelIDs(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	a.logger.Info().Int("channels", len(ids)).Msg("Re-scraping tracked channels")

	for i, id := range ids {
		key, err := domain.ParseChannelKey(strconv.FormatInt(id, 10))
		if err != nil {
			a.logger.Warn().Err(err).Int64(logFieldChannelID, id).Msg("Skipping channel with unusable id")

			continue
		}

		res, err := bridge.Scrape(ctx, key)
		if err != nil {
			return fmt.Errorf("scrape %d: %w", id, err)
		}

		a.logger.Info().
			Int64(logFieldChannelID, id).
			Str("status", string(res.Status)).
			Int("persisted", res.Persisted).
			Msg("Re-scrape finished")

		if i < len(ids)-1 {
			if err := worker.Wait(ctx, a.cfg.RescrapePause); err != nil {
				return err
			}
		}
	}

	return nil
}

// Scrape opens a session, scrapes one channel and closes the session.
func (a *App) Scrape(ctx context.Context, key domain.ChannelKey) (domain.ScrapeResult, error) {
	m := a.newManager()
	if err := m.Start(ctx); err != nil {
		return domain.ScrapeResult{}, fmt.Errorf("start session: %w", err)
	}

	res, err := m.Scrape(ctx, key)

	return res, errors.Join(err, m.Close())
}

// Check opens a session, screens one channel and closes the session.
func (a *App) Check(ctx context.Context, key domain.ChannelKey) (bool, error) {
	m := a.newManager()
	if err := m.Start(ctx); err != nil {
		return false, fmt.Errorf("start session: %w", err)
	}

	ok, err := m.Check(ctx, key)

	return ok, errors.Join(err, m.Close())
}
