// Package pipeline scrapes a channel into the document store, linking argot
// into the graph and media into object storage along the way.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/ports"
	"github.com/lueurxax/telegrasper/internal/platform/observability"
)

const (
	// MaxMessages bounds how many messages one scrape processes.
	MaxMessages = 500
	// ProgressEvery is the progress signal interval in processed messages.
	ProgressEvery = 10
)

// Log field constants
const (
	LogFieldRunID     = "run_id"
	LogFieldKey       = "channel_key"
	LogFieldChannelID = "channel_id"
	LogFieldMsgID     = "msg_id"
)

// MsgConnectFailed is the warning outcome message for unresolvable channels.
const MsgConnectFailed = "Failed to connect to the channel."

// Linker records argot matches in the graph.
type Linker interface {
	Link(ctx context.Context, channelID int64, chatID int, text string, lex domain.Lexicon) ([]string, []string, error)
}

// MediaResolver stores attachments at most once.
type MediaResolver interface {
	EnsureFolder(ctx context.Context, channelID int64) error
	Resolve(ctx context.Context, session ports.Session, channelID int64, messageID int, msg domain.SourceMessage) (*domain.Media, error)
}

// Events receives progress and outcomes.
type Events interface {
	ports.ProgressReporter
	ports.ResultPublisher
}

// Pipeline runs the per-channel ingestion pass.
type Pipeline struct {
	connector ports.ChannelConnector
	docs      ports.DocumentStore
	linker    Linker
	media     MediaResolver
	events    Events
	urlBase   string
	logger    *zerolog.Logger
}

// New creates a Pipeline. An empty urlBase falls back to DefaultURLBase.
func New(connector ports.ChannelConnector, docs ports.DocumentStore, linker Linker, media MediaResolver, events Events, urlBase string, logger *zerolog.Logger) *Pipeline {
	if urlBase == "" {
		urlBase = DefaultURLBase
	}

	return &Pipeline{
		connector: connector,
		docs:      docs,
		linker:    linker,
		media:     media,
		events:    events,
		urlBase:   urlBase,
		logger:    logger,
	}
}

type scrapeRun struct {
	id      string
	key     domain.ChannelKey
	channel *domain.Channel
	lexicon domain.Lexicon
	session ports.Session
	logger  zerolog.Logger
	result  domain.ScrapeResult
}

// Scrape processes up to MaxMessages of the channel newest first. It never
// returns an error: failures are reported through the result status.
// Records written before a failure stay committed.
func (p *Pipeline) Scrape(ctx context.Context, session ports.Session, key domain.ChannelKey) domain.ScrapeResult {
	start := time.Now()

	run := &scrapeRun{id: uuid.NewString(), key: key, session: session}
	run.logger = p.logger.With().Str(LogFieldRunID, run.id).Str(LogFieldKey, key.String()).Logger()

	p.execute(ctx, run)

	observability.Scrapes.WithLabelValues(string(run.result.Status)).Inc()
	observability.ScrapeDurationSeconds.Observe(time.Since(start).Seconds())

	if p.events != nil {
		p.events.Publish(ctx, key.String(), run.result)
	}

	return run.result
}

func (p *Pipeline) execute(ctx context.Context, run *scrapeRun) {
	defer func() {
		if r := recover(); r != nil {
			run.logger.Error().Interface("panic", r).Int("processed", run.result.Processed).Msg("Scrape panicked")
			p.fail(run, fmt.Errorf("panic: %v", r))
		}
	}()

	run.channel = p.connector.Connect(ctx, run.session, run.key)
	if run.channel == nil {
		run.logger.Warn().Msg(MsgConnectFailed)
		run.result.Status = domain.ScrapeWarning
		run.result.Message = MsgConnectFailed

		return
	}

	run.result.ChannelID = run.channel.ID
	run.logger = run.logger.With().Int64(LogFieldChannelID, run.channel.ID).Logger()

	if err := p.iterate(ctx, run); err != nil {
		p.fail(run, err)

		return
	}

	run.result.Status = domain.ScrapeSuccess
	run.result.Message = fmt.Sprintf(
		"Archived all chats for the channel (key: %s) in %s, channel ID %d: %d processed, %d new, %d already stored",
		run.key, p.docs.Name(), run.channel.ID, run.result.Processed, run.result.Persisted, run.result.Duplicates,
	)
	run.logger.Info().
		Int("processed", run.result.Processed).
		Int("persisted", run.result.Persisted).
		Int("duplicates", run.result.Duplicates).
		Msg("Channel scraped")
}

func (p *Pipeline) fail(run *scrapeRun, err error) {
	run.result.Status = domain.ScrapeError
	run.result.Message = fmt.Sprintf("An error occurred while scraping channel %s: %v", run.key, err)
	run.logger.Error().Err(err).Int("processed", run.result.Processed).Msg("Scrape aborted")
}

func (p *Pipeline) iterate(ctx context.Context, run *scrapeRun) error {
	if err := p.media.EnsureFolder(ctx, run.channel.ID); err != nil {
		return fmt.Errorf("ensure media folder: %w", err)
	}

	lex, err := p.docs.LoadLexicon(ctx)
	if err != nil {
		return fmt.Errorf("load lexicon: %w", err)
	}

	run.lexicon = lex

	it := run.session.History(ctx, run.channel)

	for run.result.Processed < MaxMessages && it.Next(ctx) {
		if err := p.processMessage(ctx, run, it.Value()); err != nil {
			return err
		}

		run.result.Processed++

		if run.result.Processed%ProgressEvery == 0 {
			p.reportProgress(ctx, run)
		}
	}

	if err := it.Err(); err != nil {
		return fmt.Errorf("stream messages: %w", err)
	}

	return nil
}

func (p *Pipeline) reportProgress(ctx context.Context, run *scrapeRun) {
	run.logger.Info().Msgf("%d posts scraped from %s", run.result.Processed, run.key)

	if p.events == nil {
		return
	}

	p.events.Report(ctx, domain.Progress{
		RunID:     run.id,
		Key:       run.key.String(),
		ChannelID: run.channel.ID,
		Processed: run.result.Processed,
	})
}

// processMessage links first, unconditionally, then persists only if the
// record is new.
func (p *Pipeline) processMessage(ctx context.Context, run *scrapeRun, src domain.SourceMessage) error {
	argotIDs, drugIDs, err := p.linker.Link(ctx, run.channel.ID, src.ID, src.Text, run.lexicon)
	if err != nil {
		return fmt.Errorf("link message %d: %w", src.ID, err)
	}

	exists, err := p.docs.MessageExists(ctx, run.channel.ID, src.ID)
	if err != nil {
		return fmt.Errorf("lookup message %d: %w", src.ID, err)
	}

	if exists {
		p.markDuplicate(run, src.ID)

		return nil
	}

	media, err := p.media.Resolve(ctx, run.session, run.channel.ID, src.ID, src)
	if err != nil {
		return fmt.Errorf("media for message %d: %w", src.ID, err)
	}

	record := BuildMessage(p.urlBase, run.channel, src, media, argotIDs, drugIDs)

	if err := p.docs.InsertMessage(ctx, &record); err != nil {
		if coreerrors.Is(err, coreerrors.ErrDuplicate) {
			p.markDuplicate(run, src.ID)

			return nil
		}

		return fmt.Errorf("insert message %d: %w", src.ID, err)
	}

	if err := p.docs.TouchChannel(ctx, run.channel.ID, record.Timestamp); err != nil {
		return fmt.Errorf("update channel %d: %w", run.channel.ID, err)
	}

	run.result.Persisted++

	observability.MessagesIngested.Inc()

	return nil
}

func (p *Pipeline) markDuplicate(run *scrapeRun, id int) {
	run.result.Duplicates++

	observability.MessagesDuplicate.Inc()
	run.logger.Warn().Int(LogFieldMsgID, id).Msg("Message already stored, skipping")
}
