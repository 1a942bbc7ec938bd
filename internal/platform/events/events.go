// Package events reports scrape progress and outcomes. Every event is
// logged; when a NATS connection is configured it is also published as JSON.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegrasper/internal/core/domain"
)

const (
	subjectProgress = "scrape.progress"
	subjectResult   = "scrape.result"

	clientName = "telegrasper"
)

// conn is the subset of *nats.Conn used for publishing.
type conn interface {
	Publish(subject string, data []byte) error
}

// ResultEvent is the payload published for a finished scrape.
type ResultEvent struct {
	Key        string              `json:"key"`
	FinishedAt time.Time           `json:"finishedAt"`
	Result     domain.ScrapeResult `json:"result"`
}

// Bus implements ports.ProgressReporter and ports.ResultPublisher.
type Bus struct {
	nc     conn
	close  func()
	prefix string
	logger *zerolog.Logger
}

// New connects to NATS when url is set. With an empty url events are only logged.
func New(url, prefix string, logger *zerolog.Logger) (*Bus, error) {
	b := &Bus{prefix: prefix, logger: logger}

	if url == "" {
		return b, nil
	}

	nc, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	b.nc = nc
	b.close = nc.Close

	logger.Info().Str("url", url).Msg("Connected to NATS")

	return b, nil
}

func (b *Bus) subject(name string) string {
	if b.prefix == "" {
		return name
	}

	return b.prefix + "." + name
}

// Report logs a progress tick and publishes it.
func (b *Bus) Report(_ context.Context, p domain.Progress) {
	b.logger.Info().
		Str("run_id", p.RunID).
		Str("channel_key", p.Key).
		Int64("channel_id", p.ChannelID).
		Int("processed", p.Processed).
		Msg("Scrape progress")

	b.publish(subjectProgress, p)
}

// Publish logs the outcome of a scrape and publishes it.
func (b *Bus) Publish(_ context.Context, key string, res domain.ScrapeResult) {
	var event *zerolog.Event

	switch res.Status {
	case domain.ScrapeError:
		event = b.logger.Error()
	case domain.ScrapeWarning:
		event = b.logger.Warn()
	default:
		event = b.logger.Info()
	}

	event.
		Str("channel_key", key).
		Str("status", string(res.Status)).
		Int("processed", res.Processed).
		Int("persisted", res.Persisted).
		Int("duplicates", res.Duplicates).
		Msg(res.Message)

	b.publish(subjectResult, ResultEvent{Key: key, FinishedAt: time.Now().UTC(), Result: res})
}

func (b *Bus) publish(name string, payload any) {
	if b.nc == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error().Err(err).Str("subject", name).Msg("Failed to encode event")

		return
	}

	if err := b.nc.Publish(b.subject(name), data); err != nil {
		b.logger.Warn().Err(err).Str("subject", b.subject(name)).Msg("Failed to publish event")
	}
}

// Close drops the NATS connection if one was opened.
func (b *Bus) Close() {
	if b.close != nil {
		b.close()
	}
}
