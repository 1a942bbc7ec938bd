// Package screening decides from a small text sample whether a channel is
// worth a full scrape.
package screening

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	"github.com/lueurxax/telegrasper/internal/core/ports"
	"github.com/lueurxax/telegrasper/internal/platform/observability"
)

// MaxSampleMessages caps the number of labeled text lines in a sample.
const MaxSampleMessages = 10

// Screener samples recent messages and asks the classifier for a verdict.
type Screener struct {
	connector  ports.ChannelConnector
	classifier ports.Classifier
	logger     *zerolog.Logger
}

// New creates a Screener.
func New(connector ports.ChannelConnector, classifier ports.Classifier, logger *zerolog.Logger) *Screener {
	return &Screener{connector: connector, classifier: classifier, logger: logger}
}

// Screen accepts a *domain.Channel or a domain.ChannelKey. It returns false
// when the key cannot be resolved and on any streaming or classifier failure.
func (s *Screener) Screen(ctx context.Context, session ports.Session, target any) (verdict bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Screening panicked")
			observability.Screenings.WithLabelValues(observability.VerdictFailed).Inc()

			verdict = false
		}
	}()

	ch := s.channel(ctx, session, target)
	if ch == nil {
		observability.Screenings.WithLabelValues(observability.VerdictFailed).Inc()

		return false
	}

	sample, err := Sample(ctx, session.History(ctx, ch))
	if err != nil {
		s.logger.Warn().Err(err).Int64("channel_id", ch.ID).Msg("Failed to sample channel")
		observability.Screenings.WithLabelValues(observability.VerdictFailed).Inc()

		return false
	}

	ok, err := s.classifier.Classify(ctx, sample)
	if err != nil {
		s.logger.Warn().Err(err).Int64("channel_id", ch.ID).Msg("Classifier failed")
		observability.Screenings.WithLabelValues(observability.VerdictFailed).Inc()

		return false
	}

	label := observability.VerdictClean
	if ok {
		label = observability.VerdictSuspicious
	}

	observability.Screenings.WithLabelValues(label).Inc()
	s.logger.Info().Int64("channel_id", ch.ID).Bool("suspicious", ok).Msg("Channel screened")

	return ok
}

func (s *Screener) channel(ctx context.Context, session ports.Session, target any) *domain.Channel {
	switch t := target.(type) {
	case *domain.Channel:
		return t
	case domain.ChannelKey:
		return s.connector.Connect(ctx, session, t)
	default:
		s.logger.Warn().Str("type", fmt.Sprintf("%T", target)).Msg("Unsupported screening target")

		return nil
	}
}

// Sample collects at most MaxSampleMessages labeled text lines from it,
// skipping messages without text. Nothing past the last sampled message is pulled.
func Sample(ctx context.Context, it ports.MessageIterator) (string, error) {
	var sb strings.Builder

	n := 1

	for n <= MaxSampleMessages && it.Next(ctx) {
		msg := it.Value()
		if msg.Text == "" {
			continue
		}

		fmt.Fprintf(&sb, "chat #%d: %s\n", n, msg.Text)
		n++
	}

	if err := it.Err(); err != nil {
		return "", fmt.Errorf("stream messages: %w", err)
	}

	return sb.String(), nil
}
