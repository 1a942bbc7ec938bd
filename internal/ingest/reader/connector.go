package reader

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/ports"
)

// Connector resolves channel keys over a live session. Resolution failures
// are logged and reported as nil.
//
// Every resolved channel is saved to the directory, and numeric keys are
// completed from it: Telegram needs the access hash to look a channel up by id.
type Connector struct {
	directory ports.ChannelDirectory
	logger    *zerolog.Logger
}

// NewConnector creates a Connector. A nil directory disables handle reuse.
func NewConnector(directory ports.ChannelDirectory, logger *zerolog.Logger) *Connector {
	return &Connector{directory: directory, logger: logger}
}

func (c *Connector) Connect(ctx context.Context, session ports.Session, key domain.ChannelKey) *domain.Channel {
	ch, err := session.Resolve(ctx, c.complete(ctx, key))
	if err != nil {
		c.logger.Debug().Err(err).Str("channel_key", key.String()).Msg("Channel resolution failed")

		return nil
	}

	if ch == nil {
		return nil
	}

	c.logger.Debug().Int64("channel_id", ch.ID).Str("username", ch.Username).Msg("Channel resolved")
	c.remember(ctx, ch)

	return ch
}

// complete adds the saved access hash to a numeric key.
func (c *Connector) complete(ctx context.Context, key domain.ChannelKey) domain.ChannelKey {
	if c.directory == nil || key.Kind != domain.KeyNumericID || key.AccessHash != 0 {
		return key
	}

	known, err := c.directory.LookupChannel(ctx, key.ID)
	if err != nil {
		if !errors.Is(err, coreerrors.ErrNotFound) {
			c.logger.Warn().Err(err).Int64("channel_id", key.ID).Msg("Channel handle lookup failed")
		}

		return key
	}

	return key.WithAccessHash(known.AccessHash)
}

func (c *Connector) remember(ctx context.Context, ch *domain.Channel) {
	if c.directory == nil || ch.AccessHash == 0 {
		return
	}

	if err := c.directory.SaveChannel(ctx, ch); err != nil {
		c.logger.Warn().Err(err).Int64("channel_id", ch.ID).Msg("Failed to save channel handle")
	}
}
