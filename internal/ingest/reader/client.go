// Package reader talks MTProto to Telegram as a user account: it resolves
// channel keys, pages through channel history and downloads media.
package reader

import (
	"context"
	"fmt"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/telegrasper/internal/core/ports"
	"github.com/lueurxax/telegrasper/internal/platform/config"
)

// rateLimiterBurst allows short bursts of RPCs after idle periods.
const rateLimiterBurst = 3

// Client opens authenticated sessions. It implements manager.Runner.
type Client struct {
	cfg     *config.Config
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	return &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.TGRateLimitRPS), rateLimiterBurst),
		logger:  logger,
	}
}

// Run connects, authenticates if the stored session is missing or expired,
// and keeps the connection open while fn runs.
func (c *Client) Run(ctx context.Context, fn func(ctx context.Context, session ports.Session) error) error {
	client := telegram.NewClient(c.cfg.TGAPIID, c.cfg.TGAPIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{
			Path: c.cfg.TGSessionPath,
		},
	})

	return client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, c.authFlow()); err != nil {
			return fmt.Errorf("telegram auth: %w", err)
		}

		c.logger.Info().Msg("Successfully authenticated as user")

		return fn(ctx, NewSession(tg.NewClient(client), c.limiter, SessionOptions{
			PageSize:      c.cfg.TGHistoryPage,
			FloodWaitMax:  c.cfg.TGFloodWaitLimit,
			MaxMediaBytes: c.cfg.MaxMediaBytes,
		}, c.logger))
	})
}
