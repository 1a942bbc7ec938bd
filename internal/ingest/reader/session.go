package reader

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/ports"
	"github.com/lueurxax/telegrasper/internal/platform/observability"
)

const floodWaitType = "FLOOD_WAIT"

// SessionOptions tunes paging and media limits.
type SessionOptions struct {
	PageSize      int
	FloodWaitMax  time.Duration
	MaxMediaBytes int64
}

// Session is a live MTProto session implementing ports.Session.
type Session struct {
	api     *tg.Client
	limiter *rate.Limiter
	opts    SessionOptions
	logger  *zerolog.Logger
}

func NewSession(api *tg.Client, limiter *rate.Limiter, opts SessionOptions, logger *zerolog.Logger) *Session {
	return &Session{api: api, limiter: limiter, opts: opts, logger: logger}
}

// Resolve turns a channel key into a channel. Nothing is cached.
func (s *Session) Resolve(ctx context.Context, key domain.ChannelKey) (*domain.Channel, error) {
	var (
		ch  *tg.Channel
		err error
	)

	switch key.Kind {
	case domain.KeyUsername:
		ch, err = s.resolveUsername(ctx, key.Username)
	case domain.KeyInvite:
		ch, err = s.resolveInvite(ctx, key.InviteHash)
	case domain.KeyNumericID:
		ch, err = s.resolveID(ctx, key.ID, key.AccessHash)
	default:
		return nil, fmt.Errorf("%w: key kind %s", coreerrors.ErrInvalidInput, key.Kind)
	}

	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", key, err)
	}

	return channelFromTG(ch), nil
}

func (s *Session) resolveUsername(ctx context.Context, username string) (*tg.Channel, error) {
	var resolved *tg.ContactsResolvedPeer

	err := s.call(ctx, func(ctx context.Context) error {
		var err error

		resolved, err = s.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})

		return err
	})
	if err != nil {
		return nil, err
	}

	return firstChannel(resolved.Chats)
}

func (s *Session) resolveInvite(ctx context.Context, hash string) (*tg.Channel, error) {
	var invite tg.ChatInviteClass

	err := s.call(ctx, func(ctx context.Context) error {
		var err error

		invite, err = s.api.MessagesCheckChatInvite(ctx, hash)

		return err
	})
	if err != nil {
		return nil, err
	}

	switch i := invite.(type) {
	case *tg.ChatInviteAlready:
		return firstChannel([]tg.ChatClass{i.Chat})
	case *tg.ChatInvitePeek:
		return firstChannel([]tg.ChatClass{i.Chat})
	default:
		return nil, fmt.Errorf("%w: invite not joined (%T)", coreerrors.ErrChannelUnresolvable, invite)
	}
}

// resolveID needs the access hash the channel was last seen with. Telegram
// answers CHANNEL_INVALID to a zero hash for nearly every channel.
func (s *Session) resolveID(ctx context.Context, id, accessHash int64) (*tg.Channel, error) {
	var chats tg.MessagesChatsClass

	err := s.call(ctx, func(ctx context.Context) error {
		var err error

		chats, err = s.api.ChannelsGetChannels(ctx, []tg.InputChannelClass{&tg.InputChannel{ChannelID: id, AccessHash: accessHash}})

		return err
	})
	if err != nil {
		return nil, err
	}

	switch c := chats.(type) {
	case *tg.MessagesChats:
		return firstChannel(c.Chats)
	case *tg.MessagesChatsSlice:
		return firstChannel(c.Chats)
	default:
		return nil, fmt.Errorf("%w: %T", coreerrors.ErrUnexpectedType, chats)
	}
}

func firstChannel(chats []tg.ChatClass) (*tg.Channel, error) {
	for _, c := range chats {
		if ch, ok := c.(*tg.Channel); ok {
			return ch, nil
		}
	}

	if len(chats) > 0 {
		return nil, coreerrors.ErrNotAChannel
	}

	return nil, coreerrors.ErrChannelUnresolvable
}

func channelFromTG(ch *tg.Channel) *domain.Channel {
	return &domain.Channel{
		ID:         ch.ID,
		Username:   ch.Username,
		Title:      ch.Title,
		AccessHash: ch.AccessHash,
	}
}

// History pages through the channel newest first.
func (s *Session) History(_ context.Context, ch *domain.Channel) ports.MessageIterator {
	return newHistoryIterator(historyFunc(func(ctx context.Context, req *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error) {
		var res tg.MessagesMessagesClass

		err := s.call(ctx, func(ctx context.Context) error {
			var err error

			res, err = s.api.MessagesGetHistory(ctx, req)

			return err
		})

		return res, err
	}), ch, s.opts.PageSize)
}

// Download fetches attachment bytes.
func (s *Session) Download(ctx context.Context, a *domain.Attachment) ([]byte, error) {
	loc, ok := a.Location.(tg.InputFileLocationClass)
	if !ok {
		return nil, fmt.Errorf("%w: %T", coreerrors.ErrUnsupportedMedia, a.Location)
	}

	if s.opts.MaxMediaBytes > 0 && a.Size > s.opts.MaxMediaBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit", coreerrors.ErrUnsupportedMedia, a.Size)
	}

	buf := new(bytes.Buffer)

	err := s.call(ctx, func(ctx context.Context) error {
		buf.Reset()

		_, err := downloader.NewDownloader().Download(s.api, loc).Stream(ctx, buf)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}

	return buf.Bytes(), nil
}

// call throttles fn and retries it after FLOOD_WAIT up to FloodWaitMax.
func (s *Session) call(ctx context.Context, fn func(ctx context.Context) error) error {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		floodErr, ok := tgerr.As(err)
		if !ok || floodErr.Type != floodWaitType {
			return err
		}

		wait := time.Duration(floodErr.Argument) * time.Second
		if s.opts.FloodWaitMax > 0 && wait > s.opts.FloodWaitMax {
			return err
		}

		observability.TelegramFloodWaits.Inc()
		s.logger.Warn().Int("seconds", floodErr.Argument).Msg("flood wait")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
