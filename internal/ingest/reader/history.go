package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
)

const defaultPageSize = 100

type historyFunc func(ctx context.Context, req *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)

// historyIterator fetches one page at a time, only when the buffer runs dry.
type historyIterator struct {
	fetch    historyFunc
	channel  *domain.Channel
	pageSize int

	buf      []domain.SourceMessage
	pos      int
	offsetID int
	done     bool
	cur      domain.SourceMessage
	err      error
}

func newHistoryIterator(fetch historyFunc, ch *domain.Channel, pageSize int) *historyIterator {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &historyIterator{fetch: fetch, channel: ch, pageSize: pageSize}
}

func (it *historyIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}

	for it.pos >= len(it.buf) {
		if it.done {
			return false
		}

		if err := it.nextPage(ctx); err != nil {
			it.err = err

			return false
		}
	}

	it.cur = it.buf[it.pos]
	it.pos++

	return true
}

func (it *historyIterator) Value() domain.SourceMessage {
	return it.cur
}

func (it *historyIterator) Err() error {
	return it.err
}

func (it *historyIterator) nextPage(ctx context.Context) error {
	res, err := it.fetch(ctx, &tg.MessagesGetHistoryRequest{
		Peer: &tg.InputPeerChannel{
			ChannelID:  it.channel.ID,
			AccessHash: it.channel.AccessHash,
		},
		OffsetID: it.offsetID,
		Limit:    it.pageSize,
	})
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	var (
		messages []tg.MessageClass
		chats    []tg.ChatClass
		users    []tg.UserClass
		complete bool
	)

	switch h := res.(type) {
	case *tg.MessagesMessages:
		messages, chats, users = h.Messages, h.Chats, h.Users
		complete = true
	case *tg.MessagesMessagesSlice:
		messages, chats, users = h.Messages, h.Chats, h.Users
	case *tg.MessagesChannelMessages:
		messages, chats, users = h.Messages, h.Chats, h.Users
	case *tg.MessagesMessagesNotModified:
		complete = true
	default:
		return fmt.Errorf("%w: %T", coreerrors.ErrUnexpectedType, res)
	}

	peers := newPeerIndex(chats, users)

	it.buf = it.buf[:0]
	it.pos = 0

	for _, m := range messages {
		src, ok := convertMessage(m, it.channel.ID, peers)
		if !ok {
			continue
		}

		it.buf = append(it.buf, src)
	}

	if n := len(messages); n > 0 {
		it.offsetID = messageID(messages[n-1])
	}

	if complete || len(messages) == 0 || it.offsetID <= 1 {
		it.done = true
	}

	return nil
}

func messageID(m tg.MessageClass) int {
	switch msg := m.(type) {
	case *tg.Message:
		return msg.ID
	case *tg.MessageService:
		return msg.ID
	case *tg.MessageEmpty:
		return msg.ID
	default:
		return 0
	}
}

type peerIndex struct {
	users    map[int64]*tg.User
	channels map[int64]*tg.Channel
}

func newPeerIndex(chats []tg.ChatClass, users []tg.UserClass) peerIndex {
	idx := peerIndex{
		users:    make(map[int64]*tg.User, len(users)),
		channels: make(map[int64]*tg.Channel, len(chats)),
	}

	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			idx.users[user.ID] = user
		}
	}

	for _, c := range chats {
		if ch, ok := c.(*tg.Channel); ok {
			idx.channels[ch.ID] = ch
		}
	}

	return idx
}

// sender resolves the author peer. Posts without an author belong to the channel.
func (idx peerIndex) sender(from tg.PeerClass, channelID int64) any {
	switch p := from.(type) {
	case nil:
		if ch, ok := idx.channels[channelID]; ok {
			return ch
		}
	case *tg.PeerUser:
		if u, ok := idx.users[p.UserID]; ok {
			return u
		}
	case *tg.PeerChannel:
		if ch, ok := idx.channels[p.ChannelID]; ok {
			return ch
		}
	}

	return nil
}

// convertMessage keeps service messages as text-less entries so that the
// processing order and cap match what the server returned.
func convertMessage(m tg.MessageClass, channelID int64, peers peerIndex) (domain.SourceMessage, bool) {
	switch msg := m.(type) {
	case *tg.Message:
		src := domain.SourceMessage{
			ID:         msg.ID,
			Date:       time.Unix(int64(msg.Date), 0).UTC(),
			Text:       msg.Message,
			Sender:     peers.sender(msg.FromID, channelID),
			Attachment: attachmentOf(msg.Media),
		}

		if views, ok := msg.GetViews(); ok {
			src.Views = &views
		}

		return src, true
	case *tg.MessageService:
		return domain.SourceMessage{
			ID:     msg.ID,
			Date:   time.Unix(int64(msg.Date), 0).UTC(),
			Sender: peers.sender(msg.FromID, channelID),
		}, true
	default:
		return domain.SourceMessage{}, false
	}
}

// photoMimeType is what Telegram serves full-size photos as.
const photoMimeType = "image/jpeg"

// attachmentOf returns a downloadable handle for photos and documents, nil otherwise.
func attachmentOf(media tg.MessageMediaClass) *domain.Attachment {
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		photo, ok := m.Photo.(*tg.Photo)
		if !ok {
			return nil
		}

		thumb, size := largestPhotoSize(photo.Sizes)
		if thumb == "" {
			return nil
		}

		return &domain.Attachment{
			Kind:     domain.AttachmentPhoto,
			MimeType: photoMimeType,
			Size:     size,
			Location: &tg.InputPhotoFileLocation{
				ID:            photo.ID,
				AccessHash:    photo.AccessHash,
				FileReference: photo.FileReference,
				ThumbSize:     thumb,
			},
		}
	case *tg.MessageMediaDocument:
		doc, ok := m.Document.(*tg.Document)
		if !ok {
			return nil
		}

		return &domain.Attachment{
			Kind:     domain.AttachmentDocument,
			MimeType: doc.MimeType,
			Size:     doc.Size,
			Location: &tg.InputDocumentFileLocation{
				ID:            doc.ID,
				AccessHash:    doc.AccessHash,
				FileReference: doc.FileReference,
			},
		}
	default:
		return nil
	}
}

// largestPhotoSize picks the size with the most pixels and returns its type
// and byte size (zero for progressive sizes).
func largestPhotoSize(sizes []tg.PhotoSizeClass) (string, int64) {
	var (
		thumb  string
		bytes  int64
		pixels int
	)

	for _, size := range sizes {
		switch s := size.(type) {
		case *tg.PhotoSize:
			if s.W*s.H > pixels {
				pixels, thumb, bytes = s.W*s.H, s.Type, int64(s.Size)
			}
		case *tg.PhotoSizeProgressive:
			if s.W*s.H > pixels {
				var largest int
				if n := len(s.Sizes); n > 0 {
					largest = s.Sizes[n-1]
				}

				pixels, thumb, bytes = s.W*s.H, s.Type, int64(largest)
			}
		}
	}

	return thumb, bytes
}
