package pipeline

import (
	"fmt"
	"strings"

	"github.com/lueurxax/telegrasper/internal/core/domain"
)

// DefaultURLBase is the public web front of Telegram.
const DefaultURLBase = "https://t.me"

// userLike matches platform user entities.
type userLike interface {
	GetID() int64
	GetUsername() (string, bool)
	GetFirstName() (string, bool)
	GetLastName() (string, bool)
}

// channelLike matches platform channel entities.
type channelLike interface {
	GetID() int64
	GetTitle() string
}

// ClassifySender maps a raw sender entity to SenderInfo by the accessors it offers.
func ClassifySender(sender any) domain.SenderInfo {
	switch s := sender.(type) {
	case userLike:
		id := s.GetID()

		return domain.SenderInfo{
			Type:      domain.SenderUser,
			Name:      optional(s.GetUsername()),
			FirstName: optional(s.GetFirstName()),
			LastName:  optional(s.GetLastName()),
			SenderID:  &id,
		}
	case channelLike:
		id := s.GetID()
		title := s.GetTitle()

		return domain.SenderInfo{
			Type:     domain.SenderChannel,
			Name:     &title,
			SenderID: &id,
		}
	default:
		return domain.SenderInfo{Type: domain.SenderUnknown}
	}
}

func optional(v string, ok bool) *string {
	if !ok {
		return nil
	}

	return &v
}

// MessageURL builds the public link of a message. Channels without a
// username get the private /c/ form.
func MessageURL(base string, ch *domain.Channel, id int) string {
	base = strings.TrimSuffix(base, "/")

	if ch.Username != "" {
		return fmt.Sprintf("%s/%s/%d", base, ch.Username, id)
	}

	return fmt.Sprintf("%s/c/%s/%d", base, domain.StripChannelPrefix(ch.ID), id)
}

// BuildMessage assembles the canonical record.
func BuildMessage(base string, ch *domain.Channel, src domain.SourceMessage, media *domain.Media, argotIDs, drugIDs []string) domain.Message {
	return domain.Message{
		ChannelID: ch.ID,
		ID:        src.ID,
		Timestamp: src.Date.UTC(),
		Text:      src.Text,
		Sender:    ClassifySender(src.Sender),
		Views:     src.Views,
		URL:       MessageURL(base, ch, src.ID),
		Media:     media,
		ArgotIDs:  argotIDs,
		DrugIDs:   drugIDs,
	}
}
