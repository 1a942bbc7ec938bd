package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegrasper/internal/core/domain"
)

type fakeUser struct {
	id                   int64
	username, first, last string
}

func (u fakeUser) GetID() int64 { return u.id }

func (u fakeUser) GetUsername() (string, bool) { return u.username, u.username != "" }

func (u fakeUser) GetFirstName() (string, bool) { return u.first, u.first != "" }

func (u fakeUser) GetLastName() (string, bool) { return u.last, u.last != "" }

type fakeChannel struct {
	id    int64
	title string
}

func (c fakeChannel) GetID() int64 { return c.id }

func (c fakeChannel) GetTitle() string { return c.title }

func TestClassifySender(t *testing.T) {
	t.Run("user", func(t *testing.T) {
		got := ClassifySender(fakeUser{id: 5, username: "dealer", first: "Bob"})
		assert.Equal(t, domain.SenderUser, got.Type)
		require.NotNil(t, got.Name)
		assert.Equal(t, "dealer", *got.Name)
		require.NotNil(t, got.FirstName)
		assert.Equal(t, "Bob", *got.FirstName)
		assert.Nil(t, got.LastName)
		require.NotNil(t, got.SenderID)
		assert.Equal(t, int64(5), *got.SenderID)
	})

	t.Run("channel", func(t *testing.T) {
		got := ClassifySender(fakeChannel{id: 77, title: "Shop"})
		assert.Equal(t, domain.SenderChannel, got.Type)
		require.NotNil(t, got.Name)
		assert.Equal(t, "Shop", *got.Name)
		assert.Equal(t, int64(77), *got.SenderID)
	})

	t.Run("unknown", func(t *testing.T) {
		for _, s := range []any{nil, "string", 42} {
			got := ClassifySender(s)
			assert.Equal(t, domain.SenderUnknown, got.Type)
			assert.Nil(t, got.Name)
			assert.Nil(t, got.SenderID)
		}
	})
}

func TestMessageURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		ch   domain.Channel
		id   int
		want string
	}{
		{name: "public", base: DefaultURLBase, ch: domain.Channel{ID: 1, Username: "shop"}, id: 10, want: "https://t.me/shop/10"},
		{name: "private", base: DefaultURLBase, ch: domain.Channel{ID: 1234567}, id: 3, want: "https://t.me/c/1234567/3"},
		{name: "private marked id", base: DefaultURLBase, ch: domain.Channel{ID: -1001234567}, id: 3, want: "https://t.me/c/1234567/3"},
		{name: "trailing slash base", base: "https://t.me/", ch: domain.Channel{ID: 1, Username: "shop"}, id: 1, want: "https://t.me/shop/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MessageURL(tt.base, &tt.ch, tt.id))
		})
	}
}

func TestBuildMessage(t *testing.T) {
	views := 120
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	ch := &domain.Channel{ID: 9, Username: "shop"}

	msg := BuildMessage(DefaultURLBase, ch, domain.SourceMessage{
		ID:     4,
		Date:   ts,
		Text:   "buy",
		Views:  &views,
		Sender: fakeChannel{id: 9, title: "Shop"},
	}, &domain.Media{URL: "u", MimeType: "image/jpeg"}, []string{"A1"}, []string{"D1"})

	assert.Equal(t, int64(9), msg.ChannelID)
	assert.Equal(t, 4, msg.ID)
	assert.Equal(t, time.UTC, msg.Timestamp.Location())
	assert.True(t, msg.Timestamp.Equal(ts))
	assert.Equal(t, &views, msg.Views)
	assert.Equal(t, "https://t.me/shop/4", msg.URL)
	assert.Equal(t, domain.SenderChannel, msg.Sender.Type)
	assert.Equal(t, []string{"A1"}, msg.ArgotIDs)
	assert.Equal(t, []string{"D1"}, msg.DrugIDs)
}
