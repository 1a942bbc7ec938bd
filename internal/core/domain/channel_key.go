package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
)

// ChannelKeyKind tells which field of a ChannelKey is meaningful.
type ChannelKeyKind int

const (
	KeyNumericID ChannelKeyKind = iota + 1
	KeyUsername
	KeyInvite
)

// String implements fmt.Stringer.
func (k ChannelKeyKind) String() string {
	switch k {
	case KeyNumericID:
		return "id"
	case KeyUsername:
		return "username"
	case KeyInvite:
		return "invite"
	default:
		return "unknown"
	}
}

// markedChannelPrefix is the prefix Telegram clients put in front of
// channel ids when they are rendered as peer ids.
const markedChannelPrefix = "-100"

// ChannelKey identifies a channel as supplied by a caller.
type ChannelKey struct {
	Kind       ChannelKeyKind
	ID         int64
	Username   string
	InviteHash string
	// AccessHash is the saved access hash for a numeric key, zero when unknown.
	// Telegram rejects numeric lookups without it for almost every channel.
	AccessHash int64
	raw        string
}

// WithAccessHash returns a copy of k carrying hash.
func (k ChannelKey) WithAccessHash(hash int64) ChannelKey {
	k.AccessHash = hash

	return k
}

var (
	inviteRegex   = regexp.MustCompile(`^(?:https?://)?(?:t\.me|telegram\.me)/(?:\+|joinchat/)([a-zA-Z0-9_-]+)/?$`)
	publicRegex   = regexp.MustCompile(`^(?:https?://)?(?:t\.me|telegram\.me)/([a-zA-Z][a-zA-Z0-9_]{3,31})/?$`)
	usernameRegex = regexp.MustCompile(`^@?([a-zA-Z][a-zA-Z0-9_]{3,31})$`)
)

// ParseChannelKey accepts a numeric id (optionally marked with -100), a
// username with or without @, a public t.me link, or an invite link.
func ParseChannelKey(s string) (ChannelKey, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return ChannelKey{}, fmt.Errorf("empty channel key: %w", coreerrors.ErrInvalidInput)
	}

	if m := inviteRegex.FindStringSubmatch(raw); m != nil {
		return ChannelKey{Kind: KeyInvite, InviteHash: m[1], raw: raw}, nil
	}

	if m := publicRegex.FindStringSubmatch(raw); m != nil {
		return ChannelKey{Kind: KeyUsername, Username: m[1], raw: raw}, nil
	}

	if id, ok := parseChannelID(raw); ok {
		return ChannelKey{Kind: KeyNumericID, ID: id, raw: raw}, nil
	}

	if m := usernameRegex.FindStringSubmatch(raw); m != nil {
		return ChannelKey{Kind: KeyUsername, Username: m[1], raw: raw}, nil
	}

	return ChannelKey{}, fmt.Errorf("unrecognized channel key %q: %w", raw, coreerrors.ErrInvalidInput)
}

func parseChannelID(s string) (int64, bool) {
	digits := strings.TrimPrefix(s, markedChannelPrefix)
	if digits == "" {
		return 0, false
	}

	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

// String returns the key as the caller supplied it, or a canonical form.
func (k ChannelKey) String() string {
	if k.raw != "" {
		return k.raw
	}

	switch k.Kind {
	case KeyNumericID:
		return strconv.FormatInt(k.ID, 10)
	case KeyUsername:
		return "@" + k.Username
	case KeyInvite:
		return "https://t.me/+" + k.InviteHash
	default:
		return ""
	}
}

// StripChannelPrefix removes the -100 peer marker from a rendered channel id.
func StripChannelPrefix(id int64) string {
	return strings.Replace(strconv.FormatInt(id, 10), markedChannelPrefix, "", 1)
}
