package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
)

func TestParseChannelKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ChannelKey
	}{
		{name: "plain id", input: "1234567", want: ChannelKey{Kind: KeyNumericID, ID: 1234567}},
		{name: "marked id", input: "-1001234567", want: ChannelKey{Kind: KeyNumericID, ID: 1234567}},
		{name: "username with at", input: "@drugwatch", want: ChannelKey{Kind: KeyUsername, Username: "drugwatch"}},
		{name: "bare username", input: "drugwatch", want: ChannelKey{Kind: KeyUsername, Username: "drugwatch"}},
		{name: "public link", input: "https://t.me/drugwatch", want: ChannelKey{Kind: KeyUsername, Username: "drugwatch"}},
		{name: "public link no scheme", input: "t.me/drugwatch/", want: ChannelKey{Kind: KeyUsername, Username: "drugwatch"}},
		{name: "plus invite", input: "https://t.me/+AbC_d-1", want: ChannelKey{Kind: KeyInvite, InviteHash: "AbC_d-1"}},
		{name: "joinchat invite", input: "https://t.me/joinchat/XyZ123", want: ChannelKey{Kind: KeyInvite, InviteHash: "XyZ123"}},
		{name: "whitespace trimmed", input: "  @drugwatch \n", want: ChannelKey{Kind: KeyUsername, Username: "drugwatch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChannelKey(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.Equal(t, tt.want.ID, got.ID)
			assert.Equal(t, tt.want.Username, got.Username)
			assert.Equal(t, tt.want.InviteHash, got.InviteHash)
		})
	}
}

func TestParseChannelKeyInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "-100", "0", "ab", "https://example.com/x", "@1abc"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseChannelKey(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, coreerrors.ErrInvalidInput)
		})
	}
}

func TestChannelKeyString(t *testing.T) {
	k, err := ParseChannelKey("@drugwatch")
	require.NoError(t, err)
	assert.Equal(t, "@drugwatch", k.String())

	assert.Equal(t, "42", ChannelKey{Kind: KeyNumericID, ID: 42}.String())
	assert.Equal(t, "@abcd", ChannelKey{Kind: KeyUsername, Username: "abcd"}.String())
	assert.Equal(t, "https://t.me/+h", ChannelKey{Kind: KeyInvite, InviteHash: "h"}.String())
}

func TestStripChannelPrefix(t *testing.T) {
	assert.Equal(t, "1234", StripChannelPrefix(-1001234))
	assert.Equal(t, "1234", StripChannelPrefix(1234))
}

func TestLexiconSnapshotIsolation(t *testing.T) {
	terms := []ArgotTerm{{ID: "A1", Name: "ice", DrugID: "D1"}}
	lex := NewLexicon(terms)

	terms[0].Name = "changed"
	assert.Equal(t, "ice", lex.Terms()[0].Name)

	got := lex.Terms()
	got[0].Name = "mutated"
	assert.Equal(t, "ice", lex.Terms()[0].Name)
	assert.Equal(t, 1, lex.Len())
}

func TestLexiconAll(t *testing.T) {
	lex := NewLexicon([]ArgotTerm{
		{ID: "A1", Name: "ice", DrugID: "D1"},
		{ID: "A2", Name: "snow", DrugID: "D2"},
		{ID: "A3", Name: "weed", DrugID: "D3"},
	})

	var names []string
	for term := range lex.All() {
		names = append(names, term.Name)
	}

	assert.Equal(t, []string{"ice", "snow", "weed"}, names)

	var first []string
	for term := range lex.All() {
		first = append(first, term.ID)
		break
	}

	assert.Equal(t, []string{"A1"}, first)
}
