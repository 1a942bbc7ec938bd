package screening

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	"github.com/lueurxax/telegrasper/internal/core/ports"
	"github.com/lueurxax/telegrasper/internal/core/ports/mocks"
)

const testKey = "@drugwatch"

var testChannel = domain.Channel{ID: 99, Username: "drugwatch", Title: "Drug Watch"}

func textMessages(n int) []domain.SourceMessage {
	msgs := make([]domain.SourceMessage, 0, n)
	for i := 1; i <= n; i++ {
		msgs = append(msgs, domain.SourceMessage{ID: i, Text: fmt.Sprintf("post %d", i)})
	}

	return msgs
}

func newScreener(classifier ports.Classifier) *Screener {
	logger := zerolog.Nop()

	return New(mocks.Connector{}, classifier, &logger)
}

func mustKey(t *testing.T, s string) domain.ChannelKey {
	t.Helper()

	k, err := domain.ParseChannelKey(s)
	require.NoError(t, err)

	return k
}

func TestScreen_SamplesFirstTenTextMessages(t *testing.T) {
	session := mocks.NewSession()
	session.AddChannel(testKey, testChannel, textMessages(15)...)

	classifier := mocks.NewClassifier(true)

	got := newScreener(classifier).Screen(context.Background(), session, mustKey(t, testKey))
	require.True(t, got)

	samples := classifier.Samples()
	require.Len(t, samples, 1)

	lines := strings.Split(strings.TrimSuffix(samples[0], "\n"), "\n")
	require.Len(t, lines, MaxSampleMessages)
	assert.Equal(t, "chat #1: post 1", lines[0])
	assert.Equal(t, "chat #10: post 10", lines[9])
	assert.Equal(t, MaxSampleMessages, session.Pulled(testChannel.ID))
}

func TestScreen_SkipsNonTextMessages(t *testing.T) {
	var msgs []domain.SourceMessage

	for i := 1; i <= 300; i++ {
		text := ""
		if i%25 == 0 {
			text = fmt.Sprintf("text %d", i)
		}

		msgs = append(msgs, domain.SourceMessage{ID: i, Text: text})
	}

	session := mocks.NewSession()
	session.AddChannel(testKey, testChannel, msgs...)

	classifier := mocks.NewClassifier(false)

	got := newScreener(classifier).Screen(context.Background(), session, &testChannel)
	assert.False(t, got)

	sample := classifier.Samples()[0]
	assert.Equal(t, MaxSampleMessages, strings.Count(sample, "chat #"))
	assert.Contains(t, sample, "chat #1: text 25\n")
	assert.Contains(t, sample, "chat #10: text 250\n")
	assert.NotContains(t, sample, "text 275")
	assert.Equal(t, 0, session.ResolveCalls())
}

func TestScreen_FailClosed(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name   string
		setup  func(*mocks.Session, *mocks.Classifier)
		target func(t *testing.T) any
	}{
		{
			name:   "unresolvable key",
			setup:  func(*mocks.Session, *mocks.Classifier) {},
			target: func(t *testing.T) any { return mustKey(t, "@missing") },
		},
		{
			name: "classifier error",
			setup: func(_ *mocks.Session, c *mocks.Classifier) {
				c.ClassifyFn = func(context.Context, string) (bool, error) { return true, errBoom }
			},
			target: func(t *testing.T) any { return mustKey(t, testKey) },
		},
		{
			name: "stream error",
			setup: func(s *mocks.Session, _ *mocks.Classifier) {
				s.FailHistory(testChannel.ID, errBoom)
			},
			target: func(t *testing.T) any { return mustKey(t, testKey) },
		},
		{
			name: "classifier panic",
			setup: func(_ *mocks.Session, c *mocks.Classifier) {
				c.ClassifyFn = func(context.Context, string) (bool, error) { panic("unexpected") }
			},
			target: func(t *testing.T) any { return mustKey(t, testKey) },
		},
		{
			name:   "unsupported target",
			setup:  func(*mocks.Session, *mocks.Classifier) {},
			target: func(*testing.T) any { return 12345 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := mocks.NewSession()
			session.AddChannel(testKey, testChannel, textMessages(3)...)

			classifier := mocks.NewClassifier(true)
			tt.setup(session, classifier)

			assert.False(t, newScreener(classifier).Screen(context.Background(), session, tt.target(t)))
		})
	}
}

func TestSample_FewerThanCap(t *testing.T) {
	session := mocks.NewSession()
	session.AddChannel(testKey, testChannel, textMessages(3)...)

	sample, err := Sample(context.Background(), session.History(context.Background(), &testChannel))
	require.NoError(t, err)
	assert.Equal(t, "chat #1: post 1\nchat #2: post 2\nchat #3: post 3\n", sample)
}
