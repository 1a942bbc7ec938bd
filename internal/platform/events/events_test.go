package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegrasper/internal/core/domain"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.msgs = append(c.msgs, published{subject: subject, data: data})

	return c.err
}

func newTestBus(nc conn, prefix string) *Bus {
	logger := zerolog.Nop()

	return &Bus{nc: nc, prefix: prefix, logger: &logger}
}

func TestBus_PublishesProgressAndResult(t *testing.T) {
	nc := &fakeConn{}
	b := newTestBus(nc, "telegrasper")

	b.Report(context.Background(), domain.Progress{RunID: "r1", Key: "@alpha", ChannelID: 5, Processed: 10})
	b.Publish(context.Background(), "@alpha", domain.ScrapeResult{Status: domain.ScrapeSuccess, Message: "done", Processed: 12})

	require.Len(t, nc.msgs, 2)
	assert.Equal(t, "telegrasper.scrape.progress", nc.msgs[0].subject)
	assert.Equal(t, "telegrasper.scrape.result", nc.msgs[1].subject)

	var p domain.Progress
	require.NoError(t, json.Unmarshal(nc.msgs[0].data, &p))
	assert.Equal(t, 10, p.Processed)

	var ev ResultEvent
	require.NoError(t, json.Unmarshal(nc.msgs[1].data, &ev))
	assert.Equal(t, "@alpha", ev.Key)
	assert.Equal(t, domain.ScrapeSuccess, ev.Result.Status)
	assert.Equal(t, 12, ev.Result.Processed)
}

func TestBus_NoPrefix(t *testing.T) {
	nc := &fakeConn{}
	b := newTestBus(nc, "")

	b.Report(context.Background(), domain.Progress{})

	require.Len(t, nc.msgs, 1)
	assert.Equal(t, "scrape.progress", nc.msgs[0].subject)
}

func TestBus_LogOnly(t *testing.T) {
	logger := zerolog.Nop()

	b, err := New("", "telegrasper", &logger)
	require.NoError(t, err)

	b.Report(context.Background(), domain.Progress{})
	b.Publish(context.Background(), "@alpha", domain.ScrapeResult{Status: domain.ScrapeError})
	b.Close()
}

func TestBus_PublishErrorIsSwallowed(t *testing.T) {
	nc := &fakeConn{err: errors.New("no responders")}
	b := newTestBus(nc, "x")

	b.Publish(context.Background(), "@alpha", domain.ScrapeResult{Status: domain.ScrapeWarning})

	assert.Len(t, nc.msgs, 1)
}
