package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type collector struct {
	mu     sync.Mutex
	topics []string
}

func (c *collector) handle(_ context.Context, ev domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, ev.Topic())
	return nil
}

func (c *collector) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.topics...)
}

func newTestBus() (*Bus, *test.Hook) {
	log, hook := test.NewNullLogger()
	return NewBus(log), hook
}

func TestBus_DeliversInPublicationOrder(t *testing.T) {
	bus, _ := newTestBus()
	c := &collector{}
	bus.Subscribe("collector", c.handle)
	bus.Start()
	defer bus.Close()

	bus.Publish(context.Background(), domain.Inserted(domain.KindDomain, domain.Domain{ID: "d1"}))
	bus.Publish(context.Background(), domain.Deleted(domain.KindDomain, domain.Domain{ID: "d1"}))
	bus.Flush()

	assert.Equal(t, []string{"Domain/Insert", "Domain/Delete"}, c.seen())
}

func TestBus_HandlerErrorIsLoggedAndSwallowed(t *testing.T) {
	bus, hook := newTestBus()
	c := &collector{}
	bus.Subscribe("failing", func(context.Context, domain.Event) error {
		return errors.New("boom")
	})
	bus.Subscribe("collector", c.handle)
	bus.Start()
	defer bus.Close()

	bus.Publish(context.Background(), domain.Deleted(domain.KindImage, domain.Image{ID: "i1"}))
	bus.Flush()

	assert.Equal(t, []string{"Image/Delete"}, c.seen())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "failing", hook.LastEntry().Data["handler"])
	assert.Equal(t, "Image/Delete", hook.LastEntry().Data["topic"])
}

func TestBus_HandlersMayPublishFollowUps(t *testing.T) {
	bus, _ := newTestBus()
	c := &collector{}
	bus.Subscribe("cascade", func(ctx context.Context, ev domain.Event) error {
		if ev.Topic() == "Question/Delete" {
			bus.Publish(ctx, domain.Deleted(domain.KindImage, domain.Image{ID: "i1"}))
		}
		return nil
	})
	bus.Subscribe("collector", c.handle)
	bus.Start()
	defer bus.Close()

	bus.Publish(context.Background(), domain.Deleted(domain.KindQuestion, domain.Question{ID: "q1"}))
	bus.Flush()

	assert.Equal(t, []string{"Question/Delete", "Image/Delete"}, c.seen())
}

func TestBus_CloseDrainsThenDrops(t *testing.T) {
	bus, hook := newTestBus()
	c := &collector{}
	bus.Subscribe("collector", c.handle)

	bus.Publish(context.Background(), domain.Inserted(domain.KindClient, domain.Client{ID: "c1"}))
	bus.Start()
	bus.Close()
	assert.Equal(t, []string{"Client/Insert"}, c.seen())

	bus.Publish(context.Background(), domain.Inserted(domain.KindClient, domain.Client{ID: "c2"}))
	assert.Equal(t, []string{"Client/Insert"}, c.seen())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
