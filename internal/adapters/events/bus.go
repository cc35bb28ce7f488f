// Package events carries lifecycle events from the stores to their
// subscribers on a single worker goroutine.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

// Handler reacts to one event. Errors are logged by the bus and never
// reach the publisher.
type Handler func(ctx context.Context, ev domain.Event) error

type subscription struct {
	name    string
	handler Handler
}

// Bus is an unbounded in-process queue. Publish never blocks, so handlers
// may publish follow-up events from the worker itself.
type Bus struct {
	log     logrus.FieldLogger
	timeout time.Duration

	mu       sync.Mutex
	idle     *sync.Cond
	pending  []domain.Event
	inflight int
	closed   bool
	subs     []subscription

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewBus(log logrus.FieldLogger) *Bus {
	b := &Bus{
		log:     log.WithField("component", "events"),
		timeout: 30 * time.Second,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	b.idle = sync.NewCond(&b.mu)
	return b
}

// Subscribe registers h for every event. Handlers run in registration order.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: name, handler: h})
}

func (b *Bus) Publish(_ context.Context, ev domain.Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.log.WithField("topic", ev.Topic()).Warn("event dropped, bus is closed")
		return
	}
	b.pending = append(b.pending, ev)
	b.inflight++
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Start launches the worker.
func (b *Bus) Start() {
	go b.loop()
}

func (b *Bus) pop() (domain.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil, false
	}
	ev := b.pending[0]
	b.pending = b.pending[1:]
	return ev, true
}

func (b *Bus) loop() {
	defer close(b.done)
	for {
		if ev, ok := b.pop(); ok {
			b.dispatch(ev)
			continue
		}
		select {
		case <-b.wake:
		case <-b.stop:
			b.drain()
			return
		}
	}
}

func (b *Bus) drain() {
	for {
		b.mu.Lock()
		if len(b.pending) == 0 {
			b.closed = true
			b.mu.Unlock()
			return
		}
		ev := b.pending[0]
		b.pending = b.pending[1:]
		b.mu.Unlock()
		b.dispatch(ev)
	}
}

func (b *Bus) dispatch(ev domain.Event) {
	b.mu.Lock()
	subs := b.subs
	b.mu.Unlock()

	for _, s := range subs {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		if err := s.handler(ctx, ev); err != nil {
			b.log.WithError(err).WithFields(logrus.Fields{
				"handler": s.name,
				"topic":   ev.Topic(),
			}).Error("event handler failed")
		}
		cancel()
	}

	b.mu.Lock()
	b.inflight--
	if b.inflight == 0 {
		b.idle.Broadcast()
	}
	b.mu.Unlock()
}

// Flush blocks until every published event, follow-ups included, has been
// handled.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.inflight > 0 {
		b.idle.Wait()
	}
}

// Close stops accepting events once the queue is drained and waits for
// the worker to exit.
func (b *Bus) Close() {
	select {
	case <-b.stop:
	default:
		close(b.stop)
	}
	<-b.done
}
