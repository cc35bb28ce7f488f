package memstore

import (
	"context"
	"sync"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type Store struct {
	Domains   *Domains
	Clients   *Clients
	Surveys   *Surveys
	Questions *Questions
	Images    *Images
	Versions  *Versions
	Users     *Users
	Votes     *Votes
}

// New builds an empty store publishing lifecycle events to pub. A nil
// publisher discards them.
func New(pub ports.EventPublisher) *Store {
	if pub == nil {
		pub = &Recorder{}
	}
	clk := &clock{}
	return &Store{
		Domains:   &Domains{t: newTable(cloneDomain), pub: pub, clk: clk},
		Clients:   &Clients{t: newTable(cloneClient), pub: pub, clk: clk},
		Surveys:   &Surveys{t: newTable(cloneSurvey), pub: pub, clk: clk},
		Questions: &Questions{t: newTable(cloneQuestion), pub: pub, clk: clk},
		Images:    &Images{t: newTable(cloneImage), pub: pub, clk: clk},
		Versions:  &Versions{t: newTable(cloneVersion), pub: pub, clk: clk},
		Users:     &Users{t: newTable(cloneUser), clk: clk},
		Votes:     &Votes{t: newTable(cloneVote), clk: clk},
	}
}

// Recorder is an EventPublisher keeping every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *Recorder) Publish(_ context.Context, ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

// Topics lists the topics of the recorded events in publication order.
func (r *Recorder) Topics() []string {
	var topics []string
	for _, ev := range r.Events() {
		topics = append(topics, ev.Topic())
	}
	return topics
}
