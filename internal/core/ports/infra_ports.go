package ports

import (
	"context"
	"time"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

// Cache is a string key/value store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// EventPublisher hands lifecycle events to the bus. It never blocks on
// the subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}

// Broker fans realtime payloads out to every subscriber of a topic.
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
}

const (
	TopicDomainUpdate = "domainUpdate"
	TopicClientUpdate = "clientUpdate"
)

// UpdateEvent is delivered to realtime subscribers.
type UpdateEvent struct {
	Domain *domain.Domain `json:"domain,omitempty"`
	Client *domain.Client `json:"client,omitempty"`
	State  *domain.State  `json:"state,omitempty"`
}

type NotifierService interface {
	Subscribe(ctx context.Context, credential, topic, targetID string) (<-chan UpdateEvent, error)
}
