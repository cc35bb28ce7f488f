package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type principalResolver interface {
	Principal(ctx context.Context, credential string) (domain.Principal, error)
}

// Notifier bridges lifecycle events to realtime subscribers. Payloads are
// published per entity so that a subscriber only ever receives events of
// the entity it subscribed to.
type Notifier struct {
	broker     ports.Broker
	principals principalResolver
	domainRepo ports.DomainRepository
	clientRepo ports.ClientRepository
	authz      *authz.Evaluator
	log        logrus.FieldLogger
}

func NewNotifier(
	broker ports.Broker,
	principals principalResolver,
	domainRepo ports.DomainRepository,
	clientRepo ports.ClientRepository,
	evaluator *authz.Evaluator,
	log logrus.FieldLogger,
) *Notifier {
	return &Notifier{
		broker:     broker,
		principals: principals,
		domainRepo: domainRepo,
		clientRepo: clientRepo,
		authz:      evaluator,
		log:        log.WithField("component", "notifier"),
	}
}

func channel(topic, id string) string {
	return topic + ":" + id
}

// HandleEvent publishes domain inserts, updates and state changes on
// domainUpdate and client updates on clientUpdate.
func (n *Notifier) HandleEvent(ctx context.Context, ev domain.Event) error {
	switch e := ev.(type) {
	case domain.Change[domain.Domain]:
		if e.Op == domain.OpDelete {
			return nil
		}
		for _, d := range e.New {
			if err := n.publish(ctx, channel(ports.TopicDomainUpdate, d.ID), ports.UpdateEvent{Domain: &d}); err != nil {
				return err
			}
		}
	case domain.StateChange:
		return n.publish(ctx, channel(ports.TopicDomainUpdate, e.Domain), ports.UpdateEvent{State: &e.State})
	case domain.Change[domain.Client]:
		if e.Op != domain.OpUpdate {
			return nil
		}
		for _, c := range e.New {
			if err := n.publish(ctx, channel(ports.TopicClientUpdate, c.ID), ports.UpdateEvent{Client: &c}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n *Notifier) publish(ctx context.Context, ch string, update ports.UpdateEvent) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}
	if err := n.broker.Publish(ctx, ch, payload); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", ch, err)
	}
	return nil
}

// Subscribe re-derives the principal from the connection credential and
// checks it against the current target before streaming its updates. The
// stream ends when ctx is cancelled.
func (n *Notifier) Subscribe(ctx context.Context, credential, topic, targetID string) (<-chan ports.UpdateEvent, error) {
	p, err := n.principals.Principal(ctx, credential)
	if err != nil {
		return nil, err
	}
	if !p.Authenticated() {
		return nil, domain.Unauthorized()
	}

	switch topic {
	case ports.TopicDomainUpdate:
		domains, err := n.domainRepo.Get(ctx, ports.DomainFilter{IDs: []string{targetID}}, domain.Page{})
		if err != nil {
			return nil, err
		}
		if err := n.authz.SubscribeDomain(p, domains[0]); err != nil {
			return nil, err
		}
	case ports.TopicClientUpdate:
		clients, err := n.clientRepo.Get(ctx, ports.ClientFilter{IDs: []string{targetID}}, domain.Page{})
		if err != nil {
			return nil, err
		}
		if err := n.authz.SubscribeClient(ctx, p, clients[0]); err != nil {
			return nil, err
		}
	default:
		return nil, domain.Errorf(domain.ErrValidation, "Unknown subscription %q.", topic)
	}

	raw, err := n.broker.Subscribe(ctx, channel(topic, targetID))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan ports.UpdateEvent)
	go func() {
		defer close(out)
		for payload := range raw {
			var update ports.UpdateEvent
			if err := json.Unmarshal(payload, &update); err != nil {
				n.log.WithError(err).WithField("topic", topic).Warn("dropping malformed update")
				continue
			}
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
