package memstore

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type Clients struct {
	t   *table[domain.Client]
	pub ports.EventPublisher
	clk *clock
}

func cloneClient(c domain.Client) domain.Client {
	c.Owners = slices.Clone(c.Owners)
	c.Domain = cloneRef(c.Domain)
	c.Code = cloneRef(c.Code)
	return c
}

func matchClient(f ports.ClientFilter) func(domain.Client) bool {
	return func(c domain.Client) bool {
		switch {
		case len(f.IDs) > 0 && !slices.Contains(f.IDs, c.ID):
			return false
		case f.Owner != "" && !slices.Contains(c.Owners, f.Owner):
			return false
		case f.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Name)):
			return false
		case f.Domain != "" && (c.Domain == nil || *c.Domain != f.Domain):
			return false
		case f.Code != "" && (c.Code == nil || *c.Code != f.Code):
			return false
		case f.WithCode && c.Code == nil:
			return false
		case f.Lifetime != "" && c.Lifetime != f.Lifetime:
			return false
		}
		return true
	}
}

func (r *Clients) Get(_ context.Context, filter ports.ClientFilter, page domain.Page) ([]domain.Client, error) {
	found := r.t.find(matchClient(filter), page)
	if len(found) == 0 {
		return nil, domain.NotFound(domain.KindClient)
	}
	return found, nil
}

func (r *Clients) Insert(ctx context.Context, c domain.Client) (domain.Client, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := r.clk.now()
	c.CreationDate, c.LastUpdate = now, now
	inserted := r.t.insert(c)
	r.pub.Publish(ctx, domain.Inserted(domain.KindClient, inserted))
	return inserted, nil
}

func (r *Clients) Update(ctx context.Context, filter ports.ClientFilter, patch domain.ClientPatch) ([]domain.Client, error) {
	if isZero(filter) {
		return nil, domain.Errorf(domain.ErrValidation, "refusing to update every client")
	}
	now := r.clk.now()
	old, updated := r.t.update(matchClient(filter), func(c *domain.Client) {
		setString(&c.Name, patch.Name)
		setRef(&c.Domain, patch.Domain)
		c.LastUpdate = now
	})
	if len(updated) == 0 {
		return nil, domain.NotFound(domain.KindClient)
	}
	r.pub.Publish(ctx, domain.Updated(domain.KindClient, old, updated))
	return updated, nil
}

func (r *Clients) Delete(ctx context.Context, filter ports.ClientFilter) (int64, error) {
	if isZero(filter) {
		return 0, domain.Errorf(domain.ErrValidation, "refusing to delete every client")
	}
	removed := r.t.remove(matchClient(filter))
	if len(removed) == 0 {
		return 0, domain.Errorf(domain.ErrDeleteFailed, "Client could not be deleted.")
	}
	r.pub.Publish(ctx, domain.Deleted(domain.KindClient, removed...))
	return int64(len(removed)), nil
}

func (r *Clients) mutate(ctx context.Context, id string, fn func(*domain.Client)) (domain.Client, error) {
	now := r.clk.now()
	old, updated := r.t.update(matchClient(ports.ClientFilter{IDs: []string{id}}), func(c *domain.Client) {
		fn(c)
		c.LastUpdate = now
	})
	if len(updated) == 0 {
		return domain.Client{}, domain.NotFound(domain.KindClient)
	}
	r.pub.Publish(ctx, domain.Updated(domain.KindClient, old, updated))
	return updated[0], nil
}

func (r *Clients) AddOwner(ctx context.Context, id, userID string) (domain.Client, error) {
	return r.mutate(ctx, id, func(c *domain.Client) {
		if !slices.Contains(c.Owners, userID) {
			c.Owners = append(c.Owners, userID)
		}
	})
}

func (r *Clients) RemoveOwner(ctx context.Context, id, userID string) (domain.Client, error) {
	return r.mutate(ctx, id, func(c *domain.Client) {
		c.Owners = slices.DeleteFunc(c.Owners, func(o string) bool { return o == userID })
	})
}
