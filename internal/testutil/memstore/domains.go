package memstore

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type Domains struct {
	t   *table[domain.Domain]
	pub ports.EventPublisher
	clk *clock
}

func cloneDomain(d domain.Domain) domain.Domain {
	d.Owners = slices.Clone(d.Owners)
	d.States = slices.Clone(d.States)
	d.ActiveSurvey = cloneRef(d.ActiveSurvey)
	d.ActiveQuestion = cloneRef(d.ActiveQuestion)
	return d
}

func matchDomain(f ports.DomainFilter) func(domain.Domain) bool {
	return func(d domain.Domain) bool {
		switch {
		case len(f.IDs) > 0 && !slices.Contains(f.IDs, d.ID):
			return false
		case f.Owner != "" && !slices.Contains(d.Owners, f.Owner):
			return false
		case f.Name != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(f.Name)):
			return false
		case f.ActiveSurvey != "" && (d.ActiveSurvey == nil || *d.ActiveSurvey != f.ActiveSurvey):
			return false
		case f.ActiveQuestion != "" && (d.ActiveQuestion == nil || *d.ActiveQuestion != f.ActiveQuestion):
			return false
		case f.WithActiveSurvey && d.ActiveSurvey == nil:
			return false
		case f.PublicOnly && !d.IsPublic:
			return false
		}
		return true
	}
}

func (r *Domains) Get(_ context.Context, filter ports.DomainFilter, page domain.Page) ([]domain.Domain, error) {
	found := r.t.find(matchDomain(filter), page)
	if len(found) == 0 {
		return nil, domain.NotFound(domain.KindDomain)
	}
	return found, nil
}

func (r *Domains) Insert(ctx context.Context, d domain.Domain) (domain.Domain, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.States == nil {
		d.States = []domain.State{}
	}
	now := r.clk.now()
	d.CreationDate, d.LastUpdate = now, now
	inserted := r.t.insert(d)
	r.pub.Publish(ctx, domain.Inserted(domain.KindDomain, inserted))
	return inserted, nil
}

func (r *Domains) Update(ctx context.Context, filter ports.DomainFilter, patch domain.DomainPatch) ([]domain.Domain, error) {
	if isZero(filter) {
		return nil, domain.Errorf(domain.ErrValidation, "refusing to update every domain")
	}
	now := r.clk.now()
	old, updated := r.t.update(matchDomain(filter), func(d *domain.Domain) {
		setString(&d.Name, patch.Name)
		setRef(&d.ActiveSurvey, patch.ActiveSurvey)
		setRef(&d.ActiveQuestion, patch.ActiveQuestion)
		setValue(&d.IsPublic, patch.IsPublic)
		d.LastUpdate = now
	})
	if len(updated) == 0 {
		return nil, domain.NotFound(domain.KindDomain)
	}
	r.pub.Publish(ctx, domain.Updated(domain.KindDomain, old, updated))
	return updated, nil
}

func (r *Domains) Delete(ctx context.Context, filter ports.DomainFilter) (int64, error) {
	if isZero(filter) {
		return 0, domain.Errorf(domain.ErrValidation, "refusing to delete every domain")
	}
	removed := r.t.remove(matchDomain(filter))
	if len(removed) == 0 {
		return 0, domain.Errorf(domain.ErrDeleteFailed, "Domain could not be deleted.")
	}
	r.pub.Publish(ctx, domain.Deleted(domain.KindDomain, removed...))
	return int64(len(removed)), nil
}

func (r *Domains) mutate(ctx context.Context, id string, fn func(*domain.Domain)) (domain.Domain, error) {
	now := r.clk.now()
	old, updated := r.t.update(matchDomain(ports.DomainFilter{IDs: []string{id}}), func(d *domain.Domain) {
		fn(d)
		d.LastUpdate = now
	})
	if len(updated) == 0 {
		return domain.Domain{}, domain.NotFound(domain.KindDomain)
	}
	r.pub.Publish(ctx, domain.Updated(domain.KindDomain, old, updated))
	return updated[0], nil
}

func (r *Domains) AddOwner(ctx context.Context, id, userID string) (domain.Domain, error) {
	return r.mutate(ctx, id, func(d *domain.Domain) {
		if !slices.Contains(d.Owners, userID) {
			d.Owners = append(d.Owners, userID)
		}
	})
}

func (r *Domains) RemoveOwner(ctx context.Context, id, userID string) (domain.Domain, error) {
	return r.mutate(ctx, id, func(d *domain.Domain) {
		d.Owners = slices.DeleteFunc(d.Owners, func(o string) bool { return o == userID })
	})
}

func (r *Domains) SetState(ctx context.Context, id string, state domain.State) (domain.State, error) {
	_, err := r.mutate(ctx, id, func(d *domain.Domain) {
		i := slices.IndexFunc(d.States, func(s domain.State) bool { return s.Key == state.Key })
		if i < 0 {
			d.States = append(d.States, state)
			return
		}
		d.States[i].Value = state.Value
	})
	if err != nil {
		return domain.State{}, err
	}
	r.pub.Publish(ctx, domain.StateChange{Domain: id, State: state})
	return state, nil
}

func (r *Domains) RemoveState(ctx context.Context, id, key string) error {
	var removed *domain.State
	_, err := r.mutate(ctx, id, func(d *domain.Domain) {
		d.States = slices.DeleteFunc(d.States, func(s domain.State) bool {
			if s.Key == key {
				removed = &s
				return true
			}
			return false
		})
	})
	if err != nil {
		return err
	}
	if removed == nil {
		return domain.NotFound(domain.KindState)
	}
	r.pub.Publish(ctx, domain.StateChange{Domain: id, State: *removed, Removed: true})
	return nil
}
