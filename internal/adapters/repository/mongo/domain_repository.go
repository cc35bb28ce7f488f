package mongo

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"go.mongodb.org/mongo-driver/bson"
	mongodb "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DomainRepository struct {
	c collection[domain.Domain]
}

func NewDomainRepository(db *mongodb.Database, pub ports.EventPublisher) *DomainRepository {
	return &DomainRepository{
		c: newCollection(db, domainsCollection, domain.KindDomain, func(d domain.Domain) string { return d.ID }, pub),
	}
}

func domainFilter(f ports.DomainFilter) bson.M {
	filter := bson.M{}
	if len(f.IDs) > 0 {
		filter["_id"] = in(f.IDs)
	}
	if f.Owner != "" {
		filter["owners"] = f.Owner
	}
	if f.Name != "" {
		filter["name"] = contains(f.Name)
	}
	switch {
	case f.ActiveSurvey != "":
		filter["activeSurvey"] = f.ActiveSurvey
	case f.WithActiveSurvey:
		filter["activeSurvey"] = bson.M{"$exists": true, "$ne": nil}
	}
	if f.ActiveQuestion != "" {
		filter["activeQuestion"] = f.ActiveQuestion
	}
	if f.PublicOnly {
		filter["isPublic"] = true
	}
	return filter
}

func (r *DomainRepository) Get(ctx context.Context, filter ports.DomainFilter, page domain.Page) ([]domain.Domain, error) {
	return r.c.find(ctx, domainFilter(filter), page)
}

func (r *DomainRepository) Insert(ctx context.Context, d domain.Domain) (domain.Domain, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Owners == nil {
		d.Owners = []string{}
	}
	if d.States == nil {
		d.States = []domain.State{}
	}
	ts := now()
	d.CreationDate, d.LastUpdate = ts, ts
	return r.c.insert(ctx, d)
}

func (r *DomainRepository) Update(ctx context.Context, filter ports.DomainFilter, p domain.DomainPatch) ([]domain.Domain, error) {
	update := newPatch()
	field(update, "name", p.Name)
	field(update, "activeSurvey", p.ActiveSurvey)
	field(update, "activeQuestion", p.ActiveQuestion)
	field(update, "isPublic", p.IsPublic)
	return r.c.update(ctx, domainFilter(filter), update.doc())
}

func (r *DomainRepository) Delete(ctx context.Context, filter ports.DomainFilter) (int64, error) {
	removed, err := r.c.remove(ctx, domainFilter(filter), nil)
	return int64(len(removed)), err
}

func (r *DomainRepository) AddOwner(ctx context.Context, id, userID string) (domain.Domain, error) {
	return r.c.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"owners": userID}})
}

func (r *DomainRepository) RemoveOwner(ctx context.Context, id, userID string) (domain.Domain, error) {
	return r.c.updateOne(ctx, id, bson.M{"$pull": bson.M{"owners": userID}})
}

// SetState replaces the value of an existing key or appends a new state.
func (r *DomainRepository) SetState(ctx context.Context, id string, state domain.State) (domain.State, error) {
	current, err := r.c.get(ctx, id)
	if err != nil {
		return domain.State{}, err
	}

	if _, ok := current.State(state.Key); ok {
		_, err = r.c.updateOne(ctx, id,
			bson.M{"$set": bson.M{"states.$[s].value": state.Value}},
			options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"s.key": state.Key}}}),
		)
	} else {
		_, err = r.c.updateOne(ctx, id, bson.M{"$push": bson.M{"states": state}})
	}
	if err != nil {
		return domain.State{}, err
	}
	r.c.pub.Publish(ctx, domain.StateChange{Domain: id, State: state})
	return state, nil
}

func (r *DomainRepository) RemoveState(ctx context.Context, id, key string) error {
	current, err := r.c.get(ctx, id)
	if err != nil {
		return err
	}
	state, ok := current.State(key)
	if !ok {
		return domain.NotFound(domain.KindState)
	}
	if _, err := r.c.updateOne(ctx, id, bson.M{"$pull": bson.M{"states": bson.M{"key": key}}}); err != nil {
		return err
	}
	r.c.pub.Publish(ctx, domain.StateChange{Domain: id, State: state, Removed: true})
	return nil
}
