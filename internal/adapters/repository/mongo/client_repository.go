package mongo

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"go.mongodb.org/mongo-driver/bson"
	mongodb "go.mongodb.org/mongo-driver/mongo"
)

type ClientRepository struct {
	c collection[domain.Client]
}

func NewClientRepository(db *mongodb.Database, pub ports.EventPublisher) *ClientRepository {
	return &ClientRepository{
		c: newCollection(db, clientsCollection, domain.KindClient, func(c domain.Client) string { return c.ID }, pub),
	}
}

func clientFilter(f ports.ClientFilter) bson.M {
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
	if f.Domain != "" {
		filter["domain"] = f.Domain
	}
	switch {
	case f.Code != "":
		filter["code"] = f.Code
	case f.WithCode:
		filter["code"] = bson.M{"$exists": true}
	}
	if f.Lifetime != "" {
		filter["lifetime"] = f.Lifetime
	}
	return filter
}

func (r *ClientRepository) Get(ctx context.Context, filter ports.ClientFilter, page domain.Page) ([]domain.Client, error) {
	return r.c.find(ctx, clientFilter(filter), page)
}

func (r *ClientRepository) Insert(ctx context.Context, c domain.Client) (domain.Client, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	ts := now()
	c.CreationDate, c.LastUpdate = ts, ts
	return r.c.insert(ctx, c)
}

func (r *ClientRepository) Update(ctx context.Context, filter ports.ClientFilter, p domain.ClientPatch) ([]domain.Client, error) {
	update := newPatch()
	field(update, "name", p.Name)
	field(update, "domain", p.Domain)
	return r.c.update(ctx, clientFilter(filter), update.doc())
}

func (r *ClientRepository) Delete(ctx context.Context, filter ports.ClientFilter) (int64, error) {
	removed, err := r.c.remove(ctx, clientFilter(filter), nil)
	return int64(len(removed)), err
}

func (r *ClientRepository) AddOwner(ctx context.Context, id, userID string) (domain.Client, error) {
	return r.c.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"owners": userID}})
}

func (r *ClientRepository) RemoveOwner(ctx context.Context, id, userID string) (domain.Client, error) {
	return r.c.updateOne(ctx, id, bson.M{"$pull": bson.M{"owners": userID}})
}
