// Package mongo stores the survey entities in MongoDB, one collection per
// entity. Every successful mutation publishes a lifecycle event carrying
// the documents as they were before and after the write.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"go.mongodb.org/mongo-driver/bson"
	mongodb "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	domainsCollection   = "domains"
	clientsCollection   = "clients"
	surveysCollection   = "surveys"
	questionsCollection = "questions"
	imagesCollection    = "images"
	versionsCollection  = "versions"
)

// Connect opens a client and checks the server is reachable.
func Connect(ctx context.Context, uri string) (*mongodb.Client, error) {
	client, err := mongodb.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the lookup indexes used by the repositories.
func EnsureIndexes(ctx context.Context, db *mongodb.Database) error {
	indexes := map[string][]mongodb.IndexModel{
		domainsCollection: {
			{Keys: bson.D{{Key: "owners", Value: 1}}},
			{Keys: bson.D{{Key: "activeSurvey", Value: 1}}},
		},
		clientsCollection: {
			{Keys: bson.D{{Key: "owners", Value: 1}}},
			{Keys: bson.D{{Key: "domain", Value: 1}}},
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		surveysCollection: {
			{Keys: bson.D{{Key: "creator", Value: 1}}},
		},
		questionsCollection: {
			{Keys: bson.D{{Key: "survey", Value: 1}}},
		},
		imagesCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}},
			{Keys: bson.D{{Key: "survey", Value: 1}}},
		},
		versionsCollection: {
			{Keys: bson.D{{Key: "survey", Value: 1}, {Key: "versionNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Store groups the repositories sharing one database and publisher.
type Store struct {
	Domains   *DomainRepository
	Clients   *ClientRepository
	Surveys   *SurveyRepository
	Questions *QuestionRepository
	Images    *ImageRepository
	Versions  *VersionRepository
}

func NewStore(db *mongodb.Database, pub ports.EventPublisher) *Store {
	return &Store{
		Domains:   NewDomainRepository(db, pub),
		Clients:   NewClientRepository(db, pub),
		Surveys:   NewSurveyRepository(db, pub),
		Questions: NewQuestionRepository(db, pub),
		Images:    NewImageRepository(db, pub),
		Versions:  NewVersionRepository(db, pub),
	}
}

// collection wraps the generic read and write paths of one entity.
type collection[T any] struct {
	coll *mongodb.Collection
	kind domain.Kind
	id   func(T) string
	pub  ports.EventPublisher
}

func newCollection[T any](db *mongodb.Database, name string, kind domain.Kind, id func(T) string, pub ports.EventPublisher) collection[T] {
	return collection[T]{coll: db.Collection(name), kind: kind, id: id, pub: pub}
}

func (c collection[T]) find(ctx context.Context, filter bson.M, page domain.Page) ([]T, error) {
	cur, err := c.coll.Find(ctx, filter, findOptions(page))
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", c.kind, err)
	}
	var found []T
	if err := cur.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.kind, err)
	}
	if len(found) == 0 {
		return nil, domain.NotFound(c.kind)
	}
	return found, nil
}

func (c collection[T]) get(ctx context.Context, id string) (T, error) {
	found, err := c.find(ctx, bson.M{"_id": id}, domain.Page{})
	if err != nil {
		var zero T
		return zero, err
	}
	return found[0], nil
}

func (c collection[T]) insert(ctx context.Context, doc T) (T, error) {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		if mongodb.IsDuplicateKeyError(err) {
			return doc, domain.Errorf(domain.ErrValidation, "%s already exists.", c.kind)
		}
		return doc, fmt.Errorf("failed to insert %s: %w", c.kind, err)
	}
	c.pub.Publish(ctx, domain.Inserted(c.kind, doc))
	return doc, nil
}

// apply runs update against every document matching filter and returns
// the before and after snapshots aligned by position. It does not publish.
func (c collection[T]) apply(ctx context.Context, filter, update bson.M, opts ...*options.UpdateOptions) (old, updated []T, err error) {
	if len(filter) == 0 {
		return nil, nil, domain.Errorf(domain.ErrValidation, "refusing to update every %s", c.kind)
	}
	old, err = c.find(ctx, filter, domain.Page{})
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(old))
	for i, doc := range old {
		ids[i] = c.id(doc)
	}

	touch(update, now())
	res, err := c.coll.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, update, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update %s: %w", c.kind, err)
	}
	if res.ModifiedCount == 0 {
		return nil, nil, domain.Errorf(domain.ErrUpdateFailed, "%s could not be updated.", c.kind)
	}

	after, err := c.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, domain.Page{})
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]T, len(after))
	for _, doc := range after {
		byID[c.id(doc)] = doc
	}
	kept := make([]T, 0, len(old))
	aligned := make([]T, 0, len(old))
	for _, doc := range old {
		if next, ok := byID[c.id(doc)]; ok {
			kept = append(kept, doc)
			aligned = append(aligned, next)
		}
	}
	return kept, aligned, nil
}

func (c collection[T]) update(ctx context.Context, filter, update bson.M, opts ...*options.UpdateOptions) ([]T, error) {
	old, updated, err := c.apply(ctx, filter, update, opts...)
	if err != nil {
		return nil, err
	}
	c.pub.Publish(ctx, domain.Updated(c.kind, old, updated))
	return updated, nil
}

func (c collection[T]) updateOne(ctx context.Context, id string, update bson.M, opts ...*options.UpdateOptions) (T, error) {
	updated, err := c.update(ctx, bson.M{"_id": id}, update, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return updated[0], nil
}

// remove deletes the documents matching filter that keep passes.
func (c collection[T]) remove(ctx context.Context, filter bson.M, keep func(T) bool) ([]T, error) {
	if len(filter) == 0 {
		return nil, domain.Errorf(domain.ErrValidation, "refusing to delete every %s", c.kind)
	}
	deleteFailed := domain.Errorf(domain.ErrDeleteFailed, "%s could not be deleted.", c.kind)

	found, err := c.find(ctx, filter, domain.Page{})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, deleteFailed
	}
	if err != nil {
		return nil, err
	}
	var removed []T
	var ids []string
	for _, doc := range found {
		if keep == nil || keep(doc) {
			removed = append(removed, doc)
			ids = append(ids, c.id(doc))
		}
	}
	if len(ids) == 0 {
		return nil, deleteFailed
	}

	res, err := c.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to delete %s: %w", c.kind, err)
	}
	if res.DeletedCount == 0 {
		return nil, deleteFailed
	}
	c.pub.Publish(ctx, domain.Deleted(c.kind, removed...))
	return removed, nil
}

func (c collection[T]) count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.kind, err)
	}
	return n, nil
}

func touch(update bson.M, now time.Time) {
	set, ok := update["$set"].(bson.M)
	if !ok {
		set = bson.M{}
		update["$set"] = set
	}
	set["lastUpdate"] = now
}

func findOptions(page domain.Page) *options.FindOptions {
	opts := options.Find()
	if page.Offset > 0 {
		opts.SetSkip(page.Offset)
	}
	if page.Limit > 0 {
		opts.SetLimit(page.Limit)
	}
	if len(page.Sort) > 0 {
		sort := bson.D{}
		for _, s := range page.Sort {
			dir := 1
			if s.Descending {
				dir = -1
			}
			sort = append(sort, bson.E{Key: s.Field, Value: dir})
		}
		opts.SetSort(sort)
	}
	return opts
}

// patch collects the $set and $unset halves of a partial update. A null
// optional unsets the field.
type patch struct {
	set   bson.M
	unset bson.M
}

func newPatch() *patch {
	return &patch{set: bson.M{}, unset: bson.M{}}
}

func field[T any](p *patch, key string, o domain.Optional[T]) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		p.unset[key] = ""
		return
	}
	p.set[key] = *o.Value
}

func (p *patch) doc() bson.M {
	update := bson.M{"$set": p.set}
	if len(p.unset) > 0 {
		update["$unset"] = p.unset
	}
	return update
}

func in(ids []string) bson.M {
	return bson.M{"$in": ids}
}

// contains matches a case insensitive substring.
func contains(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

// now is truncated to the millisecond precision of BSON dates so that
// published snapshots match what a later read returns.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

var (
	_ ports.DomainRepository   = (*DomainRepository)(nil)
	_ ports.ClientRepository   = (*ClientRepository)(nil)
	_ ports.SurveyRepository   = (*SurveyRepository)(nil)
	_ ports.QuestionRepository = (*QuestionRepository)(nil)
	_ ports.ImageRepository    = (*ImageRepository)(nil)
	_ ports.VersionRepository  = (*VersionRepository)(nil)
)
