package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"go.mongodb.org/mongo-driver/bson"
	mongodb "go.mongodb.org/mongo-driver/mongo"
)

type VersionRepository struct {
	c collection[domain.Version]
}

func NewVersionRepository(db *mongodb.Database, pub ports.EventPublisher) *VersionRepository {
	return &VersionRepository{
		c: newCollection(db, versionsCollection, domain.KindVersion, func(v domain.Version) string { return v.ID }, pub),
	}
}

func versionFilter(f ports.VersionFilter) bson.M {
	filter := bson.M{}
	if len(f.IDs) > 0 {
		filter["_id"] = in(f.IDs)
	}
	if len(f.Surveys) > 0 {
		filter["survey"] = in(f.Surveys)
	}
	if f.OpenOnly {
		filter["to"] = bson.M{"$exists": false}
	}
	return filter
}

func (r *VersionRepository) Get(ctx context.Context, filter ports.VersionFilter, page domain.Page) ([]domain.Version, error) {
	return r.c.find(ctx, versionFilter(filter), page)
}

func (r *VersionRepository) Insert(ctx context.Context, v domain.Version) (domain.Version, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	ts := now()
	v.CreationDate, v.LastUpdate = ts, ts
	return r.c.insert(ctx, v)
}

// Close ends the version at to and stores the question snapshot it was
// answered against.
func (r *VersionRepository) Close(ctx context.Context, id string, to time.Time, questions []domain.Question, summaries []domain.Summary) (domain.Version, error) {
	return r.c.updateOne(ctx, id, bson.M{"$set": bson.M{
		"to":        to.UTC().Truncate(time.Millisecond),
		"questions": questions,
		"summaries": summaries,
	}})
}

func (r *VersionRepository) SetSummaries(ctx context.Context, id string, summaries []domain.Summary) (domain.Version, error) {
	return r.c.updateOne(ctx, id, bson.M{"$set": bson.M{"summaries": summaries}})
}
