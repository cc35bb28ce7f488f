package mongo

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"go.mongodb.org/mongo-driver/bson"
	mongodb "go.mongodb.org/mongo-driver/mongo"
)

type ImageRepository struct {
	c collection[domain.Image]
}

func NewImageRepository(db *mongodb.Database, pub ports.EventPublisher) *ImageRepository {
	return &ImageRepository{
		c: newCollection(db, imagesCollection, domain.KindImage, func(i domain.Image) string { return i.ID }, pub),
	}
}

func imageFilter(f ports.ImageFilter) bson.M {
	filter := bson.M{}
	if len(f.IDs) > 0 {
		filter["_id"] = in(f.IDs)
	}
	if f.User != "" {
		filter["user"] = f.User
	}
	if len(f.Surveys) > 0 {
		filter["survey"] = in(f.Surveys)
	}
	if len(f.Questions) > 0 {
		filter["question"] = in(f.Questions)
	}
	return filter
}

func (r *ImageRepository) Get(ctx context.Context, filter ports.ImageFilter, page domain.Page) ([]domain.Image, error) {
	return r.c.find(ctx, imageFilter(filter), page)
}

func (r *ImageRepository) Insert(ctx context.Context, img domain.Image) (domain.Image, error) {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	if img.Tags == nil {
		img.Tags = []string{}
	}
	ts := now()
	img.CreationDate, img.LastUpdate = ts, ts
	return r.c.insert(ctx, img)
}

// Delete skips protected images.
func (r *ImageRepository) Delete(ctx context.Context, filter ports.ImageFilter) ([]domain.Image, error) {
	return r.c.remove(ctx, imageFilter(filter), func(img domain.Image) bool {
		return !img.IsProtected()
	})
}
