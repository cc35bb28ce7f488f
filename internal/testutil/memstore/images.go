package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type Images struct {
	t   *table[domain.Image]
	pub ports.EventPublisher
	clk *clock
}

func cloneImage(i domain.Image) domain.Image {
	i.Survey = cloneRef(i.Survey)
	i.Question = cloneRef(i.Question)
	i.Tags = slices.Clone(i.Tags)
	return i
}

func matchImage(f ports.ImageFilter) func(domain.Image) bool {
	return func(i domain.Image) bool {
		switch {
		case len(f.IDs) > 0 && !slices.Contains(f.IDs, i.ID):
			return false
		case f.User != "" && i.User != f.User:
			return false
		case len(f.Surveys) > 0 && (i.Survey == nil || !slices.Contains(f.Surveys, *i.Survey)):
			return false
		case len(f.Questions) > 0 && (i.Question == nil || !slices.Contains(f.Questions, *i.Question)):
			return false
		}
		return true
	}
}

func (r *Images) Get(_ context.Context, filter ports.ImageFilter, page domain.Page) ([]domain.Image, error) {
	found := r.t.find(matchImage(filter), page)
	if len(found) == 0 {
		return nil, domain.NotFound(domain.KindImage)
	}
	return found, nil
}

func (r *Images) Insert(ctx context.Context, img domain.Image) (domain.Image, error) {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	now := r.clk.now()
	img.CreationDate, img.LastUpdate = now, now
	inserted := r.t.insert(img)
	r.pub.Publish(ctx, domain.Inserted(domain.KindImage, inserted))
	return inserted, nil
}

func (r *Images) Delete(ctx context.Context, filter ports.ImageFilter) ([]domain.Image, error) {
	if isZero(filter) {
		return nil, domain.Errorf(domain.ErrValidation, "refusing to delete every image")
	}
	match := matchImage(filter)
	removed := r.t.remove(func(i domain.Image) bool {
		return match(i) && !i.IsProtected()
	})
	if len(removed) == 0 {
		return nil, domain.Errorf(domain.ErrDeleteFailed, "Image could not be deleted.")
	}
	r.pub.Publish(ctx, domain.Deleted(domain.KindImage, removed...))
	return removed, nil
}

// Len reports how many images are stored.
func (r *Images) Len() int {
	return r.t.len()
}
