package memstore

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type Versions struct {
	t   *table[domain.Version]
	pub ports.EventPublisher
	clk *clock
}

func cloneVersion(v domain.Version) domain.Version {
	v.To = cloneRef(v.To)
	qs := make([]domain.Question, len(v.Questions))
	for i, q := range v.Questions {
		qs[i] = cloneQuestion(q)
	}
	if v.Questions == nil {
		qs = nil
	}
	v.Questions = qs
	v.Summaries = slices.Clone(v.Summaries)
	return v
}

func matchVersion(f ports.VersionFilter) func(domain.Version) bool {
	return func(v domain.Version) bool {
		switch {
		case len(f.IDs) > 0 && !slices.Contains(f.IDs, v.ID):
			return false
		case len(f.Surveys) > 0 && !slices.Contains(f.Surveys, v.Survey):
			return false
		case f.OpenOnly && v.To != nil:
			return false
		}
		return true
	}
}

func (r *Versions) Get(_ context.Context, filter ports.VersionFilter, page domain.Page) ([]domain.Version, error) {
	found := r.t.find(matchVersion(filter), page)
	if len(found) == 0 {
		return nil, domain.NotFound(domain.KindVersion)
	}
	return found, nil
}

func (r *Versions) Insert(ctx context.Context, v domain.Version) (domain.Version, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := r.clk.now()
	v.CreationDate, v.LastUpdate = now, now
	inserted := r.t.insert(v)
	r.pub.Publish(ctx, domain.Inserted(domain.KindVersion, inserted))
	return inserted, nil
}

func (r *Versions) set(ctx context.Context, id string, fn func(*domain.Version)) (domain.Version, error) {
	now := r.clk.now()
	old, updated := r.t.update(matchVersion(ports.VersionFilter{IDs: []string{id}}), func(v *domain.Version) {
		fn(v)
		v.LastUpdate = now
	})
	if len(updated) == 0 {
		return domain.Version{}, domain.NotFound(domain.KindVersion)
	}
	r.pub.Publish(ctx, domain.Updated(domain.KindVersion, old, updated))
	return updated[0], nil
}

func (r *Versions) Close(ctx context.Context, id string, to time.Time, questions []domain.Question, summaries []domain.Summary) (domain.Version, error) {
	return r.set(ctx, id, func(v *domain.Version) {
		v.To = &to
		v.Questions = questions
		v.Summaries = summaries
	})
}

func (r *Versions) SetSummaries(ctx context.Context, id string, summaries []domain.Summary) (domain.Version, error) {
	return r.set(ctx, id, func(v *domain.Version) {
		v.Summaries = summaries
	})
}
