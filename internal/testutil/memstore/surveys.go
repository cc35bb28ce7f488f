package memstore

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type Surveys struct {
	t   *table[domain.Survey]
	pub ports.EventPublisher
	clk *clock
}

func cloneSurvey(s domain.Survey) domain.Survey {
	s.Types = slices.Clone(s.Types)
	s.QuestionOrder = slices.Clone(s.QuestionOrder)
	s.PreviewImage = cloneRef(s.PreviewImage)
	return s
}

func matchSurvey(f ports.SurveyFilter) func(domain.Survey) bool {
	return func(s domain.Survey) bool {
		switch {
		case len(f.IDs) > 0 && !slices.Contains(f.IDs, s.ID):
			return false
		case f.Creator != "" && s.Creator != f.Creator:
			return false
		case f.Title != "" && !strings.Contains(strings.ToLower(s.Title), strings.ToLower(f.Title)):
			return false
		case f.ActiveOnly && !s.IsActive:
			return false
		}
		if len(f.TypesWithin) > 0 {
			if s.Types == nil {
				return false
			}
			for _, t := range s.Types {
				if !slices.Contains(f.TypesWithin, t) {
					return false
				}
			}
		}
		return true
	}
}

func (r *Surveys) Get(_ context.Context, filter ports.SurveyFilter, page domain.Page) ([]domain.Survey, error) {
	found := r.t.find(matchSurvey(filter), page)
	if len(found) == 0 {
		return nil, domain.NotFound(domain.KindSurvey)
	}
	return found, nil
}

func (r *Surveys) Insert(ctx context.Context, s domain.Survey) (domain.Survey, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.QuestionOrder == nil {
		s.QuestionOrder = []string{}
	}
	now := r.clk.now()
	s.CreationDate, s.LastUpdate = now, now
	inserted := r.t.insert(s)
	r.pub.Publish(ctx, domain.Inserted(domain.KindSurvey, inserted))
	return inserted, nil
}

func (r *Surveys) Update(ctx context.Context, filter ports.SurveyFilter, patch domain.SurveyPatch) ([]domain.Survey, error) {
	if isZero(filter) {
		return nil, domain.Errorf(domain.ErrValidation, "refusing to update every survey")
	}
	now := r.clk.now()
	old, updated := r.t.update(matchSurvey(filter), func(s *domain.Survey) {
		setString(&s.Title, patch.Title)
		setString(&s.Description, patch.Description)
		setValue(&s.Types, patch.Types)
		setValue(&s.IsActive, patch.IsActive)
		setValue(&s.QuestionOrder, patch.QuestionOrder)
		setRef(&s.PreviewImage, patch.PreviewImage)
		s.LastUpdate = now
	})
	if len(updated) == 0 {
		return nil, domain.NotFound(domain.KindSurvey)
	}
	r.pub.Publish(ctx, domain.Updated(domain.KindSurvey, old, updated))
	return updated, nil
}

func (r *Surveys) Delete(ctx context.Context, filter ports.SurveyFilter) (int64, error) {
	if isZero(filter) {
		return 0, domain.Errorf(domain.ErrValidation, "refusing to delete every survey")
	}
	removed := r.t.remove(matchSurvey(filter))
	if len(removed) == 0 {
		return 0, domain.Errorf(domain.ErrDeleteFailed, "Survey could not be deleted.")
	}
	r.pub.Publish(ctx, domain.Deleted(domain.KindSurvey, removed...))
	return int64(len(removed)), nil
}

func (r *Surveys) order(ctx context.Context, id string, fn func([]string) []string) (domain.Survey, error) {
	now := r.clk.now()
	old, updated := r.t.update(matchSurvey(ports.SurveyFilter{IDs: []string{id}}), func(s *domain.Survey) {
		s.QuestionOrder = fn(s.QuestionOrder)
		s.LastUpdate = now
	})
	if len(updated) == 0 {
		return domain.Survey{}, domain.NotFound(domain.KindSurvey)
	}
	r.pub.Publish(ctx, domain.Updated(domain.KindSurvey, old, updated))
	return updated[0], nil
}

func (r *Surveys) AppendQuestion(ctx context.Context, surveyID, questionID string) (domain.Survey, error) {
	return r.order(ctx, surveyID, func(order []string) []string {
		return append(order, questionID)
	})
}

func (r *Surveys) RemoveQuestion(ctx context.Context, surveyID, questionID string) (domain.Survey, error) {
	return r.order(ctx, surveyID, func(order []string) []string {
		return slices.DeleteFunc(order, func(id string) bool { return id == questionID })
	})
}
