package mongo

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"go.mongodb.org/mongo-driver/bson"
	mongodb "go.mongodb.org/mongo-driver/mongo"
)

type SurveyRepository struct {
	c collection[domain.Survey]
}

func NewSurveyRepository(db *mongodb.Database, pub ports.EventPublisher) *SurveyRepository {
	return &SurveyRepository{
		c: newCollection(db, surveysCollection, domain.KindSurvey, func(s domain.Survey) string { return s.ID }, pub),
	}
}

func surveyFilter(f ports.SurveyFilter) bson.M {
	filter := bson.M{}
	if len(f.IDs) > 0 {
		filter["_id"] = in(f.IDs)
	}
	if f.Creator != "" {
		filter["creator"] = f.Creator
	}
	if f.Title != "" {
		filter["title"] = contains(f.Title)
	}
	if f.ActiveOnly {
		filter["isActive"] = true
	}
	if len(f.TypesWithin) > 0 {
		// every type of the survey must be one of the listed types
		filter["types"] = bson.M{
			"$exists": true,
			"$ne":     nil,
			"$not":    bson.M{"$elemMatch": bson.M{"$nin": f.TypesWithin}},
		}
	}
	return filter
}

func (r *SurveyRepository) Get(ctx context.Context, filter ports.SurveyFilter, page domain.Page) ([]domain.Survey, error) {
	return r.c.find(ctx, surveyFilter(filter), page)
}

func (r *SurveyRepository) Insert(ctx context.Context, s domain.Survey) (domain.Survey, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.QuestionOrder == nil {
		s.QuestionOrder = []string{}
	}
	ts := now()
	s.CreationDate, s.LastUpdate = ts, ts
	return r.c.insert(ctx, s)
}

func (r *SurveyRepository) Update(ctx context.Context, filter ports.SurveyFilter, p domain.SurveyPatch) ([]domain.Survey, error) {
	update := newPatch()
	field(update, "title", p.Title)
	field(update, "description", p.Description)
	field(update, "types", p.Types)
	field(update, "isActive", p.IsActive)
	field(update, "questionOrder", p.QuestionOrder)
	field(update, "previewImage", p.PreviewImage)
	return r.c.update(ctx, surveyFilter(filter), update.doc())
}

func (r *SurveyRepository) Delete(ctx context.Context, filter ports.SurveyFilter) (int64, error) {
	removed, err := r.c.remove(ctx, surveyFilter(filter), nil)
	return int64(len(removed)), err
}

func (r *SurveyRepository) AppendQuestion(ctx context.Context, surveyID, questionID string) (domain.Survey, error) {
	return r.c.updateOne(ctx, surveyID, bson.M{"$push": bson.M{"questionOrder": questionID}})
}

func (r *SurveyRepository) RemoveQuestion(ctx context.Context, surveyID, questionID string) (domain.Survey, error) {
	return r.c.updateOne(ctx, surveyID, bson.M{"$pull": bson.M{"questionOrder": questionID}})
}
