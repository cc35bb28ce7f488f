package ports

import (
	"context"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type SurveyFilter struct {
	IDs        []string
	Creator    string
	Title      string
	ActiveOnly bool
	// TypesWithin keeps surveys whose types are all contained in the list.
	TypesWithin []domain.QuestionType
}

type SurveyRepository interface {
	Get(ctx context.Context, filter SurveyFilter, page domain.Page) ([]domain.Survey, error)
	Insert(ctx context.Context, s domain.Survey) (domain.Survey, error)
	Update(ctx context.Context, filter SurveyFilter, patch domain.SurveyPatch) ([]domain.Survey, error)
	Delete(ctx context.Context, filter SurveyFilter) (int64, error)
	AppendQuestion(ctx context.Context, surveyID, questionID string) (domain.Survey, error)
	RemoveQuestion(ctx context.Context, surveyID, questionID string) (domain.Survey, error)
}

type ListSurveysInput struct {
	Title string
	Page  domain.Page
}

type CreateSurveyInput struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Types       []domain.QuestionType `json:"types"`
	IsActive    bool                  `json:"isActive"`
}

type SurveyService interface {
	Surveys(ctx context.Context, p domain.Principal, input ListSurveysInput) ([]domain.Survey, error)
	Survey(ctx context.Context, p domain.Principal, id string) (domain.Survey, error)
	SurveyAmount(ctx context.Context, p domain.Principal, input ListSurveysInput) int
	CreateSurvey(ctx context.Context, p domain.Principal, input CreateSurveyInput) (domain.Survey, error)
	UpdateSurvey(ctx context.Context, p domain.Principal, id string, patch domain.SurveyPatch) (domain.Survey, error)
	DeleteSurvey(ctx context.Context, p domain.Principal, id string) error
	SetSurveyPreviewImage(ctx context.Context, p domain.Principal, id, imageID string) (domain.Survey, error)
	RemoveSurveyPreviewImage(ctx context.Context, p domain.Principal, id string) (domain.Survey, error)
}
