package ports

import (
	"context"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type QuestionFilter struct {
	IDs     []string
	Surveys []string
}

// QuestionRepository stores questions together with their nested items,
// labels and choices.
type QuestionRepository interface {
	Get(ctx context.Context, filter QuestionFilter, page domain.Page) ([]domain.Question, error)
	Insert(ctx context.Context, q domain.Question) (domain.Question, error)
	Update(ctx context.Context, filter QuestionFilter, patch domain.QuestionPatch) ([]domain.Question, error)
	Delete(ctx context.Context, filter QuestionFilter) (int64, error)

	InsertItem(ctx context.Context, questionID string, item domain.Item) (domain.Item, error)
	UpdateItem(ctx context.Context, questionID, itemID string, patch domain.ItemPatch) (domain.Item, error)
	DeleteItem(ctx context.Context, questionID, itemID string) error

	InsertLabel(ctx context.Context, questionID string, label domain.Label) (domain.Label, error)
	UpdateLabel(ctx context.Context, questionID, labelID string, patch domain.LabelPatch) (domain.Label, error)
	DeleteLabel(ctx context.Context, questionID, labelID string) error

	InsertChoice(ctx context.Context, questionID string, choice domain.Choice) (domain.Choice, error)
	UpdateChoice(ctx context.Context, questionID, choiceID string, patch domain.ChoicePatch) (domain.Choice, error)
	DeleteChoice(ctx context.Context, questionID, choiceID string) error
}

type CreateQuestionInput struct {
	Value       string              `json:"value"`
	Description string              `json:"description"`
	Type        domain.QuestionType `json:"type"`
	LikeIcon    *string             `json:"likeIcon"`
	DislikeIcon *string             `json:"dislikeIcon"`
	Min         *float64            `json:"min"`
	Max         *float64            `json:"max"`
	StepSize    *float64            `json:"stepSize"`
	Default     *float64            `json:"default"`
}

type ItemInput struct {
	Label string `json:"label"`
}

type LabelInput struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

type ChoiceInput struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type QuestionService interface {
	Questions(ctx context.Context, p domain.Principal, surveyID string) ([]domain.Question, error)
	CreateQuestion(ctx context.Context, p domain.Principal, surveyID string, input CreateQuestionInput) (domain.Question, error)
	UpdateQuestion(ctx context.Context, p domain.Principal, id string, patch domain.QuestionPatch) (domain.Question, error)
	DeleteQuestion(ctx context.Context, p domain.Principal, id string) error

	CreateItem(ctx context.Context, p domain.Principal, questionID string, input ItemInput) (domain.Item, error)
	UpdateItem(ctx context.Context, p domain.Principal, questionID, itemID string, patch domain.ItemPatch) (domain.Item, error)
	DeleteItem(ctx context.Context, p domain.Principal, questionID, itemID string) error
	SetItemImage(ctx context.Context, p domain.Principal, questionID, itemID, imageID string) (domain.Item, error)
	RemoveItemImage(ctx context.Context, p domain.Principal, questionID, itemID string) (domain.Item, error)

	CreateLabel(ctx context.Context, p domain.Principal, questionID string, input LabelInput) (domain.Label, error)
	UpdateLabel(ctx context.Context, p domain.Principal, questionID, labelID string, patch domain.LabelPatch) (domain.Label, error)
	DeleteLabel(ctx context.Context, p domain.Principal, questionID, labelID string) error
	SetLabelImage(ctx context.Context, p domain.Principal, questionID, labelID, imageID string) (domain.Label, error)
	RemoveLabelImage(ctx context.Context, p domain.Principal, questionID, labelID string) (domain.Label, error)

	CreateChoice(ctx context.Context, p domain.Principal, questionID string, input ChoiceInput) (domain.Choice, error)
	UpdateChoice(ctx context.Context, p domain.Principal, questionID, choiceID string, patch domain.ChoicePatch) (domain.Choice, error)
	DeleteChoice(ctx context.Context, p domain.Principal, questionID, choiceID string) error
	SetChoiceImage(ctx context.Context, p domain.Principal, questionID, choiceID, imageID string) (domain.Choice, error)
	RemoveChoiceImage(ctx context.Context, p domain.Principal, questionID, choiceID string) (domain.Choice, error)
}
