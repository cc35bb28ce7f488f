package services

import (
	"context"
	"strings"

	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type questionService struct {
	surveyRepo   ports.SurveyRepository
	questionRepo ports.QuestionRepository
	imageRepo    ports.ImageRepository
	versions     *Versions
	authz        *authz.Evaluator
}

func NewQuestionService(
	surveyRepo ports.SurveyRepository,
	questionRepo ports.QuestionRepository,
	imageRepo ports.ImageRepository,
	versions *Versions,
	evaluator *authz.Evaluator,
) ports.QuestionService {
	return &questionService{
		surveyRepo:   surveyRepo,
		questionRepo: questionRepo,
		imageRepo:    imageRepo,
		versions:     versions,
		authz:        evaluator,
	}
}

func (s *questionService) Questions(ctx context.Context, p domain.Principal, surveyID string) ([]domain.Question, error) {
	if _, err := s.authz.Resolver().Survey(ctx, p, surveyID); err != nil {
		return nil, err
	}
	return s.versions.OrderedQuestions(ctx, surveyID)
}

func (s *questionService) CreateQuestion(ctx context.Context, p domain.Principal, surveyID string, input ports.CreateQuestionInput) (domain.Question, error) {
	if _, err := s.authz.Resolver().Survey(ctx, p, surveyID); err != nil {
		return domain.Question{}, err
	}
	if !input.Type.Valid() {
		return domain.Question{}, domain.Errorf(domain.ErrValidation, "Unknown question type %q.", input.Type)
	}
	if strings.TrimSpace(input.Value) == "" {
		return domain.Question{}, domain.Errorf(domain.ErrValidation, "Question value is required.")
	}
	for _, icon := range []*string{input.LikeIcon, input.DislikeIcon} {
		if icon == nil {
			continue
		}
		if _, err := ownedImage(ctx, s.imageRepo, s.authz, p, *icon); err != nil {
			return domain.Question{}, err
		}
	}

	q := domain.Question{
		Survey:      surveyID,
		Value:       strings.TrimSpace(input.Value),
		Description: input.Description,
		Type:        input.Type,
		LikeIcon:    input.LikeIcon,
		DislikeIcon: input.DislikeIcon,
	}
	if q.Type == domain.QuestionRegulator {
		q.Min, q.Max, q.StepSize, q.Default = input.Min, input.Max, input.StepSize, input.Default
		if err := validateRegulator(q); err != nil {
			return domain.Question{}, err
		}
		q.ClampDefault()
	}

	if err := s.versions.Rollover(ctx, surveyID); err != nil {
		return domain.Question{}, err
	}
	created, err := s.questionRepo.Insert(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	if _, err := s.surveyRepo.AppendQuestion(ctx, surveyID, created.ID); err != nil {
		return domain.Question{}, err
	}
	return created, nil
}

func (s *questionService) UpdateQuestion(ctx context.Context, p domain.Principal, id string, patch domain.QuestionPatch) (domain.Question, error) {
	survey, q, err := s.authz.Resolver().Question(ctx, p, id)
	if err != nil {
		return domain.Question{}, err
	}
	if patch.Value.IsNull() {
		return domain.Question{}, domain.Errorf(domain.ErrValidation, "Question value is required.")
	}
	for _, icon := range []domain.Optional[string]{patch.LikeIcon, patch.DislikeIcon} {
		if imageID, ok := icon.Get(); ok {
			if _, err := ownedImage(ctx, s.imageRepo, s.authz, p, imageID); err != nil {
				return domain.Question{}, err
			}
		}
	}

	if q.Type == domain.QuestionRegulator {
		merged := q
		for _, f := range []struct {
			dst **float64
			src domain.Optional[float64]
		}{
			{&merged.Min, patch.Min},
			{&merged.Max, patch.Max},
			{&merged.StepSize, patch.StepSize},
			{&merged.Default, patch.Default},
		} {
			if f.src.Set {
				*f.dst = f.src.Value
			}
		}
		if err := validateRegulator(merged); err != nil {
			return domain.Question{}, err
		}
		before := merged.Default
		merged.ClampDefault()
		if !domain.SamePtr(before, merged.Default) {
			patch.Default = domain.Some(*merged.Default)
		}
	}

	if err := s.versions.Rollover(ctx, survey.ID); err != nil {
		return domain.Question{}, err
	}
	updated, err := s.questionRepo.Update(ctx, ports.QuestionFilter{IDs: []string{id}}, patch)
	if err != nil {
		return domain.Question{}, err
	}
	return updated[0], nil
}

func (s *questionService) DeleteQuestion(ctx context.Context, p domain.Principal, id string) error {
	survey, _, err := s.authz.Resolver().Question(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.versions.Rollover(ctx, survey.ID); err != nil {
		return err
	}
	if _, err := s.questionRepo.Delete(ctx, ports.QuestionFilter{IDs: []string{id}}); err != nil {
		return err
	}
	_, err = s.surveyRepo.RemoveQuestion(ctx, survey.ID, id)
	return err
}

// structural authorizes a change to the answer options of a question and
// rolls the survey over to a new version when needed.
func (s *questionService) structural(ctx context.Context, p domain.Principal, questionID string) (domain.Question, error) {
	survey, q, err := s.authz.Resolver().Question(ctx, p, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	if err := s.versions.Rollover(ctx, survey.ID); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (s *questionService) CreateItem(ctx context.Context, p domain.Principal, questionID string, input ports.ItemInput) (domain.Item, error) {
	if strings.TrimSpace(input.Label) == "" {
		return domain.Item{}, domain.Errorf(domain.ErrValidation, "Label is required.")
	}
	if _, err := s.structural(ctx, p, questionID); err != nil {
		return domain.Item{}, err
	}
	return s.questionRepo.InsertItem(ctx, questionID, domain.Item{Label: input.Label})
}

func (s *questionService) UpdateItem(ctx context.Context, p domain.Principal, questionID, itemID string, patch domain.ItemPatch) (domain.Item, error) {
	if patch.Label.IsNull() {
		return domain.Item{}, domain.Errorf(domain.ErrValidation, "Label is required.")
	}
	patch.Image = domain.Optional[string]{}
	if _, err := s.structural(ctx, p, questionID); err != nil {
		return domain.Item{}, err
	}
	return s.questionRepo.UpdateItem(ctx, questionID, itemID, patch)
}

func (s *questionService) DeleteItem(ctx context.Context, p domain.Principal, questionID, itemID string) error {
	if _, err := s.structural(ctx, p, questionID); err != nil {
		return err
	}
	return s.questionRepo.DeleteItem(ctx, questionID, itemID)
}

func (s *questionService) SetItemImage(ctx context.Context, p domain.Principal, questionID, itemID, imageID string) (domain.Item, error) {
	if err := s.attachable(ctx, p, questionID, imageID); err != nil {
		return domain.Item{}, err
	}
	return s.questionRepo.UpdateItem(ctx, questionID, itemID, domain.ItemPatch{Image: domain.Some(imageID)})
}

func (s *questionService) RemoveItemImage(ctx context.Context, p domain.Principal, questionID, itemID string) (domain.Item, error) {
	if _, _, err := s.authz.Resolver().Question(ctx, p, questionID); err != nil {
		return domain.Item{}, err
	}
	return s.questionRepo.UpdateItem(ctx, questionID, itemID, domain.ItemPatch{Image: domain.Null[string]()})
}

func (s *questionService) CreateLabel(ctx context.Context, p domain.Principal, questionID string, input ports.LabelInput) (domain.Label, error) {
	if strings.TrimSpace(input.Label) == "" {
		return domain.Label{}, domain.Errorf(domain.ErrValidation, "Label is required.")
	}
	if _, err := s.structural(ctx, p, questionID); err != nil {
		return domain.Label{}, err
	}
	return s.questionRepo.InsertLabel(ctx, questionID, domain.Label{Value: input.Value, Label: input.Label})
}

func (s *questionService) UpdateLabel(ctx context.Context, p domain.Principal, questionID, labelID string, patch domain.LabelPatch) (domain.Label, error) {
	if patch.Label.IsNull() || patch.Value.IsNull() {
		return domain.Label{}, domain.Errorf(domain.ErrValidation, "Label and value are required.")
	}
	patch.Image = domain.Optional[string]{}
	if _, err := s.structural(ctx, p, questionID); err != nil {
		return domain.Label{}, err
	}
	return s.questionRepo.UpdateLabel(ctx, questionID, labelID, patch)
}

func (s *questionService) DeleteLabel(ctx context.Context, p domain.Principal, questionID, labelID string) error {
	if _, err := s.structural(ctx, p, questionID); err != nil {
		return err
	}
	return s.questionRepo.DeleteLabel(ctx, questionID, labelID)
}

func (s *questionService) SetLabelImage(ctx context.Context, p domain.Principal, questionID, labelID, imageID string) (domain.Label, error) {
	if err := s.attachable(ctx, p, questionID, imageID); err != nil {
		return domain.Label{}, err
	}
	return s.questionRepo.UpdateLabel(ctx, questionID, labelID, domain.LabelPatch{Image: domain.Some(imageID)})
}

func (s *questionService) RemoveLabelImage(ctx context.Context, p domain.Principal, questionID, labelID string) (domain.Label, error) {
	if _, _, err := s.authz.Resolver().Question(ctx, p, questionID); err != nil {
		return domain.Label{}, err
	}
	return s.questionRepo.UpdateLabel(ctx, questionID, labelID, domain.LabelPatch{Image: domain.Null[string]()})
}

func (s *questionService) CreateChoice(ctx context.Context, p domain.Principal, questionID string, input ports.ChoiceInput) (domain.Choice, error) {
	if strings.TrimSpace(input.Code) == "" {
		return domain.Choice{}, domain.Errorf(domain.ErrValidation, "Code is required.")
	}
	q, err := s.structural(ctx, p, questionID)
	if err != nil {
		return domain.Choice{}, err
	}
	for _, c := range q.Choices {
		if c.Code == input.Code {
			return domain.Choice{}, domain.Errorf(domain.ErrValidation, "Code %q is already in use.", input.Code)
		}
	}
	return s.questionRepo.InsertChoice(ctx, questionID, domain.Choice{Code: input.Code, Label: input.Label})
}

func (s *questionService) UpdateChoice(ctx context.Context, p domain.Principal, questionID, choiceID string, patch domain.ChoicePatch) (domain.Choice, error) {
	if patch.Code.IsNull() {
		return domain.Choice{}, domain.Errorf(domain.ErrValidation, "Code is required.")
	}
	patch.Image = domain.Optional[string]{}
	if _, err := s.structural(ctx, p, questionID); err != nil {
		return domain.Choice{}, err
	}
	return s.questionRepo.UpdateChoice(ctx, questionID, choiceID, patch)
}

func (s *questionService) DeleteChoice(ctx context.Context, p domain.Principal, questionID, choiceID string) error {
	if _, err := s.structural(ctx, p, questionID); err != nil {
		return err
	}
	return s.questionRepo.DeleteChoice(ctx, questionID, choiceID)
}

func (s *questionService) SetChoiceImage(ctx context.Context, p domain.Principal, questionID, choiceID, imageID string) (domain.Choice, error) {
	if err := s.attachable(ctx, p, questionID, imageID); err != nil {
		return domain.Choice{}, err
	}
	return s.questionRepo.UpdateChoice(ctx, questionID, choiceID, domain.ChoicePatch{Image: domain.Some(imageID)})
}

func (s *questionService) RemoveChoiceImage(ctx context.Context, p domain.Principal, questionID, choiceID string) (domain.Choice, error) {
	if _, _, err := s.authz.Resolver().Question(ctx, p, questionID); err != nil {
		return domain.Choice{}, err
	}
	return s.questionRepo.UpdateChoice(ctx, questionID, choiceID, domain.ChoicePatch{Image: domain.Null[string]()})
}

func (s *questionService) attachable(ctx context.Context, p domain.Principal, questionID, imageID string) error {
	if _, _, err := s.authz.Resolver().Question(ctx, p, questionID); err != nil {
		return err
	}
	_, err := ownedImage(ctx, s.imageRepo, s.authz, p, imageID)
	return err
}

func validateRegulator(q domain.Question) error {
	if q.Min != nil && q.Max != nil && *q.Min >= *q.Max {
		return domain.Errorf(domain.ErrValidation, "min must be lower than max.")
	}
	if q.StepSize != nil && *q.StepSize <= 0 {
		return domain.Errorf(domain.ErrValidation, "stepSize must be positive.")
	}
	return nil
}
