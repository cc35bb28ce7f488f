package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type surveyService struct {
	surveyRepo   ports.SurveyRepository
	questionRepo ports.QuestionRepository
	imageRepo    ports.ImageRepository
	versions     *Versions
	authz        *authz.Evaluator
}

func NewSurveyService(
	surveyRepo ports.SurveyRepository,
	questionRepo ports.QuestionRepository,
	imageRepo ports.ImageRepository,
	versions *Versions,
	evaluator *authz.Evaluator,
) ports.SurveyService {
	return &surveyService{
		surveyRepo:   surveyRepo,
		questionRepo: questionRepo,
		imageRepo:    imageRepo,
		versions:     versions,
		authz:        evaluator,
	}
}

func (s *surveyService) Surveys(ctx context.Context, p domain.Principal, input ports.ListSurveysInput) ([]domain.Survey, error) {
	filter := ports.SurveyFilter{Title: input.Title}
	switch p.Role {
	case domain.RoleAdmin:
	case domain.RoleUser:
		filter.Creator = p.ID
	default:
		return nil, domain.Unauthorized()
	}
	return s.surveyRepo.Get(ctx, filter, input.Page)
}

func (s *surveyService) Survey(ctx context.Context, p domain.Principal, id string) (domain.Survey, error) {
	return s.authz.Resolver().Survey(ctx, p, id)
}

func (s *surveyService) SurveyAmount(ctx context.Context, p domain.Principal, input ports.ListSurveysInput) int {
	input.Page = domain.Page{}
	surveys, err := s.Surveys(ctx, p, input)
	if err != nil {
		return 0
	}
	return len(surveys)
}

func (s *surveyService) CreateSurvey(ctx context.Context, p domain.Principal, input ports.CreateSurveyInput) (domain.Survey, error) {
	if !p.IsAdmin() && !p.IsUser() {
		return domain.Survey{}, domain.Unauthorized()
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return domain.Survey{}, domain.Errorf(domain.ErrValidation, "Title is required.")
	}
	if err := validateTypes(input.Types); err != nil {
		return domain.Survey{}, err
	}

	survey, err := s.surveyRepo.Insert(ctx, domain.Survey{
		Creator:     p.ID,
		Title:       title,
		Description: input.Description,
		Types:       input.Types,
		IsActive:    input.IsActive,
	})
	if err != nil {
		return domain.Survey{}, err
	}
	if _, err := s.versions.Open(ctx, survey.ID); err != nil {
		return domain.Survey{}, err
	}
	return survey, nil
}

func (s *surveyService) UpdateSurvey(ctx context.Context, p domain.Principal, id string, patch domain.SurveyPatch) (domain.Survey, error) {
	survey, err := s.Survey(ctx, p, id)
	if err != nil {
		return domain.Survey{}, err
	}
	patch.PreviewImage = domain.Optional[string]{}
	if patch.Empty() {
		return survey, nil
	}
	if title, ok := patch.Title.Get(); patch.Title.Set && (!ok || strings.TrimSpace(title) == "") {
		return domain.Survey{}, domain.Errorf(domain.ErrValidation, "Title is required.")
	}
	if types, ok := patch.Types.Get(); ok {
		if err := validateTypes(types); err != nil {
			return domain.Survey{}, err
		}
	}
	if patch.QuestionOrder.Set {
		if err := s.validateOrder(ctx, survey, patch.QuestionOrder); err != nil {
			return domain.Survey{}, err
		}
	}
	return s.update(ctx, id, patch)
}

// validateOrder accepts a permutation of the survey's questions only.
func (s *surveyService) validateOrder(ctx context.Context, survey domain.Survey, order domain.Optional[[]string]) error {
	ids, _ := order.Get()
	questions, err := s.questionRepo.Get(ctx, ports.QuestionFilter{Surveys: []string{survey.ID}}, domain.Page{})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if len(ids) != len(questions) {
		return domain.Errorf(domain.ErrValidation, "questionOrder must contain every question of the survey.")
	}
	for _, q := range questions {
		if !slices.Contains(ids, q.ID) {
			return domain.Errorf(domain.ErrValidation, "questionOrder must contain every question of the survey.")
		}
	}
	return nil
}

func (s *surveyService) DeleteSurvey(ctx context.Context, p domain.Principal, id string) error {
	if _, err := s.Survey(ctx, p, id); err != nil {
		return err
	}
	_, err := s.surveyRepo.Delete(ctx, ports.SurveyFilter{IDs: []string{id}})
	return err
}

func (s *surveyService) SetSurveyPreviewImage(ctx context.Context, p domain.Principal, id, imageID string) (domain.Survey, error) {
	if _, err := s.Survey(ctx, p, id); err != nil {
		return domain.Survey{}, err
	}
	if _, err := ownedImage(ctx, s.imageRepo, s.authz, p, imageID); err != nil {
		return domain.Survey{}, err
	}
	return s.update(ctx, id, domain.SurveyPatch{PreviewImage: domain.Some(imageID)})
}

func (s *surveyService) RemoveSurveyPreviewImage(ctx context.Context, p domain.Principal, id string) (domain.Survey, error) {
	survey, err := s.Survey(ctx, p, id)
	if err != nil {
		return domain.Survey{}, err
	}
	if survey.PreviewImage == nil {
		return survey, nil
	}
	return s.update(ctx, id, domain.SurveyPatch{PreviewImage: domain.Null[string]()})
}

func (s *surveyService) update(ctx context.Context, id string, patch domain.SurveyPatch) (domain.Survey, error) {
	updated, err := s.surveyRepo.Update(ctx, ports.SurveyFilter{IDs: []string{id}}, patch)
	if err != nil {
		return domain.Survey{}, err
	}
	return updated[0], nil
}

func validateTypes(types []domain.QuestionType) error {
	for _, t := range types {
		if !t.Valid() {
			return domain.Errorf(domain.ErrValidation, "Unknown question type %q.", t)
		}
	}
	return nil
}

// ownedImage loads an image that p may attach to its entities.
func ownedImage(ctx context.Context, repo ports.ImageRepository, evaluator *authz.Evaluator, p domain.Principal, id string) (domain.Image, error) {
	images, err := repo.Get(ctx, ports.ImageFilter{IDs: []string{id}}, domain.Page{})
	if err != nil {
		return domain.Image{}, err
	}
	if !images[0].IsProtected() {
		if err := evaluator.Owns(p, images[0]); err != nil {
			return domain.Image{}, err
		}
	}
	return images[0], nil
}
