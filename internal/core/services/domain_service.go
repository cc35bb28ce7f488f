package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type domainService struct {
	domainRepo        ports.DomainRepository
	surveyRepo        ports.SurveyRepository
	questionRepo      ports.QuestionRepository
	userRepo          ports.UserRepository
	cache             ports.Cache
	questionCacheTime time.Duration
	authz             *authz.Evaluator
}

// DomainService also exposes HandleEvent so that cached questions are
// dropped as soon as they change.
type DomainService interface {
	ports.DomainService
	HandleEvent(ctx context.Context, ev domain.Event) error
}

func NewDomainService(
	domainRepo ports.DomainRepository,
	surveyRepo ports.SurveyRepository,
	questionRepo ports.QuestionRepository,
	userRepo ports.UserRepository,
	cache ports.Cache,
	questionCacheTime time.Duration,
	evaluator *authz.Evaluator,
) DomainService {
	return &domainService{
		domainRepo:        domainRepo,
		surveyRepo:        surveyRepo,
		questionRepo:      questionRepo,
		userRepo:          userRepo,
		cache:             cache,
		questionCacheTime: questionCacheTime,
		authz:             evaluator,
	}
}

func (s *domainService) Domains(ctx context.Context, p domain.Principal, input ports.ListDomainsInput) ([]domain.Domain, error) {
	filter := ports.DomainFilter{Name: input.Name}
	switch p.Role {
	case domain.RoleAdmin:
	case domain.RoleUser:
		filter.Owner = p.ID
	case domain.RoleClient:
		filter.PublicOnly = true
		filter.WithActiveSurvey = true
	default:
		return nil, domain.Unauthorized()
	}

	domains, err := s.domainRepo.Get(ctx, filter, input.Page)
	if err != nil {
		return nil, err
	}
	if len(input.Types) == 0 {
		return domains, nil
	}
	return s.withSurveyTypes(ctx, domains, input.Types)
}

// withSurveyTypes keeps the domains whose active survey only uses the
// given question types.
func (s *domainService) withSurveyTypes(ctx context.Context, domains []domain.Domain, types []domain.QuestionType) ([]domain.Domain, error) {
	var surveyIDs []string
	for _, d := range domains {
		if d.ActiveSurvey != nil {
			surveyIDs = append(surveyIDs, *d.ActiveSurvey)
		}
	}
	if len(surveyIDs) == 0 {
		return nil, domain.NotFound(domain.KindDomain)
	}

	surveys, err := s.surveyRepo.Get(ctx, ports.SurveyFilter{IDs: surveyIDs, TypesWithin: slices.Compact(slices.Sorted(slices.Values(types)))}, domain.Page{})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(domain.KindDomain)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to filter domains by survey types: %w", err)
	}

	matching := make(map[string]bool, len(surveys))
	for _, survey := range surveys {
		matching[survey.ID] = true
	}
	filtered := slices.DeleteFunc(domains, func(d domain.Domain) bool {
		return d.ActiveSurvey == nil || !matching[*d.ActiveSurvey]
	})
	if len(filtered) == 0 {
		return nil, domain.NotFound(domain.KindDomain)
	}
	return filtered, nil
}

func (s *domainService) Domain(ctx context.Context, p domain.Principal, id string) (domain.Domain, error) {
	if !p.Authenticated() {
		return domain.Domain{}, domain.Unauthorized()
	}
	return s.get(ctx, id)
}

func (s *domainService) DomainAmount(ctx context.Context, p domain.Principal, input ports.ListDomainsInput) int {
	if p.IsTemporaryClient() {
		return 0
	}
	input.Page = domain.Page{}
	domains, err := s.Domains(ctx, p, input)
	if err != nil {
		return 0
	}
	return len(domains)
}

func (s *domainService) State(ctx context.Context, p domain.Principal, id, key string) (domain.State, error) {
	d, err := s.get(ctx, id)
	if err != nil {
		return domain.State{}, err
	}
	if err := s.authz.ReadDomainState(p, d); err != nil {
		return domain.State{}, err
	}
	state, ok := d.State(key)
	if !ok {
		return domain.State{}, domain.NotFound(domain.KindState)
	}
	return state, nil
}

func (s *domainService) ActiveQuestion(ctx context.Context, p domain.Principal, id string) (domain.Question, error) {
	d, err := s.get(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	if err := s.authz.ReadDomain(p, d); err != nil {
		return domain.Question{}, err
	}
	if d.ActiveQuestion == nil {
		return domain.Question{}, domain.NotFound(domain.KindQuestion)
	}

	key := questionKey(*d.ActiveQuestion)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err == nil {
			return q, nil
		}
	}

	questions, err := s.questionRepo.Get(ctx, ports.QuestionFilter{IDs: []string{*d.ActiveQuestion}}, domain.Page{})
	if err != nil {
		return domain.Question{}, err
	}
	if raw, err := json.Marshal(questions[0]); err == nil {
		_ = s.cache.Set(ctx, key, string(raw), s.questionCacheTime)
	}
	return questions[0], nil
}

func (s *domainService) CreateDomain(ctx context.Context, p domain.Principal, input ports.CreateDomainInput) (domain.Domain, error) {
	if !p.IsAdmin() && !p.IsUser() {
		return domain.Domain{}, domain.Unauthorized()
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Domain{}, domain.Errorf(domain.ErrValidation, "Name is required.")
	}
	return s.domainRepo.Insert(ctx, domain.Domain{
		Name:     name,
		Owners:   []string{p.ID},
		IsPublic: input.IsPublic,
	})
}

func (s *domainService) UpdateDomain(ctx context.Context, p domain.Principal, id string, patch domain.DomainPatch) (domain.Domain, error) {
	d, err := s.get(ctx, id)
	if err != nil {
		return domain.Domain{}, err
	}
	if err := s.authz.UpdateDomain(p, d, patch); err != nil {
		return domain.Domain{}, err
	}
	if len(patch.Keys()) == 0 {
		return d, nil
	}
	if patch.Name.IsNull() {
		return domain.Domain{}, domain.Errorf(domain.ErrValidation, "Name can not be removed.")
	}

	if patch.ActiveSurvey.Set {
		if surveyID, ok := patch.ActiveSurvey.Get(); ok {
			if _, err := s.surveyRepo.Get(ctx, ports.SurveyFilter{IDs: []string{surveyID}, ActiveOnly: true}, domain.Page{}); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.Domain{}, domain.Errorf(domain.ErrValidation, "Survey must be active.")
				}
				return domain.Domain{}, err
			}
		}
		if !patch.ActiveQuestion.Set || patch.ActiveSurvey.IsNull() {
			patch.ActiveQuestion = domain.Null[string]()
		}
	}

	if questionID, ok := patch.ActiveQuestion.Get(); ok {
		surveyID := d.ActiveSurvey
		if patch.ActiveSurvey.Set {
			surveyID = patch.ActiveSurvey.Value
		}
		if surveyID == nil {
			return domain.Domain{}, domain.Errorf(domain.ErrValidation, "Cant set activeQuestion when domain has no survey.")
		}
		if _, err := s.questionRepo.Get(ctx, ports.QuestionFilter{IDs: []string{questionID}, Surveys: []string{*surveyID}}, domain.Page{}); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Domain{}, domain.Errorf(domain.ErrValidation, "Question not found in survey.")
			}
			return domain.Domain{}, err
		}
	}

	updated, err := s.domainRepo.Update(ctx, ports.DomainFilter{IDs: []string{id}}, patch)
	if err != nil {
		return domain.Domain{}, err
	}
	return updated[0], nil
}

func (s *domainService) DeleteDomain(ctx context.Context, p domain.Principal, id string) error {
	d, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.ManageDomain(p, d); err != nil {
		return err
	}
	_, err = s.domainRepo.Delete(ctx, ports.DomainFilter{IDs: []string{id}})
	return err
}

func (s *domainService) SetDomainOwner(ctx context.Context, p domain.Principal, id, email string) (domain.Domain, error) {
	d, err := s.get(ctx, id)
	if err != nil {
		return domain.Domain{}, err
	}
	if err := s.authz.ManageDomain(p, d); err != nil {
		return domain.Domain{}, err
	}
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.Domain{}, err
	}
	if domain.OwnedBy(d, user.ID) {
		return d, nil
	}
	return s.domainRepo.AddOwner(ctx, id, user.ID)
}

func (s *domainService) RemoveDomainOwner(ctx context.Context, p domain.Principal, id, ownerID string) (bool, error) {
	d, err := s.get(ctx, id)
	if err != nil {
		return false, err
	}
	if err := s.authz.ManageDomain(p, d); err != nil {
		return false, err
	}
	if !domain.OwnedBy(d, ownerID) {
		return true, nil
	}
	updated, err := s.domainRepo.RemoveOwner(ctx, id, ownerID)
	if err != nil {
		return false, err
	}
	return !domain.OwnedBy(updated, ownerID), nil
}

func (s *domainService) SetState(ctx context.Context, p domain.Principal, id string, state domain.State) (domain.State, error) {
	d, err := s.get(ctx, id)
	if err != nil {
		return domain.State{}, err
	}
	if err := s.authz.ReadDomainState(p, d); err != nil {
		return domain.State{}, err
	}
	if strings.TrimSpace(state.Key) == "" {
		return domain.State{}, domain.Errorf(domain.ErrValidation, "State key is required.")
	}
	return s.domainRepo.SetState(ctx, id, state)
}

func (s *domainService) RemoveState(ctx context.Context, p domain.Principal, id, key string) error {
	d, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.ReadDomainState(p, d); err != nil {
		return err
	}
	return s.domainRepo.RemoveState(ctx, id, key)
}

// HandleEvent evicts cached questions once they are updated or deleted.
func (s *domainService) HandleEvent(ctx context.Context, ev domain.Event) error {
	change, ok := ev.(domain.Change[domain.Question])
	if !ok || change.Op == domain.OpInsert {
		return nil
	}
	for _, q := range change.Old {
		if err := s.cache.Del(ctx, questionKey(q.ID)); err != nil {
			return fmt.Errorf("failed to evict question %s: %w", q.ID, err)
		}
	}
	return nil
}

func (s *domainService) get(ctx context.Context, id string) (domain.Domain, error) {
	domains, err := s.domainRepo.Get(ctx, ports.DomainFilter{IDs: []string{id}}, domain.Page{})
	if err != nil {
		return domain.Domain{}, err
	}
	return domains[0], nil
}

func questionKey(questionID string) string {
	return "question:" + questionID
}
