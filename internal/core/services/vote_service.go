package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

const (
	likeValue    = "1"
	neutralValue = "0"
	dislikeValue = "-1"
)

var reactionLabels = map[string]string{
	likeValue:    "LIKE",
	neutralValue: "NEUTRAL",
	dislikeValue: "DISLIKE",
}

func reactionValues(t domain.QuestionType) []string {
	if t == domain.QuestionLikeDislike {
		return []string{likeValue, neutralValue, dislikeValue}
	}
	return []string{likeValue, neutralValue}
}

type voteService struct {
	domainRepo   ports.DomainRepository
	surveyRepo   ports.SurveyRepository
	questionRepo ports.QuestionRepository
	voteRepo     ports.VoteRepository
	versions     *Versions
	answers      *AnswerStore
}

func NewVoteService(
	domainRepo ports.DomainRepository,
	surveyRepo ports.SurveyRepository,
	questionRepo ports.QuestionRepository,
	voteRepo ports.VoteRepository,
	versions *Versions,
	answers *AnswerStore,
) ports.VoteService {
	return &voteService{
		domainRepo:   domainRepo,
		surveyRepo:   surveyRepo,
		questionRepo: questionRepo,
		voteRepo:     voteRepo,
		versions:     versions,
		answers:      answers,
	}
}

// answering resolves the domain and survey a client currently answers.
func (s *voteService) answering(ctx context.Context, p domain.Principal) (domain.Domain, error) {
	if !p.IsClient() {
		return domain.Domain{}, domain.Unauthorized()
	}
	if p.Domain == nil {
		return domain.Domain{}, domain.Errorf(domain.ErrValidation, "Client is not bound to a domain.")
	}
	domains, err := s.domainRepo.Get(ctx, ports.DomainFilter{IDs: []string{*p.Domain}}, domain.Page{})
	if err != nil {
		return domain.Domain{}, err
	}
	if domains[0].ActiveSurvey == nil {
		return domain.Domain{}, domain.Errorf(domain.ErrValidation, "Domain must have an active Survey.")
	}
	return domains[0], nil
}

// SetAnswer records one answer. Once every question of the survey has an
// answer the vote is persisted for the open version and the set is cleared.
func (s *voteService) SetAnswer(ctx context.Context, p domain.Principal, input ports.AnswerInput) (ports.AnswerResult, error) {
	d, err := s.answering(ctx, p)
	if err != nil {
		return ports.AnswerResult{}, err
	}
	surveyID := *d.ActiveSurvey

	questions, err := s.questionRepo.Get(ctx, ports.QuestionFilter{Surveys: []string{surveyID}}, domain.Page{})
	if errors.Is(err, domain.ErrNotFound) {
		return ports.AnswerResult{}, domain.Errorf(domain.ErrValidation, "Question not found in survey.")
	}
	if err != nil {
		return ports.AnswerResult{}, err
	}
	i := slices.IndexFunc(questions, func(q domain.Question) bool { return q.ID == input.Question })
	if i < 0 {
		return ports.AnswerResult{}, domain.Errorf(domain.ErrValidation, "Question not found in survey.")
	}
	answer, err := validateAnswer(questions[i], input)
	if err != nil {
		return ports.AnswerResult{}, err
	}

	set, err := s.answers.Get(ctx, surveyID, d.ID, p.ID)
	if err != nil {
		return ports.AnswerResult{}, err
	}
	set.Answers[answer.Question] = answer

	if !answeredAll(set, questions) {
		if err := s.answers.Put(ctx, set); err != nil {
			return ports.AnswerResult{}, err
		}
		return ports.AnswerResult{Answer: answer}, nil
	}

	vote, err := s.persist(ctx, set, questions)
	if err != nil {
		return ports.AnswerResult{}, err
	}
	if err := s.answers.Clear(ctx, set); err != nil {
		return ports.AnswerResult{}, fmt.Errorf("failed to clear answers: %w", err)
	}
	return ports.AnswerResult{Answer: answer, Vote: vote}, nil
}

func (s *voteService) RemoveAnswer(ctx context.Context, p domain.Principal, questionID string) error {
	d, err := s.answering(ctx, p)
	if err != nil {
		return err
	}
	set, err := s.answers.Get(ctx, *d.ActiveSurvey, d.ID, p.ID)
	if err != nil {
		return err
	}
	if _, ok := set.Answers[questionID]; !ok {
		return domain.Errorf(domain.ErrNotFound, "No answer found.")
	}
	delete(set.Answers, questionID)
	return s.answers.Put(ctx, set)
}

func (s *voteService) persist(ctx context.Context, set domain.AnswerSet, questions []domain.Question) (*domain.Vote, error) {
	version, err := s.versions.Current(ctx, set.Survey)
	if err != nil {
		return nil, err
	}
	ordered, err := s.versions.OrderedQuestions(ctx, set.Survey)
	if err != nil {
		return nil, err
	}
	if len(ordered) == 0 {
		ordered = questions
	}

	vote := &domain.Vote{
		Survey:  set.Survey,
		Version: version.ID,
		Domain:  set.Domain,
		Client:  set.Client,
	}
	for _, q := range ordered {
		if a, ok := set.Answers[q.ID]; ok {
			vote.Answers = append(vote.Answers, a)
		}
	}
	if err := s.voteRepo.SaveVote(ctx, vote); err != nil {
		return nil, fmt.Errorf("failed to save vote: %w", err)
	}
	return vote, nil
}

func answeredAll(set domain.AnswerSet, questions []domain.Question) bool {
	for _, q := range questions {
		if _, ok := set.Answers[q.ID]; !ok {
			return false
		}
	}
	return true
}

// validateAnswer checks the answer against the question type. Ranking
// questions take an ordering of all items, every other type one value.
func validateAnswer(q domain.Question, input ports.AnswerInput) (domain.Answer, error) {
	answer := domain.Answer{Question: q.ID}
	if q.Type == domain.QuestionRanking {
		if len(input.Values) != len(q.Items) {
			return answer, domain.Errorf(domain.ErrValidation, "Ranking answers must order every item.")
		}
		seen := map[string]bool{}
		for _, v := range input.Values {
			if _, ok := q.Item(v); !ok || seen[v] {
				return answer, domain.Errorf(domain.ErrValidation, "Invalid ranking answer.")
			}
			seen[v] = true
		}
		answer.Values = slices.Clone(input.Values)
		return answer, nil
	}

	if input.Value == nil {
		return answer, domain.Errorf(domain.ErrValidation, "Answer value is required.")
	}
	value := *input.Value
	valid := false
	switch q.Type {
	case domain.QuestionLike, domain.QuestionLikeDislike:
		valid = slices.Contains(reactionValues(q.Type), value)
	case domain.QuestionChoice:
		valid = slices.ContainsFunc(q.Choices, func(c domain.Choice) bool { return c.Code == value })
	case domain.QuestionFavorite:
		_, valid = q.Item(value)
	case domain.QuestionRegulator:
		valid = inRange(q, value)
	}
	if !valid {
		return answer, domain.Errorf(domain.ErrValidation, "Invalid answer for %s question.", q.Type)
	}
	answer.Value = &value
	return answer, nil
}

func inRange(q domain.Question, raw string) bool {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false
	}
	if q.Min != nil && v < *q.Min {
		return false
	}
	if q.Max != nil && v > *q.Max {
		return false
	}
	return true
}

func (s *voteService) Votes(ctx context.Context, p domain.Principal, input ports.ListVotesInput) ([]domain.Vote, error) {
	filter, err := s.filter(ctx, p, input.Survey)
	if err != nil {
		return nil, err
	}
	return s.voteRepo.List(ctx, filter, input.Page)
}

func (s *voteService) VoteAmount(ctx context.Context, p domain.Principal, input ports.ListVotesInput) int {
	filter, err := s.filter(ctx, p, input.Survey)
	if err != nil {
		return 0
	}
	n, err := s.voteRepo.Count(ctx, filter)
	if err != nil {
		return 0
	}
	return int(n)
}

// filter narrows votes to what p may see: everything for admins, votes on
// their own surveys for users, their own votes for clients.
func (s *voteService) filter(ctx context.Context, p domain.Principal, surveyID string) (ports.VoteFilter, error) {
	var filter ports.VoteFilter
	if surveyID != "" {
		filter.Surveys = []string{surveyID}
	}
	switch p.Role {
	case domain.RoleAdmin:
		return filter, nil
	case domain.RoleUser:
		surveys, err := s.surveyRepo.Get(ctx, ports.SurveyFilter{Creator: p.ID, IDs: filter.Surveys}, domain.Page{})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return filter, domain.NotFound(domain.KindVote)
			}
			return filter, err
		}
		filter.Surveys = nil
		for _, survey := range surveys {
			filter.Surveys = append(filter.Surveys, survey.ID)
		}
		return filter, nil
	case domain.RoleClient:
		filter.Client = p.ID
		return filter, nil
	default:
		return filter, domain.Unauthorized()
	}
}
