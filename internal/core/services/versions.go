package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

// Versions manages the version history of surveys. Exactly one version of
// a survey is open at a time; it is closed with a question snapshot as soon
// as the questions change after votes were cast.
type Versions struct {
	versionRepo  ports.VersionRepository
	voteRepo     ports.VoteRepository
	surveyRepo   ports.SurveyRepository
	questionRepo ports.QuestionRepository
	now          func() time.Time
}

func NewVersions(
	versionRepo ports.VersionRepository,
	voteRepo ports.VoteRepository,
	surveyRepo ports.SurveyRepository,
	questionRepo ports.QuestionRepository,
) *Versions {
	return &Versions{
		versionRepo:  versionRepo,
		voteRepo:     voteRepo,
		surveyRepo:   surveyRepo,
		questionRepo: questionRepo,
		now:          time.Now,
	}
}

var byVersionNumber = domain.Page{Sort: []domain.Sort{{Field: "versionNumber"}}}

// History lists the versions of a survey, oldest first.
func (v *Versions) History(ctx context.Context, surveyID string) ([]domain.Version, error) {
	return v.versionRepo.Get(ctx, ports.VersionFilter{Surveys: []string{surveyID}}, byVersionNumber)
}

// Current returns the open version of a survey, opening one if needed.
func (v *Versions) Current(ctx context.Context, surveyID string) (domain.Version, error) {
	open, err := v.versionRepo.Get(ctx, ports.VersionFilter{Surveys: []string{surveyID}, OpenOnly: true}, byVersionNumber)
	if err == nil {
		return open[len(open)-1], nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Version{}, fmt.Errorf("failed to get open version: %w", err)
	}
	return v.Open(ctx, surveyID)
}

// Open starts the next version of a survey.
func (v *Versions) Open(ctx context.Context, surveyID string) (domain.Version, error) {
	number := 1
	history, err := v.History(ctx, surveyID)
	switch {
	case err == nil:
		number = history[len(history)-1].VersionNumber + 1
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Version{}, fmt.Errorf("failed to get versions: %w", err)
	}
	return v.versionRepo.Insert(ctx, domain.Version{
		Survey:        surveyID,
		VersionNumber: number,
		From:          v.now().UTC(),
	})
}

// Rollover closes the open version of a survey when it already received
// votes and opens the next one. It must run before the questions change.
func (v *Versions) Rollover(ctx context.Context, surveyID string) error {
	current, err := v.Current(ctx, surveyID)
	if err != nil {
		return err
	}
	votes, err := v.voteRepo.Count(ctx, ports.VoteFilter{Versions: []string{current.ID}})
	if err != nil {
		return fmt.Errorf("failed to count votes: %w", err)
	}
	if votes == 0 {
		return nil
	}

	questions, err := v.OrderedQuestions(ctx, surveyID)
	if err != nil {
		return err
	}
	summaries, err := v.Summarize(ctx, current.ID, questions)
	if err != nil {
		return err
	}
	if _, err := v.versionRepo.Close(ctx, current.ID, v.now().UTC(), questions, summaries); err != nil {
		return fmt.Errorf("failed to close version %d: %w", current.VersionNumber, err)
	}
	_, err = v.Open(ctx, surveyID)
	return err
}

// OrderedQuestions returns the questions of a survey in questionOrder.
func (v *Versions) OrderedQuestions(ctx context.Context, surveyID string) ([]domain.Question, error) {
	surveys, err := v.surveyRepo.Get(ctx, ports.SurveyFilter{IDs: []string{surveyID}}, domain.Page{})
	if err != nil {
		return nil, err
	}
	questions, err := v.questionRepo.Get(ctx, ports.QuestionFilter{Surveys: []string{surveyID}}, domain.Page{})
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Question{}, nil
	}
	if err != nil {
		return nil, err
	}
	return sortByIDs(surveys[0].QuestionOrder, questions), nil
}

// sortByIDs orders questions by their position in order. Questions missing
// from order keep their relative position at the end.
func sortByIDs(order []string, questions []domain.Question) []domain.Question {
	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}
	slices.SortStableFunc(questions, func(a, b domain.Question) int {
		pa, oka := position[a.ID]
		pb, okb := position[b.ID]
		switch {
		case oka && okb:
			return cmp.Compare(pa, pb)
		case oka:
			return -1
		case okb:
			return 1
		default:
			return 0
		}
	})
	return questions
}

// Summarize aggregates the votes of a version per question.
func (v *Versions) Summarize(ctx context.Context, versionID string, questions []domain.Question) ([]domain.Summary, error) {
	votes, err := v.voteRepo.Count(ctx, ports.VoteFilter{Versions: []string{versionID}})
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	tallies, err := v.voteRepo.Tally(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}

	byQuestion := map[string]map[string]int64{}
	for _, t := range tallies {
		if byQuestion[t.Question] == nil {
			byQuestion[t.Question] = map[string]int64{}
		}
		byQuestion[t.Question][t.Value] += t.Count
	}

	summaries := make([]domain.Summary, 0, len(questions))
	for _, q := range questions {
		summaries = append(summaries, domain.Summary{
			Question:      q.ID,
			Type:          q.Type,
			NumberOfVotes: votes,
			Data:          summaryData(q, byQuestion[q.ID]),
		})
	}
	return summaries, nil
}

// summaryData labels the tallied values of a question. Questions with a
// fixed set of answers list every option, counted or not.
func summaryData(q domain.Question, counts map[string]int64) []domain.SummaryData {
	data := []domain.SummaryData{}
	switch q.Type {
	case domain.QuestionChoice:
		for _, c := range q.Choices {
			data = append(data, domain.SummaryData{Label: c.Label, Value: float64(counts[c.Code])})
		}
	case domain.QuestionFavorite, domain.QuestionRanking:
		for _, it := range q.Items {
			data = append(data, domain.SummaryData{Label: it.Label, Value: float64(counts[it.ID])})
		}
	case domain.QuestionLike, domain.QuestionLikeDislike:
		for _, value := range reactionValues(q.Type) {
			data = append(data, domain.SummaryData{Label: reactionLabels[value], Value: float64(counts[value])})
		}
	default:
		values := make([]string, 0, len(counts))
		for value := range counts {
			values = append(values, value)
		}
		slices.SortFunc(values, compareNumeric)
		for _, value := range values {
			data = append(data, domain.SummaryData{Label: value, Value: float64(counts[value])})
		}
	}
	return data
}

func compareNumeric(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return cmp.Compare(a, b)
	}
	return cmp.Compare(fa, fb)
}
