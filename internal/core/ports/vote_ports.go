package ports

import (
	"context"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type VoteFilter struct {
	IDs      []string
	Surveys  []string
	Versions []string
	Client   string
	Domain   string
}

type VoteRepository interface {
	SaveVote(ctx context.Context, vote *domain.Vote) error
	List(ctx context.Context, filter VoteFilter, page domain.Page) ([]domain.Vote, error)
	Count(ctx context.Context, filter VoteFilter) (int64, error)
	Tally(ctx context.Context, versionID string) ([]domain.Tally, error)
}

type AnswerInput struct {
	Question string   `json:"question"`
	Value    *string  `json:"value"`
	Values   []string `json:"values"`
}

// AnswerResult carries the vote persisted when the answer completed the survey.
type AnswerResult struct {
	Answer domain.Answer `json:"answer"`
	Vote   *domain.Vote  `json:"vote,omitempty"`
}

type ListVotesInput struct {
	Survey string
	Page   domain.Page
}

type VoteService interface {
	SetAnswer(ctx context.Context, p domain.Principal, input AnswerInput) (AnswerResult, error)
	RemoveAnswer(ctx context.Context, p domain.Principal, questionID string) error
	Votes(ctx context.Context, p domain.Principal, input ListVotesInput) ([]domain.Vote, error)
	VoteAmount(ctx context.Context, p domain.Principal, input ListVotesInput) int
}
