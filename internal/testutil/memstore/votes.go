package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type Votes struct {
	t   *table[domain.Vote]
	clk *clock
}

func cloneVote(v domain.Vote) domain.Vote {
	v.Answers = slices.Clone(v.Answers)
	return v
}

func matchVote(f ports.VoteFilter) func(domain.Vote) bool {
	return func(v domain.Vote) bool {
		switch {
		case len(f.IDs) > 0 && !slices.Contains(f.IDs, v.ID):
			return false
		case len(f.Surveys) > 0 && !slices.Contains(f.Surveys, v.Survey):
			return false
		case len(f.Versions) > 0 && !slices.Contains(f.Versions, v.Version):
			return false
		case f.Client != "" && v.Client != f.Client:
			return false
		case f.Domain != "" && v.Domain != f.Domain:
			return false
		}
		return true
	}
}

func (r *Votes) SaveVote(_ context.Context, vote *domain.Vote) error {
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	vote.CreationDate = r.clk.now()
	r.t.insert(*vote)
	return nil
}

func (r *Votes) List(_ context.Context, filter ports.VoteFilter, page domain.Page) ([]domain.Vote, error) {
	found := r.t.find(matchVote(filter), page)
	if len(found) == 0 {
		return nil, domain.NotFound(domain.KindVote)
	}
	return found, nil
}

func (r *Votes) Count(_ context.Context, filter ports.VoteFilter) (int64, error) {
	return int64(len(r.t.find(matchVote(filter), domain.Page{}))), nil
}

// Tally counts single values once per answer and scores ranking positions
// so that the first of n entries earns n points.
func (r *Votes) Tally(_ context.Context, versionID string) ([]domain.Tally, error) {
	type key struct{ question, value string }
	counts := map[key]int64{}
	var order []key
	add := func(k key, n int64) {
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k] += n
	}
	for _, v := range r.t.find(matchVote(ports.VoteFilter{Versions: []string{versionID}}), domain.Page{}) {
		for _, a := range v.Answers {
			if a.Value != nil {
				add(key{a.Question, *a.Value}, 1)
			}
			for i, value := range a.Values {
				add(key{a.Question, value}, int64(len(a.Values)-i))
			}
		}
	}
	tallies := make([]domain.Tally, 0, len(order))
	for _, k := range order {
		tallies = append(tallies, domain.Tally{Question: k.question, Value: k.value, Count: counts[k]})
	}
	return tallies, nil
}
