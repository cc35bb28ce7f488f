package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

// AnswerStore keeps the answers of a client while it works through a
// survey. Entries expire after the client cache time.
type AnswerStore struct {
	cache ports.Cache
	ttl   time.Duration
}

func NewAnswerStore(cache ports.Cache, ttl time.Duration) *AnswerStore {
	return &AnswerStore{cache: cache, ttl: ttl}
}

func answerKey(surveyID, domainID, clientID string) string {
	return fmt.Sprintf("answers:%s:%s:%s", surveyID, domainID, clientID)
}

// Open starts an empty answer set, replacing any previous one.
func (a *AnswerStore) Open(ctx context.Context, surveyID, domainID, clientID string) error {
	return a.Put(ctx, domain.AnswerSet{
		Survey:  surveyID,
		Domain:  domainID,
		Client:  clientID,
		Answers: map[string]domain.Answer{},
	})
}

// Get returns the answer set, opening a fresh one when none is cached.
func (a *AnswerStore) Get(ctx context.Context, surveyID, domainID, clientID string) (domain.AnswerSet, error) {
	raw, ok, err := a.cache.Get(ctx, answerKey(surveyID, domainID, clientID))
	if err != nil {
		return domain.AnswerSet{}, fmt.Errorf("failed to read answers: %w", err)
	}
	set := domain.AnswerSet{Survey: surveyID, Domain: domainID, Client: clientID}
	if ok {
		if err := json.Unmarshal([]byte(raw), &set); err != nil {
			return domain.AnswerSet{}, fmt.Errorf("failed to decode answers: %w", err)
		}
	}
	if set.Answers == nil {
		set.Answers = map[string]domain.Answer{}
	}
	return set, nil
}

func (a *AnswerStore) Put(ctx context.Context, set domain.AnswerSet) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	if err := a.cache.Set(ctx, answerKey(set.Survey, set.Domain, set.Client), string(raw), a.ttl); err != nil {
		return fmt.Errorf("failed to store answers: %w", err)
	}
	return nil
}

func (a *AnswerStore) Clear(ctx context.Context, set domain.AnswerSet) error {
	return a.cache.Del(ctx, answerKey(set.Survey, set.Domain, set.Client))
}
