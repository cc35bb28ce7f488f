package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type summaryService struct {
	versionRepo ports.VersionRepository
	voteRepo    ports.VoteRepository
	versions    *Versions
	authz       *authz.Evaluator
	now         func() time.Time
}

func NewSummaryService(
	versionRepo ports.VersionRepository,
	voteRepo ports.VoteRepository,
	versions *Versions,
	evaluator *authz.Evaluator,
) ports.ResultService {
	return &summaryService{
		versionRepo: versionRepo,
		voteRepo:    voteRepo,
		versions:    versions,
		authz:       evaluator,
		now:         time.Now,
	}
}

func (s *summaryService) Results(ctx context.Context, p domain.Principal, surveyID string) (domain.Results, error) {
	if _, err := s.authz.Resolver().Survey(ctx, p, surveyID); err != nil {
		return domain.Results{}, err
	}
	history, err := s.versions.History(ctx, surveyID)
	if err != nil {
		return domain.Results{}, err
	}
	votes, err := s.voteRepo.Count(ctx, ports.VoteFilter{Surveys: []string{surveyID}})
	if err != nil {
		return domain.Results{}, fmt.Errorf("failed to count votes: %w", err)
	}

	now := s.now().UTC()
	results := domain.Results{
		Survey:        surveyID,
		From:          history[0].From,
		To:            history[len(history)-1].EffectiveTo(now),
		NumberOfVotes: votes,
		Versions:      make([]domain.Version, 0, len(history)),
	}

	for _, v := range history {
		if err := s.complete(ctx, &v); err != nil {
			return domain.Results{}, err
		}
		results.Versions = append(results.Versions, v)
	}
	return results, nil
}

// complete fills in the questions and summaries of a version. Closed
// versions keep their snapshot and have missing summaries persisted, the
// open version is always summarized from the live votes.
func (s *summaryService) complete(ctx context.Context, v *domain.Version) error {
	if v.IsOpen() {
		questions, err := s.versions.OrderedQuestions(ctx, v.Survey)
		if err != nil {
			return err
		}
		v.Questions = questions
		v.Summaries, err = s.versions.Summarize(ctx, v.ID, questions)
		return err
	}
	if len(v.Summaries) > 0 {
		return nil
	}

	summaries, err := s.versions.Summarize(ctx, v.ID, v.Questions)
	if err != nil {
		return err
	}
	if _, err := s.versionRepo.SetSummaries(ctx, v.ID, summaries); err != nil {
		return fmt.Errorf("failed to persist summaries of version %d: %w", v.VersionNumber, err)
	}
	v.Summaries = summaries
	return nil
}

// SummarizeOpenVersions persists a summary snapshot for every open version.
func (s *summaryService) SummarizeOpenVersions(ctx context.Context) error {
	open, err := s.versionRepo.Get(ctx, ports.VersionFilter{OpenOnly: true}, domain.Page{})
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch open versions: %w", err)
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(open))

	for _, version := range open {
		wg.Add(1)
		go func(v domain.Version) {
			defer wg.Done()
			if err := s.summarize(ctx, v); err != nil {
				errChan <- fmt.Errorf("failed to summarize version %s: %w", v.ID, err)
			}
		}(version)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *summaryService) summarize(ctx context.Context, v domain.Version) error {
	questions, err := s.versions.OrderedQuestions(ctx, v.Survey)
	if errors.Is(err, domain.ErrNotFound) {
		// survey deleted, nothing left to summarize
		return nil
	}
	if err != nil {
		return err
	}
	summaries, err := s.versions.Summarize(ctx, v.ID, questions)
	if err != nil {
		return err
	}
	_, err = s.versionRepo.SetSummaries(ctx, v.ID, summaries)
	return err
}
