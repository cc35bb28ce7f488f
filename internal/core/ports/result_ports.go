package ports

import (
	"context"
	"time"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type VersionFilter struct {
	IDs      []string
	Surveys  []string
	OpenOnly bool
}

type VersionRepository interface {
	Get(ctx context.Context, filter VersionFilter, page domain.Page) ([]domain.Version, error)
	Insert(ctx context.Context, v domain.Version) (domain.Version, error)
	Close(ctx context.Context, id string, to time.Time, questions []domain.Question, summaries []domain.Summary) (domain.Version, error)
	SetSummaries(ctx context.Context, id string, summaries []domain.Summary) (domain.Version, error)
}

type ResultService interface {
	Results(ctx context.Context, p domain.Principal, surveyID string) (domain.Results, error)
	SummarizeOpenVersions(ctx context.Context) error
}
