package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

func (r *voteRepository) SaveVote(ctx context.Context, vote *domain.Vote) error {
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	answers, err := json.Marshal(vote.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `
		INSERT INTO votes (id, survey, version, domain, client, answers)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err = r.db.QueryRowContext(ctx, query, vote.ID, vote.Survey, vote.Version, vote.Domain, vote.Client, answers).Scan(&vote.CreationDate)
	if err != nil {
		return fmt.Errorf("failed to save vote: %w", err)
	}
	return nil
}

func voteWhere(filter ports.VoteFilter) *where {
	w := &where{}
	if len(filter.IDs) > 0 {
		w.add("id = ANY($%d)", pq.Array(filter.IDs))
	}
	if len(filter.Surveys) > 0 {
		w.add("survey = ANY($%d)", pq.Array(filter.Surveys))
	}
	if len(filter.Versions) > 0 {
		w.add("version = ANY($%d)", pq.Array(filter.Versions))
	}
	if filter.Client != "" {
		w.add("client = $%d", filter.Client)
	}
	if filter.Domain != "" {
		w.add("domain = $%d", filter.Domain)
	}
	return w
}

func (r *voteRepository) List(ctx context.Context, filter ports.VoteFilter, page domain.Page) ([]domain.Vote, error) {
	w := voteWhere(filter)
	query := `SELECT id, survey, version, domain, client, answers, created_at FROM votes` + w.String() + paging(page, "created_at")
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var (
			v       domain.Vote
			answers []byte
		)
		if err := rows.Scan(&v.ID, &v.Survey, &v.Version, &v.Domain, &v.Client, &answers, &v.CreationDate); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		if err := json.Unmarshal(answers, &v.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers of vote %s: %w", v.ID, err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}
	if len(votes) == 0 {
		return nil, domain.NotFound(domain.KindVote)
	}
	return votes, nil
}

func (r *voteRepository) Count(ctx context.Context, filter ports.VoteFilter) (int64, error) {
	w := voteWhere(filter)
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}

// Tally counts single values once per answer. Ranking answers score each
// entry by position, the first of n entries earning n points.
func (r *voteRepository) Tally(ctx context.Context, versionID string) ([]domain.Tally, error) {
	query := `
		WITH answers AS (
			SELECT a.answer
			FROM votes v, jsonb_array_elements(v.answers) AS a(answer)
			WHERE v.version = $1
		)
		SELECT question, value, SUM(points)::BIGINT
		FROM (
			SELECT answer->>'question' AS question, answer->>'value' AS value, 1 AS points
			FROM answers
			WHERE answer->>'value' IS NOT NULL
			UNION ALL
			SELECT answer->>'question', r.value, jsonb_array_length(answer->'values') - r.ord::INT + 1
			FROM answers, jsonb_array_elements_text(answer->'values') WITH ORDINALITY AS r(value, ord)
			WHERE jsonb_typeof(answer->'values') = 'array'
		) scored
		GROUP BY question, value
		ORDER BY question, value
	`
	rows, err := r.db.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes of version %s: %w", versionID, err)
	}
	defer rows.Close()

	tallies := []domain.Tally{}
	for rows.Next() {
		var t domain.Tally
		if err := rows.Scan(&t.Question, &t.Value, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tallies: %w", err)
	}
	return tallies, nil
}
