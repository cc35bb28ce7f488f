package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vncsmyrnk/evaluation/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := postgres.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, postgres.Migrate(db))
	// a second run is a no-op
	require.NoError(t, postgres.Migrate(db))
	return db
}

func TestUserRepository(t *testing.T) {
	db := setupDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	ada, err := repo.Create(ctx, domain.User{Email: "ada@example.com", Name: "Ada", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NotEmpty(t, ada.ID)
	assert.False(t, ada.CreationDate.IsZero())

	_, err = repo.Create(ctx, domain.User{Email: "ADA@example.com", Name: "Impostor"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	grace, err := repo.Create(ctx, domain.User{Email: "grace@example.com", Name: "Grace", IsAdmin: true})
	require.NoError(t, err)

	found, err := repo.GetByEmail(ctx, "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, found.ID)

	users, err := repo.Get(ctx, ports.UserFilter{}, domain.Page{Sort: []domain.Sort{{Field: "name", Descending: true}}})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Grace", users[0].Name)

	users, err = repo.Get(ctx, ports.UserFilter{IDs: []string{grace.ID, "missing"}}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsAdmin)

	ada.Name = "Ada Lovelace"
	updated, err := repo.Update(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)

	require.NoError(t, repo.Delete(ctx, ada.ID))
	_, err = repo.GetByID(ctx, ada.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ada.ID), domain.ErrDeleteFailed)

	_, err = repo.Update(ctx, ada)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the email is free again once its owner is gone
	_, err = repo.Create(ctx, domain.User{Email: "ada@example.com", Name: "Ada II"})
	assert.NoError(t, err)
}

func TestVoteRepository(t *testing.T) {
	db := setupDB(t)
	repo := postgres.NewVoteRepository(db)
	ctx := context.Background()

	yes, no := "yes", "no"
	votes := []*domain.Vote{
		{Survey: "s1", Version: "v1", Domain: "d1", Client: "c1", Answers: []domain.Answer{
			{Question: "q1", Value: &yes},
			{Question: "q2", Values: []string{"red", "green", "blue"}},
		}},
		{Survey: "s1", Version: "v1", Domain: "d1", Client: "c2", Answers: []domain.Answer{
			{Question: "q1", Value: &no},
			{Question: "q2", Values: []string{"blue", "red", "green"}},
		}},
		{Survey: "s1", Version: "v2", Domain: "d2", Client: "c1", Answers: []domain.Answer{
			{Question: "q1", Value: &yes},
		}},
	}
	for _, v := range votes {
		require.NoError(t, repo.SaveVote(ctx, v))
		assert.NotEmpty(t, v.ID)
	}

	n, err := repo.Count(ctx, ports.VoteFilter{Surveys: []string{"s1"}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = repo.Count(ctx, ports.VoteFilter{Client: "c1", Domain: "d2"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	listed, err := repo.List(ctx, ports.VoteFilter{Versions: []string{"v1"}}, domain.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "c2", listed[0].Client)
	require.Len(t, listed[0].Answers, 2)
	assert.Equal(t, "no", *listed[0].Answers[0].Value)

	_, err = repo.List(ctx, ports.VoteFilter{Client: "nobody"}, domain.Page{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tallies, err := repo.Tally(ctx, "v1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Tally{
		{Question: "q1", Value: "no", Count: 1},
		{Question: "q1", Value: "yes", Count: 1},
		{Question: "q2", Value: "blue", Count: 4},
		{Question: "q2", Value: "green", Count: 3},
		{Question: "q2", Value: "red", Count: 5},
	}, tallies)

	tallies, err = repo.Tally(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, tallies)
}
