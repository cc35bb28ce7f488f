package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

// TestSurveyFlow covers the lifecycle: Create Survey -> Publish in Domain ->
// Answer from Clients -> Summarize -> Results
func TestSurveyFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	var owner ports.UserSession
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/users", "", ports.CreateUserInput{
		Name: "Owner", Email: "owner@example.com", Password: "secret-password",
	}, &owner))

	// Step 1: Create a survey with one choice question
	var survey domain.Survey
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/surveys", owner.Token, ports.CreateSurveyInput{
		Title:    "Checkout",
		Types:    []domain.QuestionType{domain.QuestionChoice},
		IsActive: true,
	}, &survey))

	var question domain.Question
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/surveys/"+survey.ID+"/questions", owner.Token, ports.CreateQuestionInput{
		Value: "How did you pay?",
		Type:  domain.QuestionChoice,
	}, &question))
	for _, code := range []string{"card", "cash"} {
		require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/questions/"+question.ID+"/choices", owner.Token, ports.ChoiceInput{
			Code: code, Label: "Paid by " + code,
		}, nil))
	}

	// Step 2: Publish it in a domain
	var d domain.Domain
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/domains", owner.Token, ports.CreateDomainInput{Name: "Store"}, &d))
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPatch, "/api/domains/"+d.ID, owner.Token, map[string]any{
		"activeSurvey":   survey.ID,
		"activeQuestion": question.ID,
	}, &d))
	assert.Equal(t, &question.ID, d.ActiveQuestion)

	// Step 3: Answer from three devices
	for _, code := range []string{"card", "card", "cash"} {
		var client ports.ClientSession
		require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/clients/temporary", "", map[string]string{"domain": d.ID}, &client))

		var result ports.AnswerResult
		status := app.do(t, http.MethodPut, "/api/answers", client.Token, map[string]any{
			"question": question.ID,
			"value":    code,
		}, &result)
		require.Equal(t, http.StatusCreated, status)
		require.NotNil(t, result.Vote)
	}

	var amount struct {
		Amount int `json:"amount"`
	}
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/api/votes/amount?survey="+survey.ID, owner.Token, nil, &amount))
	assert.Equal(t, 3, amount.Amount)

	// Step 4: Snapshot the open version
	require.NoError(t, app.Results.SummarizeOpenVersions(context.Background()))

	var results domain.Results
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/api/surveys/"+survey.ID+"/results", owner.Token, nil, &results))
	assert.EqualValues(t, 3, results.NumberOfVotes)
	require.NotEmpty(t, results.Versions)

	latest := results.Versions[len(results.Versions)-1]
	require.Len(t, latest.Summaries, 1)
	assert.Equal(t, []domain.SummaryData{
		{Label: "Paid by card", Value: 2},
		{Label: "Paid by cash", Value: 1},
	}, latest.Summaries[0].Data)
}

// TestUserDeletion checks that deleted users can no longer sign in while
// their email becomes available again.
func TestUserDeletion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	input := ports.CreateUserInput{Name: "Grace", Email: "grace@example.com", Password: "secret-password"}
	var session ports.UserSession
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/users", "", input, &session))

	require.Equal(t, http.StatusNoContent, app.do(t, http.MethodDelete, "/api/users/"+session.User.ID, session.Token, nil, nil))

	status := app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": input.Email, "password": input.Password,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	var deletedAt *string
	err := app.DB.QueryRow("SELECT deleted_at::text FROM users WHERE id = $1", session.User.ID).Scan(&deletedAt)
	require.NoError(t, err)
	assert.NotNil(t, deletedAt)

	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/users", "", input, nil))
}
