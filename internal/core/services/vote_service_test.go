package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

// pollFixture is a live domain whose survey has a LIKE and a CHOICE question.
type pollFixture struct {
	owner  domain.Principal
	survey domain.Survey
	live   domain.Domain
	like   domain.Question
	choice domain.Question
}

func newPollFixture(t *testing.T, app *testApp) pollFixture {
	t.Helper()
	_, owner := app.user(t, "Owner")
	survey := app.survey(t, owner, domain.QuestionLike, domain.QuestionChoice)
	like := app.question(t, owner, survey.ID, domain.QuestionLike)
	choice := app.question(t, owner, survey.ID, domain.QuestionChoice)
	app.choice(t, owner, choice.ID, "A")
	app.choice(t, owner, choice.ID, "B")
	return pollFixture{
		owner:  owner,
		survey: survey,
		live:   app.liveDomain(t, owner, survey.ID),
		like:   like,
		choice: choice,
	}
}

func (a *testApp) answer(t *testing.T, p domain.Principal, questionID, value string) ports.AnswerResult {
	t.Helper()
	res, err := a.votes.SetAnswer(a.ctx, p, ports.AnswerInput{Question: questionID, Value: &value})
	require.NoError(t, err)
	return res
}

func TestSetAnswer_CompletingTheSurveyCastsAVote(t *testing.T) {
	app := setupApp(t)
	f := newPollFixture(t, app)
	session, client := app.temporaryClient(t, f.live.ID)

	// 1. First answer is only kept in the answer set
	res := app.answer(t, client, f.choice.ID, "B")
	assert.Nil(t, res.Vote)
	assert.Equal(t, "B", *res.Answer.Value)
	assert.Equal(t, 0, app.votes.VoteAmount(app.ctx, f.owner, ports.ListVotesInput{}))

	// 2. Answering the last question persists the vote in question order
	res = app.answer(t, client, f.like.ID, "1")
	require.NotNil(t, res.Vote)
	vote := res.Vote
	assert.Equal(t, f.survey.ID, vote.Survey)
	assert.Equal(t, f.live.ID, vote.Domain)
	assert.Equal(t, session.Client.ID, vote.Client)
	require.Len(t, vote.Answers, 2)
	assert.Equal(t, f.like.ID, vote.Answers[0].Question)
	assert.Equal(t, f.choice.ID, vote.Answers[1].Question)

	history, err := app.store.Versions.Get(app.ctx, ports.VersionFilter{Surveys: []string{f.survey.ID}, OpenOnly: true}, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, history[0].ID, vote.Version)

	// 3. The answer set starts over
	res = app.answer(t, client, f.like.ID, "0")
	assert.Nil(t, res.Vote)

	// 4. Votes are visible to the survey owner and to the voting client only
	assert.Equal(t, 1, app.votes.VoteAmount(app.ctx, f.owner, ports.ListVotesInput{}))
	assert.Equal(t, 1, app.votes.VoteAmount(app.ctx, client, ports.ListVotesInput{}))
	_, stranger := app.user(t, "Stranger")
	_, err = app.votes.Votes(app.ctx, stranger, ports.ListVotesInput{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, app.votes.VoteAmount(app.ctx, domain.Anonymous(), ports.ListVotesInput{}))
}

func TestSetAnswer_Validation(t *testing.T) {
	app := setupApp(t)
	f := newPollFixture(t, app)
	_, client := app.temporaryClient(t, f.live.ID)

	outside := app.survey(t, f.owner, domain.QuestionLike)
	stray := app.question(t, f.owner, outside.ID, domain.QuestionLike)

	tests := []struct {
		name  string
		input ports.AnswerInput
	}{
		{"like out of range", ports.AnswerInput{Question: f.like.ID, Value: domain.Ptr("2")}},
		{"like dislike value on like", ports.AnswerInput{Question: f.like.ID, Value: domain.Ptr("-1")}},
		{"unknown choice", ports.AnswerInput{Question: f.choice.ID, Value: domain.Ptr("Z")}},
		{"missing value", ports.AnswerInput{Question: f.choice.ID}},
		{"question of another survey", ports.AnswerInput{Question: stray.ID, Value: domain.Ptr("1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.votes.SetAnswer(app.ctx, client, tt.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestSetAnswer_QuestionTypes(t *testing.T) {
	app := setupApp(t)
	_, owner := app.user(t, "Owner")
	survey := app.survey(t, owner, domain.QuestionRanking, domain.QuestionRegulator, domain.QuestionLikeDislike, domain.QuestionFavorite)

	ranking := app.question(t, owner, survey.ID, domain.QuestionRanking)
	var items []string
	for _, label := range []string{"Tea", "Coffee", "Juice"} {
		it, err := app.questions.CreateItem(app.ctx, owner, ranking.ID, ports.ItemInput{Label: label})
		require.NoError(t, err)
		items = append(items, it.ID)
	}
	regulator, err := app.questions.CreateQuestion(app.ctx, owner, survey.ID, ports.CreateQuestionInput{
		Value:    "How loud?",
		Type:     domain.QuestionRegulator,
		Min:      domain.Ptr(0.0),
		Max:      domain.Ptr(10.0),
		StepSize: domain.Ptr(1.0),
		Default:  domain.Ptr(20.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, *regulator.Default, "default is clamped to max")
	reaction := app.question(t, owner, survey.ID, domain.QuestionLikeDislike)
	favorite := app.question(t, owner, survey.ID, domain.QuestionFavorite)
	blue, err := app.questions.CreateItem(app.ctx, owner, favorite.ID, ports.ItemInput{Label: "Blue"})
	require.NoError(t, err)

	d := app.liveDomain(t, owner, survey.ID)
	_, client := app.temporaryClient(t, d.ID)

	invalid := []ports.AnswerInput{
		{Question: ranking.ID, Values: items[:2]},
		{Question: ranking.ID, Values: []string{items[0], items[0], items[1]}},
		{Question: ranking.ID, Values: []string{items[0], items[1], "unknown"}},
		{Question: regulator.ID, Value: domain.Ptr("11")},
		{Question: regulator.ID, Value: domain.Ptr("loud")},
		{Question: reaction.ID, Value: domain.Ptr("LIKE")},
		{Question: favorite.ID, Value: domain.Ptr("Blue")},
	}
	for _, input := range invalid {
		_, err := app.votes.SetAnswer(app.ctx, client, input)
		assert.ErrorIs(t, err, domain.ErrValidation, "answer %+v", input)
	}

	_, err = app.votes.SetAnswer(app.ctx, client, ports.AnswerInput{Question: ranking.ID, Values: []string{items[1], items[0], items[2]}})
	require.NoError(t, err)
	app.answer(t, client, regulator.ID, "7.5")
	app.answer(t, client, reaction.ID, "-1")
	res := app.answer(t, client, favorite.ID, blue.ID)
	require.NotNil(t, res.Vote)

	results, err := app.results.Results(app.ctx, owner, survey.ID)
	require.NoError(t, err)
	require.Len(t, results.Versions, 1)
	summaries := results.Versions[0].Summaries
	require.Len(t, summaries, 4)

	assert.Equal(t, []domain.SummaryData{
		{Label: "Tea", Value: 2},
		{Label: "Coffee", Value: 3},
		{Label: "Juice", Value: 1},
	}, summaries[0].Data, "ranking scores n points for the first of n items")
	assert.Equal(t, []domain.SummaryData{{Label: "7.5", Value: 1}}, summaries[1].Data)
	assert.Equal(t, []domain.SummaryData{
		{Label: "LIKE", Value: 0},
		{Label: "NEUTRAL", Value: 0},
		{Label: "DISLIKE", Value: 1},
	}, summaries[2].Data)
	assert.Equal(t, []domain.SummaryData{{Label: "Blue", Value: 1}}, summaries[3].Data)
}

func TestSetAnswer_OnlyDomainClients(t *testing.T) {
	app := setupApp(t)
	f := newPollFixture(t, app)
	owner, _ := app.user(t, "Kiosk")

	permanent, err := app.clients.CreatePermanentClient(app.ctx, "Kiosk", owner.Email)
	require.NoError(t, err)
	p, err := app.auth.Principal(app.ctx, permanent.Token)
	require.NoError(t, err)

	_, err = app.votes.SetAnswer(app.ctx, p, ports.AnswerInput{Question: f.like.ID, Value: domain.Ptr("1")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = app.votes.SetAnswer(app.ctx, f.owner, ports.AnswerInput{Question: f.like.ID, Value: domain.Ptr("1")})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRemoveAnswer(t *testing.T) {
	app := setupApp(t)
	f := newPollFixture(t, app)
	_, client := app.temporaryClient(t, f.live.ID)

	app.answer(t, client, f.like.ID, "1")
	require.NoError(t, app.votes.RemoveAnswer(app.ctx, client, f.like.ID))
	err := app.votes.RemoveAnswer(app.ctx, client, f.like.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "No answer found.")

	// the removed answer has to be given again before the vote is cast
	res := app.answer(t, client, f.choice.ID, "A")
	assert.Nil(t, res.Vote)
	res = app.answer(t, client, f.like.ID, "0")
	assert.NotNil(t, res.Vote)
}

func TestQuestionChanges_RollTheVersionOverOnceVoted(t *testing.T) {
	app := setupApp(t)
	f := newPollFixture(t, app)

	// 1. Changes before any vote keep the first version
	extra := app.choice(t, f.owner, f.choice.ID, "C")
	require.NoError(t, app.questions.DeleteChoice(app.ctx, f.owner, f.choice.ID, extra.ID))
	history, err := app.store.Versions.Get(app.ctx, ports.VersionFilter{Surveys: []string{f.survey.ID}}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, history, 1)

	// 2. Vote, then change the answer options
	_, client := app.temporaryClient(t, f.live.ID)
	app.answer(t, client, f.like.ID, "1")
	first := app.answer(t, client, f.choice.ID, "A").Vote
	require.NotNil(t, first)

	app.choice(t, f.owner, f.choice.ID, "C")

	// 3. The voted version is closed with a snapshot and a summary
	results, err := app.results.Results(app.ctx, f.owner, f.survey.ID)
	require.NoError(t, err)
	require.Len(t, results.Versions, 2)
	assert.Equal(t, int64(1), results.NumberOfVotes)

	closed, open := results.Versions[0], results.Versions[1]
	assert.Equal(t, 1, closed.VersionNumber)
	assert.Equal(t, first.Version, closed.ID)
	require.NotNil(t, closed.To)
	assert.False(t, open.From.Before(*closed.To))
	assert.Nil(t, open.To)

	require.Len(t, closed.Questions, 2)
	assert.Len(t, closed.Questions[1].Choices, 2, "snapshot predates the new choice")
	require.Len(t, closed.Summaries, 2)
	assert.Equal(t, []domain.SummaryData{{Label: "LIKE", Value: 1}, {Label: "NEUTRAL", Value: 0}}, closed.Summaries[0].Data)
	assert.Equal(t, []domain.SummaryData{{Label: "Option A", Value: 1}, {Label: "Option B", Value: 0}}, closed.Summaries[1].Data)

	assert.Equal(t, 2, open.VersionNumber)
	require.Len(t, open.Summaries, 2)
	assert.Equal(t, int64(0), open.Summaries[1].NumberOfVotes)
	assert.Len(t, open.Summaries[1].Data, 3)

	// 4. New votes land in the open version
	_, second := app.temporaryClient(t, f.live.ID)
	app.answer(t, second, f.like.ID, "0")
	vote := app.answer(t, second, f.choice.ID, "C").Vote
	require.NotNil(t, vote)
	assert.Equal(t, open.ID, vote.Version)

	// 5. Image changes never roll over
	img := app.image(t, f.owner, f.survey.ID)
	_, err = app.questions.SetChoiceImage(app.ctx, f.owner, f.choice.ID, closed.Questions[1].Choices[0].ID, img.ID)
	require.NoError(t, err)
	history, err = app.store.Versions.Get(app.ctx, ports.VersionFilter{Surveys: []string{f.survey.ID}}, domain.Page{})
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestResults(t *testing.T) {
	app := setupApp(t)
	f := newPollFixture(t, app)
	_, stranger := app.user(t, "Stranger")

	_, err := app.results.Results(app.ctx, stranger, f.survey.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	for _, code := range []string{"A", "B", "A"} {
		_, client := app.temporaryClient(t, f.live.ID)
		app.answer(t, client, f.like.ID, "1")
		app.answer(t, client, f.choice.ID, code)
	}

	results, err := app.results.Results(app.ctx, f.owner, f.survey.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), results.NumberOfVotes)
	require.Len(t, results.Versions, 1)
	assert.Equal(t, []domain.SummaryData{{Label: "Option A", Value: 2}, {Label: "Option B", Value: 1}}, results.Versions[0].Summaries[1].Data)
	assert.False(t, results.To.Before(results.From))
}

func TestSummarizeOpenVersions(t *testing.T) {
	app := setupApp(t)
	f := newPollFixture(t, app)
	_, client := app.temporaryClient(t, f.live.ID)
	app.answer(t, client, f.like.ID, "1")
	app.answer(t, client, f.choice.ID, "B")

	deleted := app.survey(t, f.owner, domain.QuestionLike)
	require.NoError(t, app.surveys.DeleteSurvey(app.ctx, f.owner, deleted.ID))
	app.settle()

	require.NoError(t, app.results.SummarizeOpenVersions(app.ctx))

	open, err := app.store.Versions.Get(app.ctx, ports.VersionFilter{Surveys: []string{f.survey.ID}, OpenOnly: true}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, open[0].Summaries, 2)
	assert.Equal(t, int64(1), open[0].Summaries[0].NumberOfVotes)
}
