package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

func TestUpdateDomain_OnlyOwnersMayRename(t *testing.T) {
	app := setupApp(t)
	admin := app.admin(t)
	owner, ownerP := app.user(t, "Owner")
	_, strangerP := app.user(t, "Stranger")

	// 1. Admin creates the domain and hands it to the owner
	d, err := app.domains.CreateDomain(app.ctx, admin, ports.CreateDomainInput{Name: "Lobby"})
	require.NoError(t, err)
	d, err = app.domains.SetDomainOwner(app.ctx, admin, d.ID, owner.Email)
	require.NoError(t, err)
	assert.Contains(t, d.Owners, owner.ID)

	// 2. A user who does not own it is denied with the generic message
	_, err = app.domains.UpdateDomain(app.ctx, strangerP, d.ID, domain.DomainPatch{Name: domain.Some("x")})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.EqualError(t, err, "Not authorized or no permissions.")

	// 3. The owner succeeds and lastUpdate moves forward
	updated, err := app.domains.UpdateDomain(app.ctx, ownerP, d.ID, domain.DomainPatch{Name: domain.Some("x")})
	require.NoError(t, err)
	assert.Equal(t, "x", updated.Name)
	assert.True(t, updated.LastUpdate.After(d.LastUpdate))

	// 4. The admin may rename it too
	updated, err = app.domains.UpdateDomain(app.ctx, admin, d.ID, domain.DomainPatch{Name: domain.Some("y")})
	require.NoError(t, err)
	assert.Equal(t, "y", updated.Name)
}

func TestUpdateDomain_ActiveQuestionMustBelongToActiveSurvey(t *testing.T) {
	app := setupApp(t)
	_, p := app.user(t, "Owner")

	active := app.survey(t, p, domain.QuestionLike)
	inSurvey := app.question(t, p, active.ID, domain.QuestionLike)
	other := app.survey(t, p, domain.QuestionLike)
	elsewhere := app.question(t, p, other.ID, domain.QuestionLike)
	d := app.liveDomain(t, p, active.ID)

	_, err := app.domains.UpdateDomain(app.ctx, p, d.ID, domain.DomainPatch{ActiveQuestion: domain.Some(elsewhere.ID)})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "Question not found in survey.")

	updated, err := app.domains.UpdateDomain(app.ctx, p, d.ID, domain.DomainPatch{ActiveQuestion: domain.Some(inSurvey.ID)})
	require.NoError(t, err)
	require.NotNil(t, updated.ActiveQuestion)
	assert.Equal(t, inSurvey.ID, *updated.ActiveQuestion)
}

func TestUpdateDomain_ActiveSurveyRules(t *testing.T) {
	app := setupApp(t)
	_, p := app.user(t, "Owner")

	draft, err := app.surveys.CreateSurvey(app.ctx, p, ports.CreateSurveyInput{Title: "Draft", IsActive: false})
	require.NoError(t, err)
	d, err := app.domains.CreateDomain(app.ctx, p, ports.CreateDomainInput{Name: "Lobby"})
	require.NoError(t, err)

	t.Run("inactive survey", func(t *testing.T) {
		_, err := app.domains.UpdateDomain(app.ctx, p, d.ID, domain.DomainPatch{ActiveSurvey: domain.Some(draft.ID)})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.EqualError(t, err, "Survey must be active.")
	})

	t.Run("active question without survey", func(t *testing.T) {
		q := app.question(t, p, draft.ID, domain.QuestionLike)
		_, err := app.domains.UpdateDomain(app.ctx, p, d.ID, domain.DomainPatch{ActiveQuestion: domain.Some(q.ID)})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.EqualError(t, err, "Cant set activeQuestion when domain has no survey.")
	})

	t.Run("switching survey resets the active question", func(t *testing.T) {
		first := app.survey(t, p, domain.QuestionLike)
		q := app.question(t, p, first.ID, domain.QuestionLike)
		second := app.survey(t, p, domain.QuestionLike)

		_, err := app.domains.UpdateDomain(app.ctx, p, d.ID, domain.DomainPatch{
			ActiveSurvey:   domain.Some(first.ID),
			ActiveQuestion: domain.Some(q.ID),
		})
		require.NoError(t, err)

		updated, err := app.domains.UpdateDomain(app.ctx, p, d.ID, domain.DomainPatch{ActiveSurvey: domain.Some(second.ID)})
		require.NoError(t, err)
		assert.Equal(t, second.ID, *updated.ActiveSurvey)
		assert.Nil(t, updated.ActiveQuestion)
	})
}

func TestUpdateDomain_ClientsOnlyMoveTheActiveQuestion(t *testing.T) {
	app := setupApp(t)
	_, owner := app.user(t, "Owner")
	survey := app.survey(t, owner, domain.QuestionLike)
	q := app.question(t, owner, survey.ID, domain.QuestionLike)
	d := app.liveDomain(t, owner, survey.ID)
	_, client := app.temporaryClient(t, d.ID)

	updated, err := app.domains.UpdateDomain(app.ctx, client, d.ID, domain.DomainPatch{ActiveQuestion: domain.Some(q.ID)})
	require.NoError(t, err)
	assert.Equal(t, q.ID, *updated.ActiveQuestion)

	_, err = app.domains.UpdateDomain(app.ctx, client, d.ID, domain.DomainPatch{
		Name:           domain.Some("taken over"),
		ActiveQuestion: domain.Some(q.ID),
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	otherDomain := app.liveDomain(t, owner, survey.ID)
	_, err = app.domains.UpdateDomain(app.ctx, client, otherDomain.ID, domain.DomainPatch{ActiveQuestion: domain.Some(q.ID)})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestActiveQuestion_CacheFollowsQuestionUpdates(t *testing.T) {
	app := setupApp(t)
	_, owner := app.user(t, "Owner")
	survey := app.survey(t, owner, domain.QuestionLike)
	q := app.question(t, owner, survey.ID, domain.QuestionLike)
	d := app.liveDomain(t, owner, survey.ID)
	_, err := app.domains.UpdateDomain(app.ctx, owner, d.ID, domain.DomainPatch{ActiveQuestion: domain.Some(q.ID)})
	require.NoError(t, err)
	_, client := app.temporaryClient(t, d.ID)

	active, err := app.domains.ActiveQuestion(app.ctx, client, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "How was it?", active.Value)

	_, err = app.questions.UpdateQuestion(app.ctx, owner, q.ID, domain.QuestionPatch{Value: domain.Some("And now?")})
	require.NoError(t, err)
	app.settle()

	active, err = app.domains.ActiveQuestion(app.ctx, client, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "And now?", active.Value)
}

func TestDomainStates(t *testing.T) {
	app := setupApp(t)
	_, owner := app.user(t, "Owner")
	_, stranger := app.user(t, "Stranger")
	survey := app.survey(t, owner, domain.QuestionLike)
	d := app.liveDomain(t, owner, survey.ID)
	_, client := app.temporaryClient(t, d.ID)

	_, err := app.domains.SetState(app.ctx, client, d.ID, domain.State{Key: "screen", Value: "welcome"})
	require.NoError(t, err)
	_, err = app.domains.SetState(app.ctx, client, d.ID, domain.State{Key: "screen", Value: "thanks"})
	require.NoError(t, err)

	state, err := app.domains.State(app.ctx, owner, d.ID, "screen")
	require.NoError(t, err)
	assert.Equal(t, "thanks", state.Value)

	_, err = app.domains.State(app.ctx, stranger, d.ID, "screen")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = app.domains.SetState(app.ctx, owner, d.ID, domain.State{Key: " "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, app.domains.RemoveState(app.ctx, owner, d.ID, "screen"))
	_, err = app.domains.State(app.ctx, owner, d.ID, "screen")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, app.domains.RemoveState(app.ctx, owner, d.ID, "screen"), domain.ErrNotFound)
}

func TestDomains_ListingPerRole(t *testing.T) {
	app := setupApp(t)
	admin := app.admin(t)
	_, owner := app.user(t, "Owner")
	_, other := app.user(t, "Other")

	likes := app.survey(t, owner, domain.QuestionLike)
	choices := app.survey(t, owner, domain.QuestionChoice, domain.QuestionLike)
	likeDomain := app.liveDomain(t, owner, likes.ID)
	choiceDomain := app.liveDomain(t, owner, choices.ID)
	_, err := app.domains.UpdateDomain(app.ctx, owner, choiceDomain.ID, domain.DomainPatch{IsPublic: domain.Some(true)})
	require.NoError(t, err)
	_, err = app.domains.CreateDomain(app.ctx, other, ports.CreateDomainInput{Name: "Elsewhere"})
	require.NoError(t, err)

	assert.Equal(t, 3, app.domains.DomainAmount(app.ctx, admin, ports.ListDomainsInput{}))
	assert.Equal(t, 2, app.domains.DomainAmount(app.ctx, owner, ports.ListDomainsInput{}))
	assert.Equal(t, 0, app.domains.DomainAmount(app.ctx, domain.Anonymous(), ports.ListDomainsInput{}))

	filtered, err := app.domains.Domains(app.ctx, owner, ports.ListDomainsInput{Types: []domain.QuestionType{domain.QuestionLike}})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, likeDomain.ID, filtered[0].ID)

	_, client := app.temporaryClient(t, likeDomain.ID)
	assert.Equal(t, 0, app.domains.DomainAmount(app.ctx, client, ports.ListDomainsInput{}))
	public, err := app.domains.Domains(app.ctx, client, ports.ListDomainsInput{})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, choiceDomain.ID, public[0].ID)
}

func TestDeleteDomain_DetachesClients(t *testing.T) {
	app := setupApp(t)
	_, owner := app.user(t, "Owner")
	_, stranger := app.user(t, "Stranger")
	survey := app.survey(t, owner, domain.QuestionLike)
	d := app.liveDomain(t, owner, survey.ID)
	session, _ := app.temporaryClient(t, d.ID)

	assert.ErrorIs(t, app.domains.DeleteDomain(app.ctx, stranger, d.ID), domain.ErrUnauthorized)
	require.NoError(t, app.domains.DeleteDomain(app.ctx, owner, d.ID))
	app.settle()

	clients, err := app.store.Clients.Get(app.ctx, ports.ClientFilter{IDs: []string{session.Client.ID}}, domain.Page{})
	require.NoError(t, err)
	assert.Nil(t, clients[0].Domain)
}

func TestRemoveDomainOwner(t *testing.T) {
	app := setupApp(t)
	first, firstP := app.user(t, "First")
	second, _ := app.user(t, "Second")

	d, err := app.domains.CreateDomain(app.ctx, firstP, ports.CreateDomainInput{Name: "Shared"})
	require.NoError(t, err)
	_, err = app.domains.SetDomainOwner(app.ctx, firstP, d.ID, second.Email)
	require.NoError(t, err)

	removed, err := app.domains.RemoveDomainOwner(app.ctx, firstP, d.ID, second.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	d, err = app.domains.Domain(app.ctx, firstP, d.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, d.Owners)

	_, err = app.domains.SetDomainOwner(app.ctx, firstP, d.ID, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
