package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

func TestTemporaryClient_CanOnlyLeaveItsDomain(t *testing.T) {
	app := setupApp(t)
	admin := app.admin(t)
	_, owner := app.user(t, "Owner")
	survey := app.survey(t, owner, domain.QuestionLike)
	d := app.liveDomain(t, owner, survey.ID)
	other := app.liveDomain(t, owner, survey.ID)
	session, self := app.temporaryClient(t, d.ID)

	patches := map[string]domain.ClientPatch{
		"empty":                 {},
		"rename":                {Name: domain.Some("y")},
		"clear name":            {Name: domain.Null[string]()},
		"rename and leave":      {Name: domain.Some("y"), Domain: domain.Null[string]()},
		"move to another":       {Domain: domain.Some(other.ID)},
		"rename and move":       {Name: domain.Some("y"), Domain: domain.Some(other.ID)},
		"rebind to same domain": {Domain: domain.Some(d.ID)},
	}
	callers := map[string]domain.Principal{
		"itself":       self,
		"domain owner": owner,
		"admin":        admin,
	}

	for name, patch := range patches {
		for caller, p := range callers {
			t.Run(name+" by "+caller, func(t *testing.T) {
				_, err := app.clients.UpdateClient(app.ctx, p, session.Client.ID, patch)
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrValidation)
			})
		}
	}

	updated, err := app.clients.UpdateClient(app.ctx, self, session.Client.ID, domain.ClientPatch{Domain: domain.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, updated.Domain)
	assert.Equal(t, "Temporary Client", updated.Name)
}

func TestTemporaryClient_Scenario(t *testing.T) {
	app := setupApp(t)
	_, owner := app.user(t, "Owner")
	survey := app.survey(t, owner, domain.QuestionLike)
	d := app.liveDomain(t, owner, survey.ID)
	session, self := app.temporaryClient(t, d.ID)

	require.NotNil(t, session.Client.Domain)
	assert.Equal(t, d.ID, *session.Client.Domain)
	assert.Equal(t, domain.LifetimeTemporary, session.Client.Lifetime)
	assert.Empty(t, session.Code)

	_, err := app.clients.UpdateClient(app.ctx, self, session.Client.ID, domain.ClientPatch{Name: domain.Some("y")})
	require.Error(t, err)

	_, err = app.clients.UpdateClient(app.ctx, self, session.Client.ID, domain.ClientPatch{Domain: domain.Null[string]()})
	require.NoError(t, err)
	app.settle()

	// the cached principal is dropped once the client changes
	p, err := app.auth.Principal(app.ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, p.IsTemporaryClient())
	assert.Nil(t, p.Domain)
}

func TestUpdateClient_DomainOwnerMayDetachClients(t *testing.T) {
	app := setupApp(t)
	_, owner := app.user(t, "Owner")
	_, stranger := app.user(t, "Stranger")
	survey := app.survey(t, owner, domain.QuestionLike)
	d := app.liveDomain(t, owner, survey.ID)
	session, _ := app.temporaryClient(t, d.ID)

	_, err := app.clients.UpdateClient(app.ctx, stranger, session.Client.ID, domain.ClientPatch{Domain: domain.Null[string]()})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	updated, err := app.clients.UpdateClient(app.ctx, owner, session.Client.ID, domain.ClientPatch{Domain: domain.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, updated.Domain)
}

func TestCreateTemporaryClient_RequiresActiveSurvey(t *testing.T) {
	app := setupApp(t)
	_, owner := app.user(t, "Owner")
	d, err := app.domains.CreateDomain(app.ctx, owner, ports.CreateDomainInput{Name: "Empty"})
	require.NoError(t, err)

	_, err = app.clients.CreateTemporaryClient(app.ctx, d.ID)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "Domain must have an active Survey.")

	_, err = app.clients.CreateTemporaryClient(app.ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPermanentClient_Lifecycle(t *testing.T) {
	app := setupApp(t)
	owner, ownerP := app.user(t, "Owner")
	second, secondP := app.user(t, "Second")
	_, stranger := app.user(t, "Stranger")

	// 1. Create and log in with the access code
	created, err := app.clients.CreatePermanentClient(app.ctx, "Kiosk", owner.Email)
	require.NoError(t, err)
	require.NotEmpty(t, created.Code)
	assert.Equal(t, []string{owner.ID}, created.Client.Owners)
	assert.Equal(t, domain.LifetimePermanent, created.Client.Lifetime)

	session, err := app.clients.LoginClient(app.ctx, owner.Email, created.Code)
	require.NoError(t, err)
	assert.Equal(t, created.Client.ID, session.Client.ID)

	_, err = app.clients.LoginClient(app.ctx, owner.Email, "wrong")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.EqualError(t, err, "Invalid email or code.")

	// 2. Only owners see and edit it
	_, err = app.clients.Client(app.ctx, stranger, created.Client.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = app.clients.UpdateClient(app.ctx, stranger, created.Client.ID, domain.ClientPatch{Name: domain.Some("Mine")})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	renamed, err := app.clients.UpdateClient(app.ctx, ownerP, created.Client.ID, domain.ClientPatch{Name: domain.Some("Entrance")})
	require.NoError(t, err)
	assert.Equal(t, "Entrance", renamed.Name)

	survey := app.survey(t, ownerP, domain.QuestionLike)
	d := app.liveDomain(t, ownerP, survey.ID)
	_, err = app.clients.UpdateClient(app.ctx, ownerP, created.Client.ID, domain.ClientPatch{Domain: domain.Some(d.ID)})
	require.ErrorIs(t, err, domain.ErrValidation)

	// 3. Owners are shared and the last one can not leave
	_, err = app.clients.SetClientOwner(app.ctx, ownerP, created.Client.ID, second.Email)
	require.NoError(t, err)
	assert.Equal(t, 1, app.clients.ClientAmount(app.ctx, secondP, ports.ListClientsInput{}))

	removed, err := app.clients.RemoveClientOwner(app.ctx, secondP, created.Client.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = app.clients.RemoveClientOwner(app.ctx, secondP, created.Client.ID, second.ID)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "Permanent Clients need at least one owner.")

	assert.Equal(t, 0, app.clients.ClientAmount(app.ctx, ownerP, ports.ListClientsInput{}))

	// 4. The client itself may delete its record
	clientP, err := app.auth.Principal(app.ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, clientP.IsPermanentClient())
	require.NoError(t, app.clients.DeleteClient(app.ctx, clientP, created.Client.ID))

	_, err = app.clients.Client(app.ctx, secondP, created.Client.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientOwners_RejectedForTemporaryClients(t *testing.T) {
	app := setupApp(t)
	owner, ownerP := app.user(t, "Owner")
	survey := app.survey(t, ownerP, domain.QuestionLike)
	d := app.liveDomain(t, ownerP, survey.ID)
	session, _ := app.temporaryClient(t, d.ID)

	_, err := app.clients.SetClientOwner(app.ctx, app.admin(t), session.Client.ID, owner.Email)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "Cant update temporary Clients.")
}

func TestClients_ClientsSeeTheirDomain(t *testing.T) {
	app := setupApp(t)
	_, owner := app.user(t, "Owner")
	survey := app.survey(t, owner, domain.QuestionLike)
	d := app.liveDomain(t, owner, survey.ID)
	elsewhere := app.liveDomain(t, owner, survey.ID)

	first, firstP := app.temporaryClient(t, d.ID)
	second, _ := app.temporaryClient(t, d.ID)
	outsider, _ := app.temporaryClient(t, elsewhere.ID)

	clients, err := app.clients.Clients(app.ctx, firstP, ports.ListClientsInput{})
	require.NoError(t, err)
	var ids []string
	for _, c := range clients {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{first.Client.ID, second.Client.ID}, ids)

	_, err = app.clients.Client(app.ctx, firstP, second.Client.ID)
	assert.NoError(t, err)
	_, err = app.clients.Client(app.ctx, firstP, outsider.Client.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = app.clients.Clients(app.ctx, domain.Anonymous(), ports.ListClientsInput{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
