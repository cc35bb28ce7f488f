package authz

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

// Resolver walks ownership and domain membership relations.
type Resolver struct {
	domains   ports.DomainRepository
	clients   ports.ClientRepository
	surveys   ports.SurveyRepository
	questions ports.QuestionRepository
}

func NewResolver(
	domains ports.DomainRepository,
	clients ports.ClientRepository,
	surveys ports.SurveyRepository,
	questions ports.QuestionRepository,
) *Resolver {
	return &Resolver{
		domains:   domains,
		clients:   clients,
		surveys:   surveys,
		questions: questions,
	}
}

// IsOwner reports whether p may mutate o. Admins own everything, users
// own what lists them, clients own nothing.
func (r *Resolver) IsOwner(p domain.Principal, o domain.Owned) bool {
	switch p.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleUser:
		return domain.OwnedBy(o, p.ID)
	default:
		return false
	}
}

// IsInDomainOwnedBy reports whether the client is bound to a domain that
// lists userID as owner.
func (r *Resolver) IsInDomainOwnedBy(ctx context.Context, c domain.Client, userID string) (bool, error) {
	if c.Domain == nil {
		return false, nil
	}
	domains, err := r.domains.Get(ctx, ports.DomainFilter{IDs: []string{*c.Domain}}, domain.Page{})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load domain of client %s: %w", c.ID, err)
	}
	return domain.OwnedBy(domains[0], userID), nil
}

// ClientSharesDomain reports whether subscriberID is one of the clients
// bound to the same domain as target.
func (r *Resolver) ClientSharesDomain(ctx context.Context, subscriberID string, target domain.Client) (bool, error) {
	if target.Domain == nil {
		return false, nil
	}
	clients, err := r.clients.Get(ctx, ports.ClientFilter{Domain: *target.Domain}, domain.Page{})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load clients of domain %s: %w", *target.Domain, err)
	}
	return slices.ContainsFunc(clients, func(c domain.Client) bool { return c.ID == subscriberID }), nil
}

// Survey loads a survey and checks that p owns it.
func (r *Resolver) Survey(ctx context.Context, p domain.Principal, surveyID string) (domain.Survey, error) {
	surveys, err := r.surveys.Get(ctx, ports.SurveyFilter{IDs: []string{surveyID}}, domain.Page{})
	if err != nil {
		return domain.Survey{}, err
	}
	if !r.IsOwner(p, surveys[0]) {
		return domain.Survey{}, domain.Unauthorized()
	}
	return surveys[0], nil
}

// Question loads a question together with its survey and checks that p
// owns the survey.
func (r *Resolver) Question(ctx context.Context, p domain.Principal, questionID string) (domain.Survey, domain.Question, error) {
	questions, err := r.questions.Get(ctx, ports.QuestionFilter{IDs: []string{questionID}}, domain.Page{})
	if err != nil {
		return domain.Survey{}, domain.Question{}, err
	}
	survey, err := r.Survey(ctx, p, questions[0].Survey)
	if err != nil {
		return domain.Survey{}, domain.Question{}, err
	}
	return survey, questions[0], nil
}
