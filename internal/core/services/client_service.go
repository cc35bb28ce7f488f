package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

const temporaryClientName = "Temporary Client"

type clientService struct {
	clientRepo ports.ClientRepository
	domainRepo ports.DomainRepository
	userRepo   ports.UserRepository
	codec      ports.TokenCodec
	answers    *AnswerStore
	authz      *authz.Evaluator
}

func NewClientService(
	clientRepo ports.ClientRepository,
	domainRepo ports.DomainRepository,
	userRepo ports.UserRepository,
	codec ports.TokenCodec,
	answers *AnswerStore,
	evaluator *authz.Evaluator,
) ports.ClientService {
	return &clientService{
		clientRepo: clientRepo,
		domainRepo: domainRepo,
		userRepo:   userRepo,
		codec:      codec,
		answers:    answers,
		authz:      evaluator,
	}
}

func (s *clientService) Clients(ctx context.Context, p domain.Principal, input ports.ListClientsInput) ([]domain.Client, error) {
	filter := ports.ClientFilter{Name: input.Name}
	switch p.Role {
	case domain.RoleAdmin:
		filter.WithCode = true
	case domain.RoleUser:
		filter.Owner = p.ID
	case domain.RoleClient:
		if p.Domain == nil {
			return s.clientRepo.Get(ctx, ports.ClientFilter{IDs: []string{p.ID}}, domain.Page{})
		}
		filter.Domain = *p.Domain
	default:
		return nil, domain.Unauthorized()
	}
	return s.clientRepo.Get(ctx, filter, input.Page)
}

func (s *clientService) Client(ctx context.Context, p domain.Principal, id string) (domain.Client, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}
	if err := s.authz.ReadClient(p, c); err != nil {
		return domain.Client{}, err
	}
	return c, nil
}

func (s *clientService) ClientAmount(ctx context.Context, p domain.Principal, input ports.ListClientsInput) int {
	input.Page = domain.Page{}
	clients, err := s.Clients(ctx, p, input)
	if err != nil {
		return 0
	}
	return len(clients)
}

func (s *clientService) LoginClient(ctx context.Context, email, code string) (ports.ClientSession, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return ports.ClientSession{}, invalidClientCredentials()
	}
	if err != nil {
		return ports.ClientSession{}, fmt.Errorf("failed to get user: %w", err)
	}
	if code == "" {
		return ports.ClientSession{}, invalidClientCredentials()
	}

	clients, err := s.clientRepo.Get(ctx, ports.ClientFilter{Owner: user.ID, Code: code}, domain.Page{})
	if errors.Is(err, domain.ErrNotFound) {
		return ports.ClientSession{}, invalidClientCredentials()
	}
	if err != nil {
		return ports.ClientSession{}, fmt.Errorf("failed to get client: %w", err)
	}
	return s.session(clients[0])
}

func (s *clientService) CreatePermanentClient(ctx context.Context, name, email string) (ports.ClientSession, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return ports.ClientSession{}, err
	}
	code, err := generateAccessCode()
	if err != nil {
		return ports.ClientSession{}, fmt.Errorf("failed to generate access code: %w", err)
	}

	client, err := s.clientRepo.Insert(ctx, domain.Client{
		Name:     strings.TrimSpace(name),
		Lifetime: domain.LifetimePermanent,
		Owners:   []string{user.ID},
		Code:     &code,
	})
	if err != nil {
		return ports.ClientSession{}, fmt.Errorf("failed to create client: %w", err)
	}
	return s.session(client)
}

// CreateTemporaryClient binds a new survey-taking session to a domain and
// opens its answer set for the domain's active survey.
func (s *clientService) CreateTemporaryClient(ctx context.Context, domainID string) (ports.ClientSession, error) {
	domains, err := s.domainRepo.Get(ctx, ports.DomainFilter{IDs: []string{domainID}}, domain.Page{})
	if err != nil {
		return ports.ClientSession{}, err
	}
	d := domains[0]
	if d.ActiveSurvey == nil {
		return ports.ClientSession{}, domain.Errorf(domain.ErrValidation, "Domain must have an active Survey.")
	}

	client, err := s.clientRepo.Insert(ctx, domain.Client{
		Name:     temporaryClientName,
		Lifetime: domain.LifetimeTemporary,
		Domain:   &d.ID,
	})
	if err != nil {
		return ports.ClientSession{}, fmt.Errorf("failed to create client: %w", err)
	}
	if err := s.answers.Open(ctx, *d.ActiveSurvey, d.ID, client.ID); err != nil {
		return ports.ClientSession{}, fmt.Errorf("failed to open answers of client %s: %w", client.ID, err)
	}
	return s.session(client)
}

func (s *clientService) UpdateClient(ctx context.Context, p domain.Principal, id string, patch domain.ClientPatch) (domain.Client, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}
	if err := s.authz.UpdateClient(ctx, p, c, patch); err != nil {
		return domain.Client{}, err
	}
	if len(patch.Keys()) == 0 {
		return c, nil
	}
	if patch.Name.IsNull() {
		return domain.Client{}, domain.Errorf(domain.ErrValidation, "Name can not be removed.")
	}
	if _, ok := patch.Domain.Get(); ok {
		return domain.Client{}, domain.Errorf(domain.ErrValidation, "Permanent clients can not be bound to a domain.")
	}

	updated, err := s.clientRepo.Update(ctx, ports.ClientFilter{IDs: []string{id}}, patch)
	if err != nil {
		return domain.Client{}, err
	}
	return updated[0], nil
}

func (s *clientService) DeleteClient(ctx context.Context, p domain.Principal, id string) error {
	c, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.ManageClient(p, c); err != nil {
		return err
	}
	_, err = s.clientRepo.Delete(ctx, ports.ClientFilter{IDs: []string{id}})
	return err
}

func (s *clientService) SetClientOwner(ctx context.Context, p domain.Principal, id, email string) (domain.Client, error) {
	c, err := s.permanent(ctx, p, id)
	if err != nil {
		return domain.Client{}, err
	}
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.Client{}, err
	}
	if domain.OwnedBy(c, user.ID) {
		return c, nil
	}
	return s.clientRepo.AddOwner(ctx, id, user.ID)
}

func (s *clientService) RemoveClientOwner(ctx context.Context, p domain.Principal, id, ownerID string) (bool, error) {
	c, err := s.permanent(ctx, p, id)
	if err != nil {
		return false, err
	}
	if !domain.OwnedBy(c, ownerID) {
		return true, nil
	}
	if len(c.Owners) == 1 {
		return false, domain.Errorf(domain.ErrValidation, "Permanent Clients need at least one owner.")
	}
	updated, err := s.clientRepo.RemoveOwner(ctx, id, ownerID)
	if err != nil {
		return false, err
	}
	return !domain.OwnedBy(updated, ownerID), nil
}

// permanent loads a client for an owner change, which temporary clients
// never accept.
func (s *clientService) permanent(ctx context.Context, p domain.Principal, id string) (domain.Client, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}
	if c.IsTemporary() {
		return domain.Client{}, domain.Errorf(domain.ErrValidation, "Cant update temporary Clients.")
	}
	if err := s.authz.ManageClient(p, c); err != nil {
		return domain.Client{}, err
	}
	return c, nil
}

func (s *clientService) get(ctx context.Context, id string) (domain.Client, error) {
	clients, err := s.clientRepo.Get(ctx, ports.ClientFilter{IDs: []string{id}}, domain.Page{})
	if err != nil {
		return domain.Client{}, err
	}
	return clients[0], nil
}

func (s *clientService) session(c domain.Client) (ports.ClientSession, error) {
	token, err := s.codec.Encode(domain.Claims{ID: c.ID, Type: domain.SubjectClient})
	if err != nil {
		return ports.ClientSession{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	session := ports.ClientSession{Client: c, Token: token}
	if c.Code != nil {
		session.Code = *c.Code
	}
	return session, nil
}

func generateAccessCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func invalidClientCredentials() error {
	return domain.Errorf(domain.ErrUnauthorized, "Invalid email or code.")
}
