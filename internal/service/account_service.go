package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/semprecheio/auth-api/internal/auth"
	"github.com/semprecheio/auth-api/internal/domain"
	"github.com/semprecheio/auth-api/internal/events"
	"github.com/semprecheio/auth-api/internal/repository"
	apperrors "github.com/semprecheio/auth-api/pkg/util/errorutil"
)

// CreateAccountInput describes a new account created by a super admin.
type CreateAccountInput struct {
	Name        string
	Email       string
	Password    string
	Role        string
	ServiceType string
}

// AccountService manages accounts on behalf of super admins.
type AccountService struct {
	accounts   repository.AccountRepository
	hasher     *auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(accounts repository.AccountRepository, hasher *auth.PasswordHasher, dispatcher events.Dispatcher, logger *zap.Logger) *AccountService {
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{accounts: accounts, hasher: hasher, dispatcher: dispatcher, logger: logger}
}

// List returns accounts matching the filter, newest first.
func (s *AccountService) List(ctx context.Context, filter repository.AccountFilter) ([]*domain.Account, error) {
	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		s.logger.Error("list accounts failed", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return accounts, nil
}

// Create validates and stores a new active account.
func (s *AccountService) Create(ctx context.Context, actor domain.Principal, in CreateAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(in.Name)
	details := map[string]any{}
	if name == "" {
		details["name"] = "obrigatório"
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		details["email"] = "inválido"
	}
	if len([]rune(in.Password)) < minPasswordLength {
		details["password"] = fmt.Sprintf("mínimo de %d caracteres", minPasswordLength)
	}
	var role domain.Role
	if in.Role != "" {
		parsed, ok := domain.ParseRole(in.Role)
		if !ok {
			details["role"] = "inválido"
		}
		role = parsed
	}
	if len(details) > 0 {
		return nil, apperrors.NewMalformedInput("Dados da conta inválidos", details)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	account := &domain.Account{
		Name:         name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		ServiceType:  strings.TrimSpace(in.ServiceType),
		Active:       true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict("Email já cadastrado", map[string]any{"email": in.Email})
		}
		s.logger.Error("create account failed", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("account created", zap.String("account_id", account.ID), zap.String("actor_id", actor.ID))
	s.publish(ctx, events.NewEvent(events.EventAccountCreated, account.ID, account.Email, events.AccountCreatedPayload{
		Role:    role,
		ActorID: actor.ID,
	}))
	return account, nil
}

// SetActive activates or deactivates an account. Accounts are never hard-deleted.
func (s *AccountService) SetActive(ctx context.Context, actor domain.Principal, id string, active bool) (*domain.Account, error) {
	if id == actor.ID && !active {
		return nil, apperrors.NewMalformedInput("Não é possível desativar a própria conta", nil)
	}

	account, err := s.accounts.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewNotFound("Conta", map[string]any{"id": id})
	case err != nil:
		s.logger.Error("get account failed", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	if account.Active == active {
		return account, nil
	}
	account.Active = active
	if err := s.accounts.Update(ctx, account); err != nil {
		s.logger.Error("update account failed", zap.String("account_id", id), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventAccountStatusChanged, account.ID, account.Email, events.AccountStatusChangedPayload{
		Active:  active,
		ActorID: actor.ID,
	}))
	return account, nil
}

func (s *AccountService) publish(ctx context.Context, event events.Event) {
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
