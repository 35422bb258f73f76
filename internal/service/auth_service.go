package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/semprecheio/auth-api/internal/auth"
	"github.com/semprecheio/auth-api/internal/config"
	"github.com/semprecheio/auth-api/internal/domain"
	"github.com/semprecheio/auth-api/internal/events"
	"github.com/semprecheio/auth-api/internal/observability"
	"github.com/semprecheio/auth-api/internal/repository"
	apperrors "github.com/semprecheio/auth-api/pkg/util/errorutil"
)

const minPasswordLength = 6

// LoginState names the steps of a login attempt. Only terminal states are logged.
type LoginState string

const (
	LoginReceived                 LoginState = "received"
	LoginDecrypted                LoginState = "decrypted"
	LoginCredentialChecked        LoginState = "credential_checked"
	LoginTokenIssued              LoginState = "token_issued"
	LoginRejectedMalformedInput   LoginState = "rejected_malformed_input"
	LoginRejectedInvalidCreds     LoginState = "rejected_invalid_credentials"
	LoginRejectedDecryptionFailed LoginState = "rejected_decryption_failure"
)

// LoginInput is the validated login payload. When Encrypted is set, Email and
// Password hold ivHex:ciphertextHex values.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
	Encrypted  bool
}

// LoginResult carries everything the transport needs to finish the login.
type LoginResult struct {
	Account    *domain.Account
	Principal  domain.Principal
	Tokens     auth.TokenPair
	RememberMe bool
}

// ChangePasswordInput is the password change payload; encrypted like LoginInput.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	Encrypted       bool
}

// AuthService coordinates login, refresh, logout and password changes.
type AuthService struct {
	accounts       repository.AccountRepository
	revoked        repository.TokenRevocationStore
	hasher         *auth.PasswordHasher
	cipher         *auth.PayloadCipher
	tokenMgr       *auth.TokenManager
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	metrics        *observability.Metrics
	superAdmins    []string
	allowPlaintext bool
	dummyHash      string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	AccountRepo     repository.AccountRepository
	RevocationStore repository.TokenRevocationStore
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	Metrics         *observability.Metrics
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	cipher, err := auth.NewPayloadCipher(cfg.Auth.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("payload cipher: %w", err)
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	// Unknown emails are verified against this hash so both failure paths cost the same.
	dummyHash, err := hasher.Hash("semprecheio-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	if deps.RevocationStore == nil {
		deps.RevocationStore = repository.NewNoopRevocationStore()
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = events.NewInMemoryDispatcher()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &AuthService{
		accounts:       deps.AccountRepo,
		revoked:        deps.RevocationStore,
		hasher:         hasher,
		cipher:         cipher,
		tokenMgr:       auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL),
		dispatcher:     deps.Dispatcher,
		logger:         deps.Logger,
		metrics:        deps.Metrics,
		superAdmins:    cfg.Auth.SuperAdminEmails,
		allowPlaintext: cfg.Auth.AllowPlaintextLogin && !cfg.App.Env.IsProduction(),
		dummyHash:      dummyHash,
	}, nil
}

// Login authenticates an account and issues a token pair.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	state := LoginReceived

	email, password, err := s.decode(in.Encrypted, in.Email, in.Password)
	if err != nil {
		return nil, s.rejectLogin(ctx, rejectionState(err), in.Email, err)
	}
	state = LoginDecrypted

	if email == "" || password == "" {
		return nil, s.rejectLogin(ctx, LoginRejectedMalformedInput, email,
			apperrors.NewMalformedInput("Email e senha são obrigatórios", nil))
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.hasher.Verify(password, s.dummyHash)
		return nil, s.rejectLogin(ctx, LoginRejectedInvalidCreds, email, invalidCredentials("unknown email"))
	case err != nil:
		s.logger.Error("account lookup failed", zap.String("state", string(state)), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	if !account.Active {
		s.hasher.Verify(password, s.dummyHash)
		return nil, s.rejectLogin(ctx, LoginRejectedInvalidCreds, email, invalidCredentials("inactive account"))
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, s.rejectLogin(ctx, LoginRejectedInvalidCreds, email, invalidCredentials("wrong password"))
	}
	state = LoginCredentialChecked

	role := domain.DeriveRole(account, s.superAdmins)
	principal := domain.NewPrincipal(account, role)

	tokens, err := s.tokenMgr.IssueTokenPair(principal)
	if err != nil {
		s.logger.Error("token issuance failed", zap.String("state", string(state)), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	state = LoginTokenIssued

	s.metrics.RecordLogin("success")
	s.logger.Info("login succeeded",
		zap.String("state", string(state)),
		zap.String("account_id", account.ID),
		zap.String("role", string(role)),
		zap.Bool("encrypted", in.Encrypted))
	s.publish(ctx, events.NewEvent(events.EventLoginSucceeded, account.ID, account.Email, events.LoginSucceededPayload{
		Role:       role,
		RememberMe: in.RememberMe,
		Encrypted:  in.Encrypted,
	}))

	return &LoginResult{Account: account, Principal: principal, Tokens: tokens, RememberMe: in.RememberMe}, nil
}

// Refresh mints a new access token from a valid, unrevoked refresh token of an active account.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, domain.Principal, error) {
	if refreshToken == "" {
		return "", time.Time{}, domain.Principal{}, apperrors.NewNoToken()
	}

	claims, err := s.tokenMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return "", time.Time{}, domain.Principal{}, apperrors.NewExpiredToken()
		}
		return "", time.Time{}, domain.Principal{}, apperrors.NewInvalidToken()
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.RegisteredClaims.ID)
	if err != nil {
		return "", time.Time{}, domain.Principal{}, apperrors.NewInternalError(err)
	}
	if revoked {
		return "", time.Time{}, domain.Principal{}, apperrors.NewInvalidToken()
	}

	account, err := s.accounts.GetByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "", time.Time{}, domain.Principal{}, apperrors.NewInvalidToken()
	case err != nil:
		s.logger.Error("account lookup failed during refresh", zap.Error(err))
		return "", time.Time{}, domain.Principal{}, apperrors.NewInternalError(err)
	case !account.Active:
		return "", time.Time{}, domain.Principal{}, apperrors.NewInvalidToken()
	}

	token, exp, refreshed, err := s.tokenMgr.Refresh(refreshToken)
	if err != nil {
		return "", time.Time{}, domain.Principal{}, apperrors.NewInvalidToken()
	}
	return token, exp, refreshed.Principal(), nil
}

// Logout denylists whichever of the presented tokens are still valid. Cookie
// clearing is the transport's job and happens regardless of the result.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	var principal domain.Principal

	if claims, err := s.tokenMgr.ParseAccessToken(accessToken); err == nil {
		principal = claims.Principal()
		if err := s.revoked.Revoke(ctx, claims.RegisteredClaims.ID, claims.ExpiresAt.Time); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	if claims, err := s.tokenMgr.ParseRefreshToken(refreshToken); err == nil {
		principal = claims.Principal()
		if err := s.revoked.Revoke(ctx, claims.RegisteredClaims.ID, claims.ExpiresAt.Time); err != nil {
			return apperrors.NewInternalError(err)
		}
	}

	if principal.ID != "" {
		s.publish(ctx, events.NewEvent(events.EventLogout, principal.ID, principal.Email, nil))
	}
	return nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, principal domain.Principal, in ChangePasswordInput) error {
	current, next, err := s.decode(in.Encrypted, in.CurrentPassword, in.NewPassword)
	if err != nil {
		return err
	}
	if current == "" || next == "" {
		return apperrors.NewMalformedInput("Senha atual e nova senha são obrigatórias", nil)
	}
	if len([]rune(next)) < minPasswordLength {
		return apperrors.NewMalformedInput(fmt.Sprintf("A nova senha deve ter pelo menos %d caracteres", minPasswordLength), nil)
	}

	account, err := s.accounts.GetByID(ctx, principal.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewInvalidToken()
	case err != nil:
		s.logger.Error("account lookup failed", zap.Error(err))
		return apperrors.NewInternalError(err)
	}

	if !s.hasher.Verify(current, account.PasswordHash) {
		return apperrors.NewInvalidCredentials()
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	account.PasswordHash = hash
	if err := s.accounts.Update(ctx, account); err != nil {
		s.logger.Error("password update failed", zap.String("account_id", account.ID), zap.Error(err))
		return apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventPasswordChanged, account.ID, account.Email, nil))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Hasher exposes the password hasher shared with account management.
func (s *AuthService) Hasher() *auth.PasswordHasher {
	return s.hasher
}

// decode returns the two credential fields in plaintext, decrypting them when
// the payload is flagged encrypted.
func (s *AuthService) decode(encrypted bool, first, second string) (string, string, error) {
	if !encrypted {
		if !s.allowPlaintext {
			return "", "", apperrors.NewMalformedInput("Credenciais devem ser enviadas criptografadas", nil)
		}
		return first, second, nil
	}

	a, err := s.cipher.Decrypt(first)
	if err != nil {
		return "", "", apperrors.NewDecryptionFailure(err)
	}
	b, err := s.cipher.Decrypt(second)
	if err != nil {
		return "", "", apperrors.NewDecryptionFailure(err)
	}
	return a, b, nil
}

func (s *AuthService) rejectLogin(ctx context.Context, state LoginState, email string, err error) error {
	domainErr := apperrors.ToDomainError(err)
	s.metrics.RecordLogin(domainErr.Code)
	s.logger.Warn("login rejected",
		zap.String("state", string(state)),
		zap.String("email", email),
		zap.String("code", domainErr.Code),
		zap.NamedError("reason", domainErr.Err))
	s.publish(ctx, events.NewEvent(events.EventLoginFailed, "", email, events.LoginFailedPayload{
		Code:   domainErr.Code,
		Reason: string(state),
	}))
	return domainErr
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

// invalidCredentials keeps the internal reason on the error without exposing it.
func invalidCredentials(reason string) error {
	err := apperrors.NewInvalidCredentials().(*apperrors.DomainError)
	err.Err = errors.New(reason)
	return err
}

func rejectionState(err error) LoginState {
	if apperrors.HasCode(err, apperrors.CodeDecryptionFailure) {
		return LoginRejectedDecryptionFailed
	}
	return LoginRejectedMalformedInput
}
