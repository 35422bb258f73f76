package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/semprecheio/auth-api/internal/auth"
	"github.com/semprecheio/auth-api/internal/config"
	"github.com/semprecheio/auth-api/internal/domain"
	"github.com/semprecheio/auth-api/internal/events"
	"github.com/semprecheio/auth-api/internal/mock"
	"github.com/semprecheio/auth-api/internal/repository"
	apperrors "github.com/semprecheio/auth-api/pkg/util/errorutil"
)

const (
	testEncryptionSecret = "test-encryption-secret"
	ownerEmail           = "owner@semprecheio.com"
)

func testConfig(env domain.SecurityProfile) config.Config {
	return config.Config{
		App: config.AppConfig{Env: env},
		Auth: config.AuthConfig{
			JWTSecret:           "test-jwt-secret",
			JWTIssuer:           "semprecheio-test",
			EncryptionSecret:    testEncryptionSecret,
			AccessTokenTTL:      time.Hour,
			RefreshTokenTTL:     24 * time.Hour,
			BcryptCost:          bcrypt.MinCost,
			SuperAdminEmails:    []string{ownerEmail},
			AllowPlaintextLogin: !env.IsProduction(),
		},
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.NewPasswordHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	return hash
}

type fixture struct {
	svc      *AuthService
	accounts repository.AccountRepository
	cipher   *auth.PayloadCipher
	events   []events.Event
}

func newFixture(t *testing.T, env domain.SecurityProfile) *fixture {
	t.Helper()
	f := &fixture{
		accounts: repository.NewMemoryAccountRepository(
			&domain.Account{ID: "acc-admin", Name: "Salão Bela", Email: "admin@salon.com", PasswordHash: mustHash(t, "123456"), Role: domain.RoleAdmin, ServiceType: "salon", Active: true},
			&domain.Account{ID: "acc-owner", Name: "Owner", Email: ownerEmail, PasswordHash: mustHash(t, "owner-pass"), Active: true},
			&domain.Account{ID: "acc-client", Name: "Barbearia", Email: "client@barber.com", PasswordHash: mustHash(t, "client-pass"), Active: true},
			&domain.Account{ID: "acc-off", Name: "Inativo", Email: "off@salon.com", PasswordHash: mustHash(t, "123456"), Active: false},
		),
	}

	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{events.EventLoginSucceeded, events.EventLoginFailed, events.EventLogout, events.EventPasswordChanged} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.events = append(f.events, e)
			return nil
		})
	}

	svc, err := NewAuthService(testConfig(env), AuthDependencies{AccountRepo: f.accounts, Dispatcher: dispatcher})
	require.NoError(t, err)
	f.svc = svc

	f.cipher, err = auth.NewPayloadCipher(testEncryptionSecret)
	require.NoError(t, err)
	return f
}

func (f *fixture) encrypt(t *testing.T, s string) string {
	t.Helper()
	enc, err := f.cipher.Encrypt(s)
	require.NoError(t, err)
	return enc
}

func TestLogin_PlaintextDevelopment(t *testing.T) {
	f := newFixture(t, domain.ProfileDevelopment)

	res, err := f.svc.Login(context.Background(), LoginInput{Email: "admin@salon.com", Password: "123456"})
	require.NoError(t, err)

	assert.Equal(t, "acc-admin", res.Account.ID)
	assert.Equal(t, domain.RoleAdmin, res.Principal.Role)
	assert.Equal(t, domain.UserTypeAdmin, res.Principal.UserType)

	claims, err := f.svc.TokenManager().ParseAccessToken(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.Principal, claims.Principal())

	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventLoginSucceeded, f.events[0].Type)
}

func TestLogin_Encrypted(t *testing.T) {
	f := newFixture(t, domain.ProfileProduction)

	res, err := f.svc.Login(context.Background(), LoginInput{
		Email:      f.encrypt(t, "admin@salon.com"),
		Password:   f.encrypt(t, "123456"),
		RememberMe: true,
		Encrypted:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "acc-admin", res.Account.ID)
	assert.True(t, res.RememberMe)
}

func TestLogin_ProductionRejectsPlaintext(t *testing.T) {
	f := newFixture(t, domain.ProfileProduction)

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "admin@salon.com", Password: "123456"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMalformedInput))
}

func TestLogin_DerivedRoles(t *testing.T) {
	f := newFixture(t, domain.ProfileDevelopment)

	owner, err := f.svc.Login(context.Background(), LoginInput{Email: ownerEmail, Password: "owner-pass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, owner.Principal.Role)

	client, err := f.svc.Login(context.Background(), LoginInput{Email: "client@barber.com", Password: "client-pass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, client.Principal.Role)
	assert.Equal(t, domain.UserTypeClient, client.Principal.UserType)
}

func TestLogin_NonEnumeration(t *testing.T) {
	f := newFixture(t, domain.ProfileDevelopment)
	ctx := context.Background()

	_, wrongPassword := f.svc.Login(ctx, LoginInput{Email: "admin@salon.com", Password: "wrong"})
	_, unknownEmail := f.svc.Login(ctx, LoginInput{Email: "nobody@salon.com", Password: "123456"})
	_, inactive := f.svc.Login(ctx, LoginInput{Email: "off@salon.com", Password: "123456"})

	for _, err := range []error{wrongPassword, unknownEmail, inactive} {
		de := apperrors.ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, apperrors.CodeInvalidCredentials, de.Code)
		assert.Equal(t, 401, de.HTTPStatus)
		assert.Equal(t, apperrors.ToDomainError(wrongPassword).Message, de.Message)
	}

	for _, e := range f.events {
		assert.Equal(t, events.EventLoginFailed, e.Type)
	}
}

func TestLogin_ExactEmailMatch(t *testing.T) {
	f := newFixture(t, domain.ProfileDevelopment)

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "Admin@Salon.com", Password: "123456"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
}

func TestLogin_MalformedInput(t *testing.T) {
	f := newFixture(t, domain.ProfileDevelopment)

	tests := []LoginInput{
		{Email: "", Password: "123456"},
		{Email: "admin@salon.com", Password: ""},
	}
	for _, in := range tests {
		_, err := f.svc.Login(context.Background(), in)
		de := apperrors.ToDomainError(err)
		assert.Equal(t, apperrors.CodeMalformedInput, de.Code)
		assert.Equal(t, 400, de.HTTPStatus)
	}
}

func TestLogin_DecryptionFailure(t *testing.T) {
	f := newFixture(t, domain.ProfileDevelopment)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "plaintext flagged encrypted", email: "admin@salon.com", password: "123456"},
		{name: "bad hex", email: f.encrypt(t, "admin@salon.com"), password: "zz:zz"},
		{name: "wrong iv size", email: "0011:" + "00112233445566778899aabbccddeeff", password: f.encrypt(t, "123456")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), LoginInput{Email: tt.email, Password: tt.password, Encrypted: true})
			de := apperrors.ToDomainError(err)
			assert.Equal(t, apperrors.CodeDecryptionFailure, de.Code)
			assert.Equal(t, 400, de.HTTPStatus)
		})
	}
}

func TestLogin_DatastoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockAccountRepository(ctrl)
	repo.EXPECT().GetByEmail(gomock.Any(), "admin@salon.com").Return(nil, errors.New("connection reset"))

	svc, err := NewAuthService(testConfig(domain.ProfileDevelopment), AuthDependencies{AccountRepo: repo})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Email: "admin@salon.com", Password: "123456"})
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeInternal, de.Code)
	assert.NotContains(t, de.Message, "connection reset")
}

func TestRefresh(t *testing.T) {
	f := newFixture(t, domain.ProfileDevelopment)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginInput{Email: "admin@salon.com", Password: "123456"})
	require.NoError(t, err)

	token, exp, principal, err := f.svc.Refresh(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, res.Principal, principal)
	assert.True(t, exp.After(time.Now()))

	_, err = f.svc.TokenManager().ParseAccessToken(token)
	require.NoError(t, err)

	_, _, _, err = f.svc.Refresh(ctx, res.Tokens.AccessToken)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidToken))

	_, _, _, err = f.svc.Refresh(ctx, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNoToken))
}

func TestRefresh_DeactivatedAccount(t *testing.T) {
	f := newFixture(t, domain.ProfileDevelopment)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginInput{Email: "admin@salon.com", Password: "123456"})
	require.NoError(t, err)

	account, err := f.accounts.GetByID(ctx, "acc-admin")
	require.NoError(t, err)
	account.Active = false
	require.NoError(t, f.accounts.Update(ctx, account))

	_, _, _, err = f.svc.Refresh(ctx, res.Tokens.RefreshToken)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidToken))
}

func TestLogout_RevokesTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockTokenRevocationStore(ctrl)
	accounts := repository.NewMemoryAccountRepository(
		&domain.Account{ID: "acc-admin", Email: "admin@salon.com", PasswordHash: mustHash(t, "123456"), Role: domain.RoleAdmin, Active: true},
	)

	svc, err := NewAuthService(testConfig(domain.ProfileDevelopment), AuthDependencies{AccountRepo: accounts, RevocationStore: store})
	require.NoError(t, err)

	ctx := context.Background()
	res, err := svc.Login(ctx, LoginInput{Email: "admin@salon.com", Password: "123456"})
	require.NoError(t, err)

	store.EXPECT().Revoke(gomock.Any(), res.Tokens.AccessID, gomock.Any()).Return(nil)
	store.EXPECT().Revoke(gomock.Any(), res.Tokens.RefreshID, gomock.Any()).Return(nil)
	require.NoError(t, svc.Logout(ctx, res.Tokens.AccessToken, res.Tokens.RefreshToken))

	store.EXPECT().IsRevoked(gomock.Any(), res.Tokens.RefreshID).Return(true, nil)
	_, _, _, err = svc.Refresh(ctx, res.Tokens.RefreshToken)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidToken))
}

func TestLogout_WithoutTokens(t *testing.T) {
	f := newFixture(t, domain.ProfileDevelopment)
	require.NoError(t, f.svc.Logout(context.Background(), "", "garbage"))
	assert.Empty(t, f.events)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t, domain.ProfileDevelopment)
	ctx := context.Background()
	principal := domain.Principal{ID: "acc-admin", Email: "admin@salon.com", Role: domain.RoleAdmin}

	err := f.svc.ChangePassword(ctx, principal, ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "novasenha"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))

	err = f.svc.ChangePassword(ctx, principal, ChangePasswordInput{CurrentPassword: "123456", NewPassword: "123"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMalformedInput))

	err = f.svc.ChangePassword(ctx, principal, ChangePasswordInput{
		CurrentPassword: f.encrypt(t, "123456"),
		NewPassword:     f.encrypt(t, "novasenha"),
		Encrypted:       true,
	})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginInput{Email: "admin@salon.com", Password: "123456"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))

	_, err = f.svc.Login(ctx, LoginInput{Email: "admin@salon.com", Password: "novasenha"})
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, domain.Principal{ID: "ghost"}, ChangePasswordInput{CurrentPassword: "x", NewPassword: "novasenha"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidToken))
}

func TestChangePassword_UpdateFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockAccountRepository(ctrl)
	account := &domain.Account{ID: "acc-admin", Email: "admin@salon.com", PasswordHash: mustHash(t, "123456"), Active: true}

	repo.EXPECT().GetByID(gomock.Any(), "acc-admin").Return(account, nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	svc, err := NewAuthService(testConfig(domain.ProfileDevelopment), AuthDependencies{AccountRepo: repo})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), domain.Principal{ID: "acc-admin"}, ChangePasswordInput{CurrentPassword: "123456", NewPassword: "novasenha"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}
