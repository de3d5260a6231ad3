package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/asset-tracker/internal/config"
	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository/memory"
	"github.com/spec-kit/asset-tracker/internal/service"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

func newAuthService() *service.AuthService {
	cfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}
	return service.NewAuthService(cfg, service.AuthDependencies{UserRepo: memory.New().Store().Users})
}

func TestAuthRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	session, err := svc.Register(ctx, "Alice", "Alice@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, session.User.Role)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.NotEqual(t, "secret1", session.User.PasswordHash)
	assert.NotEmpty(t, session.Token)

	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.Subject)

	_, err = svc.Register(ctx, "Alice Again", "alice@example.com", "secret1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Register(ctx, "Bob", "bob@example.com", "123")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	login, err := svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestAuthProfileAndPassword(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	alice, err := svc.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "Bob", "bob@example.com", "secret2", domain.RoleManager)
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, alice.User.ID, nil, ptr("bob@example.com"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	updated, err := svc.UpdateProfile(ctx, alice.User.ID, ptr("Alice Smith"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", updated.Name)

	err = svc.ChangePassword(ctx, alice.User.ID, "wrong", "another1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	require.NoError(t, svc.ChangePassword(ctx, alice.User.ID, "secret1", "another1"))

	_, err = svc.Login(ctx, "alice@example.com", "secret1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = svc.Login(ctx, "alice@example.com", "another1")
	require.NoError(t, err)
}
