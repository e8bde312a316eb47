package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/viraldeals/viraldeals-backend/internal/users"
	"github.com/viraldeals/viraldeals-backend/pkg/config"
	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	"github.com/viraldeals/viraldeals-backend/pkg/enums"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/security"
)

type memoryUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
	}
}

func (r *memoryUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user
	return user, nil
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := r.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type memorySessions struct {
	tokens map[string]string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{tokens: map[string]string{}}
}

func (s *memorySessions) StoreRefreshToken(_ context.Context, userID, token string, _ time.Duration) error {
	s.tokens[userID] = token
	return nil
}

func (s *memorySessions) GetRefreshToken(_ context.Context, userID string) (string, error) {
	token, ok := s.tokens[userID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return token, nil
}

func (s *memorySessions) RevokeRefreshToken(_ context.Context, userID string) error {
	delete(s.tokens, userID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "viraldeals",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func newTestService(t *testing.T, repo userRepository, sessions sessionStore) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		Sessions:       sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	})
	require.NoError(t, err)
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, code, typed.Code())
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	repo := newMemoryUserRepo()
	sessions := newMemorySessions()
	svc := newTestService(t, repo, sessions)

	session, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Asha Verma",
		Email:    "Asha@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, "asha@example.com", session.User.Email)
	assert.Equal(t, enums.UserRoleCustomer, session.User.Role)

	// the stored hash never echoes the raw password
	stored := repo.byEmail["asha@example.com"]
	match, err := security.VerifyPassword("correct horse", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, match)

	login, err := svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMemoryUserRepo(), newMemorySessions())

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "A", Email: "dup@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{Name: "B", Email: "dup@example.com", Password: "password456"})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMemoryUserRepo(), newMemorySessions())
	_, err := svc.Register(context.Background(), RegisterRequest{Name: "A", Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "wrong"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "missing@example.com", Password: "password123"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRotatesToken(t *testing.T) {
	t.Parallel()

	sessions := newMemorySessions()
	svc := newTestService(t, newMemoryUserRepo(), sessions)

	registered, err := svc.Register(context.Background(), RegisterRequest{Name: "A", Email: "r@example.com", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: registered.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	// the old token is no longer honored after rotation
	_, err = svc.Refresh(context.Background(), RefreshRequest{RefreshToken: registered.RefreshToken})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMemoryUserRepo(), newMemorySessions())
	_, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: "not-a-token"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	sessions := newMemorySessions()
	svc := newTestService(t, newMemoryUserRepo(), sessions)

	registered, err := svc.Register(context.Background(), RegisterRequest{Name: "A", Email: "l@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), registered.User.ID))

	_, err = svc.Refresh(context.Background(), RefreshRequest{RefreshToken: registered.RefreshToken})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}
