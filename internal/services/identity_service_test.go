package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/northline/journal/internal/auth/service"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockUserRepository is an in-memory implementation of UserRepository
type mockUserRepository struct {
	users  []*models.User
	nextID int
	err    error
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return fmt.Errorf("insert user: %w", common.ErrDuplicateKey)
		}
	}
	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.users = append(m.users, &stored)
	return nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Username == username {
			found := *u
			return &found, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *mockUserRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.ID == userID {
			found := *u
			return &found, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return common.ErrNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.users), nil
}

func (m *mockUserRepository) FirstAdmin(ctx context.Context) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Role == models.RoleAdmin {
			found := *u
			return &found, nil
		}
	}
	return nil, common.ErrNotFound
}

// mockTokenIssuer is a mock implementation of TokenIssuer
type mockTokenIssuer struct {
	err error
}

func (m *mockTokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	if m.err != nil {
		return "", time.Time{}, m.err
	}
	return fmt.Sprintf("token-%d", user.ID), time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC), nil
}

func seedUser(t *testing.T, repo *mockUserRepository, username, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := service.HashPassword(password)
	require.NoError(t, err)
	user := &models.User{Username: username, PasswordHash: hash, Role: role}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func newTestIdentityService(repo *mockUserRepository) *identityService {
	return NewIdentityService(repo, &mockTokenIssuer{}, "admin", "short", zap.NewNop())
}

func TestIdentityService_Register(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		password      string
		existing      string
		expectedError error
	}{
		{
			name:     "success",
			username: "  alice ",
			password: "password123",
		},
		{
			name:          "empty username",
			username:      "   ",
			password:      "password123",
			expectedError: common.ErrInvalidInput,
		},
		{
			name:          "short password",
			username:      "alice",
			password:      "1234567",
			expectedError: common.ErrInvalidInput,
		},
		{
			name:     "eight multibyte characters are enough",
			username: "alice",
			password: "密码密码密码密码",
		},
		{
			name:          "username taken",
			username:      "alice",
			password:      "password123",
			existing:      "alice",
			expectedError: common.ErrUsernameExists,
		},
		{
			name:     "usernames are case-sensitive",
			username: "Alice",
			password: "password123",
			existing: "alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepository{}
			if tt.existing != "" {
				seedUser(t, repo, tt.existing, "password123", models.RoleUser)
			}
			svc := newTestIdentityService(repo)

			user, err := svc.Register(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.RoleUser, user.Role)
			assert.NotZero(t, user.ID)
			assert.True(t, service.VerifyPassword(tt.password, user.PasswordHash))
		})
	}
}

func TestIdentityService_Login(t *testing.T) {
	repo := &mockUserRepository{}
	seedUser(t, repo, "alice", "password123", models.RoleUser)
	svc := newTestIdentityService(repo)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(ctx, " alice ", "password123")
		require.NoError(t, err)
		assert.Equal(t, "token-1", resp.Token)
		assert.Equal(t, "alice", resp.User.Username)
		assert.Equal(t, models.RoleUser, resp.User.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "password124")
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("unknown user looks the same as wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "bob", "password123")
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("empty credentials", func(t *testing.T) {
		_, err := svc.Login(ctx, "", "")
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("issuer failure", func(t *testing.T) {
		failing := NewIdentityService(repo, &mockTokenIssuer{err: errors.New("sign error")}, "admin", "short", zap.NewNop())
		_, err := failing.Login(ctx, "alice", "password123")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "sign error")
	})

	t.Run("repository error", func(t *testing.T) {
		broken := newTestIdentityService(&mockUserRepository{err: errors.New("database error")})
		_, err := broken.Login(ctx, "alice", "password123")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
	})
}

func TestIdentityService_CreateAsAdmin(t *testing.T) {
	tests := []struct {
		name          string
		requester     models.Role
		role          models.Role
		expectedRole  models.Role
		expectedError error
	}{
		{name: "admin creates admin", requester: models.RoleAdmin, role: models.RoleAdmin, expectedRole: models.RoleAdmin},
		{name: "empty role defaults to user", requester: models.RoleAdmin, role: "", expectedRole: models.RoleUser},
		{name: "unknown role", requester: models.RoleAdmin, role: "root", expectedError: common.ErrInvalidInput},
		{name: "non-admin requester", requester: models.RoleUser, role: models.RoleUser, expectedError: common.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestIdentityService(&mockUserRepository{})

			user, err := svc.CreateAsAdmin(context.Background(), tt.requester, "carol", "password123", tt.role)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedRole, user.Role)
		})
	}
}

func TestIdentityService_ChangePassword(t *testing.T) {
	tests := []struct {
		name          string
		userID        int
		current       string
		next          string
		expectedError error
	}{
		{name: "success", userID: 1, current: "password123", next: "new-password"},
		{name: "missing current", userID: 1, current: "", next: "new-password", expectedError: common.ErrInvalidInput},
		{name: "short new password", userID: 1, current: "password123", next: "short", expectedError: common.ErrInvalidInput},
		{name: "wrong current password", userID: 1, current: "password999", next: "new-password", expectedError: common.ErrInvalidCurrentPassword},
		{name: "unknown user", userID: 42, current: "password123", next: "new-password", expectedError: common.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepository{}
			seedUser(t, repo, "alice", "password123", models.RoleUser)
			svc := newTestIdentityService(repo)
			ctx := context.Background()

			err := svc.ChangePassword(ctx, tt.userID, tt.current, tt.next)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			_, err = svc.VerifyCredentials(ctx, "alice", tt.next)
			assert.NoError(t, err)
			_, err = svc.VerifyCredentials(ctx, "alice", tt.current)
			assert.ErrorIs(t, err, common.ErrInvalidCredentials)
		})
	}
}

func TestIdentityService_ListUsers(t *testing.T) {
	repo := &mockUserRepository{}
	seedUser(t, repo, "alice", "password123", models.RoleUser)
	svc := newTestIdentityService(repo)

	users, err := svc.ListUsers(context.Background(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = svc.ListUsers(context.Background(), models.RoleUser)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestIdentityService_Bootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store creates configured admin", func(t *testing.T) {
		repo := &mockUserRepository{}
		svc := newTestIdentityService(repo)

		id, err := svc.Bootstrap(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, id)

		admin, err := repo.GetByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, admin.Role)
		assert.True(t, service.VerifyPassword("short", admin.PasswordHash))
	})

	t.Run("second run keeps existing admin", func(t *testing.T) {
		repo := &mockUserRepository{}
		svc := newTestIdentityService(repo)
		first, err := svc.Bootstrap(ctx)
		require.NoError(t, err)

		second, err := svc.Bootstrap(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Len(t, repo.users, 1)
	})

	t.Run("falls back to first admin", func(t *testing.T) {
		repo := &mockUserRepository{}
		seedUser(t, repo, "alice", "password123", models.RoleUser)
		boss := seedUser(t, repo, "boss", "password123", models.RoleAdmin)
		svc := newTestIdentityService(repo)

		id, err := svc.Bootstrap(ctx)
		require.NoError(t, err)
		assert.Equal(t, boss.ID, id)
	})

	t.Run("configured name taken by plain user", func(t *testing.T) {
		repo := &mockUserRepository{}
		seedUser(t, repo, "admin", "password123", models.RoleUser)
		boss := seedUser(t, repo, "boss", "password123", models.RoleAdmin)
		svc := newTestIdentityService(repo)

		id, err := svc.Bootstrap(ctx)
		require.NoError(t, err)
		assert.Equal(t, boss.ID, id)
	})

	t.Run("no admin at all", func(t *testing.T) {
		repo := &mockUserRepository{}
		seedUser(t, repo, "alice", "password123", models.RoleUser)
		svc := newTestIdentityService(repo)

		_, err := svc.Bootstrap(ctx)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}
