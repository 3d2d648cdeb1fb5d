package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/northline/journal/internal/auth/service"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

// minPasswordLength is the minimum number of characters in a new password
const minPasswordLength = 8

// UserRepository is the interface that wraps methods for Users table data access
type UserRepository interface {
	// Method Create inserts a new user into the database and sets its ID.
	//
	// "user" parameter must carry username, password hash and role.
	//
	// If the username is taken, an error wrapping common.ErrDuplicateKey is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByUsername retrieves a user by exact, case-sensitive username.
	//
	// If user with such username does not exist, common.ErrNotFound is returned together with "nil" value.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, common.ErrNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method UpdatePassword replaces the stored password hash of a user.
	//
	// If user with such ID does not exist, common.ErrNotFound is returned.
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
	// Method List retrieves all users ordered by ID.
	List(ctx context.Context) ([]models.User, error)
	// Method Count returns the number of users.
	Count(ctx context.Context) (int, error)
	// Method FirstAdmin retrieves the admin with the lowest ID.
	//
	// If there is no admin, common.ErrNotFound is returned together with "nil" value.
	FirstAdmin(ctx context.Context) (*models.User, error)
}

// TokenIssuer signs session tokens for authenticated users
type TokenIssuer interface {
	// Method Issue signs a session token for "user" and returns it together with its expiry time.
	Issue(user *models.User) (string, time.Time, error)
}

// dummyHash is verified when a login names an unknown user so both paths cost one scrypt derivation
var dummyHash = sync.OnceValue(func() string {
	hash, err := service.HashPassword("journal-dummy-password")
	if err != nil {
		return ""
	}
	return hash
})

// identityService implements the identity store operations
type identityService struct {
	repo          UserRepository
	tokens        TokenIssuer
	adminUsername string
	adminPassword string
	logger        *zap.Logger
}

// NewIdentityService creates a new identity service.
// adminUsername and adminPassword are used by Bootstrap only.
func NewIdentityService(repo UserRepository, tokens TokenIssuer, adminUsername, adminPassword string, logger *zap.Logger) *identityService {
	return &identityService{
		repo:          repo,
		tokens:        tokens,
		adminUsername: adminUsername,
		adminPassword: adminPassword,
		logger:        logger,
	}
}

// FindByUsername retrieves a user by exact username
func (s *identityService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (s *identityService) GetByID(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyCredentials returns the user when username and plaintext match.
// Unknown users and wrong passwords both yield common.ErrInvalidCredentials.
func (s *identityService) VerifyCredentials(ctx context.Context, username, plaintext string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || plaintext == "" {
		service.VerifyPassword(plaintext, dummyHash())
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		service.VerifyPassword(plaintext, dummyHash())
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !service.VerifyPassword(plaintext, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

// Login verifies credentials and issues a session token
func (s *identityService) Login(ctx context.Context, username, plaintext string) (*models.LoginResponse, error) {
	user, err := s.VerifyCredentials(ctx, username, plaintext)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("failed to issue session token", zap.Int("userID", user.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToResponse(),
	}, nil
}

// Register creates a new account with the user role
func (s *identityService) Register(ctx context.Context, username, plaintext string) (*models.User, error) {
	return s.create(ctx, username, plaintext, models.RoleUser)
}

// CreateAsAdmin creates an account with desiredRole on behalf of an admin.
// An empty desiredRole means user.
func (s *identityService) CreateAsAdmin(ctx context.Context, requesterRole models.Role, username, plaintext string, desiredRole models.Role) (*models.User, error) {
	if requesterRole != models.RoleAdmin {
		return nil, common.ErrForbidden
	}
	if desiredRole == "" {
		desiredRole = models.RoleUser
	}
	if !desiredRole.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", desiredRole, common.ErrInvalidInput)
	}
	return s.create(ctx, username, plaintext, desiredRole)
}

func (s *identityService) create(ctx context.Context, username, plaintext string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", common.ErrInvalidInput)
	}
	if utf8.RuneCountInString(plaintext) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, common.ErrInvalidInput)
	}
	return s.insert(ctx, username, plaintext, role)
}

// insert hashes plaintext and stores the account without checking password strength
func (s *identityService) insert(ctx context.Context, username, plaintext string, role models.Role) (*models.User, error) {
	hash, err := service.HashPassword(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicateKey) {
			return nil, common.ErrUsernameExists
		}
		return nil, err
	}

	s.logger.Info("user created", zap.Int("userID", user.ID), zap.String("role", string(role)))
	return user, nil
}

// ChangePassword replaces the password of userID after checking the current one
func (s *identityService) ChangePassword(ctx context.Context, userID int, current, next string) error {
	if current == "" || next == "" {
		return fmt.Errorf("current and new password are required: %w", common.ErrInvalidInput)
	}
	if utf8.RuneCountInString(next) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, common.ErrInvalidInput)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !service.VerifyPassword(current, user.PasswordHash) {
		return common.ErrInvalidCurrentPassword
	}

	hash, err := service.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.Int("userID", userID))
	return nil
}

// ListUsers returns every account. Only admins may call it.
func (s *identityService) ListUsers(ctx context.Context, requesterRole models.Role) ([]models.User, error) {
	if requesterRole != models.RoleAdmin {
		return nil, common.ErrForbidden
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Bootstrap creates the configured admin when no account exists yet and
// returns the id of the admin that owns unassigned rows.
func (s *identityService) Bootstrap(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	if count == 0 {
		// Length rules do not apply to the configured admin password
		user, err := s.insert(ctx, s.adminUsername, s.adminPassword, models.RoleAdmin)
		if err != nil && !errors.Is(err, common.ErrUsernameExists) {
			return 0, fmt.Errorf("failed to create bootstrap admin: %w", err)
		}
		if err == nil {
			s.logger.Info("bootstrap admin created", zap.String("username", user.Username))
			return user.ID, nil
		}
		// Another instance won the race; fall through and look it up
	}

	user, err := s.repo.GetByUsername(ctx, s.adminUsername)
	if err == nil && user.Role == models.RoleAdmin {
		return user.ID, nil
	}
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return 0, fmt.Errorf("failed to load bootstrap admin: %w", err)
	}

	admin, err := s.repo.FirstAdmin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to find an admin: %w", err)
	}
	return admin.ID, nil
}
