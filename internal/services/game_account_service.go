package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/northline/journal/internal/access"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

// Game account defaults applied on create
const (
	DefaultGameServer = "未填写"
	DefaultGameRole   = "未分类"
	DefaultGameNotes  = "暂无心得"
)

// GameAccountRepository is the interface that wraps methods for GameAccounts table data access
type GameAccountRepository interface {
	// Method List retrieves game accounts ordered by last login, most recent first.
	//
	// When "all" is false only accounts owned by "ownerUserID" are returned.
	List(ctx context.Context, ownerUserID int, all bool) ([]models.GameAccount, error)
	// Method GetByID retrieves a game account by ID.
	//
	// If account with such ID does not exist, common.ErrNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.GameAccount, error)
	// Method Create inserts a new game account.
	//
	// If the ID is taken, an error wrapping common.ErrDuplicateKey is returned.
	Create(ctx context.Context, account *models.GameAccount) error
	// Method Update writes the mutable fields of an existing game account.
	//
	// If the row no longer exists, common.ErrNotFound is returned.
	Update(ctx context.Context, account *models.GameAccount) error
	// Method Delete removes a game account and reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// SecretSealer encrypts vault passwords at rest.
// The binding ties a sealed value to the row it belongs to.
type SecretSealer interface {
	Seal(plaintext, binding string) (string, error)
	Open(value, binding string) (string, error)
}

// gameAccountService implements the ownership-scoped game vault
type gameAccountService struct {
	repo   GameAccountRepository
	sealer SecretSealer
	logger *zap.Logger
	now    func() time.Time
}

// NewGameAccountService creates a new game account service.
// sealer may be nil, in which case passwords are stored as given.
func NewGameAccountService(repo GameAccountRepository, sealer SecretSealer, logger *zap.Logger) *gameAccountService {
	return &gameAccountService{
		repo:   repo,
		sealer: sealer,
		logger: logger,
		now:    time.Now,
	}
}

// List returns the game accounts visible to session with passwords revealed
func (s *gameAccountService) List(ctx context.Context, session *models.Session) ([]models.GameAccount, error) {
	ownerID, all, ok := access.ListScope(session)
	if !ok {
		return []models.GameAccount{}, nil
	}

	accounts, err := s.repo.List(ctx, ownerID, all)
	if err != nil {
		return nil, fmt.Errorf("failed to list game accounts: %w", err)
	}
	for i := range accounts {
		s.reveal(&accounts[i])
	}
	return accounts, nil
}

// GetByKey retrieves a game account without any access check
func (s *gameAccountService) GetByKey(ctx context.Context, id string) (*models.GameAccount, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reveal(account)
	return account, nil
}

// Get retrieves a game account the session may access
func (s *gameAccountService) Get(ctx context.Context, session *models.Session, id string) (*models.GameAccount, error) {
	account, err := s.repo.GetByID(ctx, id)
	account, err = authorize(session, account, err)
	if err != nil {
		return nil, err
	}
	s.reveal(account)
	return account, nil
}

// Create stores a new game account owned by the session user under a fresh id
func (s *gameAccountService) Create(ctx context.Context, session *models.Session, draft *models.GameAccountDraft) (*models.GameAccount, error) {
	if session == nil {
		return nil, common.ErrInvalidToken
	}
	if draft == nil || strings.TrimSpace(draft.Game) == "" || strings.TrimSpace(draft.Account) == "" || draft.Password == "" {
		return nil, fmt.Errorf("game, account and password are required: %w", common.ErrInvalidInput)
	}

	now := s.now()
	account := &models.GameAccount{
		ID:          uuid.NewString(),
		Game:        strings.TrimSpace(draft.Game),
		Server:      orDefault(draft.Server, DefaultGameServer),
		Account:     strings.TrimSpace(draft.Account),
		Password:    draft.Password,
		Role:        orDefault(draft.Role, DefaultGameRole),
		LastLogin:   orDefault(draft.LastLogin, today(now)),
		Notes:       orDefault(draft.Notes, DefaultGameNotes),
		OwnerUserID: session.UserID,
		CreatedAt:   now,
	}

	if err := s.store(ctx, account, s.repo.Create); err != nil {
		return nil, fmt.Errorf("failed to create game account: %w", err)
	}

	return account, nil
}

// Update applies patch to a game account the session may access.
// A blank game, account or password in the patch is ignored. A stored password
// that cannot be opened is written back untouched unless the patch replaces it.
func (s *gameAccountService) Update(ctx context.Context, session *models.Session, id string, patch *models.GameAccountPatch) (*models.GameAccount, error) {
	account, err := s.repo.GetByID(ctx, id)
	account, err = authorize(session, account, err)
	if err != nil {
		return nil, err
	}

	stored := account.Password
	openErr := s.reveal(account)

	newPassword := false
	if patch != nil {
		overrideRequired(&account.Game, patch.Game)
		override(&account.Server, patch.Server)
		overrideRequired(&account.Account, patch.Account)
		if patch.Password != nil && *patch.Password != "" {
			account.Password = *patch.Password
			newPassword = true
		}
		override(&account.Role, patch.Role)
		override(&account.LastLogin, patch.LastLogin)
		override(&account.Notes, patch.Notes)
	}

	if openErr != nil && !newPassword {
		account.Password = stored
		err = s.repo.Update(ctx, account)
		account.Password = ""
	} else {
		err = s.store(ctx, account, s.repo.Update)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("failed to update game account: %w", err)
	}
	return account, nil
}

// Delete removes a game account the session may access.
// Missing and inaccessible accounts both report false without an error.
func (s *gameAccountService) Delete(ctx context.Context, session *models.Session, id string) (bool, error) {
	account, err := s.repo.GetByID(ctx, id)
	if _, err := authorize(session, account, err); err != nil {
		if errors.Is(err, common.ErrNotFoundOrForbidden) {
			return false, nil
		}
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete game account: %w", err)
	}
	return deleted, nil
}

// store seals the password, writes the row and restores the plaintext on the returned value
func (s *gameAccountService) store(ctx context.Context, account *models.GameAccount, write func(context.Context, *models.GameAccount) error) error {
	plaintext := account.Password
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(plaintext, account.ID)
		if err != nil {
			return fmt.Errorf("failed to seal password: %w", err)
		}
		account.Password = sealed
	}

	err := write(ctx, account)
	account.Password = plaintext
	return err
}

// reveal decrypts the password in place. Undecryptable values are blanked
// and the decryption error is returned.
func (s *gameAccountService) reveal(account *models.GameAccount) error {
	if s.sealer == nil {
		return nil
	}
	plaintext, err := s.sealer.Open(account.Password, account.ID)
	if err != nil {
		s.logger.Warn("failed to open game account password", zap.String("id", account.ID), zap.Error(err))
		account.Password = ""
		return err
	}
	account.Password = plaintext
	return nil
}
