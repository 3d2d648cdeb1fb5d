package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/dbx"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

const gameAccountColumns = `id, game, server, account, password, role, last_login, notes, COALESCE(owner_user_id, 0), created_at, updated_at`

// gameAccountRepository implements GameAccountRepository.
// Passwords are stored exactly as given; sealing happens in the service.
type gameAccountRepository struct {
	db     dbx.DBTX
	logger *zap.Logger
	table  ownedTable
}

// NewGameAccountRepository creates a new game account repository
func NewGameAccountRepository(db dbx.DBTX, logger *zap.Logger) *gameAccountRepository {
	return &gameAccountRepository{
		db:     db,
		logger: logger,
		table:  ownedTable{name: "game_accounts", db: db, logger: logger},
	}
}

func scanGameAccount(row rowScanner) (*models.GameAccount, error) {
	account := &models.GameAccount{}
	var createdAt, updatedAt int64
	err := row.Scan(
		&account.ID,
		&account.Game,
		&account.Server,
		&account.Account,
		&account.Password,
		&account.Role,
		&account.LastLogin,
		&account.Notes,
		&account.OwnerUserID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.CreatedAt = fromMillis(createdAt)
	account.UpdatedAt = fromMillis(updatedAt)
	return account, nil
}

// List returns game accounts by most recent login, restricted to one owner unless all is set
func (r *gameAccountRepository) List(ctx context.Context, ownerUserID int, all bool) ([]models.GameAccount, error) {
	where, args := scopeClause(ownerUserID, all)
	query := `SELECT ` + gameAccountColumns + ` FROM game_accounts` + where + ` ORDER BY last_login DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query game accounts", zap.Error(err))
		return nil, fmt.Errorf("failed to query game accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.GameAccount{}
	for rows.Next() {
		account, err := scanGameAccount(rows)
		if err != nil {
			r.logger.Error("failed to scan game account", zap.Error(err))
			return nil, fmt.Errorf("failed to scan game account: %w", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return accounts, nil
}

// GetByID retrieves a game account by id
func (r *gameAccountRepository) GetByID(ctx context.Context, id string) (*models.GameAccount, error) {
	query := `SELECT ` + gameAccountColumns + ` FROM game_accounts WHERE id = ?`

	account, err := scanGameAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get game account", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get game account: %w", err)
	}

	return account, nil
}

// Create inserts a game account
func (r *gameAccountRepository) Create(ctx context.Context, account *models.GameAccount) error {
	query := `
		INSERT INTO game_accounts (id, game, server, account, password, role, last_login, notes, owner_user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.CreatedAt = fromMillis(toMillis(account.CreatedAt))
	account.UpdatedAt = account.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Game,
		account.Server,
		account.Account,
		account.Password,
		account.Role,
		account.LastLogin,
		account.Notes,
		ownerArg(account.OwnerUserID),
		toMillis(account.CreatedAt),
		toMillis(account.UpdatedAt),
	)
	if err != nil {
		if dbx.IsDuplicateKey(err) {
			return fmt.Errorf("failed to create game account %q: %w", account.ID, common.ErrDuplicateKey)
		}
		r.logger.Error("failed to create game account", zap.Error(err), zap.String("id", account.ID))
		return fmt.Errorf("failed to create game account: %w", err)
	}

	return nil
}

// Update writes every mutable column of a game account
func (r *gameAccountRepository) Update(ctx context.Context, account *models.GameAccount) error {
	query := `
		UPDATE game_accounts SET game = ?, server = ?, account = ?, password = ?, role = ?, last_login = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	account.UpdatedAt = fromMillis(toMillis(time.Now()))

	result, err := r.db.ExecContext(ctx, query,
		account.Game,
		account.Server,
		account.Account,
		account.Password,
		account.Role,
		account.LastLogin,
		account.Notes,
		toMillis(account.UpdatedAt),
		account.ID,
	)
	if err != nil {
		r.logger.Error("failed to update game account", zap.Error(err), zap.String("id", account.ID))
		return fmt.Errorf("failed to update game account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

// Delete removes a game account and reports whether a row was deleted
func (r *gameAccountRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.table.deleteByKey(ctx, "id", id)
}

// Count returns the number of game accounts
func (r *gameAccountRepository) Count(ctx context.Context) (int, error) {
	return r.table.count(ctx)
}

// AssignOrphans gives every unowned game account to ownerUserID
func (r *gameAccountRepository) AssignOrphans(ctx context.Context, ownerUserID int) (int64, error) {
	return r.table.assignOrphans(ctx, ownerUserID)
}
