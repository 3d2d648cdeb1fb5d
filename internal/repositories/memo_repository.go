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

const memoColumns = `id, title, details, date, priority, status, category, COALESCE(owner_user_id, 0), created_at, updated_at`

// memoRepository implements MemoRepository
type memoRepository struct {
	db     dbx.DBTX
	logger *zap.Logger
	table  ownedTable
}

// NewMemoRepository creates a new memo task repository
func NewMemoRepository(db dbx.DBTX, logger *zap.Logger) *memoRepository {
	return &memoRepository{
		db:     db,
		logger: logger,
		table:  ownedTable{name: "memo_tasks", db: db, logger: logger},
	}
}

func scanMemo(row rowScanner) (*models.MemoTask, error) {
	task := &models.MemoTask{}
	var createdAt, updatedAt int64
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Details,
		&task.Date,
		&task.Priority,
		&task.Status,
		&task.Category,
		&task.OwnerUserID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = fromMillis(createdAt)
	task.UpdatedAt = fromMillis(updatedAt)
	return task, nil
}

// List returns memo tasks by date, restricted to one owner unless all is set
func (r *memoRepository) List(ctx context.Context, ownerUserID int, all bool) ([]models.MemoTask, error) {
	where, args := scopeClause(ownerUserID, all)
	query := `SELECT ` + memoColumns + ` FROM memo_tasks` + where + ` ORDER BY date ASC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query memo tasks", zap.Error(err))
		return nil, fmt.Errorf("failed to query memo tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.MemoTask{}
	for rows.Next() {
		task, err := scanMemo(rows)
		if err != nil {
			r.logger.Error("failed to scan memo task", zap.Error(err))
			return nil, fmt.Errorf("failed to scan memo task: %w", err)
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tasks, nil
}

// GetByID retrieves a memo task by id
func (r *memoRepository) GetByID(ctx context.Context, id string) (*models.MemoTask, error) {
	query := `SELECT ` + memoColumns + ` FROM memo_tasks WHERE id = ?`

	task, err := scanMemo(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get memo task", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get memo task: %w", err)
	}

	return task, nil
}

// Create inserts a memo task
func (r *memoRepository) Create(ctx context.Context, task *models.MemoTask) error {
	query := `
		INSERT INTO memo_tasks (id, title, details, date, priority, status, category, owner_user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	task.CreatedAt = fromMillis(toMillis(task.CreatedAt))
	task.UpdatedAt = task.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Details,
		task.Date,
		task.Priority,
		task.Status,
		task.Category,
		ownerArg(task.OwnerUserID),
		toMillis(task.CreatedAt),
		toMillis(task.UpdatedAt),
	)
	if err != nil {
		if dbx.IsDuplicateKey(err) {
			return fmt.Errorf("failed to create memo task %q: %w", task.ID, common.ErrDuplicateKey)
		}
		r.logger.Error("failed to create memo task", zap.Error(err), zap.String("id", task.ID))
		return fmt.Errorf("failed to create memo task: %w", err)
	}

	return nil
}

// Update writes every mutable column of a memo task
func (r *memoRepository) Update(ctx context.Context, task *models.MemoTask) error {
	query := `
		UPDATE memo_tasks SET title = ?, details = ?, date = ?, priority = ?, status = ?, category = ?, updated_at = ?
		WHERE id = ?
	`

	task.UpdatedAt = fromMillis(toMillis(time.Now()))

	result, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Details,
		task.Date,
		task.Priority,
		task.Status,
		task.Category,
		toMillis(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		r.logger.Error("failed to update memo task", zap.Error(err), zap.String("id", task.ID))
		return fmt.Errorf("failed to update memo task: %w", err)
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

// Delete removes a memo task and reports whether a row was deleted
func (r *memoRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.table.deleteByKey(ctx, "id", id)
}

// Count returns the number of memo tasks
func (r *memoRepository) Count(ctx context.Context) (int, error) {
	return r.table.count(ctx)
}

// AssignOrphans gives every unowned memo task to ownerUserID
func (r *memoRepository) AssignOrphans(ctx context.Context, ownerUserID int) (int64, error) {
	return r.table.assignOrphans(ctx, ownerUserID)
}
