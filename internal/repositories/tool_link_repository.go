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

const toolLinkColumns = `id, name, url, description, category, icon_text, COALESCE(owner_user_id, 0), created_at, updated_at`

// toolLinkRepository implements ToolLinkRepository
type toolLinkRepository struct {
	db     dbx.DBTX
	logger *zap.Logger
	table  ownedTable
}

// NewToolLinkRepository creates a new tool link repository
func NewToolLinkRepository(db dbx.DBTX, logger *zap.Logger) *toolLinkRepository {
	return &toolLinkRepository{
		db:     db,
		logger: logger,
		table:  ownedTable{name: "tool_links", db: db, logger: logger},
	}
}

func scanToolLink(row rowScanner) (*models.ToolLink, error) {
	link := &models.ToolLink{}
	var createdAt, updatedAt int64
	err := row.Scan(
		&link.ID,
		&link.Name,
		&link.URL,
		&link.Description,
		&link.Category,
		&link.IconText,
		&link.OwnerUserID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	link.CreatedAt = fromMillis(createdAt)
	link.UpdatedAt = fromMillis(updatedAt)
	return link, nil
}

// List returns tool links grouped by category, restricted to one owner unless all is set
func (r *toolLinkRepository) List(ctx context.Context, ownerUserID int, all bool) ([]models.ToolLink, error) {
	where, args := scopeClause(ownerUserID, all)
	query := `SELECT ` + toolLinkColumns + ` FROM tool_links` + where + ` ORDER BY category ASC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query tool links", zap.Error(err))
		return nil, fmt.Errorf("failed to query tool links: %w", err)
	}
	defer rows.Close()

	links := []models.ToolLink{}
	for rows.Next() {
		link, err := scanToolLink(rows)
		if err != nil {
			r.logger.Error("failed to scan tool link", zap.Error(err))
			return nil, fmt.Errorf("failed to scan tool link: %w", err)
		}
		links = append(links, *link)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return links, nil
}

// GetByID retrieves a tool link by id
func (r *toolLinkRepository) GetByID(ctx context.Context, id string) (*models.ToolLink, error) {
	query := `SELECT ` + toolLinkColumns + ` FROM tool_links WHERE id = ?`

	link, err := scanToolLink(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get tool link", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get tool link: %w", err)
	}

	return link, nil
}

// Create inserts a tool link
func (r *toolLinkRepository) Create(ctx context.Context, link *models.ToolLink) error {
	query := `
		INSERT INTO tool_links (id, name, url, description, category, icon_text, owner_user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	link.CreatedAt = fromMillis(toMillis(link.CreatedAt))
	link.UpdatedAt = link.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		link.ID,
		link.Name,
		link.URL,
		link.Description,
		link.Category,
		link.IconText,
		ownerArg(link.OwnerUserID),
		toMillis(link.CreatedAt),
		toMillis(link.UpdatedAt),
	)
	if err != nil {
		if dbx.IsDuplicateKey(err) {
			return fmt.Errorf("failed to create tool link %q: %w", link.ID, common.ErrDuplicateKey)
		}
		r.logger.Error("failed to create tool link", zap.Error(err), zap.String("id", link.ID))
		return fmt.Errorf("failed to create tool link: %w", err)
	}

	return nil
}

// Update writes every mutable column of a tool link
func (r *toolLinkRepository) Update(ctx context.Context, link *models.ToolLink) error {
	query := `
		UPDATE tool_links SET name = ?, url = ?, description = ?, category = ?, icon_text = ?, updated_at = ?
		WHERE id = ?
	`

	link.UpdatedAt = fromMillis(toMillis(time.Now()))

	result, err := r.db.ExecContext(ctx, query,
		link.Name,
		link.URL,
		link.Description,
		link.Category,
		link.IconText,
		toMillis(link.UpdatedAt),
		link.ID,
	)
	if err != nil {
		r.logger.Error("failed to update tool link", zap.Error(err), zap.String("id", link.ID))
		return fmt.Errorf("failed to update tool link: %w", err)
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

// Delete removes a tool link and reports whether a row was deleted
func (r *toolLinkRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.table.deleteByKey(ctx, "id", id)
}

// Count returns the number of tool links
func (r *toolLinkRepository) Count(ctx context.Context) (int, error) {
	return r.table.count(ctx)
}

// AssignOrphans gives every unowned tool link to ownerUserID
func (r *toolLinkRepository) AssignOrphans(ctx context.Context, ownerUserID int) (int64, error) {
	return r.table.assignOrphans(ctx, ownerUserID)
}
