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

const postCommentColumns = `id, post_slug, content, owner_user_id, username, created_at`

// postCommentRepository implements PostCommentRepository
type postCommentRepository struct {
	db     dbx.DBTX
	logger *zap.Logger
	table  ownedTable
}

// NewPostCommentRepository creates a new post comment repository
func NewPostCommentRepository(db dbx.DBTX, logger *zap.Logger) *postCommentRepository {
	return &postCommentRepository{
		db:     db,
		logger: logger,
		table:  ownedTable{name: "post_comments", db: db, logger: logger},
	}
}

func scanPostComment(row rowScanner) (*models.PostComment, error) {
	comment := &models.PostComment{}
	var createdAt int64
	err := row.Scan(
		&comment.ID,
		&comment.PostSlug,
		&comment.Content,
		&comment.OwnerUserID,
		&comment.Username,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	comment.CreatedAt = fromMillis(createdAt)
	return comment, nil
}

// ListByPost returns the comments of a post, oldest first
func (r *postCommentRepository) ListByPost(ctx context.Context, slug string) ([]models.PostComment, error) {
	query := `SELECT ` + postCommentColumns + ` FROM post_comments WHERE post_slug = ? ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, slug)
	if err != nil {
		r.logger.Error("failed to query post comments", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("failed to query post comments: %w", err)
	}
	defer rows.Close()

	comments := []models.PostComment{}
	for rows.Next() {
		comment, err := scanPostComment(rows)
		if err != nil {
			r.logger.Error("failed to scan post comment", zap.Error(err))
			return nil, fmt.Errorf("failed to scan post comment: %w", err)
		}
		comments = append(comments, *comment)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return comments, nil
}

// GetByID retrieves a comment by id
func (r *postCommentRepository) GetByID(ctx context.Context, id string) (*models.PostComment, error) {
	query := `SELECT ` + postCommentColumns + ` FROM post_comments WHERE id = ?`

	comment, err := scanPostComment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get post comment", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get post comment: %w", err)
	}

	return comment, nil
}

// Create inserts a comment
func (r *postCommentRepository) Create(ctx context.Context, comment *models.PostComment) error {
	query := `
		INSERT INTO post_comments (id, post_slug, content, owner_user_id, username, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	comment.CreatedAt = fromMillis(toMillis(comment.CreatedAt))

	_, err := r.db.ExecContext(ctx, query,
		comment.ID,
		comment.PostSlug,
		comment.Content,
		comment.OwnerUserID,
		comment.Username,
		toMillis(comment.CreatedAt),
	)
	if err != nil {
		if dbx.IsDuplicateKey(err) {
			return fmt.Errorf("failed to create post comment %q: %w", comment.ID, common.ErrDuplicateKey)
		}
		r.logger.Error("failed to create post comment", zap.Error(err), zap.String("slug", comment.PostSlug))
		return fmt.Errorf("failed to create post comment: %w", err)
	}

	return nil
}

// Delete removes a comment and reports whether a row was deleted
func (r *postCommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.table.deleteByKey(ctx, "id", id)
}
