package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/dbx"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

const postColumns = `slug, title, excerpt, channel, category, tags_json, author_id, published_at, read_time,
	featured, views, content_json, media_json, created_by_user, COALESCE(owner_user_id, 0), created_at, updated_at`

// postRepository implements PostRepository
type postRepository struct {
	db     dbx.DBTX
	logger *zap.Logger
	table  ownedTable
}

// NewPostRepository creates a new post repository
func NewPostRepository(db dbx.DBTX, logger *zap.Logger) *postRepository {
	return &postRepository{
		db:     db,
		logger: logger,
		table:  ownedTable{name: "posts", db: db, logger: logger},
	}
}

func (r *postRepository) scan(row rowScanner) (*models.Post, error) {
	post := &models.Post{}
	var tags, content, media string
	var featured, createdByUser int
	var createdAt, updatedAt int64
	err := row.Scan(
		&post.Slug,
		&post.Title,
		&post.Excerpt,
		&post.Channel,
		&post.Category,
		&tags,
		&post.AuthorID,
		&post.PublishedAt,
		&post.ReadTime,
		&featured,
		&post.Views,
		&content,
		&media,
		&createdByUser,
		&post.OwnerUserID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Tags = decodeList[string](tags, "posts.tags_json", r.logger)
	post.Content = decodeList[string](content, "posts.content_json", r.logger)
	post.Media = decodeList[json.RawMessage](media, "posts.media_json", r.logger)
	post.Featured = featured != 0
	post.CreatedByUser = createdByUser != 0
	post.CreatedAt = fromMillis(createdAt)
	post.UpdatedAt = fromMillis(updatedAt)
	return post, nil
}

// List returns posts newest first, restricted to one owner unless all is set
func (r *postRepository) List(ctx context.Context, ownerUserID int, all bool) ([]models.Post, error) {
	where, args := scopeClause(ownerUserID, all)
	query := `SELECT ` + postColumns + ` FROM posts` + where + ` ORDER BY published_at DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query posts", zap.Error(err))
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		post, err := r.scan(rows)
		if err != nil {
			r.logger.Error("failed to scan post", zap.Error(err))
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return posts, nil
}

// GetBySlug retrieves a post by slug
func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE slug = ?`

	post, err := r.scan(r.db.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get post", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// Create inserts a post. A taken slug yields common.ErrDuplicateKey.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (
			slug, title, excerpt, channel, category, tags_json, author_id, published_at, read_time,
			featured, views, content_json, media_json, created_by_user, owner_user_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	tags, content, media, err := encodePostLists(post)
	if err != nil {
		return err
	}

	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	post.CreatedAt = fromMillis(toMillis(post.CreatedAt))
	post.UpdatedAt = post.CreatedAt

	_, err = r.db.ExecContext(ctx, query,
		post.Slug,
		post.Title,
		post.Excerpt,
		post.Channel,
		post.Category,
		tags,
		post.AuthorID,
		post.PublishedAt,
		post.ReadTime,
		boolToInt(post.Featured),
		post.Views,
		content,
		media,
		boolToInt(post.CreatedByUser),
		ownerArg(post.OwnerUserID),
		toMillis(post.CreatedAt),
		toMillis(post.UpdatedAt),
	)
	if err != nil {
		if dbx.IsDuplicateKey(err) {
			return fmt.Errorf("failed to create post %q: %w", post.Slug, common.ErrDuplicateKey)
		}
		r.logger.Error("failed to create post", zap.Error(err), zap.String("slug", post.Slug))
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// Update writes every mutable column of a post. Slug, owner and creation time never change.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts SET
			title = ?, excerpt = ?, channel = ?, category = ?, tags_json = ?, author_id = ?,
			published_at = ?, read_time = ?, featured = ?, views = ?, content_json = ?, media_json = ?,
			updated_at = ?
		WHERE slug = ?
	`

	tags, content, media, err := encodePostLists(post)
	if err != nil {
		return err
	}
	post.UpdatedAt = fromMillis(toMillis(time.Now()))

	result, err := r.db.ExecContext(ctx, query,
		post.Title,
		post.Excerpt,
		post.Channel,
		post.Category,
		tags,
		post.AuthorID,
		post.PublishedAt,
		post.ReadTime,
		boolToInt(post.Featured),
		post.Views,
		content,
		media,
		toMillis(post.UpdatedAt),
		post.Slug,
	)
	if err != nil {
		r.logger.Error("failed to update post", zap.Error(err), zap.String("slug", post.Slug))
		return fmt.Errorf("failed to update post: %w", err)
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

// Delete removes a post and reports whether a row was deleted
func (r *postRepository) Delete(ctx context.Context, slug string) (bool, error) {
	return r.table.deleteByKey(ctx, "slug", slug)
}

// Count returns the number of posts
func (r *postRepository) Count(ctx context.Context) (int, error) {
	return r.table.count(ctx)
}

// AssignOrphans gives every unowned post to ownerUserID
func (r *postRepository) AssignOrphans(ctx context.Context, ownerUserID int) (int64, error) {
	return r.table.assignOrphans(ctx, ownerUserID)
}

func encodePostLists(post *models.Post) (tags, content, media string, err error) {
	if tags, err = encodeList(post.Tags); err != nil {
		return "", "", "", err
	}
	if content, err = encodeList(post.Content); err != nil {
		return "", "", "", err
	}
	if media, err = encodeList(post.Media); err != nil {
		return "", "", "", err
	}
	return tags, content, media, nil
}
