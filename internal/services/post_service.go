package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/northline/journal/internal/access"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

// Post defaults applied on create
const (
	DefaultPostChannel  = "技术心得"
	DefaultPostCategory = "未分类"
	DefaultPostAuthorID = "kai"
	DefaultPostReadTime = "5 分钟"
)

// maxSlugAttempts bounds the suffix search for a free slug
const maxSlugAttempts = 1000

// PostRepository is the interface that wraps methods for Posts table data access
type PostRepository interface {
	// Method List retrieves posts ordered by publish date, newest first.
	//
	// When "all" is false only posts owned by "ownerUserID" are returned.
	List(ctx context.Context, ownerUserID int, all bool) ([]models.Post, error)
	// Method GetBySlug retrieves a post by its slug.
	//
	// If post with such slug does not exist, common.ErrNotFound is returned together with "nil" value.
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	// Method Create inserts a new post.
	//
	// If the slug is taken, an error wrapping common.ErrDuplicateKey is returned.
	Create(ctx context.Context, post *models.Post) error
	// Method Update writes the mutable fields of an existing post.
	//
	// If the row no longer exists, common.ErrNotFound is returned.
	Update(ctx context.Context, post *models.Post) error
	// Method Delete removes a post and reports whether a row was removed.
	Delete(ctx context.Context, slug string) (bool, error)
}

// postService implements the ownership-scoped post store
type postService struct {
	repo   PostRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewPostService creates a new post service
func NewPostService(repo PostRepository, logger *zap.Logger) *postService {
	return &postService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// List returns the posts visible to session
func (s *postService) List(ctx context.Context, session *models.Session) ([]models.Post, error) {
	ownerID, all, ok := access.ListScope(session)
	if !ok {
		return []models.Post{}, nil
	}

	posts, err := s.repo.List(ctx, ownerID, all)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetByKey retrieves a post without any access check.
// It is meant for internal callers; handlers use Get.
func (s *postService) GetByKey(ctx context.Context, slug string) (*models.Post, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Get retrieves a post the session may access
func (s *postService) Get(ctx context.Context, session *models.Session, slug string) (*models.Post, error) {
	post, err := s.repo.GetBySlug(ctx, slug)
	return authorize(session, post, err)
}

// Create stores a new post owned by the session user.
// The slug is derived from the title and suffixed until it is free.
func (s *postService) Create(ctx context.Context, session *models.Session, draft *models.PostDraft) (*models.Post, error) {
	if session == nil {
		return nil, common.ErrInvalidToken
	}
	if draft == nil || strings.TrimSpace(draft.Title) == "" || strings.TrimSpace(draft.Excerpt) == "" || draft.Content == nil {
		return nil, fmt.Errorf("title, excerpt and content are required: %w", common.ErrInvalidInput)
	}

	now := s.now()
	post := &models.Post{
		Title:         draft.Title,
		Excerpt:       draft.Excerpt,
		Channel:       orDefault(draft.Channel, DefaultPostChannel),
		Category:      orDefault(draft.Category, DefaultPostCategory),
		Tags:          nonNil(draft.Tags),
		AuthorID:      orDefault(draft.AuthorID, DefaultPostAuthorID),
		PublishedAt:   orDefault(draft.PublishedAt, today(now)),
		ReadTime:      orDefault(draft.ReadTime, DefaultPostReadTime),
		Featured:      draft.Featured,
		Views:         max(draft.Views, 0),
		Content:       draft.Content,
		Media:         nonNil(draft.Media),
		CreatedByUser: true,
		OwnerUserID:   session.UserID,
		CreatedAt:     now,
	}

	base := Slugify(draft.Title, now)
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		post.Slug = slugCandidate(base, attempt)
		err := s.repo.Create(ctx, post)
		if err == nil {
			s.logger.Info("post created", zap.String("slug", post.Slug), zap.Int("ownerUserID", post.OwnerUserID))
			return post, nil
		}
		if !errors.Is(err, common.ErrDuplicateKey) {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
	}

	return nil, fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}

// Update applies patch to a post the session may access. The slug never changes
// and a blank title or excerpt is ignored.
func (s *postService) Update(ctx context.Context, session *models.Session, slug string, patch *models.PostPatch) (*models.Post, error) {
	post, err := s.Get(ctx, session, slug)
	if err != nil {
		return nil, err
	}

	if patch != nil {
		overrideRequired(&post.Title, patch.Title)
		overrideRequired(&post.Excerpt, patch.Excerpt)
		override(&post.Channel, patch.Channel)
		override(&post.Category, patch.Category)
		override(&post.Tags, patch.Tags)
		override(&post.AuthorID, patch.AuthorID)
		override(&post.PublishedAt, patch.PublishedAt)
		override(&post.ReadTime, patch.ReadTime)
		override(&post.Featured, patch.Featured)
		override(&post.Views, patch.Views)
		override(&post.Content, patch.Content)
		override(&post.Media, patch.Media)
	}
	post.Tags = nonNil(post.Tags)
	post.Content = nonNil(post.Content)
	post.Media = nonNil(post.Media)

	if err := s.repo.Update(ctx, post); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return post, nil
}

// Delete removes a post the session may access.
// Missing and inaccessible posts both report false without an error.
func (s *postService) Delete(ctx context.Context, session *models.Session, slug string) (bool, error) {
	if _, err := s.Get(ctx, session, slug); err != nil {
		if errors.Is(err, common.ErrNotFoundOrForbidden) {
			return false, nil
		}
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, slug)
	if err != nil {
		return false, fmt.Errorf("failed to delete post: %w", err)
	}
	return deleted, nil
}

// nonNil returns an empty slice in place of nil so lists always encode as []
func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

