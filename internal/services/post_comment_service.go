package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/northline/journal/internal/access"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

// maxCommentLength is the maximum number of characters in a comment
const maxCommentLength = 2000

// PostCommentRepository is the interface that wraps methods for PostComments table data access
type PostCommentRepository interface {
	// Method ListByPost retrieves the comments of a post, oldest first.
	ListByPost(ctx context.Context, slug string) ([]models.PostComment, error)
	// Method GetByID retrieves a comment by ID.
	//
	// If comment with such ID does not exist, common.ErrNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.PostComment, error)
	// Method Create inserts a new comment.
	Create(ctx context.Context, comment *models.PostComment) error
	// Method Delete removes a comment and reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// PostLookup finds the post a comment thread belongs to
type PostLookup interface {
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
}

// postCommentService implements comment threads on posts.
// A thread is reachable only through a post the session may access.
type postCommentService struct {
	repo   PostCommentRepository
	posts  PostLookup
	logger *zap.Logger
	now    func() time.Time
}

// NewPostCommentService creates a new post comment service
func NewPostCommentService(repo PostCommentRepository, posts PostLookup, logger *zap.Logger) *postCommentService {
	return &postCommentService{
		repo:   repo,
		posts:  posts,
		logger: logger,
		now:    time.Now,
	}
}

// post returns the post behind slug when the session may access it
func (s *postCommentService) post(ctx context.Context, session *models.Session, slug string) (*models.Post, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	return authorize(session, post, err)
}

// List returns the comments on a post the session may access
func (s *postCommentService) List(ctx context.Context, session *models.Session, slug string) ([]models.PostComment, error) {
	if _, err := s.post(ctx, session, slug); err != nil {
		return nil, err
	}

	comments, err := s.repo.ListByPost(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to list post comments: %w", err)
	}
	return comments, nil
}

// Create adds a comment by the session user to a post the session may access
func (s *postCommentService) Create(ctx context.Context, session *models.Session, slug string, draft *models.PostCommentDraft) (*models.PostComment, error) {
	if session == nil {
		return nil, common.ErrInvalidToken
	}
	if draft == nil || strings.TrimSpace(draft.Content) == "" {
		return nil, fmt.Errorf("content is required: %w", common.ErrInvalidInput)
	}
	content := strings.TrimSpace(draft.Content)
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, fmt.Errorf("content must be at most %d characters: %w", maxCommentLength, common.ErrInvalidInput)
	}

	post, err := s.post(ctx, session, slug)
	if err != nil {
		return nil, err
	}

	comment := &models.PostComment{
		ID:          uuid.NewString(),
		PostSlug:    post.Slug,
		Content:     content,
		OwnerUserID: session.UserID,
		Username:    session.Username,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create post comment: %w", err)
	}

	return comment, nil
}

// Delete removes a comment on slug. Only the author or an admin may delete it.
// Missing, mismatched and inaccessible comments all report false without an error.
func (s *postCommentService) Delete(ctx context.Context, session *models.Session, slug, id string) (bool, error) {
	comment, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if comment.PostSlug != slug || !access.CanAccess(session, comment.OwnerUserID) {
		return false, nil
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete post comment: %w", err)
	}
	return deleted, nil
}
