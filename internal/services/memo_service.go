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

// DefaultMemoDetails is stored when a memo task has no details
const DefaultMemoDetails = "暂无备注"

// MemoRepository is the interface that wraps methods for MemoTasks table data access
type MemoRepository interface {
	// Method List retrieves memo tasks ordered by date, earliest first.
	//
	// When "all" is false only tasks owned by "ownerUserID" are returned.
	List(ctx context.Context, ownerUserID int, all bool) ([]models.MemoTask, error)
	// Method GetByID retrieves a memo task by ID.
	//
	// If task with such ID does not exist, common.ErrNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.MemoTask, error)
	// Method Create inserts a new memo task.
	//
	// If the ID is taken, an error wrapping common.ErrDuplicateKey is returned.
	Create(ctx context.Context, task *models.MemoTask) error
	// Method Update writes the mutable fields of an existing memo task.
	//
	// If the row no longer exists, common.ErrNotFound is returned.
	Update(ctx context.Context, task *models.MemoTask) error
	// Method Delete removes a memo task and reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// ValidMemoPriority reports whether p is a known priority
func ValidMemoPriority(p string) bool {
	return p == models.MemoPriorityHigh || p == models.MemoPriorityMedium || p == models.MemoPriorityLow
}

// ValidMemoStatus reports whether s is a known status
func ValidMemoStatus(s string) bool {
	return s == models.MemoStatusTodo || s == models.MemoStatusDone
}

// ValidMemoCategory reports whether c is a known category
func ValidMemoCategory(c string) bool {
	switch c {
	case models.MemoCategoryDaily, models.MemoCategoryTech, models.MemoCategoryContent, models.MemoCategoryGame:
		return true
	}
	return false
}

// memoService implements the ownership-scoped memo task store
type memoService struct {
	repo   MemoRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewMemoService creates a new memo task service
func NewMemoService(repo MemoRepository, logger *zap.Logger) *memoService {
	return &memoService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// List returns the memo tasks visible to session
func (s *memoService) List(ctx context.Context, session *models.Session) ([]models.MemoTask, error) {
	ownerID, all, ok := access.ListScope(session)
	if !ok {
		return []models.MemoTask{}, nil
	}

	tasks, err := s.repo.List(ctx, ownerID, all)
	if err != nil {
		return nil, fmt.Errorf("failed to list memo tasks: %w", err)
	}
	return tasks, nil
}

// GetByKey retrieves a memo task without any access check
func (s *memoService) GetByKey(ctx context.Context, id string) (*models.MemoTask, error) {
	return s.repo.GetByID(ctx, id)
}

// Get retrieves a memo task the session may access
func (s *memoService) Get(ctx context.Context, session *models.Session, id string) (*models.MemoTask, error) {
	task, err := s.repo.GetByID(ctx, id)
	return authorize(session, task, err)
}

// Create stores a new memo task owned by the session user under a fresh id.
// Unknown priority, status or category values fall back to their defaults.
func (s *memoService) Create(ctx context.Context, session *models.Session, draft *models.MemoDraft) (*models.MemoTask, error) {
	if session == nil {
		return nil, common.ErrInvalidToken
	}
	if draft == nil || strings.TrimSpace(draft.Title) == "" || strings.TrimSpace(draft.Date) == "" {
		return nil, fmt.Errorf("title and date are required: %w", common.ErrInvalidInput)
	}

	task := &models.MemoTask{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(draft.Title),
		Details:     orDefault(draft.Details, DefaultMemoDetails),
		Date:        strings.TrimSpace(draft.Date),
		Priority:    models.MemoPriorityMedium,
		Status:      models.MemoStatusTodo,
		Category:    models.MemoCategoryDaily,
		OwnerUserID: session.UserID,
		CreatedAt:   s.now(),
	}
	if ValidMemoPriority(draft.Priority) {
		task.Priority = draft.Priority
	}
	if ValidMemoStatus(draft.Status) {
		task.Status = draft.Status
	}
	if ValidMemoCategory(draft.Category) {
		task.Category = draft.Category
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create memo task: %w", err)
	}

	return task, nil
}

// Update applies patch to a memo task the session may access.
// Invalid enum values and a blank title or date in the patch are ignored.
func (s *memoService) Update(ctx context.Context, session *models.Session, id string, patch *models.MemoPatch) (*models.MemoTask, error) {
	task, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}

	if patch != nil {
		overrideRequired(&task.Title, patch.Title)
		override(&task.Details, patch.Details)
		overrideRequired(&task.Date, patch.Date)
		if patch.Priority != nil && ValidMemoPriority(*patch.Priority) {
			task.Priority = *patch.Priority
		}
		if patch.Status != nil && ValidMemoStatus(*patch.Status) {
			task.Status = *patch.Status
		}
		if patch.Category != nil && ValidMemoCategory(*patch.Category) {
			task.Category = *patch.Category
		}
	}

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("failed to update memo task: %w", err)
	}
	return task, nil
}

// SetStatus changes only the status of a memo task. Unlike Update, an unknown status is rejected.
func (s *memoService) SetStatus(ctx context.Context, session *models.Session, id string, status string) (*models.MemoTask, error) {
	if !ValidMemoStatus(status) {
		return nil, fmt.Errorf("status must be todo or done: %w", common.ErrInvalidInput)
	}
	return s.Update(ctx, session, id, &models.MemoPatch{Status: &status})
}

// Delete removes a memo task the session may access.
// Missing and inaccessible tasks both report false without an error.
func (s *memoService) Delete(ctx context.Context, session *models.Session, id string) (bool, error) {
	if _, err := s.Get(ctx, session, id); err != nil {
		if errors.Is(err, common.ErrNotFoundOrForbidden) {
			return false, nil
		}
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete memo task: %w", err)
	}
	return deleted, nil
}
