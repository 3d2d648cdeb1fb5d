package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/northline/journal/internal/access"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

// Tool link defaults applied on create
const (
	DefaultToolDescription = "暂无描述"
	DefaultToolCategory    = "实用工具"
	DefaultToolIcon        = "工"
)

var httpSchemeRegex = regexp.MustCompile(`(?i)^https?://`)

// ToolLinkRepository is the interface that wraps methods for ToolLinks table data access
type ToolLinkRepository interface {
	// Method List retrieves tool links ordered by category.
	//
	// When "all" is false only links owned by "ownerUserID" are returned.
	List(ctx context.Context, ownerUserID int, all bool) ([]models.ToolLink, error)
	// Method GetByID retrieves a tool link by ID.
	//
	// If link with such ID does not exist, common.ErrNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.ToolLink, error)
	// Method Create inserts a new tool link.
	//
	// If the ID is taken, an error wrapping common.ErrDuplicateKey is returned.
	Create(ctx context.Context, link *models.ToolLink) error
	// Method Update writes the mutable fields of an existing tool link.
	//
	// If the row no longer exists, common.ErrNotFound is returned.
	Update(ctx context.Context, link *models.ToolLink) error
	// Method Delete removes a tool link and reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// NormalizeToolURL trims raw and prepends https:// unless it already has an http(s) scheme.
// Blank input stays blank.
func NormalizeToolURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if httpSchemeRegex.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

// NormalizeToolIcon keeps icon URLs, shortens text icons to two characters and
// derives a one-letter icon from name when raw is blank.
func NormalizeToolIcon(raw, name string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		for _, r := range strings.TrimSpace(name) {
			return string(unicode.ToUpper(r))
		}
		return DefaultToolIcon
	}
	if httpSchemeRegex.MatchString(raw) {
		return raw
	}
	runes := []rune(raw)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes)
}

// toolLinkService implements the ownership-scoped toolbox
type toolLinkService struct {
	repo   ToolLinkRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewToolLinkService creates a new tool link service
func NewToolLinkService(repo ToolLinkRepository, logger *zap.Logger) *toolLinkService {
	return &toolLinkService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// List returns the tool links visible to session
func (s *toolLinkService) List(ctx context.Context, session *models.Session) ([]models.ToolLink, error) {
	ownerID, all, ok := access.ListScope(session)
	if !ok {
		return []models.ToolLink{}, nil
	}

	links, err := s.repo.List(ctx, ownerID, all)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool links: %w", err)
	}
	return links, nil
}

// GetByKey retrieves a tool link without any access check
func (s *toolLinkService) GetByKey(ctx context.Context, id string) (*models.ToolLink, error) {
	return s.repo.GetByID(ctx, id)
}

// Get retrieves a tool link the session may access
func (s *toolLinkService) Get(ctx context.Context, session *models.Session, id string) (*models.ToolLink, error) {
	link, err := s.repo.GetByID(ctx, id)
	return authorize(session, link, err)
}

// Create stores a new tool link owned by the session user under a fresh id
func (s *toolLinkService) Create(ctx context.Context, session *models.Session, draft *models.ToolLinkDraft) (*models.ToolLink, error) {
	if session == nil {
		return nil, common.ErrInvalidToken
	}
	if draft == nil {
		return nil, fmt.Errorf("name and url are required: %w", common.ErrInvalidInput)
	}

	name := strings.TrimSpace(draft.Name)
	url := NormalizeToolURL(draft.URL)
	if name == "" || url == "" {
		return nil, fmt.Errorf("name and url are required: %w", common.ErrInvalidInput)
	}

	link := &models.ToolLink{
		ID:          uuid.NewString(),
		Name:        name,
		URL:         url,
		Description: orDefault(draft.Description, DefaultToolDescription),
		Category:    orDefault(draft.Category, DefaultToolCategory),
		IconText:    NormalizeToolIcon(draft.IconText, name),
		OwnerUserID: session.UserID,
		CreatedAt:   s.now(),
	}

	if err := s.repo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create tool link: %w", err)
	}

	return link, nil
}

// Update applies patch to a tool link the session may access.
// Blank patch values leave the field unchanged.
func (s *toolLinkService) Update(ctx context.Context, session *models.Session, id string, patch *models.ToolLinkPatch) (*models.ToolLink, error) {
	link, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}

	if patch != nil {
		if v := trimmed(patch.Name); v != "" {
			link.Name = v
		}
		if v := NormalizeToolURL(deref(patch.URL)); v != "" {
			link.URL = v
		}
		if v := trimmed(patch.Description); v != "" {
			link.Description = v
		}
		if v := trimmed(patch.Category); v != "" {
			link.Category = v
		}
		if v := trimmed(patch.IconText); v != "" {
			link.IconText = NormalizeToolIcon(v, link.Name)
		}
	}

	if err := s.repo.Update(ctx, link); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("failed to update tool link: %w", err)
	}
	return link, nil
}

// Delete removes a tool link the session may access.
// Missing and inaccessible links both report false without an error.
func (s *toolLinkService) Delete(ctx context.Context, session *models.Session, id string) (bool, error) {
	if _, err := s.Get(ctx, session, id); err != nil {
		if errors.Is(err, common.ErrNotFoundOrForbidden) {
			return false, nil
		}
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete tool link: %w", err)
	}
	return deleted, nil
}
