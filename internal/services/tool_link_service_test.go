package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockToolLinkRepository is an in-memory implementation of ToolLinkRepository
type mockToolLinkRepository struct {
	links map[string]models.ToolLink
	err   error
}

func newMockToolLinkRepository() *mockToolLinkRepository {
	return &mockToolLinkRepository{links: map[string]models.ToolLink{}}
}

func (m *mockToolLinkRepository) List(ctx context.Context, ownerUserID int, all bool) ([]models.ToolLink, error) {
	if m.err != nil {
		return nil, m.err
	}
	links := make([]models.ToolLink, 0)
	for _, l := range m.links {
		if all || l.OwnerUserID == ownerUserID {
			links = append(links, l)
		}
	}
	return links, nil
}

func (m *mockToolLinkRepository) GetByID(ctx context.Context, id string) (*models.ToolLink, error) {
	if m.err != nil {
		return nil, m.err
	}
	l, ok := m.links[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &l, nil
}

func (m *mockToolLinkRepository) Create(ctx context.Context, link *models.ToolLink) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.links[link.ID]; ok {
		return fmt.Errorf("insert tool link: %w", common.ErrDuplicateKey)
	}
	m.links[link.ID] = *link
	return nil
}

func (m *mockToolLinkRepository) Update(ctx context.Context, link *models.ToolLink) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.links[link.ID]; !ok {
		return common.ErrNotFound
	}
	m.links[link.ID] = *link
	return nil
}

func (m *mockToolLinkRepository) Delete(ctx context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.links[id]
	delete(m.links, id)
	return ok, nil
}

func newTestToolLinkService(repo ToolLinkRepository) *toolLinkService {
	svc := NewToolLinkService(repo, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestNormalizeToolURL(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{raw: "example.com", expected: "https://example.com"},
		{raw: "  example.com/path ", expected: "https://example.com/path"},
		{raw: "http://example.com", expected: "http://example.com"},
		{raw: "HTTPS://Example.com", expected: "HTTPS://Example.com"},
		{raw: "   ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeToolURL(tt.raw))
		})
	}
}

func TestNormalizeToolIcon(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		toolName string
		expected string
	}{
		{name: "short text kept", raw: "GH", toolName: "GitHub", expected: "GH"},
		{name: "long text truncated", raw: "Figma", toolName: "Figma", expected: "Fi"},
		{name: "multibyte truncated by character", raw: "翻译工具", toolName: "x", expected: "翻译"},
		{name: "icon url kept", raw: "https://example.com/icon.png", toolName: "x", expected: "https://example.com/icon.png"},
		{name: "derived from name", raw: "", toolName: "notion", expected: "N"},
		{name: "fallback glyph", raw: " ", toolName: "  ", expected: DefaultToolIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeToolIcon(tt.raw, tt.toolName))
		})
	}
}

func TestToolLinkService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults and normalization", func(t *testing.T) {
		svc := newTestToolLinkService(newMockToolLinkRepository())

		link, err := svc.Create(ctx, aliceSession, &models.ToolLinkDraft{Name: " regex101 ", URL: "regex101.com"})
		require.NoError(t, err)
		assert.Equal(t, "regex101", link.Name)
		assert.Equal(t, "https://regex101.com", link.URL)
		assert.Equal(t, DefaultToolDescription, link.Description)
		assert.Equal(t, DefaultToolCategory, link.Category)
		assert.Equal(t, "R", link.IconText)
		assert.Equal(t, aliceSession.UserID, link.OwnerUserID)
	})

	t.Run("name and url are required", func(t *testing.T) {
		svc := newTestToolLinkService(newMockToolLinkRepository())
		for _, draft := range []*models.ToolLinkDraft{nil, {URL: "x.com"}, {Name: "x", URL: "  "}} {
			_, err := svc.Create(ctx, aliceSession, draft)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		}
	})

	t.Run("no session", func(t *testing.T) {
		_, err := newTestToolLinkService(newMockToolLinkRepository()).Create(ctx, nil, &models.ToolLinkDraft{Name: "x", URL: "x.com"})
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})
}

func TestToolLinkService_CreateAssignsFreshID(t *testing.T) {
	repo := newMockToolLinkRepository()
	svc := newTestToolLinkService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, aliceSession, &models.ToolLinkDraft{Name: "Figma", URL: "figma.com"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, bobSession, &models.ToolLinkDraft{Name: "Figma", URL: "figma.com"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, repo.links, 2)
	assert.Equal(t, aliceSession.UserID, repo.links[first.ID].OwnerUserID)
}

func TestToolLinkService_Update(t *testing.T) {
	ctx := context.Background()
	repo := newMockToolLinkRepository()
	svc := newTestToolLinkService(repo)

	link, err := svc.Create(ctx, aliceSession, &models.ToolLinkDraft{Name: "Figma", URL: "figma.com", IconText: "Fg"})
	require.NoError(t, err)

	t.Run("blank values leave fields unchanged", func(t *testing.T) {
		blank := "  "
		updated, err := svc.Update(ctx, aliceSession, link.ID, &models.ToolLinkPatch{Name: &blank, URL: &blank, IconText: &blank})
		require.NoError(t, err)
		assert.Equal(t, "Figma", updated.Name)
		assert.Equal(t, "https://figma.com", updated.URL)
		assert.Equal(t, "Fg", updated.IconText)
	})

	t.Run("values are normalized", func(t *testing.T) {
		url := "www.figma.com"
		icon := "Design"
		updated, err := svc.Update(ctx, aliceSession, link.ID, &models.ToolLinkPatch{URL: &url, IconText: &icon})
		require.NoError(t, err)
		assert.Equal(t, "https://www.figma.com", updated.URL)
		assert.Equal(t, "De", updated.IconText)
		assert.Equal(t, "https://www.figma.com", repo.links[link.ID].URL)
	})

	t.Run("foreign link", func(t *testing.T) {
		name := "mine now"
		_, err := svc.Update(ctx, bobSession, link.ID, &models.ToolLinkPatch{Name: &name})
		assert.ErrorIs(t, err, common.ErrNotFoundOrForbidden)
	})
}

func TestToolLinkService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestToolLinkService(newMockToolLinkRepository())

	link, err := svc.Create(ctx, aliceSession, &models.ToolLinkDraft{Name: "a", URL: "a.com"})
	require.NoError(t, err)

	links, err := svc.List(ctx, bobSession)
	require.NoError(t, err)
	assert.Empty(t, links)

	links, err = svc.List(ctx, adminSession)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	deleted, err := svc.Delete(ctx, bobSession, link.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = svc.Delete(ctx, aliceSession, link.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}
