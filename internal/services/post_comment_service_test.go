package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockPostCommentRepository is an in-memory implementation of PostCommentRepository
type mockPostCommentRepository struct {
	comments map[string]models.PostComment
	err      error
}

func newMockPostCommentRepository() *mockPostCommentRepository {
	return &mockPostCommentRepository{comments: map[string]models.PostComment{}}
}

func (m *mockPostCommentRepository) ListByPost(ctx context.Context, slug string) ([]models.PostComment, error) {
	if m.err != nil {
		return nil, m.err
	}
	comments := make([]models.PostComment, 0)
	for _, c := range m.comments {
		if c.PostSlug == slug {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	return comments, nil
}

func (m *mockPostCommentRepository) GetByID(ctx context.Context, id string) (*models.PostComment, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.comments[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (m *mockPostCommentRepository) Create(ctx context.Context, comment *models.PostComment) error {
	if m.err != nil {
		return m.err
	}
	m.comments[comment.ID] = *comment
	return nil
}

func (m *mockPostCommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.comments[id]
	delete(m.comments, id)
	return ok, nil
}

func newTestPostCommentService(repo PostCommentRepository, posts PostLookup) *postCommentService {
	svc := NewPostCommentService(repo, posts, zap.NewNop())
	tick := fixedNow
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return svc
}

// seedCommentPost stores a post owned by alice and returns its slug
func seedCommentPost(posts *mockPostRepository) string {
	posts.posts["hello"] = models.Post{Slug: "hello", Title: "Hello", OwnerUserID: aliceSession.UserID}
	return "hello"
}

func TestPostCommentService_Create(t *testing.T) {
	tests := []struct {
		name          string
		session       *models.Session
		slug          string
		draft         *models.PostCommentDraft
		expectedError error
	}{
		{name: "owner comments", session: aliceSession, slug: "hello", draft: &models.PostCommentDraft{Content: "  nice  "}},
		{name: "admin comments", session: adminSession, slug: "hello", draft: &models.PostCommentDraft{Content: "approved"}},
		{name: "no session", session: nil, slug: "hello", draft: &models.PostCommentDraft{Content: "x"}, expectedError: common.ErrInvalidToken},
		{name: "blank content", session: aliceSession, slug: "hello", draft: &models.PostCommentDraft{Content: "   "}, expectedError: common.ErrInvalidInput},
		{name: "nil draft", session: aliceSession, slug: "hello", draft: nil, expectedError: common.ErrInvalidInput},
		{name: "too long", session: aliceSession, slug: "hello", draft: &models.PostCommentDraft{Content: strings.Repeat("字", maxCommentLength+1)}, expectedError: common.ErrInvalidInput},
		{name: "foreign post", session: bobSession, slug: "hello", draft: &models.PostCommentDraft{Content: "hi"}, expectedError: common.ErrNotFoundOrForbidden},
		{name: "missing post", session: aliceSession, slug: "nope", draft: &models.PostCommentDraft{Content: "hi"}, expectedError: common.ErrNotFoundOrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := newMockPostRepository()
			seedCommentPost(posts)
			repo := newMockPostCommentRepository()
			svc := newTestPostCommentService(repo, posts)

			comment, err := svc.Create(context.Background(), tt.session, tt.slug, tt.draft)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, repo.comments)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, comment.ID)
			assert.Equal(t, "hello", comment.PostSlug)
			assert.Equal(t, strings.TrimSpace(tt.draft.Content), comment.Content)
			assert.Equal(t, tt.session.UserID, comment.OwnerUserID)
			assert.Equal(t, tt.session.Username, comment.Username)
		})
	}
}

func TestPostCommentService_List(t *testing.T) {
	ctx := context.Background()
	posts := newMockPostRepository()
	slug := seedCommentPost(posts)
	svc := newTestPostCommentService(newMockPostCommentRepository(), posts)

	_, err := svc.Create(ctx, aliceSession, slug, &models.PostCommentDraft{Content: "first"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, adminSession, slug, &models.PostCommentDraft{Content: "second"})
	require.NoError(t, err)

	comments, err := svc.List(ctx, aliceSession, slug)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)

	_, err = svc.List(ctx, bobSession, slug)
	assert.ErrorIs(t, err, common.ErrNotFoundOrForbidden)

	_, err = svc.List(ctx, nil, slug)
	assert.ErrorIs(t, err, common.ErrNotFoundOrForbidden)
}

func TestPostCommentService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		session  *models.Session
		slug     string
		author   *models.Session
		expected bool
	}{
		{name: "author deletes own comment", session: aliceSession, slug: "hello", author: aliceSession, expected: true},
		{name: "admin deletes any comment", session: adminSession, slug: "hello", author: aliceSession, expected: true},
		{name: "post owner cannot delete admin comment", session: aliceSession, slug: "hello", author: adminSession, expected: false},
		{name: "stranger cannot delete", session: bobSession, slug: "hello", author: aliceSession, expected: false},
		{name: "no session", session: nil, slug: "hello", author: aliceSession, expected: false},
		{name: "slug mismatch", session: aliceSession, slug: "other", author: aliceSession, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := newMockPostRepository()
			seedCommentPost(posts)
			repo := newMockPostCommentRepository()
			svc := newTestPostCommentService(repo, posts)

			comment, err := svc.Create(ctx, tt.author, "hello", &models.PostCommentDraft{Content: "text"})
			require.NoError(t, err)

			deleted, err := svc.Delete(ctx, tt.session, tt.slug, comment.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, deleted)
			_, stillThere := repo.comments[comment.ID]
			assert.Equal(t, !tt.expected, stillThere)
		})
	}

	t.Run("missing comment", func(t *testing.T) {
		svc := newTestPostCommentService(newMockPostCommentRepository(), newMockPostRepository())
		deleted, err := svc.Delete(ctx, adminSession, "hello", "nope")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := newMockPostCommentRepository()
		repo.err = errors.New("db down")
		svc := newTestPostCommentService(repo, newMockPostRepository())
		_, err := svc.Delete(ctx, adminSession, "hello", "c1")
		assert.Error(t, err)
	})
}
