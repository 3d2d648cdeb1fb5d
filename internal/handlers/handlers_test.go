package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	authMiddleware "github.com/northline/journal/internal/auth/middleware"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	userSession  = &models.Session{UserID: 2, Username: "alice", Role: models.RoleUser}
	adminSession = &models.Session{UserID: 1, Username: "admin", Role: models.RoleAdmin}
)

// stubVerifier accepts the tokens "user-token" and "admin-token"
type stubVerifier struct{}

func (stubVerifier) Verify(token string) (*models.Session, error) {
	switch token {
	case "user-token":
		return userSession, nil
	case "admin-token":
		return adminSession, nil
	}
	return nil, common.ErrInvalidToken
}

// mockIdentityService is a mock implementation of IdentityService
type mockIdentityService struct {
	loginErr    error
	registerErr error
	changeErr   error
	users       []models.User
	lastRole    models.Role
}

func (m *mockIdentityService) Login(ctx context.Context, username, plaintext string) (*models.LoginResponse, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &models.LoginResponse{
		Token:     "signed",
		ExpiresAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		User:      models.UserResponse{ID: 2, Username: username, Role: models.RoleUser},
	}, nil
}

func (m *mockIdentityService) Register(ctx context.Context, username, plaintext string) (*models.User, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &models.User{ID: 3, Username: username, PasswordHash: "secret-hash", Role: models.RoleUser}, nil
}

func (m *mockIdentityService) CreateAsAdmin(ctx context.Context, requesterRole models.Role, username, plaintext string, desiredRole models.Role) (*models.User, error) {
	m.lastRole = desiredRole
	return &models.User{ID: 4, Username: username, Role: desiredRole}, nil
}

func (m *mockIdentityService) ChangePassword(ctx context.Context, userID int, current, next string) error {
	return m.changeErr
}

func (m *mockIdentityService) ListUsers(ctx context.Context, requesterRole models.Role) ([]models.User, error) {
	return m.users, nil
}

func (m *mockIdentityService) GetByID(ctx context.Context, userID int) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == userID {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

// recordingObserver counts login outcomes
type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) ObserveLogin(outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

func newAuthRouter(svc IdentityService, observer LoginObserver) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewAuthHandler(svc, zap.NewNop(), authMiddleware.AuthMiddleware(stubVerifier{}), nil, observer).RegisterRoutes(r)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		err            error
		expectedStatus int
	}{
		{err: fmt.Errorf("title is required: %w", common.ErrInvalidInput), expectedStatus: http.StatusBadRequest},
		{err: common.ErrInvalidCredentials, expectedStatus: http.StatusUnauthorized},
		{err: common.ErrInvalidCurrentPassword, expectedStatus: http.StatusUnauthorized},
		{err: common.ErrInvalidToken, expectedStatus: http.StatusUnauthorized},
		{err: common.ErrForbidden, expectedStatus: http.StatusForbidden},
		{err: common.ErrNotFoundOrForbidden, expectedStatus: http.StatusNotFound},
		{err: common.ErrNotFound, expectedStatus: http.StatusNotFound},
		{err: common.ErrUsernameExists, expectedStatus: http.StatusConflict},
		{err: errors.New("connection refused"), expectedStatus: http.StatusInternalServerError},
	}

	h := &BaseHandler{Logger: zap.NewNop()}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			h.RespondServiceError(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "missing")

			assert.Equal(t, tt.expectedStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body["error"], "connection refused")
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		loginErr        error
		expectedStatus  int
		expectedOutcome string
	}{
		{name: "success", body: `{"username":"alice","password":"password123"}`, expectedStatus: http.StatusOK, expectedOutcome: "success"},
		{name: "invalid credentials", body: `{"username":"alice","password":"nope"}`, loginErr: common.ErrInvalidCredentials, expectedStatus: http.StatusUnauthorized, expectedOutcome: "invalid_credentials"},
		{name: "internal error", body: `{"username":"alice","password":"x"}`, loginErr: errors.New("db down"), expectedStatus: http.StatusInternalServerError, expectedOutcome: "error"},
		{name: "malformed body", body: `{"username":`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &recordingObserver{}
			router := newAuthRouter(&mockIdentityService{loginErr: tt.loginErr}, observer)

			w := doRequest(t, router, http.MethodPost, "/api/auth/login", "", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedOutcome != "" {
				assert.Equal(t, []string{tt.expectedOutcome}, observer.outcomes)
			}
			if tt.expectedStatus == http.StatusOK {
				var resp models.LoginResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "signed", resp.Token)
				assert.Equal(t, "alice", resp.User.Username)
			}
		})
	}
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("created without hash", func(t *testing.T) {
		w := doRequest(t, newAuthRouter(&mockIdentityService{}, nil), http.MethodPost, "/api/auth/register", "", `{"username":"bob","password":"password123"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "secret-hash")
		assert.Contains(t, w.Body.String(), `"role":"user"`)
	})

	t.Run("username taken", func(t *testing.T) {
		w := doRequest(t, newAuthRouter(&mockIdentityService{registerErr: common.ErrUsernameExists}, nil), http.MethodPost, "/api/auth/register", "", `{"username":"bob","password":"password123"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &mockIdentityService{users: []models.User{{ID: 2, Username: "alice", Role: models.RoleUser}}}
	router := newAuthRouter(svc, nil)

	w := doRequest(t, router, http.MethodGet, "/api/auth/me", "user-token", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":2,"username":"alice","role":"user"}`, w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/auth/me", "forged", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/auth/me", "admin-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	w := doRequest(t, newAuthRouter(&mockIdentityService{}, nil), http.MethodPost, "/api/auth/change-password", "user-token", `{"currentPassword":"a","newPassword":"password123"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = doRequest(t, newAuthRouter(&mockIdentityService{changeErr: common.ErrInvalidCurrentPassword}, nil), http.MethodPost, "/api/auth/change-password", "user-token", `{"currentPassword":"a","newPassword":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_AdminRoutes(t *testing.T) {
	svc := &mockIdentityService{users: []models.User{{ID: 1, Username: "admin", PasswordHash: "h", Role: models.RoleAdmin}}}
	router := newAuthRouter(svc, nil)

	w := doRequest(t, router, http.MethodGet, "/api/auth/users", "user-token", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/auth/users", "admin-token", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"username":"admin","role":"admin"}]`, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/api/auth/users", "admin-token", `{"username":"ed","password":"password123","role":"admin"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.RoleAdmin, svc.lastRole)
}

// mockPostService is a mock implementation of PostService
type mockPostService struct {
	posts        map[string]*models.Post
	lastSession  *models.Session
	createErr    error
	deleteResult bool
}

func (m *mockPostService) List(ctx context.Context, session *models.Session) ([]models.Post, error) {
	m.lastSession = session
	posts := []models.Post{}
	for _, p := range m.posts {
		posts = append(posts, *p)
	}
	return posts, nil
}

func (m *mockPostService) Get(ctx context.Context, session *models.Session, slug string) (*models.Post, error) {
	p, ok := m.posts[slug]
	if !ok || (p.OwnerUserID != session.UserID && !session.IsAdmin()) {
		return nil, common.ErrNotFoundOrForbidden
	}
	return p, nil
}

func (m *mockPostService) Create(ctx context.Context, session *models.Session, draft *models.PostDraft) (*models.Post, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Post{Slug: "new-post", Title: draft.Title, OwnerUserID: session.UserID}, nil
}

func (m *mockPostService) Update(ctx context.Context, session *models.Session, slug string, patch *models.PostPatch) (*models.Post, error) {
	p, err := m.Get(ctx, session, slug)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	return p, nil
}

func (m *mockPostService) Delete(ctx context.Context, session *models.Session, slug string) (bool, error) {
	return m.deleteResult, nil
}

func newPostRouter(svc PostService) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewPostHandler(svc, zap.NewNop(), authMiddleware.AuthMiddleware(stubVerifier{})).RegisterRoutes(r)
	})
	return r
}

func TestPostHandler(t *testing.T) {
	svc := &mockPostService{posts: map[string]*models.Post{
		"mine":   {Slug: "mine", Title: "Mine", OwnerUserID: 2},
		"theirs": {Slug: "theirs", Title: "Theirs", OwnerUserID: 9},
	}}
	router := newPostRouter(svc)

	t.Run("list requires token", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/posts", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("list passes session", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/posts", "user-token", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userSession, svc.lastSession)
	})

	t.Run("get own post", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/posts/mine", "user-token", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"slug":"mine"`)
	})

	t.Run("foreign post is not found", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/posts/theirs", "user-token", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"`+postNotFound+`"}`, w.Body.String())
	})

	t.Run("create", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/api/posts", "user-token", `{"title":"New","excerpt":"e","content":[]}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"ownerUserId":2`)
	})

	t.Run("create with trailing data", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/api/posts", "user-token", `{"title":"New"} {"title":"Again"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update foreign post", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPut, "/api/posts/theirs", "user-token", `{"title":"x"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete missing post", func(t *testing.T) {
		svc.deleteResult = false
		w := doRequest(t, router, http.MethodDelete, "/api/posts/gone", "user-token", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		svc.deleteResult = true
		w := doRequest(t, router, http.MethodDelete, "/api/posts/mine", "user-token", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestPostHandler_CreateValidation(t *testing.T) {
	router := newPostRouter(&mockPostService{createErr: fmt.Errorf("title, excerpt and content are required: %w", common.ErrInvalidInput)})

	w := doRequest(t, router, http.MethodPost, "/api/posts", "user-token", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "required")
}

// mockPostCommentService is a mock implementation of PostCommentService
type mockPostCommentService struct {
	comments     []models.PostComment
	listErr      error
	createErr    error
	deleteResult bool
	lastSlug     string
	lastID       string
}

func (m *mockPostCommentService) List(ctx context.Context, session *models.Session, slug string) ([]models.PostComment, error) {
	m.lastSlug = slug
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.comments, nil
}

func (m *mockPostCommentService) Create(ctx context.Context, session *models.Session, slug string, draft *models.PostCommentDraft) (*models.PostComment, error) {
	m.lastSlug = slug
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.PostComment{ID: "c1", PostSlug: slug, Content: draft.Content, OwnerUserID: session.UserID, Username: session.Username}, nil
}

func (m *mockPostCommentService) Delete(ctx context.Context, session *models.Session, slug, id string) (bool, error) {
	m.lastSlug, m.lastID = slug, id
	return m.deleteResult, nil
}

func TestPostCommentHandler(t *testing.T) {
	comments := &mockPostCommentService{comments: []models.PostComment{{ID: "c0", PostSlug: "mine", Content: "first", OwnerUserID: 2}}}
	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		NewPostHandler(&mockPostService{}, zap.NewNop(), authMiddleware.AuthMiddleware(stubVerifier{})).
			WithComments(NewPostCommentHandler(comments, zap.NewNop())).
			RegisterRoutes(r)
	})

	t.Run("list requires token", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/posts/mine/comments", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/posts/mine/comments", "user-token", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "mine", comments.lastSlug)
		assert.Contains(t, w.Body.String(), `"content":"first"`)
	})

	t.Run("list on foreign post", func(t *testing.T) {
		comments.listErr = common.ErrNotFoundOrForbidden
		defer func() { comments.listErr = nil }()

		w := doRequest(t, router, http.MethodGet, "/api/posts/theirs/comments", "user-token", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"`+postNotFound+`"}`, w.Body.String())
	})

	t.Run("create", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/api/posts/mine/comments", "user-token", `{"content":"nice"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"ownerUserId":2`)
		assert.Contains(t, w.Body.String(), `"postSlug":"mine"`)
	})

	t.Run("create with blank content", func(t *testing.T) {
		comments.createErr = fmt.Errorf("content is required: %w", common.ErrInvalidInput)
		defer func() { comments.createErr = nil }()

		w := doRequest(t, router, http.MethodPost, "/api/posts/mine/comments", "user-token", `{"content":" "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete denied", func(t *testing.T) {
		comments.deleteResult = false
		w := doRequest(t, router, http.MethodDelete, "/api/posts/mine/comments/c0", "user-token", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"`+commentNotFound+`"}`, w.Body.String())
	})

	t.Run("delete", func(t *testing.T) {
		comments.deleteResult = true
		w := doRequest(t, router, http.MethodDelete, "/api/posts/mine/comments/c0", "admin-token", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "mine", comments.lastSlug)
		assert.Equal(t, "c0", comments.lastID)
	})
}

// mockMemoService is a mock implementation of MemoService
type mockMemoService struct {
	statusErr  error
	lastStatus string
}

func (m *mockMemoService) List(ctx context.Context, session *models.Session) ([]models.MemoTask, error) {
	return []models.MemoTask{}, nil
}

func (m *mockMemoService) Get(ctx context.Context, session *models.Session, id string) (*models.MemoTask, error) {
	return nil, common.ErrNotFoundOrForbidden
}

func (m *mockMemoService) Create(ctx context.Context, session *models.Session, draft *models.MemoDraft) (*models.MemoTask, error) {
	return &models.MemoTask{ID: "m1", Title: draft.Title}, nil
}

func (m *mockMemoService) Update(ctx context.Context, session *models.Session, id string, patch *models.MemoPatch) (*models.MemoTask, error) {
	return nil, common.ErrNotFoundOrForbidden
}

func (m *mockMemoService) SetStatus(ctx context.Context, session *models.Session, id string, status string) (*models.MemoTask, error) {
	m.lastStatus = status
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return &models.MemoTask{ID: id, Status: status}, nil
}

func (m *mockMemoService) Delete(ctx context.Context, session *models.Session, id string) (bool, error) {
	return true, nil
}

func TestMemoHandler_SetStatus(t *testing.T) {
	svc := &mockMemoService{}
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewMemoHandler(svc, zap.NewNop(), authMiddleware.AuthMiddleware(stubVerifier{})).RegisterRoutes(r)
	})

	w := doRequest(t, r, http.MethodPatch, "/api/memo-tasks/m1/status", "user-token", `{"status":"done"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "done", svc.lastStatus)

	svc.statusErr = fmt.Errorf("bad status: %w", common.ErrInvalidInput)
	w = doRequest(t, r, http.MethodPatch, "/api/memo-tasks/m1/status", "user-token", `{"status":"doing"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/memo-tasks/m1", "user-token", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// failingPinger always reports the database as unreachable
type failingPinger struct{}

func (failingPinger) PingContext(ctx context.Context) error { return errors.New("down") }

// okPinger always reports the database as reachable
type okPinger struct{}

func (okPinger) PingContext(ctx context.Context) error { return nil }

func TestHealthHandler(t *testing.T) {
	r := chi.NewRouter()
	NewHealthHandler(okPinger{}, "sqlite", zap.NewNop()).RegisterRoutes(r)
	w := doRequest(t, r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"service":"northline-journal","db":"sqlite"}`, w.Body.String())

	r = chi.NewRouter()
	NewHealthHandler(failingPinger{}, "sqlite", zap.NewNop()).RegisterRoutes(r)
	w = doRequest(t, r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
