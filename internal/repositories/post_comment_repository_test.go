package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var postCommentRowColumns = []string{"id", "post_slug", "content", "owner_user_id", "username", "created_at"}

func setupPostCommentTestRepository(t *testing.T) (*postCommentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	return NewPostCommentRepository(db, logger), mock, func() { db.Close() }
}

func TestPostCommentRepository_ListByPost(t *testing.T) {
	repo, mock, cleanup := setupPostCommentTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM post_comments WHERE post_slug = \? ORDER BY created_at ASC, id ASC`).
		WithArgs("hello").
		WillReturnRows(sqlmock.NewRows(postCommentRowColumns).
			AddRow("c1", "hello", "first", 2, "alice", int64(1000)).
			AddRow("c2", "hello", "second", 3, "bob", int64(2000)))

	comments, err := repo.ListByPost(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, 3, comments[1].OwnerUserID)
	assert.Equal(t, int64(2000), comments[1].CreatedAt.UnixMilli())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostCommentRepository_GetByID(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name: "found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM post_comments WHERE id = \?`).
					WithArgs("c1").
					WillReturnRows(sqlmock.NewRows(postCommentRowColumns).AddRow("c1", "hello", "first", 2, "alice", int64(1000)))
			},
		},
		{
			name: "missing",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM post_comments WHERE id = \?`).
					WithArgs("c1").
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: common.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM post_comments WHERE id = \?`).
					WithArgs("c1").
					WillReturnError(errors.New("connection reset"))
			},
			expectedError: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupPostCommentTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			comment, err := repo.GetByID(context.Background(), "c1")
			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Nil(t, comment)
				if errors.Is(tt.expectedError, common.ErrNotFound) {
					assert.ErrorIs(t, err, common.ErrNotFound)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, "alice", comment.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostCommentRepository_CreateDelete(t *testing.T) {
	repo, mock, cleanup := setupPostCommentTestRepository(t)
	defer cleanup()

	comment := &models.PostComment{ID: "c1", PostSlug: "hello", Content: "first", OwnerUserID: 2, Username: "alice"}

	mock.ExpectExec(`INSERT INTO post_comments`).
		WithArgs("c1", "hello", "first", 2, "alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO post_comments`).
		WithArgs("c1", "hello", "first", 2, "alice", sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'c1' for key 'PRIMARY'"})
	mock.ExpectExec(`DELETE FROM post_comments WHERE id = \?`).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), comment))
	assert.False(t, comment.CreatedAt.IsZero())

	err := repo.Create(context.Background(), comment)
	assert.ErrorIs(t, err, common.ErrDuplicateKey)

	deleted, err := repo.Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
