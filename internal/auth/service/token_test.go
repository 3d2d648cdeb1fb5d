package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "b8a3c2267dc85f855dea9b46b452bf20"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, time.Hour, "journal-test")
	require.NoError(t, err)
	return ts
}

func TestNewTokenService(t *testing.T) {
	t.Run("empty secret is rejected", func(t *testing.T) {
		ts, err := NewTokenService("", time.Hour, "")
		assert.Error(t, err)
		assert.Nil(t, ts)
	})

	t.Run("default expiry", func(t *testing.T) {
		ts, err := NewTokenService(testSecret, 0, "")
		require.NoError(t, err)
		assert.Equal(t, DefaultTokenExpiry, ts.expiry)
	})
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := newTestTokenService(t).WithClock(fixedClock(now))

	user := &models.User{ID: 42, Username: "alice", Role: models.RoleAdmin}
	token, expiresAt, err := ts.Issue(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	session, err := ts.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 42, session.UserID)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, models.RoleAdmin, session.Role)
	assert.True(t, session.ExpiresAt.Equal(expiresAt))
	assert.True(t, session.IssuedAt.Equal(now))
}

func TestTokenService_IssueNilUser(t *testing.T) {
	ts := newTestTokenService(t)
	_, _, err := ts.Issue(nil)
	assert.Error(t, err)
}

func TestTokenService_VerifyFailures(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := newTestTokenService(t).WithClock(fixedClock(now))
	user := &models.User{ID: 7, Username: "bob", Role: models.RoleUser}

	valid, _, err := ts.Issue(user)
	require.NoError(t, err)

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}

	baseClaims := func() sessionClaims {
		return sessionClaims{
			UserID:   7,
			Username: "bob",
			Role:     "user",
			Scope:    tokenScope,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "bob",
				Issuer:    "journal-test",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
	}

	tests := []struct {
		name  string
		token func() string
		ts    *TokenService
	}{
		{
			name:  "empty token",
			token: func() string { return "" },
			ts:    ts,
		},
		{
			name:  "garbage",
			token: func() string { return "not.a.token" },
			ts:    ts,
		},
		{
			name: "tampered payload",
			token: func() string {
				parts := strings.Split(valid, ".")
				parts[1] = parts[1][:len(parts[1])-2] + "xx"
				return strings.Join(parts, ".")
			},
			ts: ts,
		},
		{
			name:  "wrong key",
			token: func() string { return valid },
			ts: func() *TokenService {
				other, err := NewTokenService("another-secret", time.Hour, "journal-test")
				require.NoError(t, err)
				return other.WithClock(fixedClock(now))
			}(),
		},
		{
			name:  "expired",
			token: func() string { return valid },
			ts:    ts.WithClock(fixedClock(now.Add(2 * time.Hour))),
		},
		{
			name: "missing expiry",
			token: func() string {
				c := baseClaims()
				c.ExpiresAt = nil
				return sign(c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			ts: ts,
		},
		{
			name: "wrong issuer",
			token: func() string {
				c := baseClaims()
				c.Issuer = "someone-else"
				return sign(c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			ts: ts,
		},
		{
			name: "wrong scope",
			token: func() string {
				c := baseClaims()
				c.Scope = "refresh"
				return sign(c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			ts: ts,
		},
		{
			name: "unknown role",
			token: func() string {
				c := baseClaims()
				c.Role = "root"
				return sign(c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			ts: ts,
		},
		{
			name: "missing user id",
			token: func() string {
				c := baseClaims()
				c.UserID = 0
				return sign(c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			ts: ts,
		},
		{
			name: "other hmac algorithm",
			token: func() string {
				return sign(baseClaims(), jwt.SigningMethodHS512, []byte(testSecret))
			},
			ts: ts,
		},
		{
			name: "alg none",
			token: func() string {
				return sign(baseClaims(), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)
			},
			ts: ts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := tt.ts.Verify(tt.token())
			assert.Nil(t, session)
			assert.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}
}
