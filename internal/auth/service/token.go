// Package service issues and verifies credentials: password hashes and
// signed session tokens.
package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
)

const tokenScope = "journal"

// DefaultTokenExpiry is used when no expiry is configured
const DefaultTokenExpiry = 8 * time.Hour

// sessionClaims is the JWT payload of a session token
type sessionClaims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies session tokens with HS256
type TokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenService creates a new token service.
// An empty secret is rejected; a non-positive expiry falls back to DefaultTokenExpiry.
func NewTokenService(secret string, expiry time.Duration, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("token signing secret is required")
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the service that reads time from now
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *ts
	cp.now = now
	return &cp
}

// Issue signs a session token for user and returns it with its expiry time
func (ts *TokenService) Issue(user *models.User) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, fmt.Errorf("user is required")
	}

	issuedAt := ts.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ts.expiry)

	claims := sessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		Scope:    tokenScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        strconv.Itoa(user.ID) + "-" + strconv.FormatInt(issuedAt.UnixNano(), 36),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify validates a token and returns the session it carries.
// Every failure yields common.ErrInvalidToken.
func (ts *TokenService) Verify(tokenString string) (*models.Session, error) {
	if tokenString == "" {
		return nil, common.ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.issuer))
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ts.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	role := models.Role(claims.Role)
	if claims.Scope != tokenScope || !role.Valid() || claims.UserID <= 0 || claims.Username == "" {
		return nil, common.ErrInvalidToken
	}

	session := &models.Session{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}

	return session, nil
}
