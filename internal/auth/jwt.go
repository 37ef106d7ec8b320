package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind tags the claim shape so a reset token can never pass as a
// login token and vice versa, even though both share one secret.
type TokenKind string

const (
	KindLogin TokenKind = "login"
	KindReset TokenKind = "reset"
)

const (
	LoginTokenTTL = 7 * 24 * time.Hour
	ResetTokenTTL = 15 * time.Minute
)

// ErrInvalidToken is returned for any signature, expiry or shape failure.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims defines the JWT claims structure.
type Claims struct {
	Kind   TokenKind `json:"kind"`
	UserID string    `json:"userId,omitempty"`
	Email  string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens with a single secret.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager creates a TokenManager for the given signing secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// IssueLoginToken creates a 7-day token identifying a user.
func (m *TokenManager) IssueLoginToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	return m.sign(Claims{Kind: KindLogin, UserID: userID}, LoginTokenTTL)
}

// IssueResetToken creates a 15-minute token scoped to an email address.
func (m *TokenManager) IssueResetToken(email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	return m.sign(Claims{Kind: KindReset, Email: email}, ResetTokenTTL)
}

func (m *TokenManager) sign(claims Claims, ttl time.Duration) (string, error) {
	issuedAt := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// VerifyLoginToken validates a login token and returns its claims.
func (m *TokenManager) VerifyLoginToken(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Kind != KindLogin || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyResetToken validates a reset token and returns the email it is scoped to.
func (m *TokenManager) VerifyResetToken(tokenStr string) (string, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Kind != KindReset || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

func (m *TokenManager) parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
