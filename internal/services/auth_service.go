package services

import (
	"context"
	"strings"

	"github.com/isdelr/smarttodo-be/internal/apperr"
	"github.com/isdelr/smarttodo-be/internal/auth"
	"github.com/isdelr/smarttodo-be/internal/mail"
	"github.com/isdelr/smarttodo-be/internal/models"
	"github.com/rs/zerolog/log"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// AuthServiceProvider defines the interface for the authentication flows.
type AuthServiceProvider interface {
	Register(ctx context.Context, username, email, password string) (models.AuthResult, error)
	Login(ctx context.Context, email, password string) (models.AuthResult, error)
	VerifyToken(header string) (*auth.Claims, error)
	CurrentUser(ctx context.Context, userID string) (models.UserSummary, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

// AuthService ties the credential store, token issuance and the mailer together.
type AuthService struct {
	users        UserServiceProvider
	events       EventServiceProvider
	tokens       *auth.TokenManager
	mailer       mail.Sender
	resetURLBase string
}

// NewAuthService creates a new AuthService. Reset links are built as
// resetURLBase + "/" + token.
func NewAuthService(users UserServiceProvider, events EventServiceProvider, tokens *auth.TokenManager, mailer mail.Sender, resetURLBase string) *AuthService {
	return &AuthService{
		users:        users,
		events:       events,
		tokens:       tokens,
		mailer:       mailer,
		resetURLBase: strings.TrimRight(resetURLBase, "/"),
	}
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (models.AuthResult, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return models.AuthResult{}, apperr.Validation("Username, email and password are required")
	}
	if len(password) > maxPasswordBytes {
		return models.AuthResult{}, apperr.Validation("Password must be at most 72 bytes")
	}

	user, err := s.users.CreateUser(ctx, username, email, password)
	if err != nil {
		return models.AuthResult{}, err
	}

	if s.events != nil {
		if err := s.events.CreateEvent(ctx, user.ID, EventAuthRegister, "Account created.", nil); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record registration event")
		}
	}

	return s.issue(user)
}

// Login checks credentials and returns a fresh login token.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.AuthResult{}, apperr.Validation("Email and password are required")
	}

	user, err := s.users.AuthenticateUser(ctx, email, password)
	if err != nil {
		return models.AuthResult{}, err
	}
	return s.issue(user)
}

// VerifyToken validates an Authorization header value.
func (s *AuthService) VerifyToken(header string) (*auth.Claims, error) {
	return s.tokens.VerifyHeader(header)
}

// CurrentUser returns the summary of an authenticated user.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (models.UserSummary, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.UserSummary{}, err
	}
	return user.Summary(), nil
}

// RequestPasswordReset mails a short-lived reset link. It reports NotFound for
// unknown emails; callers facing the network are expected to hide that.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperr.Validation("Email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.IssueResetToken(user.Email)
	if err != nil {
		return apperr.Dependency("failed to issue reset token", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, s.resetURLBase+"/"+token); err != nil {
		return apperr.Dependency("failed to send reset email", err)
	}
	return nil
}

// ResetPassword replaces the password of the account named by a valid reset token.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	email, err := s.tokens.VerifyResetToken(resetToken)
	if err != nil {
		return apperr.Auth("Invalid or expired reset token")
	}
	if newPassword == "" {
		return apperr.Validation("New password is required")
	}
	if len(newPassword) > maxPasswordBytes {
		return apperr.Validation("Password must be at most 72 bytes")
	}

	if err := s.users.SetPassword(ctx, email, newPassword); err != nil {
		return err
	}

	if s.events != nil {
		if user, err := s.users.GetUserByEmail(ctx, email); err == nil {
			if err := s.events.CreateEvent(ctx, user.ID, EventAuthPasswordReset, "Password reset.", nil); err != nil {
				log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record password reset event")
			}
		}
	}
	return nil
}

func (s *AuthService) issue(user models.User) (models.AuthResult, error) {
	token, err := s.tokens.IssueLoginToken(user.ID)
	if err != nil {
		return models.AuthResult{}, apperr.Dependency("failed to issue token", err)
	}
	return models.AuthResult{Token: token, User: user.Summary()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
