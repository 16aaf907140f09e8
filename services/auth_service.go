// services/auth_service.go - Registration, verification, login, refresh
package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"lifequest/apperrors"
	"lifequest/models"
	"lifequest/security"
	"lifequest/token"
)

// TokenPair is the bearer credential pair issued on login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AuthService orchestrates the account lifecycle: registration with email
// verification, login and access-token refresh. It holds no mutable state;
// all persistence goes through the UserStore.
type AuthService struct {
	users   UserStore
	tokens  *token.Manager
	mailer  Mailer
	baseURL string
}

func NewAuthService(users UserStore, tokens *token.Manager, mailer Mailer, baseURL string) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		mailer:  mailer,
		baseURL: baseURL,
	}
}

// Register creates an unverified account and mails a verification link.
//
// Email is checked before username, so a request colliding on both reports
// the email collision. The advisory lookups only order the error messages;
// the unique indexes are what actually prevent duplicates, and a
// constraint violation on insert surfaces as the same typed errors.
//
// Mail delivery runs in the background: registration succeeds even if the
// relay later refuses the message.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, apperrors.ErrInvalidInput
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrDuplicateEmail
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, apperrors.ErrDuplicateUsername
	}

	hashed, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:   username,
		Email:      email,
		Password:   hashed,
		Level:      1,
		Experience: 0,
		IsVerified: false,
		AIEnabled:  true,
		CreatedAt:  time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	verifyToken, err := s.tokens.Issue(token.KindEmail, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue verification token: %w", err)
	}

	link := fmt.Sprintf("%s/api/auth/verify-email?token=%s", s.baseURL, url.QueryEscape(verifyToken))
	go func() {
		if err := s.mailer.SendVerificationEmail(user.Email, link); err != nil {
			log.Printf("verification mail to %s failed: %v", user.Email, err)
		}
	}()

	return user, nil
}

// VerifyEmail confirms the address embedded in an email-verification token.
// Verifying an already-verified account succeeds again with no state
// change; the operation is idempotent.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenString string) error {
	email, err := s.tokens.Verify(token.KindEmail, tokenString)
	if err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return apperrors.ErrInvalidToken
	}

	if user.IsVerified {
		return nil
	}

	user.IsVerified = true
	return s.users.Save(ctx, user)
}

// Login authenticates by username or email. Unknown identifier and wrong
// password produce the same error so callers cannot probe which accounts
// exist. Tokens are signed with the immutable numeric user ID as subject.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*TokenPair, *models.User, error) {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	if !security.CheckPassword(password, user.Password) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, nil, apperrors.ErrAccountNotActive
	}

	subject := strconv.FormatUint(uint64(user.ID), 10)

	access, err := s.tokens.Issue(token.KindAccess, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.Issue(token.KindRefresh, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, user, nil
}

// Refresh trades a valid refresh token for a fresh access token bound to
// the same subject. The refresh token is not rotated or invalidated; its
// bounded lifetime stands in for revocation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	subject, err := s.tokens.Verify(token.KindRefresh, refreshToken)
	if err != nil {
		return "", err
	}

	return s.tokens.Issue(token.KindAccess, subject)
}
