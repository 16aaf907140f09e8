// handlers/auth.go
package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"lifequest/apperrors"
	"lifequest/models"
	"lifequest/services"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"` // username or email
	Password   string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserInfo struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Level      int       `json:"level"`
	Experience int       `json:"experience"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func userInfo(user *models.User) UserInfo {
	return UserInfo{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Level:      user.Level,
		Experience: user.Experience,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
	}
}

// AuthHandler exposes the account lifecycle over HTTP.
type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register creates a new account and triggers the verification mail.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Username, email and password required"})
	}

	user, err := h.auth.Register(c.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return authError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Registration successful, check your email for a verification link",
		"user":    userInfo(user),
	})
}

// VerifyEmail confirms the address from the mailed link. Calling it twice
// with the same token succeeds both times.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	tokenString := c.Query("token")
	if tokenString == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Missing token"})
	}

	if err := h.auth.VerifyEmail(c.Context(), tokenString); err != nil {
		return authError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Email verified"})
}

// Login authenticates by username or email and issues the token pair.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	if req.Identifier == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Identifier and password required"})
	}

	pair, user, err := h.auth.Login(c.Context(), req.Identifier, req.Password)
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"user":          userInfo(user),
	})
}

// Refresh issues a new access token from a valid refresh token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	access, err := h.auth.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"access_token": access,
		"token_type":   "bearer",
	})
}

// authError maps the typed auth failures onto HTTP statuses. Credential
// failures stay generic on purpose; duplicate errors name the colliding
// field to guide the user.
func authError(c *fiber.Ctx, err error) error {
	status := 500
	message := "Internal server error"

	switch {
	case errors.Is(err, apperrors.ErrDuplicateEmail),
		errors.Is(err, apperrors.ErrDuplicateUsername),
		errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrInvalidClaims),
		errors.Is(err, apperrors.ErrInvalidInput):
		status = 400
		message = rootMessage(err)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		status = 401
		message = apperrors.ErrInvalidCredentials.Error()
	case errors.Is(err, apperrors.ErrAccountNotActive):
		status = 403
		message = "Please verify your email before logging in"
	}

	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}

// rootMessage unwraps to the sentinel so internal context added with %w is
// not leaked to clients.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		apperrors.ErrDuplicateEmail,
		apperrors.ErrDuplicateUsername,
		apperrors.ErrInvalidToken,
		apperrors.ErrInvalidClaims,
		apperrors.ErrInvalidInput,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
