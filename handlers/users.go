// handlers/users.go
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lifequest/apperrors"
	"lifequest/middleware"
	"lifequest/services"
)

type UpdateProfileRequest struct {
	Goals       *[]string          `json:"goals"`
	Habits      *[]string          `json:"habits"`
	Preferences *map[string]string `json:"preferences"`
}

type AISettingsRequest struct {
	Enabled bool   `json:"enabled"`
	Model   string `json:"model"`
}

// UserHandler serves the authenticated user's profile, AI settings and
// progression.
type UserHandler struct {
	users services.UserStore
}

func NewUserHandler(users services.UserStore) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	user, err := h.users.FindByID(c.Context(), userID)
	if err != nil {
		return userLookupError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"user":        userInfo(user),
		"goals":       user.GoalList(),
		"habits":      user.HabitList(),
		"preferences": user.PreferenceMap(),
	})
}

// UpdateCurrentUser updates goals, habits and preferences. Absent fields
// are left untouched.
func (h *UserHandler) UpdateCurrentUser(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	user, err := h.users.FindByID(c.Context(), userID)
	if err != nil {
		return userLookupError(c, err)
	}

	if req.Goals != nil {
		user.SetGoals(*req.Goals)
	}
	if req.Habits != nil {
		user.SetHabits(*req.Habits)
	}
	if req.Preferences != nil {
		user.SetPreferences(*req.Preferences)
	}

	if err := h.users.Save(c.Context(), user); err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"goals":       user.GoalList(),
		"habits":      user.HabitList(),
		"preferences": user.PreferenceMap(),
	})
}

func (h *UserHandler) GetAISettings(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	user, err := h.users.FindByID(c.Context(), userID)
	if err != nil {
		return userLookupError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"enabled": user.AIEnabled,
		"model":   user.AIModel,
	})
}

func (h *UserHandler) UpdateAISettings(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	var req AISettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	user, err := h.users.FindByID(c.Context(), userID)
	if err != nil {
		return userLookupError(c, err)
	}

	user.AIEnabled = req.Enabled
	user.AIModel = req.Model

	if err := h.users.Save(c.Context(), user); err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to update AI settings"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"enabled": user.AIEnabled,
		"model":   user.AIModel,
	})
}

func (h *UserHandler) GetProgression(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	user, err := h.users.FindByID(c.Context(), userID)
	if err != nil {
		return userLookupError(c, err)
	}

	threshold := user.NextLevelThreshold()
	progress := float64(user.Experience) / float64(threshold) * 100

	return c.JSON(fiber.Map{
		"success":          true,
		"level":            user.Level,
		"experience":       user.Experience,
		"xp_to_next_level": threshold,
		"progress_percent": progress,
	})
}

func userLookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "User not found"})
	}
	return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load user"})
}
