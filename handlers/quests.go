// handlers/quests.go
package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lifequest/middleware"
	"lifequest/models"
	"lifequest/services"
)

type CreateQuestRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Difficulty    string `json:"difficulty"`
	Category      string `json:"category"`
	Points        int    `json:"points"`
	EstimatedTime string `json:"estimated_time"`
}

type GenerateQuestRequest struct {
	Theme    string `json:"theme"`
	Category string `json:"category"`
}

// QuestHandler manages quests and tasks: manual creation, AI generation and
// completion with experience awards.
type QuestHandler struct {
	db        *gorm.DB
	users     services.UserStore
	generator *services.QuestGenerator
}

func NewQuestHandler(db *gorm.DB, users services.UserStore, generator *services.QuestGenerator) *QuestHandler {
	return &QuestHandler{db: db, users: users, generator: generator}
}

func (h *QuestHandler) CreateQuest(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	var req CreateQuestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	if req.Title == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Title required"})
	}
	if req.Points < 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Points must not be negative"})
	}

	quest := models.Quest{
		UserID:        userID,
		Title:         req.Title,
		Description:   req.Description,
		Difficulty:    req.Difficulty,
		Category:      req.Category,
		Points:        req.Points,
		EstimatedTime: req.EstimatedTime,
		CreatedAt:     time.Now(),
	}

	if err := h.db.Create(&quest).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to create quest"})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "quest": quest})
}

func (h *QuestHandler) GetQuests(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	var quests []models.Quest
	if err := h.db.Preload("Tasks").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&quests).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to fetch quests"})
	}

	return c.JSON(fiber.Map{"success": true, "quests": quests, "total": len(quests)})
}

// CompleteQuest marks the quest done and awards its points. Quest state and
// the user's level/experience change in one transaction so a failure never
// applies a partial award.
func (h *QuestHandler) CompleteQuest(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	questID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid quest id"})
	}

	var quest models.Quest
	if err := h.db.Where("id = ? AND user_id = ?", questID, userID).First(&quest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "error": "Quest not found"})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load quest"})
	}

	if quest.IsCompleted {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Quest already completed"})
	}

	result, err := h.completeAndAward(userID, quest.Points, func(tx *gorm.DB) error {
		now := time.Now()
		quest.IsCompleted = true
		quest.CompletedAt = &now
		return tx.Save(&quest).Error
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to complete quest"})
	}

	result["quest"] = quest
	return c.JSON(result)
}

// CompleteTask marks a single quest step done and awards its points.
func (h *QuestHandler) CompleteTask(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid task id"})
	}

	var task models.Task
	if err := h.db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "error": "Task not found"})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load task"})
	}

	if task.IsCompleted {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Task already completed"})
	}

	result, err := h.completeAndAward(userID, task.Points, func(tx *gorm.DB) error {
		now := time.Now()
		task.IsCompleted = true
		task.CompletedAt = &now
		return tx.Save(&task).Error
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to complete task"})
	}

	result["task"] = task
	return c.JSON(result)
}

// completeAndAward runs the entity mutation and the experience award in one
// transaction and reports the resulting progression.
func (h *QuestHandler) completeAndAward(userID uint, points int, mutate func(tx *gorm.DB) error) (fiber.Map, error) {
	var user models.User
	var leveledUp bool
	var oldLevel int

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}

		oldLevel = user.Level
		if err := user.ApplyExperience(points); err != nil {
			return err
		}

		if err := mutate(tx); err != nil {
			return err
		}

		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}

	leveledUp = user.Level > oldLevel
	return fiber.Map{
		"success":          true,
		"xp_earned":        points,
		"new_level":        user.Level,
		"leveled_up":       leveledUp,
		"levels_gained":    user.Level - oldLevel,
		"current_xp":       user.Experience,
		"xp_to_next_level": user.NextLevelThreshold(),
	}, nil
}

// GenerateQuest asks the AI generator for a personalized quest and persists
// it together with one task per step.
func (h *QuestHandler) GenerateQuest(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	var req GenerateQuestRequest
	_ = c.BodyParser(&req) // both fields optional

	user, err := h.users.FindByID(c.Context(), userID)
	if err != nil {
		return userLookupError(c, err)
	}

	if !user.AIEnabled {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "AI quest generation is disabled in your settings"})
	}

	generated, err := h.generator.Generate(c.Context(), user, req.Theme, req.Category)
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"success": false, "error": "Quest generation failed"})
	}

	totalPoints := 0
	for _, step := range generated.Steps {
		totalPoints += step.Points
	}

	quest := models.Quest{
		UserID:        userID,
		Title:         generated.Title,
		Description:   generated.Description,
		Difficulty:    generated.Difficulty,
		Category:      generated.Category,
		Points:        totalPoints,
		EstimatedTime: generated.EstimatedTime,
		AIGenerated:   true,
		AIModel:       generated.Model,
		CreatedAt:     time.Now(),
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quest).Error; err != nil {
			return err
		}
		for _, step := range generated.Steps {
			task := models.Task{
				UserID:      userID,
				QuestID:     quest.ID,
				Title:       step.Title,
				Description: step.Description,
				Points:      step.Points,
				CreatedAt:   time.Now(),
			}
			if err := tx.Create(&task).Error; err != nil {
				return err
			}
			quest.Tasks = append(quest.Tasks, task)
		}
		return nil
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to save generated quest"})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "quest": quest})
}
