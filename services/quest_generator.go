// services/quest_generator.go - AI quest generation
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"lifequest/models"
)

const defaultInferenceURL = "https://router.huggingface.co/v1/chat/completions"

// QuestStep is one actionable task inside a generated quest.
type QuestStep struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Points        int    `json:"points"`
	EstimatedTime string `json:"estimated_time"`
}

// GeneratedQuest is the parsed response of the quest generator.
type GeneratedQuest struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Steps         []QuestStep `json:"steps"`
	EstimatedTime string      `json:"estimated_time"`
	Difficulty    string      `json:"difficulty"`
	Category      string      `json:"category"`
	Model         string      `json:"model,omitempty"`
}

// QuestGenerator builds personalized quests through a chat-completions
// inference API. Without an API key, or when the API misbehaves, it falls
// back to a small local generator keyed off the user's goals.
type QuestGenerator struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewQuestGenerator(apiKey, model string) *QuestGenerator {
	if apiKey == "" {
		log.Println("Warning: no inference API token configured, quest generation uses local fallback")
	}
	return &QuestGenerator{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultInferenceURL,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate produces a quest tailored to the user's level, goals, habits and
// preferences. theme and category are optional hints from the request.
func (g *QuestGenerator) Generate(ctx context.Context, user *models.User, theme, category string) (*GeneratedQuest, error) {
	if g.apiKey == "" {
		return g.fallbackQuest(user), nil
	}

	model := g.model
	if user.AIModel != "" {
		model = user.AIModel
	}

	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: buildQuestPrompt(user, theme, category)},
		},
		MaxTokens:   1024,
		Temperature: 0.7,
		TopP:        0.9,
	}

	quest, err := g.complete(ctx, payload)
	if err != nil {
		log.Printf("AI generation error: %v", err)
		return g.fallbackQuest(user), nil
	}

	quest.Model = model
	return quest, nil
}

func (g *QuestGenerator) complete(ctx context.Context, payload chatRequest) (*GeneratedQuest, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference API returned %d: %s", resp.StatusCode, data)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to decode inference response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("inference response contained no choices")
	}

	return parseQuestJSON(chat.Choices[0].Message.Content)
}

// parseQuestJSON extracts the quest object from the model output, which may
// wrap the JSON in prose or a code fence.
func parseQuestJSON(content string) (*GeneratedQuest, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var quest GeneratedQuest
	if err := json.Unmarshal([]byte(content[start:end+1]), &quest); err != nil {
		return nil, fmt.Errorf("failed to parse quest JSON: %w", err)
	}
	if quest.Title == "" || len(quest.Steps) == 0 {
		return nil, fmt.Errorf("model output missing title or steps")
	}

	return &quest, nil
}

func buildQuestPrompt(user *models.User, theme, category string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a mentor in a self-improvement RPG. Create a personal quest for a player based on their data:\n")
	fmt.Fprintf(&b, "Level: %d\n", user.Level)
	fmt.Fprintf(&b, "Goals: %s\n", strings.Join(user.GoalList(), ", "))
	fmt.Fprintf(&b, "Habits: %s\n", strings.Join(user.HabitList(), ", "))
	fmt.Fprintf(&b, "Preferences: %v\n", user.PreferenceMap())
	if theme != "" {
		fmt.Fprintf(&b, "Theme: %s\n", theme)
	}
	if category != "" {
		fmt.Fprintf(&b, "Category: %s\n", category)
	}

	b.WriteString(`
Create a quest that:
1. Matches the player's goals
2. Accounts for their habits and level
3. Consists of 3-5 concrete steps (tasks)
4. Has an engaging title and description
5. States an estimated completion time
6. Has an appropriate difficulty (easy, medium, hard)
7. Belongs to one of: health, learning, productivity, creativity, sport

Respond with JSON ONLY:
{
    "title": "Quest title",
    "description": "Quest description",
    "steps": [
        {
            "title": "Concrete task title",
            "description": "Detailed description of what to do",
            "points": 10,
            "estimated_time": "15 minutes"
        }
    ],
    "estimated_time": "Total completion time",
    "difficulty": "easy/medium/hard",
    "category": "category"
}`)

	return b.String()
}

// fallbackQuest builds a deterministic quest when no inference API is
// reachable. The choice keys off the user's stated goals.
func (g *QuestGenerator) fallbackQuest(user *models.User) *GeneratedQuest {
	for _, goal := range user.GoalList() {
		if strings.Contains(strings.ToLower(goal), "health") ||
			strings.Contains(strings.ToLower(goal), "fit") {
			return &GeneratedQuest{
				Title:       "Path to a Healthier Life",
				Description: "A 7-day challenge to improve your health",
				Steps: []QuestStep{
					{
						Title:         "15-minute morning workout",
						Description:   "Complete a set of morning exercises",
						Points:        25,
						EstimatedTime: "15 minutes",
					},
					{
						Title:         "Drink two liters of water",
						Description:   "Track your water intake through the day",
						Points:        15,
						EstimatedTime: "all day",
					},
				},
				EstimatedTime: "7 days",
				Difficulty:    "medium",
				Category:      "health",
			}
		}
	}

	return &GeneratedQuest{
		Title:       "Basic Productivity Quest",
		Description: "Start your path to effectiveness",
		Steps: []QuestStep{
			{
				Title:         "Plan your day",
				Description:   "Write a plan for the day ahead",
				Points:        30,
				EstimatedTime: "15 minutes",
			},
			{
				Title:         "Clear one lingering task",
				Description:   "Pick a task you have been postponing and finish it",
				Points:        40,
				EstimatedTime: "1 hour",
			},
		},
		EstimatedTime: "1 day",
		Difficulty:    "easy",
		Category:      "productivity",
	}
}
