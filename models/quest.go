// models/quest.go
package models

import "time"

// Quest is a unit of self-improvement work assigned to a user, optionally
// produced by the AI generator and broken down into tasks.
type Quest struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"` // easy, medium, hard
	Category    string `json:"category"`
	Points      int    `gorm:"default:0" json:"points"`

	EstimatedTime string `json:"estimated_time"`
	AIGenerated   bool   `gorm:"default:false" json:"ai_generated"`
	AIModel       string `json:"ai_model,omitempty"`

	IsCompleted bool       `gorm:"default:false" json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	User  User   `gorm:"foreignKey:UserID" json:"-"`
	Tasks []Task `gorm:"foreignKey:QuestID" json:"tasks,omitempty"`
}

// Task is a single step of a quest carrying its own point reward.
type Task struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	QuestID     uint   `gorm:"index" json:"quest_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Points      int    `gorm:"default:0" json:"points"`

	IsCompleted bool       `gorm:"default:false" json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Quest Quest `gorm:"foreignKey:QuestID" json:"-"`
}
