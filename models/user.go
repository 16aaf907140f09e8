// models/user.go
package models

import (
	"encoding/json"
	"time"

	"lifequest/apperrors"
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	// Progression
	Level      int `gorm:"default:1" json:"level"`
	Experience int `gorm:"default:0" json:"experience"`

	// Account state. A user cannot log in until the verification link
	// sent at registration has been followed.
	IsVerified bool `gorm:"default:false" json:"is_verified"`

	// Profile data used to personalize generated quests. Stored as JSON
	// text columns, see the accessors below.
	Goals       string `gorm:"type:text" json:"-"`
	Habits      string `gorm:"type:text" json:"-"`
	Preferences string `gorm:"type:text" json:"-"`

	// AI settings
	AIEnabled bool   `gorm:"default:true" json:"ai_enabled"`
	AIModel   string `json:"ai_model"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Quests []Quest `gorm:"foreignKey:UserID" json:"quests,omitempty"`
	Tasks  []Task  `gorm:"foreignKey:UserID" json:"tasks,omitempty"`
}

// NextLevelThreshold returns the experience required to leave the current
// level.
func (u *User) NextLevelThreshold() int {
	return u.Level * u.Level * 100
}

// ApplyExperience adds points to the user's experience and carries any
// overflow into level-ups. A single large award can advance several levels;
// each iteration re-evaluates the threshold for the new level, so the loop
// terminates with Experience < Level^2 * 100.
//
// Negative points are rejected and leave the user untouched. Zero is a no-op.
func (u *User) ApplyExperience(points int) error {
	if points < 0 {
		return apperrors.ErrInvalidInput
	}

	u.Experience += points
	for threshold := u.NextLevelThreshold(); u.Experience >= threshold; threshold = u.NextLevelThreshold() {
		u.Experience -= threshold
		u.Level++
	}

	return nil
}

// GoalList decodes the JSON-encoded goals column. An empty or malformed
// column yields an empty list.
func (u *User) GoalList() []string {
	return decodeStringList(u.Goals)
}

func (u *User) SetGoals(goals []string) {
	u.Goals = encodeStringList(goals)
}

func (u *User) HabitList() []string {
	return decodeStringList(u.Habits)
}

func (u *User) SetHabits(habits []string) {
	u.Habits = encodeStringList(habits)
}

// PreferenceMap decodes the JSON-encoded preferences column.
func (u *User) PreferenceMap() map[string]string {
	if u.Preferences == "" {
		return map[string]string{}
	}
	prefs := map[string]string{}
	if err := json.Unmarshal([]byte(u.Preferences), &prefs); err != nil {
		return map[string]string{}
	}
	return prefs
}

func (u *User) SetPreferences(prefs map[string]string) {
	if len(prefs) == 0 {
		u.Preferences = ""
		return
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return
	}
	u.Preferences = string(data)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []string{}
	}
	return list
}

func encodeStringList(list []string) string {
	if len(list) == 0 {
		return ""
	}
	data, err := json.Marshal(list)
	if err != nil {
		return ""
	}
	return string(data)
}
