// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"gorm.io/gorm"

	"lifequest/models"
)

// Migrate runs schema migrations for all application models.
func Migrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(
		&models.User{},
		&models.Quest{},
		&models.Task{},
	); err != nil {
		return err
	}

	createIndexes(db)

	log.Println("Migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) {
	// User indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_level ON users(level DESC)")

	// Quest indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_quests_user ON quests(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_quests_completed ON quests(is_completed)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_quests_created ON quests(created_at DESC)")

	// Task indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_quest ON tasks(quest_id)")
}
