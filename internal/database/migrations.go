package database

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/yukikurage/company-task-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes used by the visibility and analytics queries.
// Single-column indexes come from the model tags.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   interface{}
		table   string
		name    string
		columns string
	}{
		{&models.Task{}, "tasks", "idx_tasks_company_status", "company_code, status"},
		{&models.Task{}, "tasks", "idx_tasks_company_creator", "company_code, created_by"},
		{&models.Task{}, "tasks", "idx_tasks_company_assignee", "company_code, assigned_to"},
		{&models.Task{}, "tasks", "idx_tasks_company_completed_at", "company_code, completed_at"},
		{&models.TaskComment{}, "task_comments", "idx_task_comments_task_created", "task_id, created_at"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			log.Debug().Str("index", idx.name).Msg("index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info().Str("index", idx.name).Str("table", idx.table).Msg("created index")
	}

	return nil
}

// MigrateDatabase runs all database migrations
func MigrateDatabase(db *gorm.DB) error {
	if err := AutoMigrate(db); err != nil {
		return err
	}

	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
