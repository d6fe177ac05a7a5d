package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/company-task-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrateDatabase(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, MigrateDatabase(db))

	assert.True(t, db.Migrator().HasTable(&models.Task{}))
	assert.True(t, db.Migrator().HasTable(&models.TaskComment{}))
	assert.True(t, db.Migrator().HasIndex(&models.Task{}, "idx_tasks_company_status"))

	// Running twice must skip the existing indexes.
	require.NoError(t, MigrateDatabase(db))
}
