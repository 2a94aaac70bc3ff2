package repository

import (
	"fmt"
	"testing"
	"time"

	"quill/internal/database"
	"quill/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createTestPost inserts a post with an explicit creation time so ordering
// assertions do not depend on insert speed.
func createTestPost(t *testing.T, db *gorm.DB, author *models.User, text string, createdAt time.Time) *models.Post {
	t.Helper()

	post := &models.Post{
		Text:      text,
		AuthorID:  author.ID,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
