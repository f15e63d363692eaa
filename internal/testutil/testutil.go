// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/database"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database private to the test
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDatabase(database.DatabaseConfig{Driver: "sqlite", Path: ":memory:", MaxRetries: 1})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user whose email derives from the username
func CreateUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Email:     fmt.Sprintf("%s@example.com", username),
		Username:  username,
		FirstName: username,
		LastName:  "Tester",
		Password:  "not-a-real-hash",
		Role:      models.RoleUser,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// CreateTag inserts a tag with the given slug
func CreateTag(t *testing.T, db *gorm.DB, slug string) models.Tag {
	t.Helper()
	tag := models.Tag{Name: "Tag " + slug, Slug: slug}
	require.NoError(t, db.Create(&tag).Error)
	return tag
}

// CreateIngredient inserts an ingredient
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ingredient).Error)
	return ingredient
}

// Portion is an ingredient and amount used when building recipe fixtures
type Portion struct {
	Ingredient models.Ingredient
	Amount     int
}

// CreateRecipe inserts a recipe with its junction rows directly, bypassing validation
func CreateRecipe(t *testing.T, db *gorm.DB, author models.User, name string, tags []models.Tag, portions ...Portion) models.Recipe {
	t.Helper()
	recipe := models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "Cook " + name,
		Image:       "recipes/images/" + name + ".png",
		CookingTime: 15,
	}
	require.NoError(t, db.Create(&recipe).Error)
	for _, tag := range tags {
		require.NoError(t, db.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error)
	}
	for _, p := range portions {
		require.NoError(t, db.Create(&models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: p.Ingredient.ID,
			Amount:       p.Amount,
		}).Error)
	}
	return recipe
}
