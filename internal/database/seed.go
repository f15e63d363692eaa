package database

import (
	"fmt"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"gorm.io/gorm"
)

func color(hex string) *string {
	return &hex
}

// DefaultTags are created on first start so recipes can be published right away
var DefaultTags = []models.Tag{
	{Name: "Breakfast", Color: color("#E26C2D"), Slug: "breakfast"},
	{Name: "Lunch", Color: color("#49B64E"), Slug: "lunch"},
	{Name: "Dinner", Color: color("#8775D2"), Slug: "dinner"},
}

// SeedDefaultTags inserts DefaultTags when the tag table is empty.
// It returns the number of tags created.
func SeedDefaultTags(db *gorm.DB) (int, error) {
	// Create only if is empty
	var count int64
	if err := db.Model(&models.Tag{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}
	if count > 0 {
		log.Info("Tags already seeded")
		return 0, nil
	}

	log.Info("Tag table is empty, seeding default tags")
	tags := make([]models.Tag, len(DefaultTags))
	copy(tags, DefaultTags)
	if err := db.Create(&tags).Error; err != nil {
		return 0, fmt.Errorf("seed tags: %w", err)
	}
	log.WithField("count", len(tags)).Info("Default tags seeded successfully")
	return len(tags), nil
}
