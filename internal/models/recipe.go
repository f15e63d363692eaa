package models

import (
	"time"
)

// Recipe is a published dish owned by its author
type Recipe struct {
	ID          uint      `gorm:"primaryKey"`
	AuthorID    uint      `gorm:"not null;index"`
	Author      *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Name        string    `gorm:"not null;size:200"`
	Text        string    `gorm:"type:text;not null"`
	Image       string    `gorm:"not null"`
	CookingTime int       `gorm:"not null;check:cooking_time >= 1"`
	PubDate     time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time

	RecipeTags        []RecipeTag        `gorm:"foreignKey:RecipeID"`
	RecipeIngredients []RecipeIngredient `gorm:"foreignKey:RecipeID"`
}

// RecipeTag links a recipe to one of its tags
type RecipeTag struct {
	ID       uint    `gorm:"primaryKey"`
	RecipeID uint    `gorm:"not null;uniqueIndex:idx_recipe_tag"`
	TagID    uint    `gorm:"not null;uniqueIndex:idx_recipe_tag"`
	Recipe   *Recipe `gorm:"constraint:OnDelete:CASCADE"`
	Tag      *Tag    `gorm:"constraint:OnDelete:CASCADE"`
}

// RecipeIngredient carries the amount of an ingredient used by a recipe
type RecipeIngredient struct {
	ID           uint        `gorm:"primaryKey"`
	RecipeID     uint        `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint        `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	Amount       int         `gorm:"not null;check:amount >= 1"`
	Recipe       *Recipe     `gorm:"constraint:OnDelete:CASCADE"`
	Ingredient   *Ingredient `gorm:"constraint:OnDelete:CASCADE"`
}
