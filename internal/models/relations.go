package models

import (
	"time"
)

// Favorite marks a recipe as bookmarked by a user
type Favorite struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint    `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	User      *User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    *Recipe `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// ShoppingCartEntry puts a recipe into a user's shopping cart
type ShoppingCartEntry struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uint    `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
	User      *User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    *Recipe `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (ShoppingCartEntry) TableName() string {
	return "shopping_cart_entries"
}

// Follow subscribes a follower to an author's recipes
type Follow struct {
	ID         uint  `gorm:"primaryKey"`
	FollowerID uint  `gorm:"not null;uniqueIndex:idx_follow_follower_author;check:follower_id <> author_id"`
	AuthorID   uint  `gorm:"not null;uniqueIndex:idx_follow_follower_author;index"`
	Follower   *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Author     *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time
}

// All returns every model managed by the schema, in dependency order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeTag{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCartEntry{},
		&Follow{},
	}
}
