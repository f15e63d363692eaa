package services

import (
	"fmt"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"gorm.io/gorm"
)

// CanModifyRecipe reports whether the requester may update or delete the recipe.
// Only the author may; everyone else has read-only access.
func CanModifyRecipe(r Requester, recipe models.Recipe) bool {
	return !r.IsAnonymous() && r.UserID == recipe.AuthorID
}

// recipeFlags holds the requester specific is_favorited / is_in_shopping_cart values
type recipeFlags struct {
	favorited map[uint]bool
	inCart    map[uint]bool
}

// loadRecipeFlags looks up which of the recipes the requester favorited or put
// into the cart. Anonymous requesters always get false for both.
func loadRecipeFlags(db *gorm.DB, r Requester, recipeIDs []uint) (recipeFlags, error) {
	flags := recipeFlags{favorited: map[uint]bool{}, inCart: map[uint]bool{}}
	if r.IsAnonymous() || len(recipeIDs) == 0 {
		return flags, nil
	}

	var favorited []uint
	if err := db.Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id IN ?", r.UserID, recipeIDs).
		Pluck("recipe_id", &favorited).Error; err != nil {
		return flags, fmt.Errorf("load favorites: %w", err)
	}
	for _, id := range favorited {
		flags.favorited[id] = true
	}

	var inCart []uint
	if err := db.Model(&models.ShoppingCartEntry{}).
		Where("user_id = ? AND recipe_id IN ?", r.UserID, recipeIDs).
		Pluck("recipe_id", &inCart).Error; err != nil {
		return flags, fmt.Errorf("load shopping cart: %w", err)
	}
	for _, id := range inCart {
		flags.inCart[id] = true
	}
	return flags, nil
}

// loadSubscriptions returns the subset of authors the requester follows
func loadSubscriptions(db *gorm.DB, r Requester, authorIDs []uint) (map[uint]bool, error) {
	subscribed := map[uint]bool{}
	if r.IsAnonymous() || len(authorIDs) == 0 {
		return subscribed, nil
	}

	var followed []uint
	if err := db.Model(&models.Follow{}).
		Where("follower_id = ? AND author_id IN ?", r.UserID, authorIDs).
		Pluck("author_id", &followed).Error; err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	for _, id := range followed {
		subscribed[id] = true
	}
	return subscribed, nil
}
