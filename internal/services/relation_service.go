package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RecipeListService manages a per-user list of recipes such as favorites or
// the shopping cart. A recipe appears at most once in a user's list.
type RecipeListService interface {
	// Add puts the recipe into the requester's list
	Add(ctx context.Context, r Requester, recipeID uint) (RecipeShortView, error)
	// Remove takes the recipe out of the requester's list
	Remove(ctx context.Context, r Requester, recipeID uint) error
}

type userRecipeRow interface {
	models.Favorite | models.ShoppingCartEntry
}

type relationService[T userRecipeRow] struct {
	db     *gorm.DB
	name   string
	newRow func(userID, recipeID uint) T
}

// NewFavoriteService creates the RecipeListService backed by favorites
func NewFavoriteService(db *gorm.DB) RecipeListService {
	return &relationService[models.Favorite]{
		db:   db,
		name: "favorites",
		newRow: func(userID, recipeID uint) models.Favorite {
			return models.Favorite{UserID: userID, RecipeID: recipeID}
		},
	}
}

// NewShoppingCartService creates the RecipeListService backed by the shopping cart
func NewShoppingCartService(db *gorm.DB) RecipeListService {
	return &relationService[models.ShoppingCartEntry]{
		db:   db,
		name: "shopping cart",
		newRow: func(userID, recipeID uint) models.ShoppingCartEntry {
			return models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}
		},
	}
}

func (s *relationService[T]) Add(ctx context.Context, r Requester, recipeID uint) (RecipeShortView, error) {
	if r.IsAnonymous() {
		return RecipeShortView{}, models.ErrAuthenticationRequired
	}

	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrRecipeNotFound
			}
			return fmt.Errorf("load recipe %d: %w", recipeID, err)
		}

		var existing int64
		if err := tx.Model(new(T)).
			Where("user_id = ? AND recipe_id = ?", r.UserID, recipeID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check %s: %w", s.name, err)
		}
		if existing > 0 {
			return models.ErrDuplicateRelation
		}

		row := s.newRow(r.UserID, recipeID)
		if err := tx.Create(&row).Error; err != nil {
			// A concurrent request may have inserted the same pair
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrDuplicateRelation
			}
			return fmt.Errorf("add to %s: %w", s.name, err)
		}
		return nil
	})
	if err != nil {
		return RecipeShortView{}, err
	}

	logrus.WithFields(logrus.Fields{"user_id": r.UserID, "recipe_id": recipeID}).Infof("Recipe added to %s", s.name)
	return newRecipeShortView(recipe), nil
}

func (s *relationService[T]) Remove(ctx context.Context, r Requester, recipeID uint) error {
	if r.IsAnonymous() {
		return models.ErrAuthenticationRequired
	}

	db := s.db.WithContext(ctx)
	var recipes int64
	if err := db.Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&recipes).Error; err != nil {
		return fmt.Errorf("load recipe %d: %w", recipeID, err)
	}
	if recipes == 0 {
		return models.ErrRecipeNotFound
	}

	result := db.Where("user_id = ? AND recipe_id = ?", r.UserID, recipeID).Delete(new(T))
	if result.Error != nil {
		return fmt.Errorf("remove from %s: %w", s.name, result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrRelationNotFound
	}
	return nil
}
