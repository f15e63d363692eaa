package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RecipeFilter narrows a recipe listing. Zero values disable a filter.
type RecipeFilter struct {
	// TagSlugs matches recipes having any of the slugs, case-insensitively
	TagSlugs []string
	AuthorID *uint
	// IsFavorited and IsInShoppingCart are ignored for anonymous requesters
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeService provides the recipe read and write operations
type RecipeService interface {
	// ListRecipes returns one page of recipes, newest first
	ListRecipes(ctx context.Context, r Requester, filter RecipeFilter, page Page) (PageResult[RecipeView], error)
	// GetRecipe returns a recipe by its ID
	GetRecipe(ctx context.Context, r Requester, id uint) (RecipeView, error)
	// CreateRecipe stores a new recipe authored by the requester
	CreateRecipe(ctx context.Context, r Requester, in RecipeInput) (RecipeView, error)
	// UpdateRecipe replaces the recipe fields and its ingredient and tag sets
	UpdateRecipe(ctx context.Context, r Requester, id uint, in RecipeInput) (RecipeView, error)
	// DeleteRecipe removes a recipe and every row referencing it
	DeleteRecipe(ctx context.Context, r Requester, id uint) error
}

type recipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new instance of RecipeService
func NewRecipeService(db *gorm.DB) RecipeService {
	return &recipeService{db: db}
}

func withRecipeRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("RecipeTags", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_tags.id") }).
		Preload("RecipeTags.Tag").
		Preload("RecipeIngredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("RecipeIngredients.Ingredient")
}

func (s *recipeService) filtered(db *gorm.DB, r Requester, filter RecipeFilter) *gorm.DB {
	query := db.Model(&models.Recipe{})

	if len(filter.TagSlugs) > 0 {
		slugs := make([]string, 0, len(filter.TagSlugs))
		for _, slug := range filter.TagSlugs {
			slugs = append(slugs, strings.ToLower(slug))
		}
		tagged := db.Model(&models.RecipeTag{}).
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("LOWER(tags.slug) IN ?", slugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}

	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}

	if !r.IsAnonymous() {
		if filter.IsFavorited {
			favorites := db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", r.UserID)
			query = query.Where("recipes.id IN (?)", favorites)
		}
		if filter.IsInShoppingCart {
			cart := db.Model(&models.ShoppingCartEntry{}).Select("recipe_id").Where("user_id = ?", r.UserID)
			query = query.Where("recipes.id IN (?)", cart)
		}
	}
	return query
}

func (s *recipeService) ListRecipes(ctx context.Context, r Requester, filter RecipeFilter, page Page) (PageResult[RecipeView], error) {
	db := s.db.WithContext(ctx)
	page = page.normalized()

	var count int64
	if err := s.filtered(db, r, filter).Count(&count).Error; err != nil {
		return PageResult[RecipeView]{}, fmt.Errorf("count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := withRecipeRelations(s.filtered(db, r, filter)).
		Order("recipes.pub_date DESC").
		Order("recipes.id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&recipes).Error
	if err != nil {
		return PageResult[RecipeView]{}, fmt.Errorf("list recipes: %w", err)
	}

	views, err := s.render(db, r, recipes)
	if err != nil {
		return PageResult[RecipeView]{}, err
	}
	return PageResult[RecipeView]{Count: count, Results: views}, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, r Requester, id uint) (RecipeView, error) {
	db := s.db.WithContext(ctx)
	recipe, err := s.load(db, id)
	if err != nil {
		return RecipeView{}, err
	}
	views, err := s.render(db, r, []models.Recipe{recipe})
	if err != nil {
		return RecipeView{}, err
	}
	return views[0], nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, r Requester, in RecipeInput) (RecipeView, error) {
	if r.IsAnonymous() {
		return RecipeView{}, models.ErrAuthenticationRequired
	}
	if err := ValidateRecipeInput(in); err != nil {
		return RecipeView{}, err
	}
	if strings.TrimSpace(in.Image) == "" {
		return RecipeView{}, models.ErrValidationFailed.WithField("image").WithMessage("is required")
	}

	recipe := models.Recipe{
		AuthorID:    r.UserID,
		Name:        in.Name,
		Text:        in.Text,
		Image:       in.Image,
		CookingTime: in.CookingTime,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, in); err != nil {
			return err
		}
		if err := tx.Omit("Author", "RecipeTags", "RecipeIngredients").Create(&recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		return insertRecipeRelations(tx, recipe.ID, in)
	})
	if err != nil {
		return RecipeView{}, err
	}

	logrus.WithFields(logrus.Fields{"recipe_id": recipe.ID, "author_id": r.UserID}).Info("Recipe created")
	return s.GetRecipe(ctx, r, recipe.ID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, r Requester, id uint, in RecipeInput) (RecipeView, error) {
	if r.IsAnonymous() {
		return RecipeView{}, models.ErrAuthenticationRequired
	}

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RecipeView{}, models.ErrRecipeNotFound
		}
		return RecipeView{}, fmt.Errorf("load recipe %d: %w", id, err)
	}
	if !CanModifyRecipe(r, recipe) {
		return RecipeView{}, models.ErrForbidden
	}
	if err := ValidateRecipeInput(in); err != nil {
		return RecipeView{}, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, in); err != nil {
			return err
		}

		fields := map[string]interface{}{
			"name":         in.Name,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
		}
		if strings.TrimSpace(in.Image) != "" {
			fields["image"] = in.Image
		}
		if err := tx.Model(&models.Recipe{ID: id}).Updates(fields).Error; err != nil {
			return fmt.Errorf("update recipe %d: %w", id, err)
		}

		// Replace, not diff: the junction rows are rebuilt from the payload
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("clear recipe ingredients: %w", err)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeTag{}).Error; err != nil {
			return fmt.Errorf("clear recipe tags: %w", err)
		}
		return insertRecipeRelations(tx, id, in)
	})
	if err != nil {
		return RecipeView{}, err
	}

	logrus.WithFields(logrus.Fields{"recipe_id": id, "author_id": r.UserID}).Info("Recipe updated")
	return s.GetRecipe(ctx, r, id)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, r Requester, id uint) error {
	if r.IsAnonymous() {
		return models.ErrAuthenticationRequired
	}

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrRecipeNotFound
		}
		return fmt.Errorf("load recipe %d: %w", id, err)
	}
	if !CanModifyRecipe(r, recipe) {
		return models.ErrForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dependents := []interface{}{
			&models.RecipeIngredient{},
			&models.RecipeTag{},
			&models.Favorite{},
			&models.ShoppingCartEntry{},
		}
		for _, model := range dependents {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("delete rows of recipe %d: %w", id, err)
			}
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"recipe_id": id, "author_id": r.UserID}).Info("Recipe deleted")
	return nil
}

func (s *recipeService) load(db *gorm.DB, id uint) (models.Recipe, error) {
	var recipe models.Recipe
	if err := withRecipeRelations(db).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Recipe{}, models.ErrRecipeNotFound
		}
		return models.Recipe{}, fmt.Errorf("load recipe %d: %w", id, err)
	}
	return recipe, nil
}

func (s *recipeService) render(db *gorm.DB, r Requester, recipes []models.Recipe) ([]RecipeView, error) {
	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, recipe := range recipes {
		recipeIDs = append(recipeIDs, recipe.ID)
		authorIDs = append(authorIDs, recipe.AuthorID)
	}

	flags, err := loadRecipeFlags(db, r, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := loadSubscriptions(db, r, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]RecipeView, 0, len(recipes))
	for _, recipe := range recipes {
		views = append(views, newRecipeView(recipe, flags, subscribed))
	}
	return views, nil
}

// checkReferences verifies every ingredient and tag of the payload exists
func checkReferences(tx *gorm.DB, in RecipeInput) error {
	ingredientIDs := make([]uint, 0, len(in.Ingredients))
	for _, item := range in.Ingredients {
		ingredientIDs = append(ingredientIDs, item.IngredientID)
	}

	var found int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ingredientIDs).Count(&found).Error; err != nil {
		return fmt.Errorf("check ingredients: %w", err)
	}
	if found != int64(len(ingredientIDs)) {
		return models.ErrUnknownIngredient.WithField("ingredients")
	}

	if err := tx.Model(&models.Tag{}).Where("id IN ?", in.Tags).Count(&found).Error; err != nil {
		return fmt.Errorf("check tags: %w", err)
	}
	if found != int64(len(in.Tags)) {
		return models.ErrUnknownTag.WithField("tags")
	}
	return nil
}

func insertRecipeRelations(tx *gorm.DB, recipeID uint, in RecipeInput) error {
	ingredients := make([]models.RecipeIngredient, 0, len(in.Ingredients))
	for _, item := range in.Ingredients {
		ingredients = append(ingredients, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		})
	}
	if err := tx.Create(&ingredients).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.ErrDuplicateIngredient.WithField("ingredients")
		}
		return fmt.Errorf("insert recipe ingredients: %w", err)
	}

	tags := make([]models.RecipeTag, 0, len(in.Tags))
	for _, tagID := range in.Tags {
		tags = append(tags, models.RecipeTag{RecipeID: recipeID, TagID: tagID})
	}
	if err := tx.Create(&tags).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.ErrDuplicateTag.WithField("tags")
		}
		return fmt.Errorf("insert recipe tags: %w", err)
	}
	return nil
}
