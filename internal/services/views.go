package services

import (
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

// UserView is the public representation of an account
type UserView struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

func newUserView(u models.User, subscribed bool) UserView {
	return UserView{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// RecipeIngredientView is one ingredient line of a recipe
type RecipeIngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeView is the full representation of a recipe as seen by a requester
type RecipeView struct {
	ID               uint                   `json:"id"`
	Tags             []models.Tag           `json:"tags"`
	Author           UserView               `json:"author"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// RecipeShortView is used in favorites, shopping cart and subscription responses
type RecipeShortView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func newRecipeShortView(r models.Recipe) RecipeShortView {
	return RecipeShortView{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// SubscriptionView is an author followed by the requester
type SubscriptionView struct {
	UserView
	RecipesCount int64             `json:"recipes_count"`
	Recipes      []RecipeShortView `json:"recipes"`
}

func newRecipeView(r models.Recipe, flags recipeFlags, subscribed map[uint]bool) RecipeView {
	view := RecipeView{
		ID:               r.ID,
		Tags:             make([]models.Tag, 0, len(r.RecipeTags)),
		Ingredients:      make([]RecipeIngredientView, 0, len(r.RecipeIngredients)),
		IsFavorited:      flags.favorited[r.ID],
		IsInShoppingCart: flags.inCart[r.ID],
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
	if r.Author != nil {
		view.Author = newUserView(*r.Author, subscribed[r.AuthorID])
	}
	for _, rt := range r.RecipeTags {
		if rt.Tag != nil {
			view.Tags = append(view.Tags, *rt.Tag)
		}
	}
	for _, ri := range r.RecipeIngredients {
		line := RecipeIngredientView{ID: ri.IngredientID, Amount: ri.Amount}
		if ri.Ingredient != nil {
			line.Name = ri.Ingredient.Name
			line.MeasurementUnit = ri.Ingredient.MeasurementUnit
		}
		view.Ingredients = append(view.Ingredients, line)
	}
	return view
}
