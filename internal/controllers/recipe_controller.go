package controllers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/gin-gonic/gin"
)

// RecipeController handles HTTP requests related to recipes
type RecipeController interface {
	// GetAllRecipes lists recipes with optional filtering
	GetAllRecipes(c *gin.Context)
	// GetRecipeByID retrieves a recipe by its ID
	GetRecipeByID(c *gin.Context)
	// CreateRecipe publishes a new recipe
	CreateRecipe(c *gin.Context)
	// UpdateRecipe replaces an existing recipe
	UpdateRecipe(c *gin.Context)
	// DeleteRecipe deletes a recipe by its ID
	DeleteRecipe(c *gin.Context)
	// AddFavorite and RemoveFavorite manage the requester's favorites
	AddFavorite(c *gin.Context)
	RemoveFavorite(c *gin.Context)
	// AddToShoppingCart and RemoveFromShoppingCart manage the requester's cart
	AddToShoppingCart(c *gin.Context)
	RemoveFromShoppingCart(c *gin.Context)
	// DownloadShoppingCart exports the merged ingredient list as text
	DownloadShoppingCart(c *gin.Context)
}

type recipeController struct {
	recipes      services.RecipeService
	favorites    services.RecipeListService
	cart         services.RecipeListService
	shoppingList services.ShoppingListService
	pagination   Pagination
}

// NewRecipeController creates a new instance of RecipeController
func NewRecipeController(
	recipes services.RecipeService,
	favorites services.RecipeListService,
	cart services.RecipeListService,
	shoppingList services.ShoppingListService,
	pagination Pagination,
) RecipeController {
	return &recipeController{
		recipes:      recipes,
		favorites:    favorites,
		cart:         cart,
		shoppingList: shoppingList,
		pagination:   pagination,
	}
}

// GetAllRecipes godoc
// @Summary List recipes
// @Description Get a page of recipes, newest first, with optional filtering
// @Tags recipes
// @Produce json
// @Param tags query []string false "Tag slugs, any of them matches" collectionFormat(multi)
// @Param author query int false "Author user ID"
// @Param is_favorited query int false "1 to only list the requester's favorites"
// @Param is_in_shopping_cart query int false "1 to only list recipes in the requester's cart"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} PageResponse[services.RecipeView]
// @Failure 400 {object} models.APIError
// @Router /api/recipes [get]
func (c *recipeController) GetAllRecipes(ctx *gin.Context) {
	page, ok := c.pagination.pageFrom(ctx)
	if !ok {
		return
	}

	filter := services.RecipeFilter{
		TagSlugs:         ctx.QueryArray("tags"),
		IsFavorited:      queryFlag(ctx, "is_favorited"),
		IsInShoppingCart: queryFlag(ctx, "is_in_shopping_cart"),
	}
	if raw := ctx.Query("author"); raw != "" {
		authorID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(ctx, "Invalid author format", err)
			return
		}
		id := uint(authorID)
		filter.AuthorID = &id
	}

	result, err := c.recipes.ListRecipes(ctx.Request.Context(), requesterFrom(ctx), filter, page)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newPageResponse(ctx, page, result))
}

// GetRecipeByID godoc
// @Summary Get recipe by ID
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} services.RecipeView
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/recipes/{id} [get]
func (c *recipeController) GetRecipeByID(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	recipe, err := c.recipes.GetRecipe(ctx.Request.Context(), requesterFrom(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, recipe)
}

// CreateRecipe godoc
// @Summary Create a new recipe
// @Description Publish a recipe authored by the requester
// @Tags recipes
// @Accept json
// @Produce json
// @Param recipe body services.RecipeInput true "Recipe"
// @Success 201 {object} services.RecipeView
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Failure 429 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes [post]
func (c *recipeController) CreateRecipe(ctx *gin.Context) {
	var input services.RecipeInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondBadRequest(ctx, "Invalid request body", err)
		return
	}

	recipe, err := c.recipes.CreateRecipe(ctx.Request.Context(), requesterFrom(ctx), input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe godoc
// @Summary Update a recipe
// @Description Replace a recipe's fields, ingredients and tags. Only the author may do this.
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param recipe body services.RecipeInput true "Recipe"
// @Success 200 {object} services.RecipeView
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id} [patch]
func (c *recipeController) UpdateRecipe(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var input services.RecipeInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondBadRequest(ctx, "Invalid request body", err)
		return
	}

	recipe, err := c.recipes.UpdateRecipe(ctx.Request.Context(), requesterFrom(ctx), id, input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, recipe)
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id} [delete]
func (c *recipeController) DeleteRecipe(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.recipes.DeleteRecipe(ctx.Request.Context(), requesterFrom(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// AddFavorite godoc
// @Summary Add a recipe to favorites
// @Tags favorites
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} services.RecipeShortView
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite [post]
func (c *recipeController) AddFavorite(ctx *gin.Context) {
	c.addToList(ctx, c.favorites)
}

// RemoveFavorite godoc
// @Summary Remove a recipe from favorites
// @Tags favorites
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite [delete]
func (c *recipeController) RemoveFavorite(ctx *gin.Context) {
	c.removeFromList(ctx, c.favorites)
}

// AddToShoppingCart godoc
// @Summary Add a recipe to the shopping cart
// @Tags shopping cart
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} services.RecipeShortView
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/shopping_cart [post]
func (c *recipeController) AddToShoppingCart(ctx *gin.Context) {
	c.addToList(ctx, c.cart)
}

// RemoveFromShoppingCart godoc
// @Summary Remove a recipe from the shopping cart
// @Tags shopping cart
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/shopping_cart [delete]
func (c *recipeController) RemoveFromShoppingCart(ctx *gin.Context) {
	c.removeFromList(ctx, c.cart)
}

func (c *recipeController) addToList(ctx *gin.Context, list services.RecipeListService) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	recipe, err := list.Add(ctx.Request.Context(), requesterFrom(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, recipe)
}

func (c *recipeController) removeFromList(ctx *gin.Context, list services.RecipeListService) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := list.Remove(ctx.Request.Context(), requesterFrom(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// DownloadShoppingCart godoc
// @Summary Download the shopping list
// @Description Ingredients of every recipe in the cart, summed per ingredient, as a text file
// @Tags shopping cart
// @Produce plain
// @Success 200 {string} string "shopping_cart.txt"
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/download_shopping_cart [get]
func (c *recipeController) DownloadShoppingCart(ctx *gin.Context) {
	items, err := c.shoppingList.BuildShoppingList(ctx.Request.Context(), requesterFrom(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	var buf bytes.Buffer
	if err := services.RenderShoppingList(&buf, items); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", "attachment; filename=shopping_cart.txt")
	ctx.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}
