package controllers

import (
	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handlers groups every controller mounted under /api
type Handlers struct {
	Recipes     RecipeController
	Users       *UserController
	Tags        *TagController
	Ingredients *IngredientController
}

// NewHandlers builds the services and controllers on top of db
func NewHandlers(db *gorm.DB, pagination Pagination) Handlers {
	return Handlers{
		Recipes: NewRecipeController(
			services.NewRecipeService(db),
			services.NewFavoriteService(db),
			services.NewShoppingCartService(db),
			services.NewShoppingListService(db),
			pagination,
		),
		Users:       NewUserController(services.NewUserService(db), services.NewFollowService(db), pagination),
		Tags:        NewTagController(services.NewTagService(db)),
		Ingredients: NewIngredientController(services.NewIngredientService(db)),
	}
}

// SetupRoutes mounts the API. Reads accept an optional bearer token,
// mutations require one.
func SetupRoutes(router *gin.Engine, h Handlers, jwtSecret []byte, createLimiter *middleware.RateLimiter) {
	optionalAuth := middleware.OptionalJWTAuth(jwtSecret)
	requireAuth := middleware.JWTAuth(jwtSecret)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := router.Group("/api")
	{
		tags := api.Group("/tags")
		{
			tags.GET("", h.Tags.ListTags)
			tags.GET("/:id", h.Tags.GetTag)
			tags.POST("", requireAuth, adminOnly, h.Tags.CreateTag)
		}

		ingredients := api.Group("/ingredients")
		{
			ingredients.GET("", h.Ingredients.ListIngredients)
			ingredients.GET("/:id", h.Ingredients.GetIngredient)
			ingredients.POST("", requireAuth, adminOnly, h.Ingredients.CreateIngredient)
		}

		recipes := api.Group("/recipes")
		{
			recipes.GET("", optionalAuth, h.Recipes.GetAllRecipes)
			recipes.GET("/download_shopping_cart", requireAuth, h.Recipes.DownloadShoppingCart)
			recipes.GET("/:id", optionalAuth, h.Recipes.GetRecipeByID)
			recipes.POST("", requireAuth, createLimiter.RateLimitMiddleware(), h.Recipes.CreateRecipe)
			recipes.PATCH("/:id", requireAuth, h.Recipes.UpdateRecipe)
			recipes.PUT("/:id", requireAuth, h.Recipes.UpdateRecipe)
			recipes.DELETE("/:id", requireAuth, h.Recipes.DeleteRecipe)
			recipes.POST("/:id/favorite", requireAuth, h.Recipes.AddFavorite)
			recipes.DELETE("/:id/favorite", requireAuth, h.Recipes.RemoveFavorite)
			recipes.POST("/:id/shopping_cart", requireAuth, h.Recipes.AddToShoppingCart)
			recipes.DELETE("/:id/shopping_cart", requireAuth, h.Recipes.RemoveFromShoppingCart)
		}

		users := api.Group("/users")
		{
			users.POST("", h.Users.Register)
			users.GET("", optionalAuth, h.Users.ListUsers)
			users.GET("/me", requireAuth, h.Users.Me)
			users.PATCH("/me", requireAuth, h.Users.UpdateMe)
			users.GET("/subscriptions", requireAuth, h.Users.ListSubscriptions)
			users.GET("/:id", optionalAuth, h.Users.GetUser)
			users.POST("/:id/subscribe", requireAuth, h.Users.Subscribe)
			users.DELETE("/:id/subscribe", requireAuth, h.Users.Unsubscribe)
		}
	}
}
