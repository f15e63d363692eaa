package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/gin-gonic/gin"
)

// UserController serves accounts and subscriptions
type UserController struct {
	users      services.UserService
	follows    services.FollowService
	pagination Pagination
}

func NewUserController(users services.UserService, follows services.FollowService, pagination Pagination) *UserController {
	return &UserController{users: users, follows: follows, pagination: pagination}
}

// Register godoc
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body services.RegisterInput true "Account details"
// @Success 201 {object} services.UserView
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Router /api/users [post]
func (uc *UserController) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	user, err := uc.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} PageResponse[services.UserView]
// @Router /api/users [get]
func (uc *UserController) ListUsers(c *gin.Context) {
	page, ok := uc.pagination.pageFrom(c)
	if !ok {
		return
	}

	result, err := uc.users.ListUsers(c.Request.Context(), requesterFrom(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(c, page, result))
}

// GetUser godoc
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} services.UserView
// @Failure 404 {object} models.APIError
// @Router /api/users/{id} [get]
func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	user, err := uc.users.GetUser(c.Request.Context(), requesterFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} services.UserView
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/me [get]
func (uc *UserController) Me(c *gin.Context) {
	user, err := uc.users.Me(c.Request.Context(), requesterFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Update the current user
// @Description Partial update: omitted fields keep their value
// @Tags users
// @Accept json
// @Produce json
// @Param profile body services.UpdateProfileInput true "Profile fields to change"
// @Success 200 {object} services.UserView
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/me [patch]
func (uc *UserController) UpdateMe(c *gin.Context) {
	var req services.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	user, err := uc.users.UpdateMe(c.Request.Context(), requesterFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListSubscriptions godoc
// @Summary Followed authors
// @Description Authors the requester is subscribed to, with their newest recipes
// @Tags subscriptions
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param recipes_limit query int false "Maximum recipes listed per author"
// @Success 200 {object} PageResponse[services.SubscriptionView]
// @Security BearerAuth
// @Router /api/users/subscriptions [get]
func (uc *UserController) ListSubscriptions(c *gin.Context) {
	page, ok := uc.pagination.pageFrom(c)
	if !ok {
		return
	}
	recipesLimit, ok := recipesLimitFrom(c)
	if !ok {
		return
	}

	result, err := uc.follows.ListSubscriptions(c.Request.Context(), requesterFrom(c), page, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(c, page, result))
}

// Subscribe godoc
// @Summary Subscribe to an author
// @Tags subscriptions
// @Produce json
// @Param id path int true "Author user ID"
// @Param recipes_limit query int false "Maximum recipes listed"
// @Success 201 {object} services.SubscriptionView
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/{id}/subscribe [post]
func (uc *UserController) Subscribe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	recipesLimit, ok := recipesLimitFrom(c)
	if !ok {
		return
	}

	author, err := uc.follows.Subscribe(c.Request.Context(), requesterFrom(c), id, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, author)
}

// Unsubscribe godoc
// @Summary Unsubscribe from an author
// @Tags subscriptions
// @Param id path int true "Author user ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/{id}/subscribe [delete]
func (uc *UserController) Unsubscribe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := uc.follows.Unsubscribe(c.Request.Context(), requesterFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// recipesLimitFrom reads recipes_limit; -1 means no limit
func recipesLimitFrom(c *gin.Context) (int, bool) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return -1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondBadRequest(c, "Invalid recipes_limit", err)
		return 0, false
	}
	return n, true
}
