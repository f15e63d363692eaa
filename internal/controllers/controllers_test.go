package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = []byte("test-jwt-secret-key-32-characters")

func init() {
	gin.SetMode(gin.TestMode)
}

type apiFixture struct {
	db     *gorm.DB
	router *gin.Engine
}

func newAPIFixture(t *testing.T) apiFixture {
	db := testutil.NewDB(t)
	router := gin.New()
	SetupRoutes(router, NewHandlers(db, Pagination{DefaultSize: 6, MaxSize: 100}), testSecret, nil)
	return apiFixture{db: db, router: router}
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid":  fmt.Sprint(user.ID),
		"role": user.Role,
		"iat":  time.Now().Add(-time.Minute).Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func (f apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func assertAPIError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	assert.Equal(t, code, decode[models.APIError](t, w).Code)
}

func TestRecipeLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	author := testutil.CreateUser(t, f.db, "author")
	reader := testutil.CreateUser(t, f.db, "reader")
	lunch := testutil.CreateTag(t, f.db, "lunch")
	flour := testutil.CreateIngredient(t, f.db, "Flour", "g")
	sugar := testutil.CreateIngredient(t, f.db, "Sugar", "g")
	authorToken, readerToken := tokenFor(t, author), tokenFor(t, reader)

	payload := map[string]interface{}{
		"ingredients":  []map[string]interface{}{{"id": flour.ID, "amount": 200}, {"id": sugar.ID, "amount": 50}},
		"tags":         []uint{lunch.ID},
		"image":        "data:image/png;base64,iVBORw0KGgo=",
		"name":         "Cake",
		"text":         "Bake it.",
		"cooking_time": 45,
	}

	w := f.do(t, http.MethodPost, "/api/recipes", "", payload)
	assertAPIError(t, w, http.StatusUnauthorized, models.CodeUnauthorized)

	w = f.do(t, http.MethodPost, "/api/recipes", authorToken, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[services.RecipeView](t, w)
	assert.Equal(t, "Cake", created.Name)
	assert.Len(t, created.Ingredients, 2)
	recipePath := fmt.Sprintf("/api/recipes/%d", created.ID)

	t.Run("anonymous read has false flags", func(t *testing.T) {
		w := f.do(t, http.MethodGet, recipePath, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		view := decode[services.RecipeView](t, w)
		assert.False(t, view.IsFavorited)
		assert.False(t, view.IsInShoppingCart)
	})

	t.Run("favorite twice conflicts", func(t *testing.T) {
		w := f.do(t, http.MethodPost, recipePath+"/favorite", readerToken, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		short := decode[services.RecipeShortView](t, w)
		assert.Equal(t, services.RecipeShortView{ID: created.ID, Name: "Cake", Image: created.Image, CookingTime: 45}, short)

		w = f.do(t, http.MethodPost, recipePath+"/favorite", readerToken, nil)
		assertAPIError(t, w, http.StatusConflict, models.CodeDuplicateRelation)

		w = f.do(t, http.MethodGet, recipePath, readerToken, nil)
		assert.True(t, decode[services.RecipeView](t, w).IsFavorited)

		w = f.do(t, http.MethodDelete, recipePath+"/favorite", readerToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = f.do(t, http.MethodDelete, recipePath+"/favorite", readerToken, nil)
		assertAPIError(t, w, http.StatusNotFound, models.CodeRelationNotFound)
	})

	t.Run("shopping cart download", func(t *testing.T) {
		w := f.do(t, http.MethodPost, recipePath+"/shopping_cart", readerToken, nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w = f.do(t, http.MethodGet, "/api/recipes/download_shopping_cart", readerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "attachment; filename=shopping_cart.txt", w.Header().Get("Content-Disposition"))
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
		assert.Equal(t, "Shopping list\n\n- Flour (g): 200\n- Sugar (g): 50\n", w.Body.String())

		w = f.do(t, http.MethodGet, "/api/recipes?is_in_shopping_cart=1", readerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(1), decode[PageResponse[services.RecipeView]](t, w).Count)

		w = f.do(t, http.MethodGet, "/api/recipes/download_shopping_cart", authorToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Shopping list\n\n", w.Body.String())
	})

	t.Run("only the author may modify", func(t *testing.T) {
		w := f.do(t, http.MethodPatch, recipePath, readerToken, payload)
		assertAPIError(t, w, http.StatusForbidden, models.CodeForbidden)

		w = f.do(t, http.MethodDelete, recipePath, readerToken, nil)
		assertAPIError(t, w, http.StatusForbidden, models.CodeForbidden)
	})

	t.Run("update without tags is rejected", func(t *testing.T) {
		partial := map[string]interface{}{
			"ingredients":  payload["ingredients"],
			"name":         "Renamed",
			"text":         "Bake it.",
			"cooking_time": 45,
		}
		w := f.do(t, http.MethodPatch, recipePath, authorToken, partial)
		assertAPIError(t, w, http.StatusBadRequest, models.CodeMissingRequiredCollection)
		assert.Equal(t, "tags", decode[models.APIError](t, w).Details["field"])

		w = f.do(t, http.MethodGet, recipePath, "", nil)
		assert.Equal(t, "Cake", decode[services.RecipeView](t, w).Name)
	})

	t.Run("update by author", func(t *testing.T) {
		updated := map[string]interface{}{
			"ingredients":  []map[string]interface{}{{"id": sugar.ID, "amount": 10}},
			"tags":         []uint{lunch.ID},
			"name":         "Sweet cake",
			"text":         "Bake it longer.",
			"cooking_time": 60,
		}
		w := f.do(t, http.MethodPut, recipePath, authorToken, updated)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		view := decode[services.RecipeView](t, w)
		assert.Equal(t, "Sweet cake", view.Name)
		assert.Equal(t, created.Image, view.Image)
		assert.Len(t, view.Ingredients, 1)
	})

	t.Run("delete by author", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, recipePath, authorToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = f.do(t, http.MethodGet, recipePath, "", nil)
		assertAPIError(t, w, http.StatusNotFound, models.CodeRecipeNotFound)
	})
}

func TestRecipeValidationErrors(t *testing.T) {
	f := newAPIFixture(t)
	author := testutil.CreateUser(t, f.db, "author")
	lunch := testutil.CreateTag(t, f.db, "lunch")
	flour := testutil.CreateIngredient(t, f.db, "Flour", "g")
	token := tokenFor(t, author)

	base := func() map[string]interface{} {
		return map[string]interface{}{
			"ingredients":  []map[string]interface{}{{"id": flour.ID, "amount": 1}},
			"tags":         []uint{lunch.ID},
			"image":        "data:image/png;base64,iVBORw0KGgo=",
			"name":         "Bread",
			"text":         "Knead.",
			"cooking_time": 30,
		}
	}

	testCases := []struct {
		name   string
		mutate func(map[string]interface{})
		status int
		code   string
	}{
		{"zero amount", func(p map[string]interface{}) {
			p["ingredients"] = []map[string]interface{}{{"id": flour.ID, "amount": 0}}
		}, http.StatusBadRequest, models.CodeInvalidQuantity},
		{"zero cooking time", func(p map[string]interface{}) { p["cooking_time"] = 0 }, http.StatusBadRequest, models.CodeInvalidDuration},
		{"no ingredients", func(p map[string]interface{}) { p["ingredients"] = []interface{}{} }, http.StatusBadRequest, models.CodeMissingRequiredCollection},
		{"duplicate ingredient", func(p map[string]interface{}) {
			p["ingredients"] = []map[string]interface{}{{"id": flour.ID, "amount": 1}, {"id": flour.ID, "amount": 2}}
		}, http.StatusConflict, models.CodeDuplicateIngredient},
		{"duplicate tag", func(p map[string]interface{}) { p["tags"] = []uint{lunch.ID, lunch.ID} }, http.StatusConflict, models.CodeDuplicateTag},
		{"unknown tag", func(p map[string]interface{}) { p["tags"] = []uint{999} }, http.StatusBadRequest, models.CodeUnknownTag},
		{"malformed body", func(p map[string]interface{}) { p["cooking_time"] = "soon" }, http.StatusBadRequest, models.CodeBadRequest},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(p)
			w := f.do(t, http.MethodPost, "/api/recipes", token, p)
			assertAPIError(t, w, tt.status, tt.code)
		})
	}

	w := f.do(t, http.MethodGet, "/api/recipes/abc", "", nil)
	assertAPIError(t, w, http.StatusBadRequest, models.CodeBadRequest)
}

func TestRecipeListPagination(t *testing.T) {
	f := newAPIFixture(t)
	author := testutil.CreateUser(t, f.db, "author")
	lunch := testutil.CreateTag(t, f.db, "lunch")
	salt := testutil.CreateIngredient(t, f.db, "salt", "g")
	for i := 0; i < 3; i++ {
		testutil.CreateRecipe(t, f.db, author, fmt.Sprintf("Dish %d", i), []models.Tag{lunch},
			testutil.Portion{Ingredient: salt, Amount: 1})
	}

	w := f.do(t, http.MethodGet, "/api/recipes?limit=2&tags=LUNCH", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[PageResponse[services.RecipeView]](t, w)
	assert.Equal(t, int64(3), page.Count)
	assert.Len(t, page.Results, 2)
	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "page=2")
	assert.Nil(t, page.Previous)

	w = f.do(t, http.MethodGet, "/api/recipes?limit=2&page=2", "", nil)
	page = decode[PageResponse[services.RecipeView]](t, w)
	assert.Len(t, page.Results, 1)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Contains(t, *page.Previous, "page=1")

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/recipes?author=%d", author.ID+1), "", nil)
	page = decode[PageResponse[services.RecipeView]](t, w)
	assert.Zero(t, page.Count)
	assert.NotNil(t, page.Results)

	w = f.do(t, http.MethodGet, "/api/recipes?page=0", "", nil)
	assertAPIError(t, w, http.StatusBadRequest, models.CodeBadRequest)

	w = f.do(t, http.MethodGet, "/api/recipes", "not-a-token", nil)
	assertAPIError(t, w, http.StatusUnauthorized, models.CodeUnauthorized)
}

func TestUserEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email": "ann@example.com", "username": "ann", "first_name": "Ann", "last_name": "Lee", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ann := decode[services.UserView](t, w)
	assert.NotContains(t, w.Body.String(), "password")

	w = f.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email": "ann@example.com", "username": "ann2", "first_name": "Ann", "last_name": "Lee", "password": "correct-horse",
	})
	assertAPIError(t, w, http.StatusConflict, models.CodeDuplicateEmail)

	w = f.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email": "bob@example.com", "username": "bob smith", "first_name": "Bob", "last_name": "Smith", "password": "correct-horse",
	})
	assertAPIError(t, w, http.StatusBadRequest, models.CodeInvalidIdentifier)

	bob := testutil.CreateUser(t, f.db, "bob")
	var annUser models.User
	require.NoError(t, f.db.First(&annUser, ann.ID).Error)
	annToken := tokenFor(t, annUser)

	w = f.do(t, http.MethodGet, "/api/users/me", annToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ann", decode[services.UserView](t, w).Username)

	w = f.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe", ann.ID), annToken, nil)
	assertAPIError(t, w, http.StatusForbidden, models.CodeSelfFollowForbidden)

	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe?recipes_limit=1", bob.ID), annToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sub := decode[services.SubscriptionView](t, w)
	assert.True(t, sub.IsSubscribed)
	assert.Equal(t, "bob", sub.Username)

	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe", bob.ID), annToken, nil)
	assertAPIError(t, w, http.StatusConflict, models.CodeDuplicateFollow)

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", bob.ID), annToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[services.UserView](t, w).IsSubscribed)

	w = f.do(t, http.MethodGet, "/api/users/subscriptions", annToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	subs := decode[PageResponse[services.SubscriptionView]](t, w)
	assert.Equal(t, int64(1), subs.Count)

	w = f.do(t, http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), decode[PageResponse[services.UserView]](t, w).Count)

	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d/subscribe", bob.ID), annToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d/subscribe", bob.ID), annToken, nil)
	assertAPIError(t, w, http.StatusNotFound, models.CodeRelationNotFound)

	w = f.do(t, http.MethodGet, "/api/users/999", "", nil)
	assertAPIError(t, w, http.StatusNotFound, models.CodeUserNotFound)
}

func TestUpdateMeEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	ann := testutil.CreateUser(t, f.db, "ann")
	testutil.CreateUser(t, f.db, "bob")
	annToken := tokenFor(t, ann)

	w := f.do(t, http.MethodPatch, "/api/users/me", annToken, map[string]string{"last_name": "Lee"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[services.UserView](t, w)
	assert.Equal(t, "Lee", view.LastName)
	assert.Equal(t, "ann", view.Username)

	w = f.do(t, http.MethodGet, "/api/users/me", annToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lee", decode[services.UserView](t, w).LastName)

	w = f.do(t, http.MethodPatch, "/api/users/me", annToken, map[string]string{"email": "BOB@example.com"})
	assertAPIError(t, w, http.StatusConflict, models.CodeDuplicateEmail)

	w = f.do(t, http.MethodPatch, "/api/users/me", annToken, map[string]string{"username": "bob"})
	assertAPIError(t, w, http.StatusConflict, models.CodeDuplicateUsername)

	w = f.do(t, http.MethodPatch, "/api/users/me", annToken, map[string]string{"username": "ann lee"})
	assertAPIError(t, w, http.StatusBadRequest, models.CodeInvalidIdentifier)

	w = f.do(t, http.MethodPatch, "/api/users/me", "", map[string]string{"last_name": "Nobody"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecipeCreationIsRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db := testutil.NewDB(t)
	router := gin.New()
	SetupRoutes(router, NewHandlers(db, Pagination{DefaultSize: 6, MaxSize: 100}), testSecret,
		middleware.NewRecipeCreationRateLimiter(client, 1))
	f := apiFixture{db: db, router: router}

	author := testutil.CreateUser(t, db, "author")
	other := testutil.CreateUser(t, db, "other")
	lunch := testutil.CreateTag(t, db, "lunch")
	flour := testutil.CreateIngredient(t, db, "Flour", "g")
	payload := map[string]interface{}{
		"ingredients":  []map[string]interface{}{{"id": flour.ID, "amount": 100}},
		"tags":         []uint{lunch.ID},
		"image":        "data:image/png;base64,iVBORw0KGgo=",
		"name":         "Bread",
		"text":         "Knead and bake.",
		"cooking_time": 60,
	}

	w := f.do(t, http.MethodPost, "/api/recipes", tokenFor(t, author), payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = f.do(t, http.MethodPost, "/api/recipes", tokenFor(t, author), payload)
	assertAPIError(t, w, http.StatusTooManyRequests, models.CodeTooManyRequests)

	w = f.do(t, http.MethodPost, "/api/recipes", tokenFor(t, other), payload)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestReferenceDataEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	admin := testutil.CreateUser(t, f.db, "admin")
	admin.Role = models.RoleAdmin
	user := testutil.CreateUser(t, f.db, "user")

	w := f.do(t, http.MethodPost, "/api/tags", tokenFor(t, user), map[string]string{"name": "Brunch", "slug": "brunch"})
	assertAPIError(t, w, http.StatusForbidden, models.CodeForbidden)

	w = f.do(t, http.MethodPost, "/api/tags", tokenFor(t, admin), map[string]string{"name": "Brunch", "slug": "brunch", "color": "#E26C2D"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tag := decode[models.Tag](t, w)

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/tags/%d", tag.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "brunch", decode[models.Tag](t, w).Slug)

	w = f.do(t, http.MethodGet, "/api/tags", "", nil)
	assert.Len(t, decode[[]models.Tag](t, w), 1)

	w = f.do(t, http.MethodPost, "/api/ingredients", tokenFor(t, admin), map[string]string{"name": "Oat milk", "measurement_unit": "ml"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/ingredients?name=oat", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ingredients := decode[[]models.Ingredient](t, w)
	require.Len(t, ingredients, 1)
	assert.Equal(t, "ml", ingredients[0].MeasurementUnit)

	w = f.do(t, http.MethodGet, "/api/ingredients/999", "", nil)
	assertAPIError(t, w, http.StatusNotFound, models.CodeIngredientNotFound)
}
