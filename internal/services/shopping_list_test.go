package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeIngredients(t *testing.T) {
	lines := []IngredientLine{
		{IngredientID: 1, Name: "flour", MeasurementUnit: "g", Amount: 200},
		{IngredientID: 2, Name: "sugar", MeasurementUnit: "g", Amount: 50},
		{IngredientID: 1, Name: "flour", MeasurementUnit: "g", Amount: 300},
		{IngredientID: 3, Name: "egg", MeasurementUnit: "pcs", Amount: 2},
	}

	merged := MergeIngredients(lines)

	assert.Equal(t, []AggregatedIngredient{
		{IngredientID: 3, Name: "egg", MeasurementUnit: "pcs", Amount: 2},
		{IngredientID: 1, Name: "flour", MeasurementUnit: "g", Amount: 500},
		{IngredientID: 2, Name: "sugar", MeasurementUnit: "g", Amount: 50},
	}, merged)
}

func TestMergeIngredientsKeepsDistinctIngredientsWithSameName(t *testing.T) {
	lines := []IngredientLine{
		{IngredientID: 7, Name: "milk", MeasurementUnit: "ml", Amount: 100},
		{IngredientID: 4, Name: "milk", MeasurementUnit: "ml", Amount: 20},
		{IngredientID: 5, Name: "milk", MeasurementUnit: "cup", Amount: 1},
	}

	merged := MergeIngredients(lines)

	require.Len(t, merged, 3)
	assert.Equal(t, uint(5), merged[0].IngredientID)
	assert.Equal(t, uint(4), merged[1].IngredientID)
	assert.Equal(t, uint(7), merged[2].IngredientID)
}

func TestMergeIngredientsOrdersNamesIgnoringCase(t *testing.T) {
	lines := []IngredientLine{
		{IngredientID: 1, Name: "flour", MeasurementUnit: "g", Amount: 500},
		{IngredientID: 2, Name: "Sugar", MeasurementUnit: "g", Amount: 50},
		{IngredientID: 3, Name: "Egg", MeasurementUnit: "pcs", Amount: 2},
		{IngredientID: 4, Name: "egg", MeasurementUnit: "pcs", Amount: 1},
	}

	merged := MergeIngredients(lines)

	names := make([]string, 0, len(merged))
	for _, item := range merged {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"Egg", "egg", "flour", "Sugar"}, names)
}

func TestMergeIngredientsEmpty(t *testing.T) {
	assert.Empty(t, MergeIngredients(nil))
}

func TestRenderShoppingList(t *testing.T) {
	var buf bytes.Buffer
	err := RenderShoppingList(&buf, []AggregatedIngredient{
		{Name: "egg", MeasurementUnit: "pcs", Amount: 2},
		{Name: "flour", MeasurementUnit: "g", Amount: 500},
	})
	require.NoError(t, err)
	assert.Equal(t, "Shopping list\n\n- egg (pcs): 2\n- flour (g): 500\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderShoppingList(&buf, nil))
	assert.Equal(t, ShoppingListHeader, buf.String())
}

func TestBuildShoppingList(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "chef")
	shopper := testutil.CreateUser(t, db, "shopper")
	tag := testutil.CreateTag(t, db, "dinner")
	flour := testutil.CreateIngredient(t, db, "Flour", "g")
	sugar := testutil.CreateIngredient(t, db, "Sugar", "g")
	egg := testutil.CreateIngredient(t, db, "Egg", "pcs")

	cake := testutil.CreateRecipe(t, db, author, "Cake", []models.Tag{tag},
		testutil.Portion{Ingredient: flour, Amount: 200},
		testutil.Portion{Ingredient: sugar, Amount: 50})
	bread := testutil.CreateRecipe(t, db, author, "Bread", []models.Tag{tag},
		testutil.Portion{Ingredient: flour, Amount: 300},
		testutil.Portion{Ingredient: egg, Amount: 2})
	testutil.CreateRecipe(t, db, author, "Omelette", []models.Tag{tag},
		testutil.Portion{Ingredient: egg, Amount: 3})

	service := NewShoppingListService(db)

	t.Run("empty cart yields no lines", func(t *testing.T) {
		items, err := service.BuildShoppingList(ctx, AuthenticatedAs(shopper.ID))
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("sums amounts across cart recipes", func(t *testing.T) {
		require.NoError(t, db.Create(&models.ShoppingCartEntry{UserID: shopper.ID, RecipeID: cake.ID}).Error)
		require.NoError(t, db.Create(&models.ShoppingCartEntry{UserID: shopper.ID, RecipeID: bread.ID}).Error)

		items, err := service.BuildShoppingList(ctx, AuthenticatedAs(shopper.ID))
		require.NoError(t, err)
		assert.Equal(t, []AggregatedIngredient{
			{IngredientID: egg.ID, Name: "Egg", MeasurementUnit: "pcs", Amount: 2},
			{IngredientID: flour.ID, Name: "Flour", MeasurementUnit: "g", Amount: 500},
			{IngredientID: sugar.ID, Name: "Sugar", MeasurementUnit: "g", Amount: 50},
		}, items)
	})

	t.Run("other users carts are not included", func(t *testing.T) {
		items, err := service.BuildShoppingList(ctx, AuthenticatedAs(author.ID))
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("anonymous requester is rejected", func(t *testing.T) {
		_, err := service.BuildShoppingList(ctx, Anonymous())
		assert.ErrorIs(t, err, models.ErrAuthenticationRequired)

		var domainErr *models.Error
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, models.KindForbidden, domainErr.Kind)
	})
}
