package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	service := NewFollowService(db)
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")
	tag := testutil.CreateTag(t, db, "lunch")
	salt := testutil.CreateIngredient(t, db, "salt", "g")
	for _, name := range []string{"Soup", "Stew", "Pie"} {
		testutil.CreateRecipe(t, db, author, name, []models.Tag{tag}, testutil.Portion{Ingredient: salt, Amount: 1})
	}

	view, err := service.Subscribe(ctx, AuthenticatedAs(fan.ID), author.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, author.ID, view.ID)
	assert.True(t, view.IsSubscribed)
	assert.Equal(t, int64(3), view.RecipesCount)
	assert.Len(t, view.Recipes, 2)

	_, err = service.Subscribe(ctx, AuthenticatedAs(fan.ID), author.ID, 2)
	assert.ErrorIs(t, err, models.ErrDuplicateFollow)

	_, err = service.Subscribe(ctx, AuthenticatedAs(fan.ID), 9999, 2)
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	_, err = service.Subscribe(ctx, Anonymous(), author.ID, 2)
	assert.ErrorIs(t, err, models.ErrAuthenticationRequired)
}

func TestSelfFollowIsAlwaysForbidden(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	service := NewFollowService(db)
	user := testutil.CreateUser(t, db, "narcissus")

	_, err := service.Subscribe(ctx, AuthenticatedAs(user.ID), user.ID, 0)
	assert.ErrorIs(t, err, models.ErrSelfFollowForbidden)

	var domainErr *models.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, models.KindForbidden, domainErr.Kind)

	// Also for an id that does not exist
	_, err = service.Subscribe(ctx, AuthenticatedAs(4242), 4242, 0)
	assert.ErrorIs(t, err, models.ErrSelfFollowForbidden)
}

func TestUnsubscribe(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	service := NewFollowService(db)
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")

	err := service.Unsubscribe(ctx, AuthenticatedAs(fan.ID), author.ID)
	assert.ErrorIs(t, err, models.ErrRelationNotFound)

	_, err = service.Subscribe(ctx, AuthenticatedAs(fan.ID), author.ID, 0)
	require.NoError(t, err)
	require.NoError(t, service.Unsubscribe(ctx, AuthenticatedAs(fan.ID), author.ID))

	err = service.Unsubscribe(ctx, AuthenticatedAs(fan.ID), 9999)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestListSubscriptions(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	service := NewFollowService(db)
	fan := testutil.CreateUser(t, db, "fan")
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	testutil.CreateUser(t, db, "carol")
	tag := testutil.CreateTag(t, db, "lunch")
	salt := testutil.CreateIngredient(t, db, "salt", "g")
	testutil.CreateRecipe(t, db, bob, "Toast", []models.Tag{tag}, testutil.Portion{Ingredient: salt, Amount: 1})

	for _, author := range []models.User{bob, alice} {
		_, err := service.Subscribe(ctx, AuthenticatedAs(fan.ID), author.ID, 0)
		require.NoError(t, err)
	}

	result, err := service.ListSubscriptions(ctx, AuthenticatedAs(fan.ID), Page{Number: 1, Size: 10}, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Count)
	require.Len(t, result.Results, 2)
	assert.Equal(t, "alice", result.Results[0].Username)
	assert.Empty(t, result.Results[0].Recipes)
	assert.Equal(t, "bob", result.Results[1].Username)
	assert.Equal(t, int64(1), result.Results[1].RecipesCount)
	assert.Equal(t, "Toast", result.Results[1].Recipes[0].Name)

	_, err = service.ListSubscriptions(ctx, Anonymous(), Page{Number: 1, Size: 10}, -1)
	assert.ErrorIs(t, err, models.ErrAuthenticationRequired)
}
