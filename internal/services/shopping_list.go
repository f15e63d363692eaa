package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"gorm.io/gorm"
)

// ShoppingListHeader starts every rendered shopping list
const ShoppingListHeader = "Shopping list\n\n"

// IngredientLine is one raw ingredient usage of a recipe in the cart
type IngredientLine struct {
	IngredientID    uint
	Name            string
	MeasurementUnit string
	Amount          int
}

// AggregatedIngredient is a merged shopping list entry
type AggregatedIngredient struct {
	IngredientID    uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// ShoppingListService builds the aggregated ingredient list of a shopping cart
type ShoppingListService interface {
	// BuildShoppingList merges the ingredients of every recipe in the requester's cart
	BuildShoppingList(ctx context.Context, r Requester) ([]AggregatedIngredient, error)
}

type shoppingListService struct {
	db *gorm.DB
}

// NewShoppingListService creates a new instance of ShoppingListService
func NewShoppingListService(db *gorm.DB) ShoppingListService {
	return &shoppingListService{db: db}
}

func (s *shoppingListService) BuildShoppingList(ctx context.Context, r Requester) ([]AggregatedIngredient, error) {
	if r.IsAnonymous() {
		return nil, models.ErrAuthenticationRequired
	}

	// Cart and recipe ingredients are read in one transaction so a concurrent
	// recipe update cannot leave the list half old, half new.
	var lines []IngredientLine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart := tx.Model(&models.ShoppingCartEntry{}).
			Select("recipe_id").
			Where("user_id = ?", r.UserID)

		return tx.Model(&models.RecipeIngredient{}).
			Select("recipe_ingredients.ingredient_id AS ingredient_id, ingredients.name AS name, "+
				"ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
			Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
			Where("recipe_ingredients.recipe_id IN (?)", cart).
			Scan(&lines).Error
	}, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("load shopping cart ingredients: %w", err)
	}

	return MergeIngredients(lines), nil
}

// MergeIngredients sums amounts per ingredient. The result is ordered by name
// ignoring case, then measurement unit, then ingredient id.
func MergeIngredients(lines []IngredientLine) []AggregatedIngredient {
	index := make(map[uint]int, len(lines))
	merged := make([]AggregatedIngredient, 0, len(lines))
	for _, line := range lines {
		if i, ok := index[line.IngredientID]; ok {
			merged[i].Amount += line.Amount
			continue
		}
		index[line.IngredientID] = len(merged)
		merged = append(merged, AggregatedIngredient{
			IngredientID:    line.IngredientID,
			Name:            line.Name,
			MeasurementUnit: line.MeasurementUnit,
			Amount:          line.Amount,
		})
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name); la != lb {
			return la < lb
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.MeasurementUnit != b.MeasurementUnit {
			return a.MeasurementUnit < b.MeasurementUnit
		}
		return a.IngredientID < b.IngredientID
	})
	return merged
}

// RenderShoppingList writes the plain text document offered for download
func RenderShoppingList(w io.Writer, items []AggregatedIngredient) error {
	if _, err := io.WriteString(w, ShoppingListHeader); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "- %s (%s): %d\n", item.Name, item.MeasurementUnit, item.Amount); err != nil {
			return err
		}
	}
	return nil
}
