package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// IngredientInput is one ingredient record, used both by the admin endpoint
// and by the JSON seed file
type IngredientInput struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

// IngredientService exposes the ingredient reference data
type IngredientService interface {
	// ListIngredients returns ingredients whose name starts with prefix, ignoring case
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (models.Ingredient, error)
	// CreateIngredient is restricted to administrators
	CreateIngredient(ctx context.Context, r Requester, in IngredientInput) (models.Ingredient, error)
	// ImportIngredients loads a JSON array of ingredients, skipping existing
	// name and unit pairs. It returns how many rows were created.
	ImportIngredients(ctx context.Context, src io.Reader) (int, error)
}

type ingredientService struct {
	db *gorm.DB
}

func NewIngredientService(db *gorm.DB) IngredientService {
	return &ingredientService{db: db}
}

func (s *ingredientService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name").Order("id")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	}

	ingredients := []models.Ingredient{}
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

func (s *ingredientService) GetIngredient(ctx context.Context, id uint) (models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Ingredient{}, models.ErrIngredientNotFound
		}
		return models.Ingredient{}, fmt.Errorf("load ingredient %d: %w", id, err)
	}
	return ingredient, nil
}

func (s *ingredientService) CreateIngredient(ctx context.Context, r Requester, in IngredientInput) (models.Ingredient, error) {
	if !r.IsAdmin() {
		return models.Ingredient{}, models.ErrForbidden.WithMessage("only administrators may create ingredients")
	}
	if err := validateStruct(in); err != nil {
		return models.Ingredient{}, err
	}

	ingredient := models.Ingredient{Name: in.Name, MeasurementUnit: in.MeasurementUnit}
	if err := s.db.WithContext(ctx).Create(&ingredient).Error; err != nil {
		return models.Ingredient{}, fmt.Errorf("create ingredient: %w", err)
	}
	return ingredient, nil
}

func (s *ingredientService) ImportIngredients(ctx context.Context, src io.Reader) (int, error) {
	var rows []IngredientInput
	if err := json.NewDecoder(src).Decode(&rows); err != nil {
		return 0, fmt.Errorf("decode ingredients: %w", err)
	}

	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			if err := validateStruct(row); err != nil {
				return fmt.Errorf("ingredient #%d: %w", i, err)
			}
			var existing []models.Ingredient
			if err := tx.Where("name = ? AND measurement_unit = ?", row.Name, row.MeasurementUnit).
				Limit(1).Find(&existing).Error; err != nil {
				return fmt.Errorf("look up ingredient %q: %w", row.Name, err)
			}
			if len(existing) > 0 {
				continue
			}
			if err := tx.Create(&models.Ingredient{Name: row.Name, MeasurementUnit: row.MeasurementUnit}).Error; err != nil {
				return fmt.Errorf("import ingredient %q: %w", row.Name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{"total": len(rows), "created": created}).Info("Ingredients imported")
	return created, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
