package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength = 200
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// IngredientAmount is one ingredient line of a recipe submission
type IngredientAmount struct {
	IngredientID uint `json:"id"`
	Amount       int  `json:"amount"`
}

// RecipeInput is the payload accepted when creating or updating a recipe.
// Image holds either a stored path or a data URI; decoding is done upstream.
type RecipeInput struct {
	Ingredients []IngredientAmount `json:"ingredients"`
	Tags        []uint             `json:"tags"`
	Image       string             `json:"image"`
	Name        string             `json:"name"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time"`
}

// ValidateRecipeInput checks a recipe submission before anything touches storage.
// References to ingredients and tags are checked later against the database.
func ValidateRecipeInput(in RecipeInput) error {
	if len(in.Ingredients) == 0 {
		return models.ErrMissingRequiredCollection.WithField("ingredients")
	}
	seenIngredients := make(map[uint]struct{}, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if item.Amount < 1 {
			return models.ErrInvalidQuantity.WithField("ingredients")
		}
		if _, dup := seenIngredients[item.IngredientID]; dup {
			return models.ErrDuplicateIngredient.WithField("ingredients")
		}
		seenIngredients[item.IngredientID] = struct{}{}
	}

	if len(in.Tags) == 0 {
		return models.ErrMissingRequiredCollection.WithField("tags")
	}
	seenTags := make(map[uint]struct{}, len(in.Tags))
	for _, id := range in.Tags {
		if _, dup := seenTags[id]; dup {
			return models.ErrDuplicateTag.WithField("tags")
		}
		seenTags[id] = struct{}{}
	}

	if in.CookingTime < 1 {
		return models.ErrInvalidDuration.WithField("cooking_time")
	}
	if strings.TrimSpace(in.Name) == "" {
		return models.ErrValidationFailed.WithField("name").WithMessage("is required")
	}
	if len([]rune(in.Name)) > maxNameLength {
		return models.ErrValidationFailed.WithField("name").WithMessage(fmt.Sprintf("must not exceed %d characters", maxNameLength))
	}
	if strings.TrimSpace(in.Text) == "" {
		return models.ErrValidationFailed.WithField("text").WithMessage("is required")
	}
	return nil
}

// ValidateUsername rejects usernames with characters outside [A-Za-z0-9_.@+-]
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return models.ErrInvalidIdentifier.WithField("username")
	}
	return nil
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs the `validate` tags and reports the first failing field
func validateStruct(s any) error {
	err := structValidator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return models.ErrValidationFailed.WithField(fe.Field()).WithMessage(friendlyMessage(fe))
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "hexcolor":
		return "must be a hex color such as #1A2B3C"
	default:
		return "is invalid"
	}
}
