package models

import (
	"errors"
	"net/http"
)

// APIError represents a standardized error response for the API
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewAPIError creates a new API error with the given code and message
func NewAPIError(code, message string, details ...map[string]interface{}) APIError {
	err := APIError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// Error code constants
const (
	// General errors
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeInternalServer   = "INTERNAL_SERVER_ERROR"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"

	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"

	// Recipe payload errors
	CodeInvalidQuantity           = "INVALID_QUANTITY"
	CodeInvalidDuration           = "INVALID_DURATION"
	CodeDuplicateIngredient       = "DUPLICATE_INGREDIENT"
	CodeDuplicateTag              = "DUPLICATE_TAG"
	CodeMissingRequiredCollection = "MISSING_REQUIRED_COLLECTION"
	CodeUnknownIngredient         = "UNKNOWN_INGREDIENT"
	CodeUnknownTag                = "UNKNOWN_TAG"

	// Account errors
	CodeInvalidIdentifier = "INVALID_IDENTIFIER"
	CodeDuplicateEmail    = "DUPLICATE_EMAIL"
	CodeDuplicateUsername = "DUPLICATE_USERNAME"
	CodeUserNotFound      = "USER_NOT_FOUND"

	// Relation errors
	CodeSelfFollowForbidden = "SELF_FOLLOW_FORBIDDEN"
	CodeDuplicateFollow     = "DUPLICATE_FOLLOW"
	CodeDuplicateRelation   = "DUPLICATE_RELATION"
	CodeRelationNotFound    = "RELATION_NOT_FOUND"

	// Lookup errors
	CodeRecipeNotFound     = "RECIPE_NOT_FOUND"
	CodeTagNotFound        = "TAG_NOT_FOUND"
	CodeIngredientNotFound = "INGREDIENT_NOT_FOUND"
	CodeDuplicateTagSlug   = "DUPLICATE_TAG_SLUG"
)

// Kind classifies a domain error and decides its HTTP status
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
)

// HTTPStatus returns the response status used for errors of this kind
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error returned by services. Two errors match with
// errors.Is when their codes are equal, so callers can compare against the
// sentinels below even after Field or Message were customized.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithField returns a copy of the error bound to a payload field
func (e *Error) WithField(field string) *Error {
	c := *e
	c.Field = field
	return &c
}

// WithMessage returns a copy of the error with a more specific message
func (e *Error) WithMessage(message string) *Error {
	c := *e
	c.Message = message
	return &c
}

// APIError converts the domain error into its response body
func (e *Error) APIError() APIError {
	if e.Field == "" {
		return NewAPIError(e.Code, e.Message)
	}
	return NewAPIError(e.Code, e.Message, map[string]interface{}{"field": e.Field})
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidQuantity           = newError(KindValidation, CodeInvalidQuantity, "ingredient amount must be at least 1")
	ErrInvalidDuration           = newError(KindValidation, CodeInvalidDuration, "cooking time must be at least 1 minute")
	ErrMissingRequiredCollection = newError(KindValidation, CodeMissingRequiredCollection, "collection must not be empty")
	ErrUnknownIngredient         = newError(KindValidation, CodeUnknownIngredient, "ingredient does not exist")
	ErrUnknownTag                = newError(KindValidation, CodeUnknownTag, "tag does not exist")
	ErrInvalidIdentifier         = newError(KindValidation, CodeInvalidIdentifier, "username may only contain letters, digits and @/./+/-/_")
	ErrValidationFailed          = newError(KindValidation, CodeValidationFailed, "validation failed")
	ErrDuplicateIngredient       = newError(KindConflict, CodeDuplicateIngredient, "ingredients must not repeat")
	ErrDuplicateTag              = newError(KindConflict, CodeDuplicateTag, "tags must not repeat")
	ErrDuplicateEmail            = newError(KindConflict, CodeDuplicateEmail, "a user with this email already exists")
	ErrDuplicateUsername         = newError(KindConflict, CodeDuplicateUsername, "a user with this username already exists")
	ErrDuplicateFollow           = newError(KindConflict, CodeDuplicateFollow, "already subscribed to this author")
	ErrDuplicateRelation         = newError(KindConflict, CodeDuplicateRelation, "recipe is already in the list")
	ErrDuplicateTagSlug          = newError(KindConflict, CodeDuplicateTagSlug, "a tag with this name or slug already exists")
	ErrAccountConflict           = newError(KindConflict, CodeConflict, "account conflicts with an existing user")
	ErrAuthenticationRequired    = newError(KindForbidden, CodeAuthenticationRequired, "authentication credentials were not provided")
	ErrForbidden                 = newError(KindForbidden, CodeForbidden, "only the author may modify this recipe")
	ErrSelfFollowForbidden       = newError(KindForbidden, CodeSelfFollowForbidden, "users cannot subscribe to themselves")
	ErrRecipeNotFound            = newError(KindNotFound, CodeRecipeNotFound, "recipe not found")
	ErrRelationNotFound          = newError(KindNotFound, CodeRelationNotFound, "relation does not exist")
	ErrUserNotFound              = newError(KindNotFound, CodeUserNotFound, "user not found")
	ErrTagNotFound               = newError(KindNotFound, CodeTagNotFound, "tag not found")
	ErrIngredientNotFound        = newError(KindNotFound, CodeIngredientNotFound, "ingredient not found")
)
