package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"gorm.io/gorm"
)

// TagInput is the payload used by administrators to create a tag
type TagInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"omitempty,hexcolor,len=7"`
	Slug  string `json:"slug" validate:"required,max=200"`
}

// TagService exposes the tag reference data
type TagService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (models.Tag, error)
	// CreateTag is restricted to administrators
	CreateTag(ctx context.Context, r Requester, in TagInput) (models.Tag, error)
}

type tagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) TagService {
	return &tagService{db: db}
}

func (s *tagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *tagService) GetTag(ctx context.Context, id uint) (models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Tag{}, models.ErrTagNotFound
		}
		return models.Tag{}, fmt.Errorf("load tag %d: %w", id, err)
	}
	return tag, nil
}

func (s *tagService) CreateTag(ctx context.Context, r Requester, in TagInput) (models.Tag, error) {
	if !r.IsAdmin() {
		return models.Tag{}, models.ErrForbidden.WithMessage("only administrators may create tags")
	}
	if err := validateStruct(in); err != nil {
		return models.Tag{}, err
	}
	if !slugPattern.MatchString(in.Slug) {
		return models.Tag{}, models.ErrValidationFailed.WithField("slug").WithMessage("may only contain letters, digits, hyphens and underscores")
	}

	tag := models.Tag{Name: in.Name, Slug: in.Slug}
	if in.Color != "" {
		tag.Color = &in.Color
	}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Tag{}, models.ErrDuplicateTagSlug
		}
		return models.Tag{}, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}
