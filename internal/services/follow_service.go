package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FollowService manages subscriptions between users
type FollowService interface {
	// Subscribe makes the requester follow the author
	Subscribe(ctx context.Context, r Requester, authorID uint, recipesLimit int) (SubscriptionView, error)
	// Unsubscribe removes an existing subscription
	Unsubscribe(ctx context.Context, r Requester, authorID uint) error
	// ListSubscriptions returns the authors the requester follows
	ListSubscriptions(ctx context.Context, r Requester, page Page, recipesLimit int) (PageResult[SubscriptionView], error)
}

type followService struct {
	db *gorm.DB
}

// NewFollowService creates a new instance of FollowService
func NewFollowService(db *gorm.DB) FollowService {
	return &followService{db: db}
}

func (s *followService) Subscribe(ctx context.Context, r Requester, authorID uint, recipesLimit int) (SubscriptionView, error) {
	if r.IsAnonymous() {
		return SubscriptionView{}, models.ErrAuthenticationRequired
	}
	// Checked before any lookup so self-follow fails regardless of stored state
	if r.UserID == authorID {
		return SubscriptionView{}, models.ErrSelfFollowForbidden
	}

	db := s.db.WithContext(ctx)
	var author models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&author, authorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrUserNotFound
			}
			return fmt.Errorf("load author %d: %w", authorID, err)
		}

		var existing int64
		if err := tx.Model(&models.Follow{}).
			Where("follower_id = ? AND author_id = ?", r.UserID, authorID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check subscription: %w", err)
		}
		if existing > 0 {
			return models.ErrDuplicateFollow
		}

		if err := tx.Create(&models.Follow{FollowerID: r.UserID, AuthorID: authorID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrDuplicateFollow
			}
			return fmt.Errorf("create subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return SubscriptionView{}, err
	}

	logrus.WithFields(logrus.Fields{"follower_id": r.UserID, "author_id": authorID}).Info("Subscription created")
	return s.subscriptionView(db, author, recipesLimit)
}

func (s *followService) Unsubscribe(ctx context.Context, r Requester, authorID uint) error {
	if r.IsAnonymous() {
		return models.ErrAuthenticationRequired
	}

	db := s.db.WithContext(ctx)
	var authors int64
	if err := db.Model(&models.User{}).Where("id = ?", authorID).Count(&authors).Error; err != nil {
		return fmt.Errorf("load author %d: %w", authorID, err)
	}
	if authors == 0 {
		return models.ErrUserNotFound
	}

	result := db.Where("follower_id = ? AND author_id = ?", r.UserID, authorID).Delete(&models.Follow{})
	if result.Error != nil {
		return fmt.Errorf("delete subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrRelationNotFound
	}
	return nil
}

func (s *followService) ListSubscriptions(ctx context.Context, r Requester, page Page, recipesLimit int) (PageResult[SubscriptionView], error) {
	if r.IsAnonymous() {
		return PageResult[SubscriptionView]{}, models.ErrAuthenticationRequired
	}

	db := s.db.WithContext(ctx)
	page = page.normalized()
	followed := db.Model(&models.Follow{}).Select("author_id").Where("follower_id = ?", r.UserID)

	var count int64
	if err := db.Model(&models.User{}).Where("id IN (?)", followed).Count(&count).Error; err != nil {
		return PageResult[SubscriptionView]{}, fmt.Errorf("count subscriptions: %w", err)
	}

	var authors []models.User
	if err := db.Where("id IN (?)", followed).
		Order("username").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&authors).Error; err != nil {
		return PageResult[SubscriptionView]{}, fmt.Errorf("list subscriptions: %w", err)
	}

	results := make([]SubscriptionView, 0, len(authors))
	for _, author := range authors {
		view, err := s.subscriptionView(db, author, recipesLimit)
		if err != nil {
			return PageResult[SubscriptionView]{}, err
		}
		results = append(results, view)
	}
	return PageResult[SubscriptionView]{Count: count, Results: results}, nil
}

// subscriptionView renders a followed author. A negative recipesLimit returns all recipes.
func (s *followService) subscriptionView(db *gorm.DB, author models.User, recipesLimit int) (SubscriptionView, error) {
	view := SubscriptionView{
		UserView: newUserView(author, true),
		Recipes:  []RecipeShortView{},
	}

	if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&view.RecipesCount).Error; err != nil {
		return SubscriptionView{}, fmt.Errorf("count recipes of %d: %w", author.ID, err)
	}

	var recipes []models.Recipe
	query := db.Where("author_id = ?", author.ID).Order("pub_date DESC").Order("id DESC")
	if recipesLimit >= 0 {
		query = query.Limit(recipesLimit)
	}
	if err := query.Find(&recipes).Error; err != nil {
		return SubscriptionView{}, fmt.Errorf("list recipes of %d: %w", author.ID, err)
	}
	for _, recipe := range recipes {
		view.Recipes = append(view.Recipes, newRecipeShortView(recipe))
	}
	return view, nil
}
