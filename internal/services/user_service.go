package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegisterInput is the payload of a sign up request
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

// UpdateProfileInput is a partial profile change. Nil fields are left as they are.
type UpdateProfileInput struct {
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	Username  *string `json:"username" validate:"omitempty,max=150"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
}

type UserService interface {
	// Register creates a regular account
	Register(ctx context.Context, in RegisterInput) (UserView, error)
	// GetUser returns a user profile as seen by the requester
	GetUser(ctx context.Context, r Requester, id uint) (UserView, error)
	// ListUsers returns one page of users ordered by id
	ListUsers(ctx context.Context, r Requester, page Page) (PageResult[UserView], error)
	// Me returns the requester's own profile
	Me(ctx context.Context, r Requester) (UserView, error)
	// UpdateMe applies a partial change to the requester's own profile
	UpdateMe(ctx context.Context, r Requester, in UpdateProfileInput) (UserView, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (UserView, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return UserView{}, err
	}
	if err := ValidateUsername(in.Username); err != nil {
		return UserView{}, err
	}

	user := models.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  in.Password,
		Role:      models.RoleUser,
	}
	if err := user.HashPassword(); err != nil {
		return UserView{}, fmt.Errorf("hash password: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAccountUnique(tx, user.Email, user.Username, 0); err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = s.resolveDuplicate(ctx, user.Email, user.Username, 0)
	}
	if err != nil {
		return UserView{}, err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
	return newUserView(user, false), nil
}

func (s *userService) GetUser(ctx context.Context, r Requester, id uint) (UserView, error) {
	db := s.db.WithContext(ctx)
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return UserView{}, err
	}
	subscribed, err := loadSubscriptions(db, r, []uint{user.ID})
	if err != nil {
		return UserView{}, err
	}
	return newUserView(*user, subscribed[user.ID]), nil
}

func (s *userService) ListUsers(ctx context.Context, r Requester, page Page) (PageResult[UserView], error) {
	db := s.db.WithContext(ctx)
	page = page.normalized()

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return PageResult[UserView]{}, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	if err := db.Order("id").Offset(page.Offset()).Limit(page.Size).Find(&users).Error; err != nil {
		return PageResult[UserView]{}, fmt.Errorf("list users: %w", err)
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	subscribed, err := loadSubscriptions(db, r, ids)
	if err != nil {
		return PageResult[UserView]{}, err
	}

	results := make([]UserView, 0, len(users))
	for _, u := range users {
		results = append(results, newUserView(u, subscribed[u.ID]))
	}
	return PageResult[UserView]{Count: count, Results: results}, nil
}

func (s *userService) Me(ctx context.Context, r Requester) (UserView, error) {
	if r.IsAnonymous() {
		return UserView{}, models.ErrAuthenticationRequired
	}
	user, err := s.GetUserByID(ctx, r.UserID)
	if err != nil {
		return UserView{}, err
	}
	return newUserView(*user, false), nil
}

func (s *userService) UpdateMe(ctx context.Context, r Requester, in UpdateProfileInput) (UserView, error) {
	if r.IsAnonymous() {
		return UserView{}, models.ErrAuthenticationRequired
	}

	updates := map[string]interface{}{}
	var email, username string
	for _, f := range []struct {
		column string
		value  **string
	}{
		{"email", &in.Email},
		{"username", &in.Username},
		{"first_name", &in.FirstName},
		{"last_name", &in.LastName},
	} {
		if *f.value == nil {
			continue
		}
		trimmed := strings.TrimSpace(**f.value)
		if trimmed == "" {
			return UserView{}, models.ErrValidationFailed.WithField(f.column).WithMessage("may not be blank")
		}
		*f.value = &trimmed
		updates[f.column] = trimmed
	}
	if err := validateStruct(in); err != nil {
		return UserView{}, err
	}
	if in.Email != nil {
		email = *in.Email
	}
	if in.Username != nil {
		username = *in.Username
		if err := ValidateUsername(username); err != nil {
			return UserView{}, err
		}
	}

	user, err := s.GetUserByID(ctx, r.UserID)
	if err != nil {
		return UserView{}, err
	}
	if len(updates) == 0 {
		return newUserView(*user, false), nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAccountUnique(tx, email, username, user.ID); err != nil {
			return err
		}
		if err := tx.Model(user).Updates(updates).Error; err != nil {
			return fmt.Errorf("update user %d: %w", user.ID, err)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = s.resolveDuplicate(ctx, email, username, user.ID)
	}
	if err != nil {
		return UserView{}, err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "fields": len(updates)}).Info("Profile updated")
	return s.Me(ctx, r)
}

// resolveDuplicate names the column behind a unique index violation that
// slipped past checkAccountUnique, typically a concurrent sign up.
func (s *userService) resolveDuplicate(ctx context.Context, email, username string, selfID uint) error {
	if err := checkAccountUnique(s.db.WithContext(ctx), email, username, selfID); err != nil {
		return err
	}
	return models.ErrAccountConflict
}

// checkAccountUnique compares email case-insensitively and username exactly.
// Empty values are not checked.
func checkAccountUnique(db *gorm.DB, email, username string, selfID uint) error {
	var count int64
	if email != "" {
		if err := db.Model(&models.User{}).
			Where("LOWER(email) = LOWER(?) AND id <> ?", email, selfID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if count > 0 {
			return models.ErrDuplicateEmail.WithField("email")
		}
	}
	if username != "" {
		if err := db.Model(&models.User{}).
			Where("username = ? AND id <> ?", username, selfID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if count > 0 {
			return models.ErrDuplicateUsername.WithField("username")
		}
	}
	return nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}
