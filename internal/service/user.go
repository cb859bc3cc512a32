package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// UserService covers profiles, avatars and the subscription graph.
type UserService struct {
	db            *gorm.DB
	images        *ImageService
	defaultAvatar string
}

func NewUserService(db *gorm.DB, images *ImageService, defaultAvatar string) *UserService {
	return &UserService{
		db:            db,
		images:        images,
		defaultAvatar: defaultAvatar,
	}
}

// Get returns one user by id.
func (s *UserService) Get(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns a page of users ordered by id.
func (s *UserService) List(offset, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	if err := s.db.Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// AvatarURL resolves a user's avatar to a public URL, falling back to
// the configured placeholder.
func (s *UserService) AvatarURL(user *models.User) string {
	name := user.Avatar
	if name == "" {
		name = s.defaultAvatar
	}
	return s.images.URL(name)
}

// SetAvatar stores a new avatar image and returns its public URL.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, payload string) (string, error) {
	user, err := s.Get(userID)
	if err != nil {
		return "", err
	}
	objectName, err := s.images.SaveAvatar(ctx, payload)
	if err != nil {
		return "", newValidationError("avatar", "%s", err.Error())
	}
	if user.Avatar != "" && user.Avatar != s.defaultAvatar {
		_ = s.images.Delete(ctx, user.Avatar)
	}
	if err := s.db.Model(user).Update("avatar", objectName).Error; err != nil {
		return "", err
	}
	return s.images.URL(objectName), nil
}

// DeleteAvatar resets the avatar back to the default placeholder.
func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) error {
	user, err := s.Get(userID)
	if err != nil {
		return err
	}
	if user.Avatar != "" && user.Avatar != s.defaultAvatar {
		_ = s.images.Delete(ctx, user.Avatar)
	}
	return s.db.Model(user).Update("avatar", "").Error
}

// IsSubscribed reports whether user follows author. Anonymous callers
// (userID == 0) are never subscribed.
func (s *UserService) IsSubscribed(userID, authorID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := s.db.Model(&models.Subscription{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

// Subscribe creates a follower edge from user to author.
func (s *UserService) Subscribe(userID, authorID uint) (*models.User, error) {
	author, err := s.Get(authorID)
	if err != nil {
		return nil, err
	}
	if userID == authorID {
		return nil, newConflictError("you cannot subscribe to yourself")
	}
	subscribed, err := s.IsSubscribed(userID, authorID)
	if err != nil {
		return nil, err
	}
	if subscribed {
		return nil, newConflictError("you are already subscribed to %s", author.Username)
	}
	sub := models.Subscription{UserID: userID, AuthorID: authorID}
	if err := s.db.Create(&sub).Error; err != nil {
		// Concurrent duplicate adds race down to the unique constraint.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newConflictError("you are already subscribed to %s", author.Username)
		}
		return nil, err
	}
	return author, nil
}

// Unsubscribe removes the follower edge from user to author.
func (s *UserService) Unsubscribe(userID, authorID uint) error {
	if _, err := s.Get(authorID); err != nil {
		return err
	}
	res := s.db.Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return newConflictError("you are not subscribed to this user")
	}
	return nil
}

// Subscriptions returns a page of the authors the user follows, oldest
// subscription first.
func (s *UserService) Subscriptions(userID uint, offset, limit int) ([]models.User, int64, error) {
	base := s.db.Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var authors []models.User
	if err := base.Order("subscriptions.id").Offset(offset).Limit(limit).Find(&authors).Error; err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}
