package follow

import (
	"errors"

	"github.com/memloc/core/internal/models"
	"github.com/memloc/core/internal/pkg/pagination"
	"github.com/memloc/core/internal/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrSelfFollow   = errors.New("cannot follow yourself")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) userByHandle(handle string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "handle = ?", handle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Follow creates the follower edge. Repeats are no-ops.
func (s *Service) Follow(followerID, handle string) error {
	target, err := s.userByHandle(handle)
	if err != nil {
		return err
	}
	if target.ID == followerID {
		return ErrSelfFollow
	}

	edge := models.FollowModel{FollowerID: followerID, FollowingID: target.ID}
	return s.db.
		Where("follower_id = ? AND following_id = ?", followerID, target.ID).
		FirstOrCreate(&edge).Error
}

// Unfollow removes the follower edge. Removing a non-existent edge is a
// no-op rather than an error.
func (s *Service) Unfollow(followerID, handle string) error {
	target, err := s.userByHandle(handle)
	if err != nil {
		return err
	}
	return s.db.
		Where("follower_id = ? AND following_id = ?", followerID, target.ID).
		Delete(&models.FollowModel{}).Error
}

// IsFollowing reports whether follower follows the given user.
func (s *Service) IsFollowing(followerID, followingID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.FollowModel{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

// Counts returns (followers, following) for a user.
func (s *Service) Counts(userID string) (int64, int64, error) {
	var followers, following int64
	if err := s.db.Model(&models.FollowModel{}).
		Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, err
	}
	if err := s.db.Model(&models.FollowModel{}).
		Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

// ListFollowing returns the users the given user follows, newest first.
func (s *Service) ListFollowing(userID string, q pagination.Query) ([]models.UserModel, response.Pagination, error) {
	tx := s.db.Model(&models.UserModel{}).
		Joins("JOIN follows f ON f.following_id = users.id AND f.deleted_at IS NULL").
		Where("f.follower_id = ?", userID).
		Order("f.created_at DESC")

	var users []models.UserModel
	pag, err := pagination.Paginate(tx, q, &users)
	return users, pag, err
}

// ListFollowers returns the users following the given user, newest first.
func (s *Service) ListFollowers(userID string, q pagination.Query) ([]models.UserModel, response.Pagination, error) {
	tx := s.db.Model(&models.UserModel{}).
		Joins("JOIN follows f ON f.follower_id = users.id AND f.deleted_at IS NULL").
		Where("f.following_id = ?", userID).
		Order("f.created_at DESC")

	var users []models.UserModel
	pag, err := pagination.Paginate(tx, q, &users)
	return users, pag, err
}
