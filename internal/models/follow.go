package models

// FollowModel is a directed follower edge: follower_id follows following_id.
// Access checks use it purely as a membership test.
type FollowModel struct {
	Base
	FollowerID  string `json:"follower_id"  gorm:"uniqueIndex:idx_follows_pair;not null"`
	FollowingID string `json:"following_id" gorm:"uniqueIndex:idx_follows_pair;not null;index"`
}

func (FollowModel) TableName() string { return "follows" }
