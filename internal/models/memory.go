package models

import "time"

// Visibility controls who can discover a memory absent explicit targeting.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityFollowers Visibility = "followers"
	VisibilityUnlisted  Visibility = "unlisted"
	VisibilityPrivate   Visibility = "private"
)

// Valid reports whether v is a known visibility value.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFollowers, VisibilityUnlisted, VisibilityPrivate:
		return true
	}
	return false
}

// Unlock radius bounds in meters. Client-submitted values are clamped into
// this range at creation time.
const (
	MinUnlockRadiusM = 20
	MaxUnlockRadiusM = 200
)

// MemoryModel is a geotagged note. Separate decimal lat/lng columns keep the
// bounding-box pre-filter a plain indexed range query.
type MemoryModel struct {
	Base
	OwnerID          string      `json:"owner_id"          gorm:"index;not null"`
	Latitude         float64     `json:"latitude"          gorm:"type:decimal(10,8);not null;index:idx_memories_lat_lng"`
	Longitude        float64     `json:"longitude"         gorm:"type:decimal(11,8);not null;index:idx_memories_lat_lng"`
	RadiusM          float64     `json:"radius_m"          gorm:"not null"`
	Visibility       Visibility  `json:"visibility"        gorm:"type:varchar(16);not null;index"`
	Title            string      `json:"title"             gorm:"not null"`
	ShortDescription string      `json:"short_description"`
	Body             string      `json:"body"              gorm:"type:longtext"`
	Tags             StringArray `json:"tags"              gorm:"type:longtext"`
	ExpiresAt        *time.Time  `json:"expires_at"        gorm:"index"`
	JourneyID        *string     `json:"journey_id"        gorm:"index:idx_memories_journey_step,unique"`
	JourneyStep      *int        `json:"journey_step"      gorm:"index:idx_memories_journey_step,unique"`
	RequiresLocation bool        `json:"requires_location" gorm:"default:true"`
	RequiresFollow   bool        `json:"requires_followers" gorm:"column:requires_followers"`
	RequiresPasscode bool        `json:"requires_passcode"`
	PasscodeHash     string      `json:"-"                 gorm:"column:passcode_hash"`
	AvailableFrom    *time.Time  `json:"available_from"`
	IsActive         bool        `json:"is_active"         gorm:"default:true;index"`
	UnlockCount      int         `json:"unlock_count"      gorm:"default:0"`
	Assets           []AssetModel `json:"assets,omitempty" gorm:"foreignKey:MemoryID"`
	Owner            *UserModel   `json:"owner,omitempty"  gorm:"foreignKey:OwnerID"`
}

func (MemoryModel) TableName() string { return "memories" }

// Expired reports whether the memory's expiry instant has passed.
func (m *MemoryModel) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && m.ExpiresAt.Before(now)
}

// InJourney reports whether the memory belongs to a journey. The model
// invariant is that JourneyID and a positive JourneyStep are set together.
func (m *MemoryModel) InJourney() bool {
	return m.JourneyID != nil && m.JourneyStep != nil && *m.JourneyStep > 0
}

// MemoryTarget grants one user access to one memory regardless of its
// visibility. A non-empty target list supersedes the visibility field.
type MemoryTarget struct {
	Base
	MemoryID string `json:"memory_id" gorm:"uniqueIndex:idx_memory_targets_pair;not null"`
	UserID   string `json:"user_id"   gorm:"uniqueIndex:idx_memory_targets_pair;not null"`
}

func (MemoryTarget) TableName() string { return "memory_targets" }

// MemoryUnlock records that a user has unlocked a memory. At most one row per
// (memory, user) pair; repeat unlocks overwrite the coordinates only, the
// original UnlockedAt stays authoritative.
type MemoryUnlock struct {
	Base
	MemoryID   string    `json:"memory_id"   gorm:"uniqueIndex:idx_memory_unlocks_pair;not null"`
	UserID     string    `json:"user_id"     gorm:"uniqueIndex:idx_memory_unlocks_pair;not null"`
	UnlockedAt time.Time `json:"unlocked_at" gorm:"not null"`
	Latitude   float64   `json:"latitude"    gorm:"type:decimal(10,8)"`
	Longitude  float64   `json:"longitude"   gorm:"type:decimal(11,8)"`
}

func (MemoryUnlock) TableName() string { return "memory_unlocks" }

// AssetModel references an uploaded media file attached to a memory.
type AssetModel struct {
	Base
	MemoryID     *string `json:"memory_id"  gorm:"index"`
	UploaderID   string  `json:"-"          gorm:"index;not null"`
	FileName     string  `json:"file_name"  gorm:"uniqueIndex;not null"`
	OriginalName string  `json:"original_name"`
	MimeType     string  `json:"mime_type"`
	SizeBytes    int64   `json:"size_bytes"`
	RemoteURL    string  `json:"remote_url,omitempty"`
}

func (AssetModel) TableName() string { return "assets" }
