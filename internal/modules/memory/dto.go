package memory

import (
	"time"

	"github.com/memloc/core/internal/models"
)

// CreateDTO is the payload for placing a memory.
type CreateDTO struct {
	Latitude         *float64   `json:"latitude" binding:"required"`
	Longitude        *float64   `json:"longitude" binding:"required"`
	RadiusM          float64    `json:"radius_m"`
	Visibility       string     `json:"visibility"`
	Title            string     `json:"title" binding:"required"`
	ShortDescription string     `json:"short_description"`
	Body             string     `json:"body"`
	Tags             []string   `json:"tags"`
	ExpiresAt        *time.Time `json:"expires_at"`
	JourneyID        *string    `json:"journey_id"`
	JourneyStep      *int       `json:"journey_step"`
	RequiresLocation *bool      `json:"requires_location"`
	RequiresFollow   bool       `json:"requires_followers"`
	Passcode         string     `json:"passcode"`
	AvailableFrom    *time.Time `json:"available_from"`
	TargetHandles    []string   `json:"target_handles"`
	AssetIDs         []string   `json:"asset_ids"`
}

// unlockRequest is the unlock endpoint payload.
type unlockRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Passcode  string   `json:"passcode"`
}

// visibilityPatch is the visibility update payload.
type visibilityPatch struct {
	Visibility string `json:"visibility" binding:"required"`
	Journey    bool   `json:"journey"`
}

// Marker is the listing projection: enough to place a pin on the map and
// tease the content, never the locked body.
type Marker struct {
	ID               string             `json:"id"`
	OwnerID          string             `json:"owner_id"`
	OwnerHandle      string             `json:"owner_handle,omitempty"`
	Latitude         float64            `json:"latitude"`
	Longitude        float64            `json:"longitude"`
	RadiusM          float64            `json:"radius_m"`
	Visibility       models.Visibility  `json:"visibility"`
	Title            string             `json:"title"`
	ShortDescription string             `json:"short_description"`
	Tags             []string           `json:"tags"`
	Created          time.Time          `json:"created"`
	JourneyID        *string            `json:"journey_id,omitempty"`
	JourneyStep      *int               `json:"journey_step,omitempty"`
	UnlockCount      int                `json:"unlock_count"`
	Unlocked         bool               `json:"unlocked"`
	DistanceM        *float64           `json:"distance_m,omitempty"`
	Requirements     UnlockRequirements `json:"requirements"`
}

// UnlockRequirements are the advisory flags the client uses to render the
// unlock UI. The server-side gate re-validates every one of them.
type UnlockRequirements struct {
	Location      bool       `json:"location"`
	Followers     bool       `json:"followers"`
	Passcode      bool       `json:"passcode"`
	AvailableFrom *time.Time `json:"available_from,omitempty"`
}

// Detail is the single-memory payload. Body/BodyHTML are present only when
// the viewer is the owner or holds an unlock record.
type Detail struct {
	Marker
	Locked     bool                `json:"locked"`
	Body       string              `json:"body,omitempty"`
	BodyHTML   string              `json:"body_html,omitempty"`
	ExpiresAt  *time.Time          `json:"expires_at,omitempty"`
	UnlockedAt *time.Time          `json:"unlocked_at,omitempty"`
	Assets     []models.AssetModel `json:"assets,omitempty"`
}

func requirementsOf(m *models.MemoryModel) UnlockRequirements {
	return UnlockRequirements{
		Location:      m.RequiresLocation,
		Followers:     m.RequiresFollow || m.Visibility == models.VisibilityFollowers,
		Passcode:      m.RequiresPasscode,
		AvailableFrom: m.AvailableFrom,
	}
}

func markerOf(m *models.MemoryModel, unlocked bool) Marker {
	mk := Marker{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Latitude:         m.Latitude,
		Longitude:        m.Longitude,
		RadiusM:          m.RadiusM,
		Visibility:       m.Visibility,
		Title:            m.Title,
		ShortDescription: m.ShortDescription,
		Tags:             m.Tags,
		Created:          m.CreatedAt,
		JourneyID:        m.JourneyID,
		JourneyStep:      m.JourneyStep,
		UnlockCount:      m.UnlockCount,
		Unlocked:         unlocked,
		Requirements:     requirementsOf(m),
	}
	if m.Owner != nil {
		mk.OwnerHandle = m.Owner.Handle
	}
	if mk.Tags == nil {
		mk.Tags = []string{}
	}
	return mk
}
