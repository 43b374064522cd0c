package memory

import (
	"fmt"
	"time"

	"github.com/memloc/core/internal/models"
	"github.com/memloc/core/internal/pkg/geo"
	"golang.org/x/crypto/bcrypt"
)

// UnlockAttempt carries the viewer-submitted unlock factors.
type UnlockAttempt struct {
	ViewerID  string
	Latitude  *float64
	Longitude *float64
	Passcode  string
}

// UnlockEnv is the per-request snapshot the gate evaluates against. The
// service assembles it from storage; the gate itself stays pure.
type UnlockEnv struct {
	Now       time.Time
	Following FollowingSet
	Targets   []string
	// PrevStepUnlocked is nil when the memory has no journey prerequisite
	// (not in a journey, step 1, or no memory occupies the previous step).
	PrevStepUnlocked *bool
}

// EvaluateUnlock runs every applicable unlock check in order and returns the
// first failure as a typed error, or nil when the viewer may unlock.
//
// The owner bypass is a single first-class rule here, as it is in CanView;
// owners are treated as pre-unlocked and never reach the factor checks.
func EvaluateUnlock(m *models.MemoryModel, att UnlockAttempt, env UnlockEnv) error {
	if att.ViewerID == m.OwnerID {
		return nil
	}

	// Visibility and targeting gate unlocking exactly as they gate viewing.
	if !CanView(m, att.ViewerID, env.Following, env.Targets) {
		return accessDenied(m, att.ViewerID, env.Targets)
	}
	// Follower gating can also be requested independently of visibility.
	if m.RequiresFollow && !env.Following.Contains(m.OwnerID) {
		return forbidden(ReasonFollowersOnly, "follow the owner to unlock this memory")
	}

	if m.AvailableFrom != nil && env.Now.Before(*m.AvailableFrom) {
		return forbidden(ReasonNotYetOpen,
			fmt.Sprintf("this memory opens at %s", m.AvailableFrom.UTC().Format(time.RFC3339)))
	}

	if m.RequiresLocation {
		if att.Latitude == nil || att.Longitude == nil {
			return badRequest("latitude and longitude are required to unlock")
		}
		lat, lng := *att.Latitude, *att.Longitude
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return badRequest("coordinates out of range")
		}
		// Boundary is inclusive: standing exactly on the fence counts.
		if geo.DistanceMeters(lat, lng, m.Latitude, m.Longitude) > m.RadiusM {
			return forbidden(ReasonTooFar, "you are too far away, move closer")
		}
	}

	if m.RequiresPasscode && m.PasscodeHash != "" {
		if att.Passcode == "" {
			return forbidden(ReasonPasscodeNeeded, "this memory needs a passcode")
		}
		if bcrypt.CompareHashAndPassword([]byte(m.PasscodeHash), []byte(att.Passcode)) != nil {
			return forbidden(ReasonWrongPasscode, "wrong passcode")
		}
	}

	if env.PrevStepUnlocked != nil && !*env.PrevStepUnlocked {
		return forbidden(ReasonPrevStepLocked, "unlock the previous step of the journey first")
	}

	return nil
}
