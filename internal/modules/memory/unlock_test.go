package memory

import (
	"testing"
	"time"

	"github.com/memloc/core/internal/models"
	"github.com/memloc/core/internal/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func f64(v float64) *float64 { return &v }

func unlockable(owner string) *models.MemoryModel {
	m := mem(owner, models.VisibilityPublic)
	m.Latitude = 48.8566
	m.Longitude = 2.3522
	m.RadiusM = 100
	m.RequiresLocation = true
	return m
}

func attemptAt(viewer string, lat, lng float64) UnlockAttempt {
	return UnlockAttempt{ViewerID: viewer, Latitude: f64(lat), Longitude: f64(lng)}
}

func env() UnlockEnv {
	return UnlockEnv{Now: time.Now(), Following: FollowingSet{}}
}

func requireForbidden(t *testing.T, err error, reason string) {
	t.Helper()
	var fe *ForbiddenError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, reason, fe.Reason)
}

func TestUnlockOwnerAlwaysPasses(t *testing.T) {
	m := unlockable("user-a")
	m.Visibility = models.VisibilityPrivate
	m.RequiresPasscode = true
	m.PasscodeHash = "whatever"

	// No coordinates, no passcode, private visibility: owner still passes.
	err := EvaluateUnlock(m, UnlockAttempt{ViewerID: "user-a"}, env())
	assert.NoError(t, err)
}

func TestUnlockVisibilityChecks(t *testing.T) {
	t.Run("private denied", func(t *testing.T) {
		m := unlockable("user-a")
		m.Visibility = models.VisibilityPrivate
		err := EvaluateUnlock(m, attemptAt("user-b", m.Latitude, m.Longitude), env())
		requireForbidden(t, err, ReasonPrivate)
	})

	t.Run("followers denied without relation", func(t *testing.T) {
		m := unlockable("user-a")
		m.Visibility = models.VisibilityFollowers
		err := EvaluateUnlock(m, attemptAt("user-b", m.Latitude, m.Longitude), env())
		requireForbidden(t, err, ReasonFollowersOnly)
	})

	t.Run("followers allowed with relation", func(t *testing.T) {
		m := unlockable("user-a")
		m.Visibility = models.VisibilityFollowers
		e := env()
		e.Following = NewFollowingSet([]string{"user-a"})
		err := EvaluateUnlock(m, attemptAt("user-c", m.Latitude, m.Longitude), e)
		assert.NoError(t, err)
	})

	t.Run("target restriction", func(t *testing.T) {
		m := unlockable("user-a")
		e := env()
		e.Targets = []string{"user-x"}
		err := EvaluateUnlock(m, attemptAt("user-y", m.Latitude, m.Longitude), e)
		requireForbidden(t, err, ReasonNotTargeted)

		err = EvaluateUnlock(m, attemptAt("user-x", m.Latitude, m.Longitude), e)
		assert.NoError(t, err)
	})

	t.Run("access checked before location", func(t *testing.T) {
		// A denied viewer must learn nothing about the geofence.
		m := unlockable("user-a")
		m.Visibility = models.VisibilityPrivate
		err := EvaluateUnlock(m, attemptAt("user-b", 0, 0), env())
		requireForbidden(t, err, ReasonPrivate)
	})
}

func TestUnlockRequiresFollowIndependentOfVisibility(t *testing.T) {
	m := unlockable("user-a")
	m.RequiresFollow = true

	err := EvaluateUnlock(m, attemptAt("user-b", m.Latitude, m.Longitude), env())
	requireForbidden(t, err, ReasonFollowersOnly)

	e := env()
	e.Following = NewFollowingSet([]string{"user-a"})
	assert.NoError(t, EvaluateUnlock(m, attemptAt("user-b", m.Latitude, m.Longitude), e))
}

func TestUnlockAvailableFrom(t *testing.T) {
	m := unlockable("user-a")
	future := time.Now().Add(time.Hour)
	m.AvailableFrom = &future

	err := EvaluateUnlock(m, attemptAt("user-b", m.Latitude, m.Longitude), env())
	requireForbidden(t, err, ReasonNotYetOpen)

	past := time.Now().Add(-time.Hour)
	m.AvailableFrom = &past
	assert.NoError(t, EvaluateUnlock(m, attemptAt("user-b", m.Latitude, m.Longitude), env()))
}

func TestUnlockCoordinates(t *testing.T) {
	m := unlockable("user-a")

	t.Run("missing coordinates", func(t *testing.T) {
		err := EvaluateUnlock(m, UnlockAttempt{ViewerID: "user-b"}, env())
		var bre *BadRequestError
		require.ErrorAs(t, err, &bre)
	})

	t.Run("out of range coordinates", func(t *testing.T) {
		err := EvaluateUnlock(m, attemptAt("user-b", 91, 0), env())
		var bre *BadRequestError
		require.ErrorAs(t, err, &bre)
	})

	t.Run("location not required skips the geofence", func(t *testing.T) {
		remote := unlockable("user-a")
		remote.RequiresLocation = false
		err := EvaluateUnlock(remote, UnlockAttempt{ViewerID: "user-b"}, env())
		assert.NoError(t, err)
	})
}

func TestUnlockGeofenceBoundary(t *testing.T) {
	m := unlockable("user-a")
	// A point due east of the memory; set the radius to its exact distance
	// so the boundary itself is testable.
	lat, lng := m.Latitude, m.Longitude+0.001
	m.RadiusM = geo.DistanceMeters(m.Latitude, m.Longitude, lat, lng)

	t.Run("exactly on the fence passes", func(t *testing.T) {
		assert.NoError(t, EvaluateUnlock(m, attemptAt("user-b", lat, lng), env()))
	})

	t.Run("just beyond fails", func(t *testing.T) {
		err := EvaluateUnlock(m, attemptAt("user-b", lat, lng+0.0000002), env())
		requireForbidden(t, err, ReasonTooFar)
	})

	t.Run("well inside passes", func(t *testing.T) {
		assert.NoError(t, EvaluateUnlock(m, attemptAt("user-b", m.Latitude, m.Longitude), env()))
	})
}

func TestUnlockPasscode(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	m := unlockable("user-a")
	m.RequiresPasscode = true
	m.PasscodeHash = string(hash)

	at := func(passcode string) UnlockAttempt {
		att := attemptAt("user-b", m.Latitude, m.Longitude)
		att.Passcode = passcode
		return att
	}

	requireForbidden(t, EvaluateUnlock(m, at(""), env()), ReasonPasscodeNeeded)
	requireForbidden(t, EvaluateUnlock(m, at("wrong"), env()), ReasonWrongPasscode)
	assert.NoError(t, EvaluateUnlock(m, at("open sesame"), env()))
}

func TestUnlockJourneyOrdering(t *testing.T) {
	jid := "journey-1"
	step2 := 2
	m := unlockable("user-a")
	m.JourneyID = &jid
	m.JourneyStep = &step2

	att := attemptAt("user-b", m.Latitude, m.Longitude)

	t.Run("previous step locked", func(t *testing.T) {
		e := env()
		locked := false
		e.PrevStepUnlocked = &locked
		requireForbidden(t, EvaluateUnlock(m, att, e), ReasonPrevStepLocked)
	})

	t.Run("previous step unlocked", func(t *testing.T) {
		e := env()
		done := true
		e.PrevStepUnlocked = &done
		assert.NoError(t, EvaluateUnlock(m, att, e))
	})

	t.Run("gap in sequence means no prerequisite", func(t *testing.T) {
		assert.NoError(t, EvaluateUnlock(m, att, env()))
	})
}
