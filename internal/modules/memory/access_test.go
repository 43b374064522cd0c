package memory

import (
	"testing"

	"github.com/memloc/core/internal/models"
	"github.com/stretchr/testify/assert"
)

func mem(owner string, vis models.Visibility) *models.MemoryModel {
	return &models.MemoryModel{
		OwnerID:    owner,
		Visibility: vis,
		IsActive:   true,
	}
}

func TestCanListVisibilityMatrix(t *testing.T) {
	const owner = "user-a"
	follows := NewFollowingSet([]string{owner})
	noFollows := FollowingSet{}

	cases := []struct {
		name      string
		vis       models.Visibility
		viewer    string
		following FollowingSet
		want      bool
	}{
		{"public anonymous", models.VisibilityPublic, "", noFollows, true},
		{"public stranger", models.VisibilityPublic, "user-b", noFollows, true},
		{"followers non-follower denied", models.VisibilityFollowers, "user-b", noFollows, false},
		{"followers follower allowed", models.VisibilityFollowers, "user-c", follows, true},
		{"followers anonymous denied", models.VisibilityFollowers, "", follows, false},
		{"followers owner allowed without follow edge", models.VisibilityFollowers, owner, noFollows, true},
		{"unlisted never listed", models.VisibilityUnlisted, "user-b", follows, false},
		{"unlisted owner still listed", models.VisibilityUnlisted, owner, noFollows, true},
		{"private stranger denied", models.VisibilityPrivate, "user-b", follows, false},
		{"private owner allowed", models.VisibilityPrivate, owner, noFollows, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanList(mem(owner, tc.vis), tc.viewer, tc.following, nil)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTargetOverrideSupersedesVisibility(t *testing.T) {
	const owner = "user-a"
	targets := []string{"user-x"}

	// Public visibility does not help a non-targeted viewer.
	m := mem(owner, models.VisibilityPublic)
	assert.False(t, CanList(m, "user-y", FollowingSet{}, targets))
	assert.False(t, CanView(m, "user-y", FollowingSet{}, targets))

	// Targeted viewer and owner both pass, even on private visibility.
	p := mem(owner, models.VisibilityPrivate)
	assert.True(t, CanList(p, "user-x", FollowingSet{}, targets))
	assert.True(t, CanList(p, owner, FollowingSet{}, targets))

	// Anonymous viewers can never satisfy a target list.
	assert.False(t, CanList(m, "", FollowingSet{}, targets))
}

func TestCanViewUnlistedByDirectID(t *testing.T) {
	m := mem("user-a", models.VisibilityUnlisted)

	// Holding the id is the share link.
	assert.True(t, CanView(m, "user-b", FollowingSet{}, nil))
	assert.True(t, CanView(m, "", FollowingSet{}, nil))

	// But explicit targeting still narrows unlisted access.
	assert.False(t, CanView(m, "user-b", FollowingSet{}, []string{"user-x"}))
	assert.True(t, CanView(m, "user-x", FollowingSet{}, []string{"user-x"}))

	// Private stays private on the detail path.
	assert.False(t, CanView(mem("user-a", models.VisibilityPrivate), "user-b", FollowingSet{}, nil))
}

func TestClampRadius(t *testing.T) {
	assert.Equal(t, 20.0, ClampRadius(5))
	assert.Equal(t, 20.0, ClampRadius(20))
	assert.Equal(t, 80.0, ClampRadius(80))
	assert.Equal(t, 200.0, ClampRadius(200))
	assert.Equal(t, 200.0, ClampRadius(500))
}
