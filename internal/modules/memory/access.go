package memory

import (
	"slices"

	"github.com/memloc/core/internal/models"
)

// FollowingSet is the set of owner ids the viewer follows, snapshotted once
// per request. Access decisions never query storage themselves.
type FollowingSet map[string]struct{}

// Contains reports whether the viewer follows the given user.
func (s FollowingSet) Contains(userID string) bool {
	_, ok := s[userID]
	return ok
}

// NewFollowingSet builds a set from a slice of followed user ids.
func NewFollowingSet(ids []string) FollowingSet {
	set := make(FollowingSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// CanList decides whether the viewer may see the memory in nearby/all
// listings. Denied memories are omitted entirely, not shown locked.
//
// A non-empty target list supersedes the visibility field: only the owner and
// the targeted users pass, visibility is not consulted. Unlisted memories
// never appear in listings; they are reachable only by direct id (CanView).
func CanList(m *models.MemoryModel, viewerID string, following FollowingSet, targets []string) bool {
	if len(targets) > 0 {
		return viewerID != "" && (viewerID == m.OwnerID || slices.Contains(targets, viewerID))
	}
	if viewerID != "" && viewerID == m.OwnerID {
		return true
	}
	switch m.Visibility {
	case models.VisibilityPublic:
		return true
	case models.VisibilityFollowers:
		return viewerID != "" && following.Contains(m.OwnerID)
	default:
		// unlisted, private, or anything unrecognized
		return false
	}
}

// CanView decides whether the viewer may fetch the memory detail by id. It
// matches CanList except that unlisted memories are allowed: holding the id
// is the share link. Explicit targeting still supersedes.
func CanView(m *models.MemoryModel, viewerID string, following FollowingSet, targets []string) bool {
	if len(targets) == 0 && m.Visibility == models.VisibilityUnlisted {
		return true
	}
	return CanList(m, viewerID, following, targets)
}

// accessDenied converts a failed CanView into the typed reason the unlock
// gate and detail endpoint report.
func accessDenied(m *models.MemoryModel, viewerID string, targets []string) *ForbiddenError {
	if len(targets) > 0 {
		return forbidden(ReasonNotTargeted, "this memory was left for someone else")
	}
	switch m.Visibility {
	case models.VisibilityFollowers:
		return forbidden(ReasonFollowersOnly, "only followers of the owner can open this memory")
	default:
		return forbidden(ReasonPrivate, "this memory is private")
	}
}
