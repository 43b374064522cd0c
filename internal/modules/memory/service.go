package memory

import (
	"errors"
	"fmt"
	"sort"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/memloc/core/internal/models"
	"github.com/memloc/core/internal/pkg/geo"
	"github.com/memloc/core/internal/pkg/markdown"
	"github.com/memloc/core/internal/pkg/pagination"
	"github.com/memloc/core/internal/pkg/response"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTags = 10

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ClampRadius forces the unlock radius into the allowed range. Part of the
// creation contract, not the HTTP layer.
func ClampRadius(r float64) float64 {
	if r < models.MinUnlockRadiusM {
		return models.MinUnlockRadiusM
	}
	if r > models.MaxUnlockRadiusM {
		return models.MaxUnlockRadiusM
	}
	return r
}

// Create places a new memory. Memory row, target rows and asset linking run
// in one transaction so a crash never leaves a half-created memory.
func (s *Service) Create(ownerID string, dto *CreateDTO) (*models.MemoryModel, error) {
	if dto.Latitude == nil || dto.Longitude == nil {
		return nil, badRequest("latitude and longitude are required")
	}
	lat, lng := *dto.Latitude, *dto.Longitude
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, badRequest("coordinates out of range")
	}

	vis := models.Visibility(dto.Visibility)
	if dto.Visibility == "" {
		vis = models.VisibilityPublic
	}
	if !vis.Valid() {
		return nil, badRequest("invalid visibility")
	}

	if len(dto.Tags) > maxTags {
		return nil, badRequest(fmt.Sprintf("at most %d tags allowed", maxTags))
	}

	if (dto.JourneyID == nil) != (dto.JourneyStep == nil) {
		return nil, badRequest("journey_id and journey_step must be set together")
	}
	if dto.JourneyStep != nil && *dto.JourneyStep < 1 {
		return nil, badRequest("journey_step must be a positive integer")
	}
	if dto.JourneyID != nil {
		var journey models.JourneyModel
		if err := s.db.First(&journey, "id = ?", *dto.JourneyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, badRequest("journey does not exist")
			}
			return nil, err
		}
		if journey.OwnerID != ownerID {
			return nil, forbidden(ReasonPrivate, "you do not own this journey")
		}
	}

	requiresLocation := true
	if dto.RequiresLocation != nil {
		requiresLocation = *dto.RequiresLocation
	}

	m := &models.MemoryModel{
		OwnerID:          ownerID,
		Latitude:         lat,
		Longitude:        lng,
		RadiusM:          ClampRadius(dto.RadiusM),
		Visibility:       vis,
		Title:            dto.Title,
		ShortDescription: dto.ShortDescription,
		Body:             dto.Body,
		Tags:             dto.Tags,
		ExpiresAt:        dto.ExpiresAt,
		JourneyID:        dto.JourneyID,
		JourneyStep:      dto.JourneyStep,
		RequiresLocation: requiresLocation,
		RequiresFollow:   dto.RequiresFollow,
		AvailableFrom:    dto.AvailableFrom,
		IsActive:         true,
	}

	if dto.Passcode != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(dto.Passcode), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		m.RequiresPasscode = true
		m.PasscodeHash = string(hash)
	}

	targetIDs, err := s.resolveTargetHandles(ownerID, dto.TargetHandles)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		for _, uid := range targetIDs {
			if err := tx.Create(&models.MemoryTarget{MemoryID: m.ID, UserID: uid}).Error; err != nil {
				return err
			}
		}
		if len(dto.AssetIDs) > 0 {
			res := tx.Model(&models.AssetModel{}).
				Where("id IN ? AND uploader_id = ? AND memory_id IS NULL", dto.AssetIDs, ownerID).
				Update("memory_id", m.ID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != int64(len(dto.AssetIDs)) {
				return badRequest("one or more asset ids are unknown or already attached")
			}
		}
		return nil
	})
	if err != nil {
		var mysqlErr *mysqlDriver.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return nil, &ConflictError{Message: "that journey step is already taken"}
		}
		return nil, err
	}
	return m, nil
}

// resolveTargetHandles maps recipient handles to user ids. The owner is never
// stored as a target; owners pass the target check implicitly.
func (s *Service) resolveTargetHandles(ownerID string, handles []string) ([]string, error) {
	if len(handles) == 0 {
		return nil, nil
	}
	var users []models.UserModel
	if err := s.db.Select("id, handle").Where("handle IN ?", handles).Find(&users).Error; err != nil {
		return nil, err
	}
	found := make(map[string]string, len(users))
	for _, u := range users {
		found[u.Handle] = u.ID
	}
	ids := make([]string, 0, len(handles))
	seen := make(map[string]struct{}, len(handles))
	for _, h := range handles {
		id, ok := found[h]
		if !ok {
			return nil, badRequest(fmt.Sprintf("unknown handle: %s", h))
		}
		if id == ownerID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// visibleScope restricts a memories query to rows the viewer may be shown:
// active, unexpired (owners see their own expired memories), and passing the
// same visibility/targeting rules CanList applies. Keeping the filter in SQL
// keeps pagination counts honest; Nearby re-checks in memory with CanList.
func (s *Service) visibleScope(viewerID string) *gorm.DB {
	tx := s.db.Model(&models.MemoryModel{}).
		Where("memories.is_active = ?", true)
	if viewerID == "" {
		tx = tx.Where("memories.expires_at IS NULL OR memories.expires_at > ?", time.Now()).
			Where(`NOT EXISTS (SELECT 1 FROM memory_targets mt WHERE mt.memory_id = memories.id AND mt.deleted_at IS NULL)
				AND memories.visibility = ?`, models.VisibilityPublic)
		return tx
	}
	now := time.Now()
	tx = tx.Where("memories.expires_at IS NULL OR memories.expires_at > ? OR memories.owner_id = ?", now, viewerID).
		Where(`memories.owner_id = @viewer
			OR EXISTS (SELECT 1 FROM memory_targets mt WHERE mt.memory_id = memories.id AND mt.user_id = @viewer AND mt.deleted_at IS NULL)
			OR (NOT EXISTS (SELECT 1 FROM memory_targets mt WHERE mt.memory_id = memories.id AND mt.deleted_at IS NULL)
				AND (memories.visibility = 'public'
					OR (memories.visibility = 'followers'
						AND EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = @viewer AND f.following_id = memories.owner_id AND f.deleted_at IS NULL))))`,
			map[string]interface{}{"viewer": viewerID})
	return tx
}

// Nearby returns access-filtered markers within radiusMeters of the given
// point, ordered nearest first. A bounding box narrows the SQL scan; the
// exact haversine distance decides membership.
func (s *Service) Nearby(viewerID string, lat, lng, radiusMeters float64) ([]Marker, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, badRequest("coordinates out of range")
	}
	if radiusMeters <= 0 {
		radiusMeters = 1000
	}

	box := geo.Box(lat, lng, radiusMeters)
	tx := s.db.Preload("Owner").
		Where("is_active = ?", true).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
	if minLng, maxLng, wrapped := box.LngBounds(); wrapped {
		// The box crosses the antimeridian; stored longitudes are
		// normalized, so the range splits into two intervals.
		tx = tx.Where("longitude >= ? OR longitude <= ?", minLng, maxLng)
	} else {
		tx = tx.Where("longitude BETWEEN ? AND ?", minLng, maxLng)
	}
	var rows []models.MemoryModel
	err := tx.Find(&rows).Error
	if err != nil {
		return nil, err
	}

	following, err := s.followingSetOf(viewerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	targets, err := s.targetsFor(ids)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.unlockedSetOf(viewerID, ids)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	markers := make([]Marker, 0, len(rows))
	for i := range rows {
		m := &rows[i]
		if m.Expired(now) && m.OwnerID != viewerID {
			continue
		}
		if !CanList(m, viewerID, following, targets[m.ID]) {
			continue
		}
		d := geo.DistanceMeters(lat, lng, m.Latitude, m.Longitude)
		if d > radiusMeters {
			continue
		}
		mk := markerOf(m, m.OwnerID == viewerID || unlocked[m.ID])
		dist := d
		mk.DistanceM = &dist
		markers = append(markers, mk)
	}

	sort.Slice(markers, func(i, j int) bool {
		return *markers[i].DistanceM < *markers[j].DistanceM
	})
	return markers, nil
}

// ListAll returns every memory the viewer may see, newest first.
func (s *Service) ListAll(viewerID string, q pagination.Query) ([]Marker, response.Pagination, error) {
	tx := s.visibleScope(viewerID).Preload("Owner").Order("memories.created_at DESC")

	var rows []models.MemoryModel
	pag, err := pagination.Paginate(tx, q, &rows)
	if err != nil {
		return nil, pag, err
	}
	markers, err := s.toMarkers(viewerID, rows)
	return markers, pag, err
}

// ListByOwner returns the given user's memories visible to the viewer.
func (s *Service) ListByOwner(ownerID, viewerID string, q pagination.Query) ([]Marker, response.Pagination, error) {
	tx := s.visibleScope(viewerID).
		Where("memories.owner_id = ?", ownerID).
		Preload("Owner").
		Order("memories.created_at DESC")

	var rows []models.MemoryModel
	pag, err := pagination.Paginate(tx, q, &rows)
	if err != nil {
		return nil, pag, err
	}
	markers, err := s.toMarkers(viewerID, rows)
	return markers, pag, err
}

// JourneyMarkers returns the viewer-visible memories of a journey as
// markers. Steps the viewer may not access are dropped, same as listings.
func (s *Service) JourneyMarkers(viewerID, journeyID string) ([]Marker, error) {
	var rows []models.MemoryModel
	err := s.db.Preload("Owner").
		Where("journey_id = ? AND is_active = ?", journeyID, true).
		Order("journey_step ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	following, err := s.followingSetOf(viewerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	targets, err := s.targetsFor(ids)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.unlockedSetOf(viewerID, ids)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	markers := make([]Marker, 0, len(rows))
	for i := range rows {
		m := &rows[i]
		if m.Expired(now) && m.OwnerID != viewerID {
			continue
		}
		if !CanList(m, viewerID, following, targets[m.ID]) {
			continue
		}
		markers = append(markers, markerOf(m, m.OwnerID == viewerID || unlocked[m.ID]))
	}
	return markers, nil
}

func (s *Service) toMarkers(viewerID string, rows []models.MemoryModel) ([]Marker, error) {
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	unlocked, err := s.unlockedSetOf(viewerID, ids)
	if err != nil {
		return nil, err
	}
	markers := make([]Marker, 0, len(rows))
	for i := range rows {
		m := &rows[i]
		markers = append(markers, markerOf(m, m.OwnerID == viewerID || unlocked[m.ID]))
	}
	return markers, nil
}

// GetDetail fetches one memory by id. Unlisted memories resolve here (direct
// share link); locked content is withheld until the viewer unlocks.
func (s *Service) GetDetail(viewerID, id string) (*Detail, error) {
	m, err := s.loadVisible(viewerID, id)
	if err != nil {
		return nil, err
	}

	following, err := s.followingSetOf(viewerID)
	if err != nil {
		return nil, err
	}
	targets, err := s.targetsFor([]string{m.ID})
	if err != nil {
		return nil, err
	}
	if !CanView(m, viewerID, following, targets[m.ID]) {
		return nil, accessDenied(m, viewerID, targets[m.ID])
	}

	if viewerID == m.OwnerID {
		return s.buildDetail(m, nil, true)
	}
	rec, err := s.unlockRecord(m.ID, viewerID)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(m, rec, rec != nil)
}

// Unlock runs the gate for the viewer and, on success, upserts the unlock
// record and returns the full detail. Owners are pre-unlocked: no record is
// written for them.
func (s *Service) Unlock(viewerID, id string, att UnlockAttempt) (*Detail, error) {
	m, err := s.loadVisible(viewerID, id)
	if err != nil {
		return nil, err
	}

	if viewerID == m.OwnerID {
		return s.buildDetail(m, nil, true)
	}

	env, err := s.buildUnlockEnv(m, viewerID)
	if err != nil {
		return nil, err
	}
	att.ViewerID = viewerID
	if err := EvaluateUnlock(m, att, env); err != nil {
		return nil, err
	}

	rec, err := s.upsertUnlock(m, viewerID, att)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(m, rec, true)
}

// buildUnlockEnv snapshots the follower set, target list, and journey
// prerequisite state for a single gate evaluation.
func (s *Service) buildUnlockEnv(m *models.MemoryModel, viewerID string) (UnlockEnv, error) {
	env := UnlockEnv{Now: time.Now()}

	following, err := s.followingSetOf(viewerID)
	if err != nil {
		return env, err
	}
	env.Following = following

	targets, err := s.targetsFor([]string{m.ID})
	if err != nil {
		return env, err
	}
	env.Targets = targets[m.ID]

	if m.InJourney() && *m.JourneyStep > 1 {
		prevStep := *m.JourneyStep - 1
		var prev models.MemoryModel
		err := s.db.Select("id").
			Where("journey_id = ? AND journey_step = ? AND is_active = ?", *m.JourneyID, prevStep, true).
			Where("expires_at IS NULL OR expires_at > ?", env.Now).
			First(&prev).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Gap in the sequence, or a deactivated or expired previous
			// step: no prerequisite. A dead middle step must not brick
			// the rest of the trail.
		case err != nil:
			return env, err
		default:
			rec, err := s.unlockRecord(prev.ID, viewerID)
			if err != nil {
				return env, err
			}
			ok := rec != nil
			env.PrevStepUnlocked = &ok
		}
	}
	return env, nil
}

// upsertUnlock writes the unlock record as a single conditional insert. A
// concurrent duplicate attempt lands on the unique (memory_id, user_id) key
// and turns into a coordinate update; unlocked_at is never overwritten and
// the find-count is only bumped for a genuinely new record.
func (s *Service) upsertUnlock(m *models.MemoryModel, viewerID string, att UnlockAttempt) (*models.MemoryUnlock, error) {
	now := time.Now()
	rec := models.MemoryUnlock{
		MemoryID:   m.ID,
		UserID:     viewerID,
		UnlockedAt: now,
	}
	if att.Latitude != nil {
		rec.Latitude = *att.Latitude
	}
	if att.Longitude != nil {
		rec.Longitude = *att.Longitude
	}

	res := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "memory_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"latitude":   rec.Latitude,
			"longitude":  rec.Longitude,
			"updated_at": now,
		}),
	}).Create(&rec)
	if res.Error != nil {
		return nil, res.Error
	}

	// MySQL reports 1 affected row for an insert, 2 for an on-duplicate
	// update.
	if res.RowsAffected == 1 {
		if err := s.db.Model(&models.MemoryModel{}).
			Where("id = ?", m.ID).
			Update("unlock_count", gorm.Expr("unlock_count + 1")).Error; err != nil {
			return nil, err
		}
		m.UnlockCount++
	}

	// Re-read for the canonical unlocked_at; the row may predate this call.
	return s.unlockRecord(m.ID, viewerID)
}

// UpdateVisibility changes the visibility of one memory the caller owns, or,
// with cascade, of every owned memory in the same journey. Returns the number
// of memories updated.
func (s *Service) UpdateVisibility(ownerID, id, visibility string, cascade bool) (int64, error) {
	vis := models.Visibility(visibility)
	if !vis.Valid() {
		return 0, badRequest("invalid visibility")
	}

	var m models.MemoryModel
	if err := s.db.First(&m, "id = ? AND is_active = ?", id, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if m.OwnerID != ownerID {
		return 0, forbidden(ReasonPrivate, "only the owner can change visibility")
	}

	tx := s.db.Model(&models.MemoryModel{})
	if cascade && m.JourneyID != nil {
		tx = tx.Where("owner_id = ? AND journey_id = ?", ownerID, *m.JourneyID)
	} else {
		tx = tx.Where("id = ?", m.ID)
	}
	res := tx.Update("visibility", vis)
	return res.RowsAffected, res.Error
}

// DeactivateExpired flips is_active off for memories past their expiry. Run
// from the scheduler; listings already exclude expired rows at query time, so
// this is cleanup, not enforcement.
func (s *Service) DeactivateExpired() (int64, error) {
	res := s.db.Model(&models.MemoryModel{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, time.Now()).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// loadVisible fetches a memory by id, hiding inactive and (for non-owners)
// expired rows behind the same NotFound.
func (s *Service) loadVisible(viewerID, id string) (*models.MemoryModel, error) {
	var m models.MemoryModel
	err := s.db.Preload("Owner").Preload("Assets").First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !m.IsActive {
		return nil, ErrNotFound
	}
	if m.Expired(time.Now()) && m.OwnerID != viewerID {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (s *Service) buildDetail(m *models.MemoryModel, rec *models.MemoryUnlock, unlocked bool) (*Detail, error) {
	d := &Detail{
		Marker: markerOf(m, unlocked),
		Locked: !unlocked,
	}
	if m.ExpiresAt != nil {
		d.ExpiresAt = m.ExpiresAt
	}
	if !unlocked {
		return d, nil
	}

	d.Body = m.Body
	html, err := markdown.Render(m.Body)
	if err != nil {
		return nil, err
	}
	d.BodyHTML = html
	d.Assets = m.Assets
	if rec != nil {
		t := rec.UnlockedAt
		d.UnlockedAt = &t
	}
	return d, nil
}

func (s *Service) followingSetOf(viewerID string) (FollowingSet, error) {
	if viewerID == "" {
		return FollowingSet{}, nil
	}
	var ids []string
	err := s.db.Model(&models.FollowModel{}).
		Where("follower_id = ?", viewerID).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return NewFollowingSet(ids), nil
}

func (s *Service) targetsFor(memoryIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(memoryIDs))
	if len(memoryIDs) == 0 {
		return out, nil
	}
	var rows []models.MemoryTarget
	if err := s.db.Where("memory_id IN ?", memoryIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.MemoryID] = append(out[r.MemoryID], r.UserID)
	}
	return out, nil
}

func (s *Service) unlockRecord(memoryID, userID string) (*models.MemoryUnlock, error) {
	if userID == "" {
		return nil, nil
	}
	var rec models.MemoryUnlock
	err := s.db.First(&rec, "memory_id = ? AND user_id = ?", memoryID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Service) unlockedSetOf(viewerID string, memoryIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(memoryIDs))
	if viewerID == "" || len(memoryIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := s.db.Model(&models.MemoryUnlock{}).
		Where("user_id = ? AND memory_id IN ?", viewerID, memoryIDs).
		Pluck("memory_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
