package journey

import (
	"errors"
	"sort"
	"time"

	"github.com/memloc/core/internal/models"
	"github.com/memloc/core/internal/modules/memory"
	"github.com/memloc/core/internal/pkg/pagination"
	"github.com/memloc/core/internal/pkg/response"
	"gorm.io/gorm"
)

// ErrNotFound covers missing journeys.
var ErrNotFound = errors.New("journey not found")

type Service struct {
	db     *gorm.DB
	memSvc *memory.Service
}

func NewService(db *gorm.DB, memSvc *memory.Service) *Service {
	return &Service{db: db, memSvc: memSvc}
}

// CreateDTO is the payload for creating a journey.
type CreateDTO struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	CoverAsset  string `json:"cover_asset"`
}

// Step is one entry of a journey trail as seen by a specific viewer.
type Step struct {
	memory.Marker
	Step int `json:"step"`
}

// View is the journey payload: metadata plus the viewer-visible steps in
// order. Steps the viewer may not access are omitted entirely, matching the
// listing rules.
type View struct {
	models.JourneyModel
	Steps []Step `json:"steps"`
}

func (s *Service) Create(ownerID string, dto *CreateDTO) (*models.JourneyModel, error) {
	j := &models.JourneyModel{
		OwnerID:     ownerID,
		Title:       dto.Title,
		Description: dto.Description,
		CoverAsset:  dto.CoverAsset,
	}
	return j, s.db.Create(j).Error
}

// Get returns the journey with its steps, filtered for the viewer and
// annotated with per-step unlock state.
func (s *Service) Get(viewerID, id string) (*View, error) {
	var j models.JourneyModel
	if err := s.db.First(&j, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	markers, err := s.memSvc.JourneyMarkers(viewerID, j.ID)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, 0, len(markers))
	for _, mk := range markers {
		if mk.JourneyStep == nil {
			continue
		}
		steps = append(steps, Step{Marker: mk, Step: *mk.JourneyStep})
	}
	sort.Slice(steps, func(i, k int) bool { return steps[i].Step < steps[k].Step })

	return &View{JourneyModel: j, Steps: steps}, nil
}

// ListOwned returns the caller's journeys, newest first.
func (s *Service) ListOwned(ownerID string, q pagination.Query) ([]models.JourneyModel, response.Pagination, error) {
	tx := s.db.Model(&models.JourneyModel{}).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")

	var journeys []models.JourneyModel
	pag, err := pagination.Paginate(tx, q, &journeys)
	return journeys, pag, err
}

// UpdateVisibility cascades a visibility change to every memory of the
// journey owned by the caller.
func (s *Service) UpdateVisibility(ownerID, id, visibility string) (int64, error) {
	vis := models.Visibility(visibility)
	if !vis.Valid() {
		return 0, &memory.BadRequestError{Message: "invalid visibility"}
	}

	var j models.JourneyModel
	if err := s.db.First(&j, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if j.OwnerID != ownerID {
		return 0, &memory.ForbiddenError{Reason: memory.ReasonPrivate, Message: "only the owner can change visibility"}
	}

	res := s.db.Model(&models.MemoryModel{}).
		Where("owner_id = ? AND journey_id = ?", ownerID, j.ID).
		Updates(map[string]interface{}{"visibility": vis, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}
