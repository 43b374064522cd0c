package memory

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/memloc/core/internal/middleware"
	"github.com/memloc/core/internal/pkg/pagination"
	"github.com/memloc/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	memories := rg.Group("/memories")

	memories.GET("", h.list)
	memories.GET("/nearby", h.nearby)
	memories.GET("/:id", h.detail)

	authed := memories.Group("", authMW)
	authed.POST("", h.create)
	authed.POST("/:id/unlock", h.unlock)
	authed.PATCH("/:id/visibility", h.updateVisibility)
}

// MapError translates the module's typed errors to HTTP responses. Other
// handlers (journey) reuse it for memory-derived failures.
func MapError(c *gin.Context, err error) {
	var forbiddenErr *ForbiddenError
	var badRequestErr *BadRequestError
	var conflictErr *ConflictError
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, "memory not found")
	case errors.As(err, &forbiddenErr):
		response.ForbiddenReason(c, forbiddenErr.Reason, forbiddenErr.Message)
	case errors.As(err, &badRequestErr):
		response.BadRequest(c, badRequestErr.Message)
	case errors.As(err, &conflictErr):
		response.Conflict(c, conflictErr.Message)
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	m, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		MapError(c, err)
		return
	}
	response.Created(c, m)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	markers, pag, err := h.svc.ListAll(middleware.CurrentUserID(c), q)
	if err != nil {
		MapError(c, err)
		return
	}
	response.Paged(c, markers, pag)
}

func (h *Handler) nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		response.BadRequest(c, "lat and lng query params are required")
		return
	}
	radius := 1000.0
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			response.BadRequest(c, "invalid radius")
			return
		}
		radius = r
	}

	markers, err := h.svc.Nearby(middleware.CurrentUserID(c), lat, lng, radius)
	if err != nil {
		MapError(c, err)
		return
	}
	response.OK(c, markers)
}

func (h *Handler) detail(c *gin.Context) {
	detail, err := h.svc.GetDetail(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		MapError(c, err)
		return
	}
	response.OK(c, detail)
}

func (h *Handler) unlock(c *gin.Context) {
	// An empty body is a valid attempt; only location/passcode memories
	// need factors, and the gate reports exactly which one is missing.
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request body")
		return
	}
	att := UnlockAttempt{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Passcode:  req.Passcode,
	}
	detail, err := h.svc.Unlock(middleware.CurrentUserID(c), c.Param("id"), att)
	if err != nil {
		MapError(c, err)
		return
	}
	response.OK(c, detail)
}

func (h *Handler) updateVisibility(c *gin.Context) {
	var patch visibilityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	updated, err := h.svc.UpdateVisibility(middleware.CurrentUserID(c), c.Param("id"), patch.Visibility, patch.Journey)
	if err != nil {
		MapError(c, err)
		return
	}
	response.OK(c, gin.H{"updated": updated})
}
