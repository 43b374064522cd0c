package journey

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/memloc/core/internal/middleware"
	"github.com/memloc/core/internal/modules/memory"
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
	journeys := rg.Group("/journeys")

	journeys.GET("/:id", h.get)

	authed := journeys.Group("", authMW)
	authed.GET("", h.listOwned)
	authed.POST("", h.create)
	authed.PATCH("/:id/visibility", h.updateVisibility)
}

func (h *Handler) mapError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		response.NotFoundMsg(c, "journey not found")
		return
	}
	memory.MapError(c, err)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	j, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.mapError(c, err)
		return
	}
	response.Created(c, j)
}

func (h *Handler) get(c *gin.Context) {
	view, err := h.svc.Get(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.mapError(c, err)
		return
	}
	response.OK(c, view)
}

func (h *Handler) listOwned(c *gin.Context) {
	q := pagination.FromContext(c)
	journeys, pag, err := h.svc.ListOwned(middleware.CurrentUserID(c), q)
	if err != nil {
		h.mapError(c, err)
		return
	}
	response.Paged(c, journeys, pag)
}

func (h *Handler) updateVisibility(c *gin.Context) {
	var patch struct {
		Visibility string `json:"visibility" binding:"required"`
	}
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	updated, err := h.svc.UpdateVisibility(middleware.CurrentUserID(c), c.Param("id"), patch.Visibility)
	if err != nil {
		h.mapError(c, err)
		return
	}
	response.OK(c, gin.H{"updated": updated})
}
