package follow

import (
	"errors"

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
	follows := rg.Group("/follows", authMW)

	follows.POST("/:handle", h.follow)
	follows.DELETE("/:handle", h.unfollow)
	follows.GET("/following", h.listFollowing)
	follows.GET("/followers", h.listFollowers)
}

func (h *Handler) mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		response.NotFoundMsg(c, "user not found")
	case errors.Is(err, ErrSelfFollow):
		response.BadRequest(c, "cannot follow yourself")
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) follow(c *gin.Context) {
	if err := h.svc.Follow(middleware.CurrentUserID(c), c.Param("handle")); err != nil {
		h.mapError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) unfollow(c *gin.Context) {
	if err := h.svc.Unfollow(middleware.CurrentUserID(c), c.Param("handle")); err != nil {
		h.mapError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listFollowing(c *gin.Context) {
	q := pagination.FromContext(c)
	users, pag, err := h.svc.ListFollowing(middleware.CurrentUserID(c), q)
	if err != nil {
		h.mapError(c, err)
		return
	}
	response.Paged(c, users, pag)
}

func (h *Handler) listFollowers(c *gin.Context) {
	q := pagination.FromContext(c)
	users, pag, err := h.svc.ListFollowers(middleware.CurrentUserID(c), q)
	if err != nil {
		h.mapError(c, err)
		return
	}
	response.Paged(c, users, pag)
}
