package account

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/memloc/core/internal/middleware"
	"github.com/memloc/core/internal/modules/follow"
	"github.com/memloc/core/internal/modules/memory"
	"github.com/memloc/core/internal/pkg/pagination"
	"github.com/memloc/core/internal/pkg/response"
)

type Handler struct {
	svc       *Service
	followSvc *follow.Service
	memSvc    *memory.Service
}

func NewHandler(svc *Service, followSvc *follow.Service, memSvc *memory.Service) *Handler {
	return &Handler{svc: svc, followSvc: followSvc, memSvc: memSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	auth := rg.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/logout", authMW, h.logout)
	auth.GET("/me", authMW, h.me)
	auth.PATCH("/me", authMW, h.updateMe)
	auth.GET("/tokens", authMW, h.listTokens)
	auth.POST("/tokens", authMW, h.createToken)
	auth.DELETE("/tokens/:id", authMW, h.deleteToken)

	users := rg.Group("/users")
	users.GET("/:handle", h.profile)
	users.GET("/:handle/memories", h.memories)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "handle (3-32 chars) and password (8+ chars) are required")
		return
	}
	u, err := h.svc.Register(&dto)
	if err != nil {
		if errors.Is(err, ErrHandleTaken) {
			response.Conflict(c, "handle already taken")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, u)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "handle and password are required")
		return
	}
	token, u, err := h.svc.Login(dto.Handle, dto.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrWrongPassword) {
			response.Unauthorized(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"token": token, "user": u})
}

func (h *Handler) logout(c *gin.Context) {
	err := h.svc.Logout(middleware.CurrentUserID(c), middleware.CurrentSessionID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.GetByID(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) updateMe(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	u, err := h.svc.UpdateProfile(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) profile(c *gin.Context) {
	u, err := h.svc.GetByHandle(c.Param("handle"))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFoundMsg(c, "user not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	followers, following, err := h.followSvc.Counts(u.ID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toProfile(u, followers, following))
}

func (h *Handler) memories(c *gin.Context) {
	u, err := h.svc.GetByHandle(c.Param("handle"))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFoundMsg(c, "user not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	q := pagination.FromContext(c)
	markers, pag, err := h.memSvc.ListByOwner(u.ID, middleware.CurrentUserID(c), q)
	if err != nil {
		memory.MapError(c, err)
		return
	}
	response.Paged(c, markers, pag)
}
