package account

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memloc/core/internal/middleware"
	"github.com/memloc/core/internal/models"
	"github.com/memloc/core/internal/pkg/response"
)

var ErrTokenNotFound = errors.New("token not found")

// CreateTokenDTO is the payload for minting a personal API token.
type CreateTokenDTO struct {
	Name      string     `json:"name" binding:"required"`
	ExpiredAt *time.Time `json:"expired_at"`
}

// ListTokens returns the user's unexpired API tokens, newest first.
func (s *Service) ListTokens(userID string) ([]models.APIToken, error) {
	var tokens []models.APIToken
	return tokens, s.db.
		Where("user_id = ? AND (expired_at IS NULL OR expired_at > ?)", userID, time.Now()).
		Order("created_at DESC").Find(&tokens).Error
}

// CreateToken mints a random API token for programmatic access.
func (s *Service) CreateToken(userID string, dto *CreateTokenDTO) (*models.APIToken, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}

	t := models.APIToken{
		UserID:    userID,
		Token:     middleware.APITokenPrefix + hex.EncodeToString(b),
		Name:      dto.Name,
		ExpiredAt: dto.ExpiredAt,
	}
	return &t, s.db.Create(&t).Error
}

// DeleteToken revokes one of the user's API tokens.
func (s *Service) DeleteToken(userID, tokenID string) error {
	result := s.db.Where("id = ? AND user_id = ?", tokenID, userID).
		Delete(&models.APIToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (h *Handler) listTokens(c *gin.Context) {
	tokens, err := h.svc.ListTokens(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, tokens)
}

func (h *Handler) createToken(c *gin.Context) {
	var dto CreateTokenDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "token name is required")
		return
	}
	t, err := h.svc.CreateToken(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, t)
}

func (h *Handler) deleteToken(c *gin.Context) {
	err := h.svc.DeleteToken(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			response.NotFoundMsg(c, "token not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
