package account

import (
	"time"

	"github.com/memloc/core/internal/models"
)

// RegisterDTO is the account creation payload.
type RegisterDTO struct {
	Handle   string `json:"handle" binding:"required,min=3,max=32"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginDTO is the login payload.
type LoginDTO struct {
	Handle   string `json:"handle" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileDTO carries partial profile updates; nil means unchanged.
type UpdateProfileDTO struct {
	Name   *string `json:"name"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
	Mail   *string `json:"mail"`
}

// Profile is the public projection of a user.
type Profile struct {
	ID        string    `json:"id"`
	Handle    string    `json:"handle"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	Avatar    string    `json:"avatar"`
	Created   time.Time `json:"created"`
	Followers int64     `json:"followers"`
	Following int64     `json:"following"`
}

func toProfile(u *models.UserModel, followers, following int64) Profile {
	return Profile{
		ID:        u.ID,
		Handle:    u.Handle,
		Name:      u.Name,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		Created:   u.CreatedAt,
		Followers: followers,
		Following: following,
	}
}
