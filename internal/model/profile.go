// internal/model/profile.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile はアプリケーション上のユーザー情報です。
// ProfileID は認証基盤のユーザーID (JWTのsub) と一致します。
type Profile struct {
	ProfileID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"profile_id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"unique;not null" json:"email"`
	Role         Role      `gorm:"type:varchar(20);not null;default:student" json:"role"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

type ContextKey string

const (
	UserIDKey ContextKey = "userID"
	RoleKey   ContextKey = "role"
)

// ProfileResponse はクライアントに返すプロフィール情報の構造体
type ProfileResponse struct {
	ProfileID uuid.UUID `json:"profile_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func NewProfileResponse(p *Profile) *ProfileResponse {
	return &ProfileResponse{
		ProfileID: p.ProfileID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
}
