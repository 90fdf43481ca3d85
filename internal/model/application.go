// internal/model/application.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Valid は既知のステータスかどうかを返します
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

// InstructorApplication は講師ロールへの昇格申請です。
// 承認されると同一トランザクション内で Profile.Role が instructor に変わります。
type InstructorApplication struct {
	ApplicationID uuid.UUID         `gorm:"type:uuid;primaryKey" json:"application_id"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	Bio           string            `gorm:"not null" json:"bio"`
	Expertise     string            `gorm:"not null" json:"expertise"`
	Status        ApplicationStatus `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	ReviewerID    *uuid.UUID        `gorm:"type:uuid" json:"reviewer_id,omitempty"`
	ReviewedAt    *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// 関連 (Preload用)
	Applicant *Profile `gorm:"foreignKey:UserID;references:ProfileID" json:"-"`
}

func (InstructorApplication) TableName() string {
	return "instructor_applications"
}

// 申請リクエストDTO
type CreateApplicationRequest struct {
	Bio       string `json:"bio" validate:"required,min=1,max=2000"`
	Expertise string `json:"expertise" validate:"required,min=1,max=500"`
}

// 審査リクエストDTO (approve / reject)
type ReviewApplicationRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}
