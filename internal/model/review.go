// internal/model/review.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Review は講座へのレビュー (評価1-5と任意のコメント) です。
// (user, course) あたり1件に複合ユニークインデックスで制限します。
type Review struct {
	ReviewID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"review_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_user_course_review,unique" json:"user_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index:idx_user_course_review,unique" json:"course_id"`
	Rating    int       `gorm:"not null" json:"rating"` // 1-5 (アプリ層で検証してから保存)
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

// レビュー投稿リクエストDTO
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// レビュー更新リクエストDTO
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// RatingSummary はレビュー再集計の結果です
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
