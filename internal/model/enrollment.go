// internal/model/enrollment.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// Enrollment は受講登録を表します。
// (user, course) の組は複合ユニークインデックスで1件に制限されます。
// 同時リクエストによる二重登録はDB制約側で弾き、アプリは 23505 を
// ErrConflict に読み替えます。
type Enrollment struct {
	EnrollmentID uuid.UUID        `gorm:"type:uuid;primaryKey" json:"enrollment_id"`
	UserID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"user_id"`
	CourseID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"course_id"`
	Status       EnrollmentStatus `gorm:"type:varchar(20);not null;default:active" json:"status"`
	Progress     int              `gorm:"not null;default:0" json:"progress"` // 0-100
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	// 関連 (Preload用)
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"-"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// LessonCompletion はユーザーがレッスンを完了した記録です (追記のみ)。
// (user, lesson) の組はユニーク。進捗率の分子になります。
type LessonCompletion struct {
	CompletionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"completion_id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_user_lesson,unique" json:"user_id"`
	LessonID     uuid.UUID `gorm:"type:uuid;not null;index:idx_user_lesson,unique" json:"lesson_id"`
	CourseID     uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	CompletedAt  time.Time `gorm:"not null" json:"completed_at"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completions"
}

// EnrollmentResponse は受講状況のレスポンスDTO
type EnrollmentResponse struct {
	EnrollmentID uuid.UUID        `json:"enrollment_id"`
	CourseID     uuid.UUID        `json:"course_id"`
	CourseSlug   string           `json:"course_slug,omitempty"`
	CourseTitle  string           `json:"course_title,omitempty"`
	Status       EnrollmentStatus `json:"status"`
	Progress     int              `json:"progress"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

func NewEnrollmentResponse(e *Enrollment) *EnrollmentResponse {
	resp := &EnrollmentResponse{
		EnrollmentID: e.EnrollmentID,
		CourseID:     e.CourseID,
		Status:       e.Status,
		Progress:     e.Progress,
		CompletedAt:  e.CompletedAt,
		CreatedAt:    e.CreatedAt,
	}
	if e.Course != nil {
		resp.CourseSlug = e.Course.Slug
		resp.CourseTitle = e.Course.Title
	}
	return resp
}
