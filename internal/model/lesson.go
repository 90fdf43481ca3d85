// internal/model/lesson.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Lesson は講座内のレッスンを表します。
// 講座あたりのレッスン数が進捗率の分母になります。
type Lesson struct {
	LessonID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"lesson_id"`
	CourseID        uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title           string    `gorm:"not null" json:"title"`
	DurationMinutes int       `gorm:"not null;default:0" json:"duration_minutes"`
	Position        int       `gorm:"not null;default:0" json:"position"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// レッスン追加リクエストDTO
type CreateLessonRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=200"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
	Position        int    `json:"position" validate:"gte=0"`
}
