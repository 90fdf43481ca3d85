// internal/model/course.go
package model

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course は講座を表します。
// AverageRating / ReviewCount はレビューの書き込み時に再集計して保持します
// (読み出し時に都度計算しない。丸めずに保存し、表示時のみ丸める)。
type Course struct {
	CourseID      uuid.UUID      `gorm:"type:uuid;primaryKey" json:"course_id"`
	Slug          string         `gorm:"unique;not null" json:"slug"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `json:"description"`
	InstructorID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"instructor_id"`
	AverageRating float64        `gorm:"not null;default:0" json:"-"`
	ReviewCount   int            `gorm:"not null;default:0" json:"review_count"`
	Published     bool           `gorm:"not null;default:false" json:"published"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"` // 論理削除用

	// 関連 (Preload用)
	Instructor *Profile `gorm:"foreignKey:InstructorID;references:ProfileID" json:"-"`
	Lessons    []Lesson `gorm:"foreignKey:CourseID;references:CourseID" json:"-"`
}

func (Course) TableName() string {
	return "courses"
}

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify はタイトルからURL用のスラッグを導出します
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugInvalidChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// 講座作成リクエストDTO
type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// 講座レスポンスDTO。平均評価はここで初めて小数1桁に丸めます。
type CourseResponse struct {
	CourseID      uuid.UUID  `json:"course_id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	InstructorID  uuid.UUID  `json:"instructor_id"`
	AverageRating float64    `json:"average_rating"`
	ReviewCount   int        `json:"review_count"`
	Published     bool       `json:"published"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	LessonCount   int        `json:"lesson_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

func NewCourseResponse(c *Course, lessonCount int) *CourseResponse {
	return &CourseResponse{
		CourseID:      c.CourseID,
		Slug:          c.Slug,
		Title:         c.Title,
		Description:   c.Description,
		InstructorID:  c.InstructorID,
		AverageRating: math.Round(c.AverageRating*10) / 10,
		ReviewCount:   c.ReviewCount,
		Published:     c.Published,
		PublishedAt:   c.PublishedAt,
		LessonCount:   lessonCount,
		CreatedAt:     c.CreatedAt,
	}
}
