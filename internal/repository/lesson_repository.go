//go:generate mockery --name LessonRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_lms_hub/internal/logctx"
	"go_lms_hub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LessonRepository interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *model.Lesson) error
	FindByID(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) (*model.Lesson, error)
	FindByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) ([]*model.Lesson, error)
	CountByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) (int64, error)
}

type gormLessonRepository struct{}

func NewGormLessonRepository() LessonRepository {
	return &gormLessonRepository{}
}

func (r *gormLessonRepository) Create(ctx context.Context, tx *gorm.DB, lesson *model.Lesson) error {
	logger := logctx.GetLogger(ctx)

	result := tx.WithContext(ctx).Create(lesson)
	if result.Error != nil {
		logger.Error("Error creating lesson in DB",
			"error", result.Error,
			"course_id", lesson.CourseID.String(),
			"title", lesson.Title,
		)
		return fmt.Errorf("gormLessonRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormLessonRepository) FindByID(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) (*model.Lesson, error) {
	var lesson model.Lesson
	result := db.WithContext(ctx).Where("lesson_id = ?", lessonID).First(&lesson)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormLessonRepository.FindByID: %w", result.Error)
	}
	return &lesson, nil
}

func (r *gormLessonRepository) FindByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) ([]*model.Lesson, error) {
	logger := logctx.GetLogger(ctx)
	var lessons []*model.Lesson

	result := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC, created_at ASC").
		Find(&lessons)
	if result.Error != nil {
		logger.Error("Error finding lessons by course in DB",
			"error", result.Error,
			"course_id", courseID.String(),
		)
		return nil, fmt.Errorf("gormLessonRepository.FindByCourse: %w", result.Error)
	}
	return lessons, nil
}

// CountByCourse は進捗率の分母になるレッスン数を返します
func (r *gormLessonRepository) CountByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) (int64, error) {
	var count int64
	result := db.WithContext(ctx).Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gormLessonRepository.CountByCourse: %w", result.Error)
	}
	return count, nil
}
