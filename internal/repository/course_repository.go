//go:generate mockery --name CourseRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_lms_hub/internal/logctx"
	"go_lms_hub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *model.Course) error
	FindByID(ctx context.Context, db *gorm.DB, courseID uuid.UUID) (*model.Course, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*model.Course, error)
	FindPublished(ctx context.Context, db *gorm.DB, limit, offset int) ([]*model.Course, error)
	FindByInstructor(ctx context.Context, db *gorm.DB, instructorID uuid.UUID) ([]*model.Course, error)
	Update(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, updates map[string]interface{}) error
	UpdateRating(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, average float64, count int) error
}

type gormCourseRepository struct{}

func NewGormCourseRepository() CourseRepository {
	return &gormCourseRepository{}
}

func (r *gormCourseRepository) Create(ctx context.Context, tx *gorm.DB, course *model.Course) error {
	logger := logctx.GetLogger(ctx)

	result := tx.WithContext(ctx).Create(course)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			logger.Warn("Duplicate slug on create course",
				"error", result.Error,
				"slug", course.Slug,
			)
			return model.ErrConflict
		}
		logger.Error("Error creating course in DB",
			"error", result.Error,
			"slug", course.Slug,
		)
		return fmt.Errorf("gormCourseRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormCourseRepository) FindByID(ctx context.Context, db *gorm.DB, courseID uuid.UUID) (*model.Course, error) {
	var course model.Course
	result := db.WithContext(ctx).Where("course_id = ?", courseID).First(&course)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormCourseRepository.FindByID: %w", result.Error)
	}
	return &course, nil
}

func (r *gormCourseRepository) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*model.Course, error) {
	logger := logctx.GetLogger(ctx)
	var course model.Course

	result := db.WithContext(ctx).Where("slug = ?", slug).First(&course)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.Debug("Course not found by slug", "slug", slug)
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding course by slug in DB",
			"error", result.Error,
			"slug", slug,
		)
		return nil, fmt.Errorf("gormCourseRepository.FindBySlug: %w", result.Error)
	}
	return &course, nil
}

func (r *gormCourseRepository) FindPublished(ctx context.Context, db *gorm.DB, limit, offset int) ([]*model.Course, error) {
	logger := logctx.GetLogger(ctx)
	var courses []*model.Course

	result := db.WithContext(ctx).
		Where("published = ?", true).
		Order("published_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&courses)
	if result.Error != nil {
		logger.Error("Error finding published courses in DB", "error", result.Error)
		return nil, fmt.Errorf("gormCourseRepository.FindPublished: %w", result.Error)
	}
	return courses, nil
}

func (r *gormCourseRepository) FindByInstructor(ctx context.Context, db *gorm.DB, instructorID uuid.UUID) ([]*model.Course, error) {
	logger := logctx.GetLogger(ctx)
	var courses []*model.Course

	result := db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&courses)
	if result.Error != nil {
		logger.Error("Error finding courses by instructor in DB",
			"error", result.Error,
			"instructor_id", instructorID.String(),
		)
		return nil, fmt.Errorf("gormCourseRepository.FindByInstructor: %w", result.Error)
	}
	return courses, nil
}

func (r *gormCourseRepository) Update(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, updates map[string]interface{}) error {
	logger := logctx.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Course{}).Where("course_id = ?", courseID).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating course in DB",
			"error", result.Error,
			"course_id", courseID.String(),
		)
		return fmt.Errorf("gormCourseRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// UpdateRating はレビュー再集計の結果を講座行へ1文の UPDATE で書き戻します
func (r *gormCourseRepository) UpdateRating(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, average float64, count int) error {
	logger := logctx.GetLogger(ctx)

	result := tx.WithContext(ctx).Model(&model.Course{}).
		Where("course_id = ?", courseID).
		Updates(map[string]interface{}{
			"average_rating": average,
			"review_count":   count,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		logger.Error("Error updating course rating in DB",
			"error", result.Error,
			"course_id", courseID.String(),
		)
		return fmt.Errorf("gormCourseRepository.UpdateRating: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
