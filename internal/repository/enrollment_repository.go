//go:generate mockery --name EnrollmentRepository --output ./mocks --outpkg mocks --case=underscore
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

type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *model.Enrollment) error
	FindByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.Enrollment, error)
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Enrollment, error)
	Update(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, updates map[string]interface{}) error
}

type gormEnrollmentRepository struct{}

func NewGormEnrollmentRepository() EnrollmentRepository {
	return &gormEnrollmentRepository{}
}

func (r *gormEnrollmentRepository) Create(ctx context.Context, tx *gorm.DB, enrollment *model.Enrollment) error {
	logger := logctx.GetLogger(ctx)

	result := tx.WithContext(ctx).Create(enrollment)
	if result.Error != nil {
		// (user, course) の複合ユニークインデックス違反 = 二重登録
		if isUniqueViolation(result.Error) {
			logger.Warn("Duplicate enrollment rejected by unique index",
				"user_id", enrollment.UserID.String(),
				"course_id", enrollment.CourseID.String(),
			)
			return model.ErrConflict
		}
		logger.Error("Error creating enrollment in DB",
			"error", result.Error,
			"user_id", enrollment.UserID.String(),
			"course_id", enrollment.CourseID.String(),
		)
		return fmt.Errorf("gormEnrollmentRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormEnrollmentRepository) FindByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	result := db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormEnrollmentRepository.FindByUserAndCourse: %w", result.Error)
	}
	return &enrollment, nil
}

func (r *gormEnrollmentRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Enrollment, error) {
	logger := logctx.GetLogger(ctx)
	var enrollments []*model.Enrollment

	result := db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments)
	if result.Error != nil {
		logger.Error("Error finding enrollments by user in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormEnrollmentRepository.FindByUser: %w", result.Error)
	}
	return enrollments, nil
}

func (r *gormEnrollmentRepository) Update(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, updates map[string]interface{}) error {
	logger := logctx.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Enrollment{}).
		Where("enrollment_id = ?", enrollmentID).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating enrollment in DB",
			"error", result.Error,
			"enrollment_id", enrollmentID.String(),
		)
		return fmt.Errorf("gormEnrollmentRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
