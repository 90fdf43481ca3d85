//go:generate mockery --name ReviewRepository --output ./mocks --outpkg mocks --case=underscore
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

type ReviewRepository interface {
	Create(ctx context.Context, tx *gorm.DB, review *model.Review) error
	FindByID(ctx context.Context, db *gorm.DB, reviewID uuid.UUID) (*model.Review, error)
	FindByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.Review, error)
	FindByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID, limit, offset int) ([]*model.Review, error)
	Update(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error
	AggregateByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*model.RatingSummary, error)
}

type gormReviewRepository struct{}

func NewGormReviewRepository() ReviewRepository {
	return &gormReviewRepository{}
}

func (r *gormReviewRepository) Create(ctx context.Context, tx *gorm.DB, review *model.Review) error {
	logger := logctx.GetLogger(ctx)

	result := tx.WithContext(ctx).Create(review)
	if result.Error != nil {
		// (user, course) 一意制約。二重投稿は競合で弾く。
		if isUniqueViolation(result.Error) {
			logger.Warn("Duplicate review rejected by unique index",
				"user_id", review.UserID.String(),
				"course_id", review.CourseID.String(),
			)
			return model.ErrConflict
		}
		logger.Error("Error creating review in DB", "error", result.Error, "course_id", review.CourseID.String())
		return fmt.Errorf("gormReviewRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormReviewRepository) FindByID(ctx context.Context, db *gorm.DB, reviewID uuid.UUID) (*model.Review, error) {
	var review model.Review
	result := db.WithContext(ctx).Where("review_id = ?", reviewID).First(&review)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormReviewRepository.FindByID: %w", result.Error)
	}
	return &review, nil
}

func (r *gormReviewRepository) FindByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.Review, error) {
	var review model.Review
	result := db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&review)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormReviewRepository.FindByUserAndCourse: %w", result.Error)
	}
	return &review, nil
}

func (r *gormReviewRepository) FindByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID, limit, offset int) ([]*model.Review, error) {
	var reviews []*model.Review
	result := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews)
	if result.Error != nil {
		return nil, fmt.Errorf("gormReviewRepository.FindByCourse: %w", result.Error)
	}
	return reviews, nil
}

func (r *gormReviewRepository) Update(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID, updates map[string]interface{}) error {
	result := tx.WithContext(ctx).Model(&model.Review{}).
		Where("review_id = ?", reviewID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("gormReviewRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormReviewRepository) Delete(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error {
	result := tx.WithContext(ctx).Where("review_id = ?", reviewID).Delete(&model.Review{})
	if result.Error != nil {
		return fmt.Errorf("gormReviewRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// AggregateByCourse はレビュー書き込みと同一トランザクション内で呼び、
// 平均と件数を再計算します。レビュー0件なら平均0・件数0。
func (r *gormReviewRepository) AggregateByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*model.RatingSummary, error) {
	var summary model.RatingSummary
	result := tx.WithContext(ctx).Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("course_id = ?", courseID).
		Scan(&summary)
	if result.Error != nil {
		return nil, fmt.Errorf("gormReviewRepository.AggregateByCourse: %w", result.Error)
	}
	return &summary, nil
}
