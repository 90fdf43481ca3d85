//go:generate mockery --name CompletionRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"fmt"

	"go_lms_hub/internal/logctx"
	"go_lms_hub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompletionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, completion *model.LessonCompletion) error
	CountByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (int64, error)
}

type gormCompletionRepository struct{}

func NewGormCompletionRepository() CompletionRepository {
	return &gormCompletionRepository{}
}

func (r *gormCompletionRepository) Create(ctx context.Context, tx *gorm.DB, completion *model.LessonCompletion) error {
	logger := logctx.GetLogger(ctx)

	result := tx.WithContext(ctx).Create(completion)
	if result.Error != nil {
		// (user, lesson) は追記のみ・高々1件。制約違反は「完了済み」。
		if isUniqueViolation(result.Error) {
			logger.Warn("Duplicate lesson completion rejected by unique index",
				"user_id", completion.UserID.String(),
				"lesson_id", completion.LessonID.String(),
			)
			return model.ErrConflict
		}
		logger.Error("Error creating lesson completion in DB",
			"error", result.Error,
			"user_id", completion.UserID.String(),
			"lesson_id", completion.LessonID.String(),
		)
		return fmt.Errorf("gormCompletionRepository.Create: %w", result.Error)
	}
	return nil
}

// CountByUserAndCourse は進捗率の分子になる完了レッスン数を返します
func (r *gormCompletionRepository) CountByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (int64, error) {
	var count int64
	result := db.WithContext(ctx).Model(&model.LessonCompletion{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gormCompletionRepository.CountByUserAndCourse: %w", result.Error)
	}
	return count, nil
}
