package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go_lms_hub/internal/middleware"
	"go_lms_hub/internal/model"
	"go_lms_hub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, userID uuid.UUID, slug string) (*model.Enrollment, error)
	Unenroll(ctx context.Context, userID uuid.UUID, slug string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.EnrollmentResponse, error)
	CompleteLesson(ctx context.Context, userID uuid.UUID, slug string, lessonID uuid.UUID) (*model.Enrollment, error)
	RecomputeProgress(ctx context.Context, userID, courseID uuid.UUID) (*model.Enrollment, error)
}

type enrollmentService struct {
	db             *gorm.DB
	enrollmentRepo repository.EnrollmentRepository
	completionRepo repository.CompletionRepository
	courseRepo     repository.CourseRepository
	lessonRepo     repository.LessonRepository
}

func NewEnrollmentService(db *gorm.DB, enrollmentRepo repository.EnrollmentRepository, completionRepo repository.CompletionRepository, courseRepo repository.CourseRepository, lessonRepo repository.LessonRepository) EnrollmentService {
	return &enrollmentService{
		db:             db,
		enrollmentRepo: enrollmentRepo,
		completionRepo: completionRepo,
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
	}
}

// findPublishedCourse は公開済みコースをスラッグで引きます
func (s *enrollmentService) findPublishedCourse(ctx context.Context, slug string) (*model.Course, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.courseRepo.FindBySlug(ctx, s.db, slug)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("COURSE_NOT_FOUND", "コースが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding course by slug", "error", err, "slug", slug)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	if !course.Published {
		return nil, model.NewAppError("COURSE_NOT_FOUND", "コースが見つかりません。", "", model.ErrNotFound)
	}
	return course, nil
}

// Enroll は受講登録を作成します。二重登録は一意制約で弾かれ 409 になります。
func (s *enrollmentService) Enroll(ctx context.Context, userID uuid.UUID, slug string) (*model.Enrollment, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.findPublishedCourse(ctx, slug)
	if err != nil {
		return nil, err
	}

	enrollment := &model.Enrollment{
		EnrollmentID: uuid.New(),
		UserID:       userID,
		CourseID:     course.CourseID,
		Status:       model.EnrollmentActive,
		Progress:     0,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.enrollmentRepo.Create(ctx, tx, enrollment)
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			logger.Warn("Duplicate enrollment", "user_id", userID.String(), "course_id", course.CourseID.String())
			return nil, model.NewAppError("ALREADY_ENROLLED", "このコースには既に登録済みです。", "", model.ErrConflict)
		}
		logger.Error("Failed to create enrollment", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "受講登録に失敗しました。", "", err)
	}

	logger.Info("Enrolled", "enrollment_id", enrollment.EnrollmentID, "course_id", course.CourseID)
	return enrollment, nil
}

// Unenroll は受講登録を dropped にします。行は消しません (完了履歴を保持)。
func (s *enrollmentService) Unenroll(ctx context.Context, userID uuid.UUID, slug string) error {
	logger := middleware.GetLogger(ctx)

	course, err := s.findPublishedCourse(ctx, slug)
	if err != nil {
		return err
	}

	enrollment, err := s.enrollmentRepo.FindByUserAndCourse(ctx, s.db, userID, course.CourseID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewAppError("NOT_ENROLLED", "このコースには登録されていません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding enrollment", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.enrollmentRepo.Update(ctx, tx, enrollment.EnrollmentID, map[string]interface{}{
			"status":     model.EnrollmentDropped,
			"updated_at": time.Now(),
		})
	})
	if err != nil {
		logger.Error("Failed to drop enrollment", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "受講解除に失敗しました。", "", err)
	}

	logger.Info("Enrollment dropped", "enrollment_id", enrollment.EnrollmentID)
	return nil
}

// ListByUser は自分の受講一覧を進捗付きで返します
func (s *enrollmentService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.EnrollmentResponse, error) {
	logger := middleware.GetLogger(ctx)

	enrollments, err := s.enrollmentRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		logger.Error("Error listing enrollments", "error", err, "user_id", userID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	responses := make([]*model.EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		responses = append(responses, model.NewEnrollmentResponse(e))
	}
	return responses, nil
}

// CompleteLesson はレッスン完了を記録し、同一トランザクション内で進捗を再計算します。
// 受講登録が存在しない場合は 404。完了済みレッスンの再送は 409。
func (s *enrollmentService) CompleteLesson(ctx context.Context, userID uuid.UUID, slug string, lessonID uuid.UUID) (*model.Enrollment, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.findPublishedCourse(ctx, slug)
	if err != nil {
		return nil, err
	}

	lesson, err := s.lessonRepo.FindByID(ctx, s.db, lessonID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("LESSON_NOT_FOUND", "レッスンが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding lesson", "error", err, "lesson_id", lessonID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	if lesson.CourseID != course.CourseID {
		return nil, model.NewAppError("LESSON_NOT_FOUND", "レッスンが見つかりません。", "", model.ErrNotFound)
	}

	var updated *model.Enrollment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 受講登録は事前に存在していなければならない。自動作成はしない。
		enrollment, err := s.enrollmentRepo.FindByUserAndCourse(ctx, tx, userID, course.CourseID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_ENROLLED", "このコースには登録されていません。", "", model.ErrNotFound)
			}
			return err
		}

		completion := &model.LessonCompletion{
			CompletionID: uuid.New(),
			UserID:       userID,
			LessonID:     lessonID,
			CourseID:     course.CourseID,
			CompletedAt:  time.Now(),
		}
		if err := s.completionRepo.Create(ctx, tx, completion); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("ALREADY_COMPLETED", "このレッスンは既に完了しています。", "", model.ErrConflict)
			}
			return err
		}

		updated, err = s.recomputeProgressTx(ctx, tx, enrollment)
		return err
	})
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Error("Transaction failed for CompleteLesson", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "レッスン完了の記録に失敗しました。", "", err)
	}

	logger.Info("Lesson completed",
		"user_id", userID.String(),
		"lesson_id", lessonID.String(),
		"progress", updated.Progress,
	)
	return updated, nil
}

// RecomputeProgress は完了数から進捗を計算し直します。完了記録と独立に呼べます。
func (s *enrollmentService) RecomputeProgress(ctx context.Context, userID, courseID uuid.UUID) (*model.Enrollment, error) {
	logger := middleware.GetLogger(ctx)

	var updated *model.Enrollment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment, err := s.enrollmentRepo.FindByUserAndCourse(ctx, tx, userID, courseID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_ENROLLED", "このコースには登録されていません。", "", model.ErrNotFound)
			}
			return err
		}
		updated, err = s.recomputeProgressTx(ctx, tx, enrollment)
		return err
	})
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Error("Transaction failed for RecomputeProgress", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗の再計算に失敗しました。", "", err)
	}
	return updated, nil
}

// recomputeProgressTx が進捗計算の本体です。
// progress = round(100 * 完了数 / 総レッスン数)。レッスン0件なら0。
// ちょうど100になったときだけ completed に遷移し、completed_at は一度だけ打ちます。
func (s *enrollmentService) recomputeProgressTx(ctx context.Context, tx *gorm.DB, enrollment *model.Enrollment) (*model.Enrollment, error) {
	total, err := s.lessonRepo.CountByCourse(ctx, tx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}
	completed, err := s.completionRepo.CountByUserAndCourse(ctx, tx, enrollment.UserID, enrollment.CourseID)
	if err != nil {
		return nil, err
	}

	progress := 0
	if total > 0 {
		progress = int(math.Round(100 * float64(completed) / float64(total)))
	}

	now := time.Now()
	updates := map[string]interface{}{
		"progress":   progress,
		"updated_at": now,
	}
	if progress == 100 {
		updates["status"] = model.EnrollmentCompleted
		if enrollment.CompletedAt == nil {
			updates["completed_at"] = now
		}
	}

	if err := s.enrollmentRepo.Update(ctx, tx, enrollment.EnrollmentID, updates); err != nil {
		return nil, err
	}

	enrollment.Progress = progress
	if progress == 100 {
		enrollment.Status = model.EnrollmentCompleted
		if enrollment.CompletedAt == nil {
			enrollment.CompletedAt = &now
		}
	}
	return enrollment, nil
}
