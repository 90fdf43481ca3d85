package service

import (
	"context"
	"errors"
	"time"

	"go_lms_hub/internal/config"
	"go_lms_hub/internal/middleware"
	"go_lms_hub/internal/model"
	"go_lms_hub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewService interface {
	CreateReview(ctx context.Context, userID uuid.UUID, slug string, req *model.CreateReviewRequest) (*model.Review, error)
	ListReviews(ctx context.Context, slug string, limit, offset int) ([]*model.Review, error)
	UpdateReview(ctx context.Context, actorID uuid.UUID, slug string, reviewID uuid.UUID, req *model.UpdateReviewRequest) (*model.Review, error)
	DeleteReview(ctx context.Context, actorID uuid.UUID, slug string, reviewID uuid.UUID) error
}

type reviewService struct {
	db             *gorm.DB
	reviewRepo     repository.ReviewRepository
	enrollmentRepo repository.EnrollmentRepository
	courseRepo     repository.CourseRepository
	profileRepo    repository.ProfileRepository
	cache          CourseCache
	cfg            *config.Config
}

func NewReviewService(db *gorm.DB, reviewRepo repository.ReviewRepository, enrollmentRepo repository.EnrollmentRepository, courseRepo repository.CourseRepository, profileRepo repository.ProfileRepository, cache CourseCache, cfg *config.Config) ReviewService {
	return &reviewService{
		db:             db,
		reviewRepo:     reviewRepo,
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		profileRepo:    profileRepo,
		cache:          cache,
		cfg:            cfg,
	}
}

func (s *reviewService) findPublishedCourse(ctx context.Context, slug string) (*model.Course, error) {
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

// recomputeRatingTx はレビュー書き込みと同一トランザクション内で平均と件数を
// 計算し直し、コース行に保存します。値は丸めずに保存します。
func (s *reviewService) recomputeRatingTx(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	summary, err := s.reviewRepo.AggregateByCourse(ctx, tx, courseID)
	if err != nil {
		return err
	}
	return s.courseRepo.UpdateRating(ctx, tx, courseID, summary.Average, summary.Count)
}

func (s *reviewService) invalidateCourseCache(ctx context.Context, slug string) {
	logger := middleware.GetLogger(ctx)
	if err := s.cache.Delete(ctx, courseCacheKey(slug)); err != nil {
		logger.Warn("Failed to invalidate course cache", "slug", slug, "error", err)
	}
	if err := s.cache.DeleteByPattern(ctx, "courses:list:*"); err != nil {
		logger.Warn("Failed to invalidate course list cache", "error", err)
	}
}

// CreateReview はレビューを投稿します。受講登録済みであることが条件です。
func (s *reviewService) CreateReview(ctx context.Context, userID uuid.UUID, slug string, req *model.CreateReviewRequest) (*model.Review, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.findPublishedCourse(ctx, slug)
	if err != nil {
		return nil, err
	}

	_, err = s.enrollmentRepo.FindByUserAndCourse(ctx, s.db, userID, course.CourseID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Review rejected: not enrolled", "user_id", userID.String(), "slug", slug)
			return nil, model.NewAppError("NOT_ENROLLED", "受講登録していないコースにはレビューを投稿できません。", "", model.ErrForbidden)
		}
		logger.Error("Error finding enrollment", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	review := &model.Review{
		ReviewID: uuid.New(),
		UserID:   userID,
		CourseID: course.CourseID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reviewRepo.Create(ctx, tx, review); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("ALREADY_REVIEWED", "このコースには既にレビューを投稿済みです。", "", model.ErrConflict)
			}
			return err
		}
		return s.recomputeRatingTx(ctx, tx, course.CourseID)
	})
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Error("Transaction failed for CreateReview", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "レビューの投稿に失敗しました。", "", err)
	}

	s.invalidateCourseCache(ctx, slug)
	logger.Info("Review created", "review_id", review.ReviewID, "course_id", course.CourseID, "rating", review.Rating)
	return review, nil
}

// ListReviews は公開済みコースのレビュー一覧を返します
func (s *reviewService) ListReviews(ctx context.Context, slug string, limit, offset int) ([]*model.Review, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.findPublishedCourse(ctx, slug)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > s.cfg.App.PageLimit {
		limit = s.cfg.App.PageLimit
	}
	if offset < 0 {
		offset = 0
	}

	reviews, err := s.reviewRepo.FindByCourse(ctx, s.db, course.CourseID, limit, offset)
	if err != nil {
		logger.Error("Error listing reviews", "error", err, "slug", slug)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return reviews, nil
}

// findEditableReview はレビューを引き、投稿者本人か管理者であることを検証します
func (s *reviewService) findEditableReview(ctx context.Context, actorID uuid.UUID, course *model.Course, reviewID uuid.UUID) (*model.Review, error) {
	logger := middleware.GetLogger(ctx)

	review, err := s.reviewRepo.FindByID(ctx, s.db, reviewID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("REVIEW_NOT_FOUND", "レビューが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding review", "error", err, "review_id", reviewID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	if review.CourseID != course.CourseID {
		return nil, model.NewAppError("REVIEW_NOT_FOUND", "レビューが見つかりません。", "", model.ErrNotFound)
	}

	if review.UserID != actorID {
		actor, err := s.profileRepo.FindByID(ctx, s.db, actorID)
		if err != nil {
			logger.Error("Error finding actor profile", "error", err, "actor_id", actorID.String())
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
		}
		if actor.Role != model.RoleAdmin {
			logger.Warn("Review ownership check failed", "review_id", reviewID.String(), "actor_id", actorID.String())
			return nil, model.NewAppError("FORBIDDEN", "自分のレビュー以外は操作できません。", "", model.ErrForbidden)
		}
	}
	return review, nil
}

// UpdateReview はレビューを更新し、評価を集計し直します
func (s *reviewService) UpdateReview(ctx context.Context, actorID uuid.UUID, slug string, reviewID uuid.UUID, req *model.UpdateReviewRequest) (*model.Review, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.findPublishedCourse(ctx, slug)
	if err != nil {
		return nil, err
	}
	review, err := s.findEditableReview(ctx, actorID, course, reviewID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		updates["comment"] = *req.Comment
		review.Comment = *req.Comment
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reviewRepo.Update(ctx, tx, reviewID, updates); err != nil {
			return err
		}
		return s.recomputeRatingTx(ctx, tx, course.CourseID)
	})
	if err != nil {
		logger.Error("Transaction failed for UpdateReview", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "レビューの更新に失敗しました。", "", err)
	}

	s.invalidateCourseCache(ctx, slug)
	logger.Info("Review updated", "review_id", reviewID.String())
	return review, nil
}

// DeleteReview はレビューを削除し、評価を集計し直します
func (s *reviewService) DeleteReview(ctx context.Context, actorID uuid.UUID, slug string, reviewID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	course, err := s.findPublishedCourse(ctx, slug)
	if err != nil {
		return err
	}
	if _, err := s.findEditableReview(ctx, actorID, course, reviewID); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reviewRepo.Delete(ctx, tx, reviewID); err != nil {
			return err
		}
		return s.recomputeRatingTx(ctx, tx, course.CourseID)
	})
	if err != nil {
		logger.Error("Transaction failed for DeleteReview", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "レビューの削除に失敗しました。", "", err)
	}

	s.invalidateCourseCache(ctx, slug)
	logger.Info("Review deleted", "review_id", reviewID.String())
	return nil
}
