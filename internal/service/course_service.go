package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_lms_hub/internal/config"
	"go_lms_hub/internal/middleware"
	"go_lms_hub/internal/model"
	"go_lms_hub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseCache はコース読み取り系のTTLキャッシュです。実体は internal/cache.Redis。
type CourseCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type CourseService interface {
	CreateCourse(ctx context.Context, instructorID uuid.UUID, req *model.CreateCourseRequest) (*model.Course, error)
	PublishCourse(ctx context.Context, actorID uuid.UUID, slug string) (*model.Course, error)
	AddLesson(ctx context.Context, actorID uuid.UUID, slug string, req *model.CreateLessonRequest) (*model.Lesson, error)
	GetPublishedCourse(ctx context.Context, slug string) (*model.CourseResponse, error)
	ListPublishedCourses(ctx context.Context, limit, offset int) ([]*model.CourseResponse, error)
	ListInstructorCourses(ctx context.Context, instructorID uuid.UUID) ([]*model.CourseResponse, error)
}

type courseService struct {
	db          *gorm.DB
	courseRepo  repository.CourseRepository
	lessonRepo  repository.LessonRepository
	profileRepo repository.ProfileRepository
	cache       CourseCache
	cfg         *config.Config
}

func NewCourseService(db *gorm.DB, courseRepo repository.CourseRepository, lessonRepo repository.LessonRepository, profileRepo repository.ProfileRepository, cache CourseCache, cfg *config.Config) CourseService {
	return &courseService{
		db:          db,
		courseRepo:  courseRepo,
		lessonRepo:  lessonRepo,
		profileRepo: profileRepo,
		cache:       cache,
		cfg:         cfg,
	}
}

func courseCacheKey(slug string) string {
	return "courses:slug:" + slug
}

func courseListCacheKey(limit, offset int) string {
	return fmt.Sprintf("courses:list:%d:%d", limit, offset)
}

func (s *courseService) cacheTTL() time.Duration {
	return time.Duration(s.cfg.App.CacheTTLSeconds) * time.Second
}

// invalidateCourseCache はコースの公開状態や評価が変わったときに呼びます。
func (s *courseService) invalidateCourseCache(ctx context.Context, slug string) {
	logger := middleware.GetLogger(ctx)
	if err := s.cache.Delete(ctx, courseCacheKey(slug)); err != nil {
		logger.Warn("Failed to invalidate course cache", "slug", slug, "error", err)
	}
	if err := s.cache.DeleteByPattern(ctx, "courses:list:*"); err != nil {
		logger.Warn("Failed to invalidate course list cache", "error", err)
	}
}

// CreateCourse は講師のコースを下書き (未公開) 状態で作成します
func (s *courseService) CreateCourse(ctx context.Context, instructorID uuid.UUID, req *model.CreateCourseRequest) (*model.Course, error) {
	logger := middleware.GetLogger(ctx)

	slug := model.Slugify(req.Title)
	if slug == "" {
		return nil, model.NewAppError("INVALID_TITLE", "タイトルからスラッグを生成できません。", "title", model.ErrInvalidInput)
	}

	var created *model.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course := &model.Course{
			CourseID:     uuid.New(),
			Slug:         slug,
			Title:        req.Title,
			Description:  req.Description,
			InstructorID: instructorID,
			Published:    false,
		}
		if err := s.courseRepo.Create(ctx, tx, course); err != nil {
			if errors.Is(err, model.ErrConflict) {
				logger.Warn("Course slug already exists", "slug", slug)
				return model.NewAppError("DUPLICATE_SLUG", "同じタイトルのコースが既に存在します。", "title", model.ErrConflict)
			}
			logger.Error("Failed to create course in DB", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "コースの作成に失敗しました。", "", err)
		}
		created = course
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Course created", "course_id", created.CourseID, "slug", created.Slug)
	return created, nil
}

// findOwnedCourse はスラッグでコースを引き、所有者 (または管理者) か検証します
func (s *courseService) findOwnedCourse(ctx context.Context, actorID uuid.UUID, slug string) (*model.Course, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.courseRepo.FindBySlug(ctx, s.db, slug)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("COURSE_NOT_FOUND", "コースが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding course by slug", "error", err, "slug", slug)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	if course.InstructorID != actorID {
		actor, err := s.profileRepo.FindByID(ctx, s.db, actorID)
		if err != nil {
			logger.Error("Error finding actor profile", "error", err, "actor_id", actorID.String())
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
		}
		if actor.Role != model.RoleAdmin {
			logger.Warn("Course ownership check failed", "slug", slug, "actor_id", actorID.String())
			return nil, model.NewAppError("FORBIDDEN", "自分のコース以外は操作できません。", "", model.ErrForbidden)
		}
	}
	return course, nil
}

// PublishCourse はコースを公開します。既に公開済みなら何もしません。
func (s *courseService) PublishCourse(ctx context.Context, actorID uuid.UUID, slug string) (*model.Course, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.findOwnedCourse(ctx, actorID, slug)
	if err != nil {
		return nil, err
	}
	if course.Published {
		return course, nil
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.courseRepo.Update(ctx, tx, course.CourseID, map[string]interface{}{
			"published":    true,
			"published_at": now,
			"updated_at":   now,
		})
	})
	if err != nil {
		logger.Error("Failed to publish course", "error", err, "slug", slug)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "コースの公開に失敗しました。", "", err)
	}

	course.Published = true
	course.PublishedAt = &now
	s.invalidateCourseCache(ctx, slug)

	logger.Info("Course published", "course_id", course.CourseID, "slug", slug)
	return course, nil
}

// AddLesson はコースにレッスンを追加します
func (s *courseService) AddLesson(ctx context.Context, actorID uuid.UUID, slug string, req *model.CreateLessonRequest) (*model.Lesson, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.findOwnedCourse(ctx, actorID, slug)
	if err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		LessonID:        uuid.New(),
		CourseID:        course.CourseID,
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
		Position:        req.Position,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.lessonRepo.Create(ctx, tx, lesson)
	})
	if err != nil {
		logger.Error("Failed to create lesson", "error", err, "slug", slug)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "レッスンの追加に失敗しました。", "", err)
	}

	// レッスン数が変わるとコース詳細のキャッシュが古くなる
	s.invalidateCourseCache(ctx, slug)

	logger.Info("Lesson added", "lesson_id", lesson.LessonID, "course_id", course.CourseID)
	return lesson, nil
}

// GetPublishedCourse は公開済みコースの詳細をキャッシュ経由で返します
func (s *courseService) GetPublishedCourse(ctx context.Context, slug string) (*model.CourseResponse, error) {
	logger := middleware.GetLogger(ctx)

	key := courseCacheKey(slug)
	var cached model.CourseResponse
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	course, err := s.courseRepo.FindBySlug(ctx, s.db, slug)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("COURSE_NOT_FOUND", "コースが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding course by slug", "error", err, "slug", slug)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	// 未公開コースは公開側からは存在しない扱い
	if !course.Published {
		return nil, model.NewAppError("COURSE_NOT_FOUND", "コースが見つかりません。", "", model.ErrNotFound)
	}

	lessonCount, err := s.lessonRepo.CountByCourse(ctx, s.db, course.CourseID)
	if err != nil {
		logger.Error("Error counting lessons", "error", err, "course_id", course.CourseID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	resp := model.NewCourseResponse(course, int(lessonCount))
	if err := s.cache.SetJSON(ctx, key, resp, s.cacheTTL()); err != nil {
		logger.Warn("Failed to cache course", "slug", slug, "error", err)
	}
	return resp, nil
}

// ListPublishedCourses は公開済みコースの一覧をキャッシュ経由で返します
func (s *courseService) ListPublishedCourses(ctx context.Context, limit, offset int) ([]*model.CourseResponse, error) {
	logger := middleware.GetLogger(ctx)

	if limit <= 0 || limit > s.cfg.App.PageLimit {
		limit = s.cfg.App.PageLimit
	}
	if offset < 0 {
		offset = 0
	}

	key := courseListCacheKey(limit, offset)
	var cached []*model.CourseResponse
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	courses, err := s.courseRepo.FindPublished(ctx, s.db, limit, offset)
	if err != nil {
		logger.Error("Error listing published courses", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	responses := make([]*model.CourseResponse, 0, len(courses))
	for _, course := range courses {
		lessonCount, err := s.lessonRepo.CountByCourse(ctx, s.db, course.CourseID)
		if err != nil {
			logger.Error("Error counting lessons", "error", err, "course_id", course.CourseID.String())
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
		}
		responses = append(responses, model.NewCourseResponse(course, int(lessonCount)))
	}

	if err := s.cache.SetJSON(ctx, key, responses, s.cacheTTL()); err != nil {
		logger.Warn("Failed to cache course list", "error", err)
	}
	return responses, nil
}

// ListInstructorCourses は講師ダッシュボード用に自分のコースを返します (未公開含む)
func (s *courseService) ListInstructorCourses(ctx context.Context, instructorID uuid.UUID) ([]*model.CourseResponse, error) {
	logger := middleware.GetLogger(ctx)

	courses, err := s.courseRepo.FindByInstructor(ctx, s.db, instructorID)
	if err != nil {
		logger.Error("Error listing instructor courses", "error", err, "instructor_id", instructorID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	responses := make([]*model.CourseResponse, 0, len(courses))
	for _, course := range courses {
		lessonCount, err := s.lessonRepo.CountByCourse(ctx, s.db, course.CourseID)
		if err != nil {
			logger.Error("Error counting lessons", "error", err, "course_id", course.CourseID.String())
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
		}
		responses = append(responses, model.NewCourseResponse(course, int(lessonCount)))
	}
	return responses, nil
}
