package service

import (
	"context"
	"testing"
	"time"

	"go_lms_hub/internal/config"
	"go_lms_hub/internal/model"
	"go_lms_hub/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- テストヘルパー関数 (インメモリDBセットアップ) ---
// テストごとに独立したDBを使う。TranslateErrorを有効にすると
// sqliteの一意制約違反が gorm.ErrDuplicatedKey になり、
// リポジトリ層の ErrConflict 変換が本番 (Postgres 23505) と同じ経路で動く。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent), // テスト中はログを抑制
	})
	require.NoError(t, err, "failed to connect database for testing")

	err = db.AutoMigrate(
		&model.Profile{},
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.LessonCompletion{},
		&model.Review{},
		&model.InstructorApplication{},
	)
	require.NoError(t, err, "failed to migrate database for testing")
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			PageLimit:       20,
			CacheTTLSeconds: 300,
		},
		JWT: config.JWTConfig{
			SecretKey:     "test-secret-key",
			ExpiryMinutes: 60,
		},
	}
}

// fakeCache は CourseCache の何もしない実装。常にキャッシュミス扱い。
type fakeCache struct{}

func (fakeCache) GetJSON(ctx context.Context, key string, out any) (bool, error) { return false, nil }
func (fakeCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
func (fakeCache) Delete(ctx context.Context, key string) error            { return nil }
func (fakeCache) DeleteByPattern(ctx context.Context, pattern string) error { return nil }

// --- テストデータ生成ヘルパー ---

func createTestProfile(t *testing.T, db *gorm.DB, role model.Role) *model.Profile {
	t.Helper()
	profile := &model.Profile{
		ProfileID:    uuid.New(),
		Name:         "テスト太郎",
		Email:        uuid.NewString() + "@example.com",
		Role:         role,
		PasswordHash: "dummy-hash",
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func createTestCourse(t *testing.T, db *gorm.DB, instructorID uuid.UUID, published bool, lessonCount int) *model.Course {
	t.Helper()
	course := &model.Course{
		CourseID:     uuid.New(),
		Slug:         "course-" + uuid.NewString(),
		Title:        "テストコース",
		InstructorID: instructorID,
		Published:    published,
	}
	if published {
		now := time.Now()
		course.PublishedAt = &now
	}
	require.NoError(t, db.Create(course).Error)

	for i := 0; i < lessonCount; i++ {
		lesson := &model.Lesson{
			LessonID: uuid.New(),
			CourseID: course.CourseID,
			Title:    "レッスン",
			Position: i + 1,
		}
		require.NoError(t, db.Create(lesson).Error)
	}
	return course
}

func courseLessons(t *testing.T, db *gorm.DB, courseID uuid.UUID) []*model.Lesson {
	t.Helper()
	var lessons []*model.Lesson
	require.NoError(t, db.Where("course_id = ?", courseID).Order("position ASC").Find(&lessons).Error)
	return lessons
}

func newTestEnrollmentService(db *gorm.DB) EnrollmentService {
	return NewEnrollmentService(
		db,
		repository.NewGormEnrollmentRepository(),
		repository.NewGormCompletionRepository(),
		repository.NewGormCourseRepository(),
		repository.NewGormLessonRepository(),
	)
}

func newTestReviewService(db *gorm.DB) ReviewService {
	return NewReviewService(
		db,
		repository.NewGormReviewRepository(),
		repository.NewGormEnrollmentRepository(),
		repository.NewGormCourseRepository(),
		repository.NewGormProfileRepository(),
		fakeCache{},
		testConfig(),
	)
}
