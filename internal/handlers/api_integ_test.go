package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go_lms_hub/internal/config"
	"go_lms_hub/internal/handlers"
	"go_lms_hub/internal/middleware"
	"go_lms_hub/internal/model"
	"go_lms_hub/internal/repository"
	"go_lms_hub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// nopCourseCache は常にキャッシュミスするテスト用の CourseCache 実装
type nopCourseCache struct{}

func (nopCourseCache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	return false, nil
}
func (nopCourseCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
func (nopCourseCache) Delete(ctx context.Context, key string) error              { return nil }
func (nopCourseCache) DeleteByPattern(ctx context.Context, pattern string) error { return nil }

// --- テスト環境 (インメモリDB + 開発用認証ミドルウェアのルーター) ---
type testEnv struct {
	db     *gorm.DB
	router chi.Router
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	config.Cfg.App.PageLimit = 20
	config.Cfg.App.CacheTTLSeconds = 300

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Profile{},
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.LessonCompletion{},
		&model.Review{},
		&model.InstructorApplication{},
	))

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	profileRepo := repository.NewGormProfileRepository()
	courseRepo := repository.NewGormCourseRepository()
	lessonRepo := repository.NewGormLessonRepository()
	enrollmentRepo := repository.NewGormEnrollmentRepository()
	completionRepo := repository.NewGormCompletionRepository()
	reviewRepo := repository.NewGormReviewRepository()
	applicationRepo := repository.NewGormApplicationRepository()

	authService := service.NewAuthService(db, profileRepo, &config.Cfg)
	courseService := service.NewCourseService(db, courseRepo, lessonRepo, profileRepo, nopCourseCache{}, &config.Cfg)
	enrollmentService := service.NewEnrollmentService(db, enrollmentRepo, completionRepo, courseRepo, lessonRepo)
	reviewService := service.NewReviewService(db, reviewRepo, enrollmentRepo, courseRepo, profileRepo, nopCourseCache{}, &config.Cfg)
	applicationService := service.NewApplicationService(db, applicationRepo, profileRepo, &service.LogMailer{}, &config.Cfg)

	authHandler := handlers.NewAuthHandler(authService, testLogger)
	profileHandler := handlers.NewProfileHandler(authService, testLogger)
	courseHandler := handlers.NewCourseHandler(courseService, testLogger)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService, testLogger)
	reviewHandler := handlers.NewReviewHandler(reviewService, testLogger)
	applicationHandler := handlers.NewApplicationHandler(applicationService, testLogger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/courses", courseHandler.ListCourses)
		r.Get("/courses/{slug}", courseHandler.GetCourse)
		r.Get("/courses/{slug}/reviews", reviewHandler.ListReviews)

		r.Group(func(r chi.Router) {
			r.Use(middleware.DevUserContextMiddleware)

			r.Get("/users/me", profileHandler.GetMe)
			r.Get("/users/me/enrollments", enrollmentHandler.ListMyEnrollments)

			r.Route("/courses/{slug}", func(r chi.Router) {
				r.Post("/enroll", enrollmentHandler.Enroll)
				r.Delete("/enroll", enrollmentHandler.Unenroll)
				r.Post("/lessons/{lesson_id}/complete", enrollmentHandler.CompleteLesson)
				r.Post("/reviews", reviewHandler.PostReview)
				r.Put("/reviews/{review_id}", reviewHandler.PutReview)
				r.Delete("/reviews/{review_id}", reviewHandler.DeleteReview)
			})

			r.Post("/instructor/applications", applicationHandler.Apply)

			r.Route("/instructor/courses", func(r chi.Router) {
				r.Use(middleware.RequireRole(db, profileRepo, model.RoleInstructor))
				r.Post("/", courseHandler.PostCourse)
				r.Get("/", courseHandler.ListOwnCourses)
				r.Put("/{slug}/publish", courseHandler.PublishCourse)
				r.Post("/{slug}/lessons", courseHandler.PostLesson)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(db, profileRepo, model.RoleAdmin))
				r.Get("/instructor-applications", applicationHandler.ListApplications)
				r.Patch("/instructor-applications/{application_id}", applicationHandler.PatchApplication)
				r.Get("/profiles", profileHandler.ListProfiles)
			})
		})
	})

	return &testEnv{db: db, router: r}
}

func (e *testEnv) createProfile(t *testing.T, role model.Role) *model.Profile {
	t.Helper()
	profile := &model.Profile{
		ProfileID:    uuid.New(),
		Name:         "テスト太郎",
		Email:        uuid.NewString() + "@example.com",
		Role:         role,
		PasswordHash: "dummy-hash",
	}
	require.NoError(t, e.db.Create(profile).Error)
	return profile
}

func (e *testEnv) createPublishedCourse(t *testing.T, instructorID uuid.UUID, lessonCount int) (*model.Course, []*model.Lesson) {
	t.Helper()
	now := time.Now()
	course := &model.Course{
		CourseID:     uuid.New(),
		Slug:         "course-" + uuid.NewString(),
		Title:        "テストコース",
		InstructorID: instructorID,
		Published:    true,
		PublishedAt:  &now,
	}
	require.NoError(t, e.db.Create(course).Error)

	lessons := make([]*model.Lesson, 0, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lesson := &model.Lesson{
			LessonID: uuid.New(),
			CourseID: course.CourseID,
			Title:    "レッスン",
			Position: i + 1,
		}
		require.NoError(t, e.db.Create(lesson).Error)
		lessons = append(lessons, lesson)
	}
	return course, lessons
}

// request はヘッダー付きでリクエストを実行するヘルパー
func (e *testEnv) request(t *testing.T, method, path string, body any, userID *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != nil {
		req.Header.Set("X-User-ID", userID.String())
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.APIErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestAPI_EnrollFlow(t *testing.T) {
	env := setupTestEnv(t)
	instructor := env.createProfile(t, model.RoleInstructor)
	student := env.createProfile(t, model.RoleStudent)
	course, lessons := env.createPublishedCourse(t, instructor.ProfileID, 2)

	t.Run("正常系: 受講登録は201を返す", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/v1/courses/"+course.Slug+"/enroll", nil, &student.ProfileID)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var resp model.EnrollmentResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, model.EnrollmentActive, resp.Status)
		assert.Equal(t, 0, resp.Progress)
	})

	t.Run("異常系: 二重登録は409とALREADY_ENROLLEDを返す", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/v1/courses/"+course.Slug+"/enroll", nil, &student.ProfileID)
		require.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "ALREADY_ENROLLED", errorCode(t, rr))
	})

	t.Run("正常系: 全レッスン完了で進捗100が返る", func(t *testing.T) {
		for i, lesson := range lessons {
			rr := env.request(t, http.MethodPost,
				"/api/v1/courses/"+course.Slug+"/lessons/"+lesson.LessonID.String()+"/complete", nil, &student.ProfileID)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			var resp model.EnrollmentResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if i == len(lessons)-1 {
				assert.Equal(t, 100, resp.Progress)
				assert.Equal(t, model.EnrollmentCompleted, resp.Status)
				assert.NotNil(t, resp.CompletedAt)
			}
		}
	})

	t.Run("異常系: 完了済みレッスンの再送は409を返す", func(t *testing.T) {
		rr := env.request(t, http.MethodPost,
			"/api/v1/courses/"+course.Slug+"/lessons/"+lessons[0].LessonID.String()+"/complete", nil, &student.ProfileID)
		require.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "ALREADY_COMPLETED", errorCode(t, rr))
	})

	t.Run("異常系: X-User-IDなしは401を返す", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/v1/courses/"+course.Slug+"/enroll", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAPI_RoleGate(t *testing.T) {
	env := setupTestEnv(t)
	student := env.createProfile(t, model.RoleStudent)
	instructor := env.createProfile(t, model.RoleInstructor)
	admin := env.createProfile(t, model.RoleAdmin)

	courseReq := model.CreateCourseRequest{Title: "Role Gate Course", Description: "desc"}

	t.Run("異常系: 受講者のコース作成は403を返す", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/v1/instructor/courses/", courseReq, &student.ProfileID)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("正常系: 講師はコースを作成できる", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/v1/instructor/courses/", courseReq, &instructor.ProfileID)
		assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	})

	t.Run("正常系: 管理者は講師向けエンドポイントを使える", func(t *testing.T) {
		adminReq := model.CreateCourseRequest{Title: "Admin Made Course"}
		rr := env.request(t, http.MethodPost, "/api/v1/instructor/courses/", adminReq, &admin.ProfileID)
		assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	})

	t.Run("異常系: 講師の管理者向けエンドポイントは403を返す", func(t *testing.T) {
		rr := env.request(t, http.MethodGet, "/api/v1/admin/profiles", nil, &instructor.ProfileID)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("正常系: 管理者はユーザー一覧を取得できる", func(t *testing.T) {
		rr := env.request(t, http.MethodGet, "/api/v1/admin/profiles", nil, &admin.ProfileID)
		require.Equal(t, http.StatusOK, rr.Code)

		var profiles []*model.ProfileResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profiles))
		assert.Len(t, profiles, 3)
	})
}

func TestAPI_ReviewFlow(t *testing.T) {
	env := setupTestEnv(t)
	instructor := env.createProfile(t, model.RoleInstructor)
	student := env.createProfile(t, model.RoleStudent)
	course, _ := env.createPublishedCourse(t, instructor.ProfileID, 1)

	rr := env.request(t, http.MethodPost, "/api/v1/courses/"+course.Slug+"/enroll", nil, &student.ProfileID)
	require.Equal(t, http.StatusCreated, rr.Code)

	t.Run("正常系: レビュー投稿は201を返す", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/v1/courses/"+course.Slug+"/reviews",
			model.CreateReviewRequest{Rating: 5, Comment: "良かった"}, &student.ProfileID)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	})

	t.Run("正常系: レビュー一覧は認証なしで読める", func(t *testing.T) {
		rr := env.request(t, http.MethodGet, "/api/v1/courses/"+course.Slug+"/reviews", nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var reviews []*model.Review
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reviews))
		require.Len(t, reviews, 1)
		assert.Equal(t, 5, reviews[0].Rating)
	})

	t.Run("正常系: コース詳細に平均評価が反映される", func(t *testing.T) {
		rr := env.request(t, http.MethodGet, "/api/v1/courses/"+course.Slug, nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp model.CourseResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 5.0, resp.AverageRating)
		assert.Equal(t, 1, resp.ReviewCount)
	})

	t.Run("異常系: 評価6のレビューは400を返す", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/v1/courses/"+course.Slug+"/reviews",
			map[string]any{"rating": 6}, &student.ProfileID)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rr))
	})

	t.Run("異常系: 未受講ユーザーの投稿は403を返す", func(t *testing.T) {
		other := env.createProfile(t, model.RoleStudent)
		rr := env.request(t, http.MethodPost, "/api/v1/courses/"+course.Slug+"/reviews",
			model.CreateReviewRequest{Rating: 3}, &other.ProfileID)
		require.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "NOT_ENROLLED", errorCode(t, rr))
	})
}

func TestAPI_InstructorApplicationFlow(t *testing.T) {
	env := setupTestEnv(t)
	student := env.createProfile(t, model.RoleStudent)
	admin := env.createProfile(t, model.RoleAdmin)

	t.Run("正常系: 申請から承認まで通して講師になれる", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/v1/instructor/applications",
			model.CreateApplicationRequest{Bio: "Goを教えたい", Expertise: "Go"}, &student.ProfileID)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var app model.InstructorApplication
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &app))

		rr = env.request(t, http.MethodPatch,
			"/api/v1/admin/instructor-applications/"+app.ApplicationID.String(),
			model.ReviewApplicationRequest{Action: "approve"}, &admin.ProfileID)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		// 承認後は講師向けエンドポイントを使える
		rr = env.request(t, http.MethodPost, "/api/v1/instructor/courses/",
			model.CreateCourseRequest{Title: "New Instructor Course"}, &student.ProfileID)
		assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	})

	t.Run("異常系: 申請の審査は受講者には403を返す", func(t *testing.T) {
		other := env.createProfile(t, model.RoleStudent)
		rr := env.request(t, http.MethodGet, "/api/v1/admin/instructor-applications", nil, &other.ProfileID)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestAPI_Auth(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("正常系: 登録してログインできる", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/v1/auth/register",
			model.RegisterRequest{Name: "山田太郎", Email: "api@example.com", Password: "password123"}, nil)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		rr = env.request(t, http.MethodPost, "/api/v1/auth/login",
			model.LoginRequest{Email: "api@example.com", Password: "password123"}, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp model.LoginResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("異常系: メールアドレス形式の不正は400を返す", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/v1/auth/register",
			model.RegisterRequest{Name: "山田太郎", Email: "not-an-email", Password: "password123"}, nil)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rr))
	})

	t.Run("異常系: パスワード不一致は401を返す", func(t *testing.T) {
		rr := env.request(t, http.MethodPost, "/api/v1/auth/login",
			model.LoginRequest{Email: "api@example.com", Password: "wrong-password"}, nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "AUTHENTICATION_FAILED", errorCode(t, rr))
	})
}
