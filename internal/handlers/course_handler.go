// internal/handlers/course_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_lms_hub/internal/middleware"
	"go_lms_hub/internal/model"
	"go_lms_hub/internal/service"
	"go_lms_hub/internal/webutil"

	"github.com/go-chi/chi/v5"
)

type CourseHandler struct {
	service service.CourseService
	logger  *slog.Logger
}

func NewCourseHandler(s service.CourseService, logger *slog.Logger) *CourseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseHandler{
		service: s,
		logger:  logger,
	}
}

// ListCourses は公開済みコース一覧を返すハンドラ (認証不要)
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListCourses"))

	limit, offset := parseLimitOffset(r)
	courses, err := h.service.ListPublishedCourses(r.Context(), limit, offset)
	if err != nil {
		logger.Error("Error listing courses in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, courses, logger)
}

// GetCourse は公開済みコースの詳細を返すハンドラ (認証不要)
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetCourse"))
	slug := chi.URLParam(r, "slug")

	course, err := h.service.GetPublishedCourse(r.Context(), slug)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, course, logger)
}

// PostCourse は講師がコースを作成するハンドラ
func (h *CourseHandler) PostCourse(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostCourse"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("instructor_id", userID.String()))

	var req model.CreateCourseRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	course, err := h.service.CreateCourse(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error creating course in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Course created successfully", slog.String("course_id", course.CourseID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, model.NewCourseResponse(course, 0), logger)
}

// PublishCourse はコースを公開するハンドラ
func (h *CourseHandler) PublishCourse(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PublishCourse"))
	slug := chi.URLParam(r, "slug")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	course, err := h.service.PublishCourse(r.Context(), userID, slug)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Course published successfully", slog.String("course_id", course.CourseID.String()))
	webutil.RespondWithJSON(w, http.StatusOK, model.NewCourseResponse(course, 0), logger)
}

// PostLesson はコースにレッスンを追加するハンドラ
func (h *CourseHandler) PostLesson(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostLesson"))
	slug := chi.URLParam(r, "slug")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreateLessonRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	lesson, err := h.service.AddLesson(r.Context(), userID, slug, &req)
	if err != nil {
		logger.Error("Error adding lesson in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Lesson added successfully", slog.String("lesson_id", lesson.LessonID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, lesson, logger)
}

// ListOwnCourses は講師ダッシュボード用の自コース一覧ハンドラ
func (h *CourseHandler) ListOwnCourses(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListOwnCourses"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	courses, err := h.service.ListInstructorCourses(r.Context(), userID)
	if err != nil {
		logger.Error("Error listing instructor courses in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, courses, logger)
}
