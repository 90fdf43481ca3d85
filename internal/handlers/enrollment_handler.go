// internal/handlers/enrollment_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_lms_hub/internal/middleware"
	"go_lms_hub/internal/model"
	"go_lms_hub/internal/service"
	"go_lms_hub/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  *slog.Logger
}

func NewEnrollmentHandler(s service.EnrollmentService, logger *slog.Logger) *EnrollmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollmentHandler{
		service: s,
		logger:  logger,
	}
}

// Enroll は受講登録のハンドラ。二重登録は 409 を返します。
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Enroll"))
	slug := chi.URLParam(r, "slug")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	enrollment, err := h.service.Enroll(r.Context(), userID, slug)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Enrolled successfully", slog.String("enrollment_id", enrollment.EnrollmentID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, model.NewEnrollmentResponse(enrollment), logger)
}

// Unenroll は受講解除のハンドラ
func (h *EnrollmentHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Unenroll"))
	slug := chi.URLParam(r, "slug")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	if err := h.service.Unenroll(r.Context(), userID, slug); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMyEnrollments は自分の受講一覧を返すハンドラ
func (h *EnrollmentHandler) ListMyEnrollments(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListMyEnrollments"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	enrollments, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Error("Error listing enrollments in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, enrollments, logger)
}

// CompleteLesson はレッスン完了を記録するハンドラ
func (h *EnrollmentHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CompleteLesson"))
	slug := chi.URLParam(r, "slug")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	lessonID, err := uuid.Parse(chi.URLParam(r, "lesson_id"))
	if err != nil {
		logger.Warn("Invalid lesson ID format", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_LESSON_ID", "レッスンIDの形式が正しくありません。", "lesson_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	enrollment, err := h.service.CompleteLesson(r.Context(), userID, slug, lessonID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Lesson completed successfully",
		slog.String("lesson_id", lessonID.String()),
		slog.Int("progress", enrollment.Progress),
	)
	webutil.RespondWithJSON(w, http.StatusOK, model.NewEnrollmentResponse(enrollment), logger)
}
