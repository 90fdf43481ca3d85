// internal/handlers/review_handler.go
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

type ReviewHandler struct {
	service service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(s service.ReviewService, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{
		service: s,
		logger:  logger,
	}
}

// ListReviews はコースのレビュー一覧を返すハンドラ (認証不要)
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListReviews"))
	slug := chi.URLParam(r, "slug")

	limit, offset := parseLimitOffset(r)
	reviews, err := h.service.ListReviews(r.Context(), slug, limit, offset)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, reviews, logger)
}

// PostReview はレビュー投稿のハンドラ。受講登録が前提です。
func (h *ReviewHandler) PostReview(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostReview"))
	slug := chi.URLParam(r, "slug")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.CreateReviewRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), userID, slug, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Review created successfully", slog.String("review_id", review.ReviewID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, review, logger)
}

// PutReview はレビュー更新のハンドラ (本人または管理者)
func (h *ReviewHandler) PutReview(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutReview"))
	slug := chi.URLParam(r, "slug")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	reviewID, err := uuid.Parse(chi.URLParam(r, "review_id"))
	if err != nil {
		logger.Warn("Invalid review ID format", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REVIEW_ID", "レビューIDの形式が正しくありません。", "review_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	var req model.UpdateReviewRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	review, err := h.service.UpdateReview(r.Context(), userID, slug, reviewID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Review updated successfully", slog.String("review_id", review.ReviewID.String()))
	webutil.RespondWithJSON(w, http.StatusOK, review, logger)
}

// DeleteReview はレビュー削除のハンドラ (本人または管理者)
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteReview"))
	slug := chi.URLParam(r, "slug")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	reviewID, err := uuid.Parse(chi.URLParam(r, "review_id"))
	if err != nil {
		logger.Warn("Invalid review ID format", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REVIEW_ID", "レビューIDの形式が正しくありません。", "review_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := h.service.DeleteReview(r.Context(), userID, slug, reviewID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Review deleted successfully", slog.String("review_id", reviewID.String()))
	w.WriteHeader(http.StatusNoContent)
}
