// internal/handlers/application_handler.go
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

type ApplicationHandler struct {
	service service.ApplicationService
	logger  *slog.Logger
}

func NewApplicationHandler(s service.ApplicationService, logger *slog.Logger) *ApplicationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplicationHandler{
		service: s,
		logger:  logger,
	}
}

// Apply は講師申請のハンドラ。審査待ちは1人1件までです。
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Apply"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.CreateApplicationRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	app, err := h.service.Apply(r.Context(), userID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Application submitted successfully", slog.String("application_id", app.ApplicationID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, app, logger)
}

// ListApplications は管理者向けの申請一覧ハンドラ。?status= で絞り込みます。
func (h *ApplicationHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListApplications"))

	status := model.ApplicationStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.ApplicationPending
	}

	limit, offset := parseLimitOffset(r)
	apps, err := h.service.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, apps, logger)
}

// PatchApplication は申請の承認/却下を行う管理者向けハンドラ
func (h *ApplicationHandler) PatchApplication(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchApplication"))

	reviewerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	applicationID, err := uuid.Parse(chi.URLParam(r, "application_id"))
	if err != nil {
		logger.Warn("Invalid application ID format", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_APPLICATION_ID", "申請IDの形式が正しくありません。", "application_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	var req model.ReviewApplicationRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	app, err := h.service.Review(r.Context(), reviewerID, applicationID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Application reviewed successfully",
		slog.String("application_id", app.ApplicationID.String()),
		slog.String("status", string(app.Status)),
	)
	webutil.RespondWithJSON(w, http.StatusOK, app, logger)
}
