// internal/handlers/profile_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_lms_hub/internal/middleware"
	"go_lms_hub/internal/model"
	"go_lms_hub/internal/service"
	"go_lms_hub/internal/webutil"
)

type ProfileHandler struct {
	service service.AuthService
	logger  *slog.Logger
}

func NewProfileHandler(s service.AuthService, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{
		service: s,
		logger:  logger,
	}
}

// GetMe は自分のプロフィールを返すハンドラ
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetMe"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		logger.Error("Error getting profile in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.NewProfileResponse(profile), logger)
}

// ListProfiles は管理者向けのユーザー一覧ハンドラ
func (h *ProfileHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListProfiles"))

	limit, offset := parseLimitOffset(r)
	profiles, err := h.service.ListProfiles(r.Context(), limit, offset)
	if err != nil {
		logger.Error("Error listing profiles in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	responses := make([]*model.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		responses = append(responses, model.NewProfileResponse(p))
	}
	webutil.RespondWithJSON(w, http.StatusOK, responses, logger)
}
