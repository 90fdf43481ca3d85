package middleware

import (
	"errors"
	"net/http"

	"go_lms_hub/internal/model"
	"go_lms_hub/internal/repository"
	"go_lms_hub/internal/webutil"

	"gorm.io/gorm"
)

// RequireRole は認証済みユーザーのロールをDBから引き直し、許可リストと照合する
// ミドルウェアです。トークン発行後にロールが変わっても次のリクエストから反映
// されるように、トークンのクレームではなくプロフィールを参照します。
// プロフィールが消えているトークンは未認証として扱います。
func RequireRole(db *gorm.DB, profileRepo repository.ProfileRepository, allowed ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			userID, err := GetUserIDFromContext(r.Context())
			if err != nil {
				webutil.HandleError(w, logger, err)
				return
			}

			profile, err := profileRepo.FindByID(r.Context(), db, userID)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					logger.Warn("Role check failed: profile not found for authenticated user", "user_id", userID.String())
					appErr := model.NewAppError("UNAUTHORIZED", "ユーザーが存在しません。", "", model.ErrUnauthorized)
					webutil.HandleError(w, logger, appErr)
					return
				}
				logger.Error("Role check failed: error fetching profile", "error", err, "user_id", userID.String())
				webutil.HandleError(w, logger, err)
				return
			}

			if !model.RoleAllowed(profile.Role, allowed...) {
				logger.Warn("Role check failed: insufficient role",
					"user_id", userID.String(),
					"role", string(profile.Role),
				)
				appErr := model.NewAppError("FORBIDDEN", "この操作を行う権限がありません。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
