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

type ApplicationService interface {
	Apply(ctx context.Context, userID uuid.UUID, req *model.CreateApplicationRequest) (*model.InstructorApplication, error)
	ListByStatus(ctx context.Context, status model.ApplicationStatus, limit, offset int) ([]*model.InstructorApplication, error)
	Review(ctx context.Context, reviewerID, applicationID uuid.UUID, req *model.ReviewApplicationRequest) (*model.InstructorApplication, error)
}

type applicationService struct {
	db              *gorm.DB
	applicationRepo repository.ApplicationRepository
	profileRepo     repository.ProfileRepository
	mailer          Mailer
	cfg             *config.Config
}

func NewApplicationService(db *gorm.DB, applicationRepo repository.ApplicationRepository, profileRepo repository.ProfileRepository, mailer Mailer, cfg *config.Config) ApplicationService {
	return &applicationService{
		db:              db,
		applicationRepo: applicationRepo,
		profileRepo:     profileRepo,
		mailer:          mailer,
		cfg:             cfg,
	}
}

// Apply は講師申請を作成します。審査待ちの申請は1人1件までです。
func (s *applicationService) Apply(ctx context.Context, userID uuid.UUID, req *model.CreateApplicationRequest) (*model.InstructorApplication, error) {
	logger := middleware.GetLogger(ctx)

	profile, err := s.profileRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("PROFILE_NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding profile", "error", err, "user_id", userID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	if profile.Role != model.RoleStudent {
		logger.Warn("Application rejected: already instructor or admin", "user_id", userID.String(), "role", string(profile.Role))
		return nil, model.NewAppError("ALREADY_INSTRUCTOR", "既に講師権限を持っています。", "", model.ErrConflict)
	}

	var created *model.InstructorApplication
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.applicationRepo.FindPendingByUser(ctx, tx, userID)
		if err == nil {
			logger.Warn("Application rejected: pending application exists", "user_id", userID.String())
			return model.NewAppError("APPLICATION_PENDING", "審査待ちの申請が既にあります。", "", model.ErrConflict)
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		app := &model.InstructorApplication{
			ApplicationID: uuid.New(),
			UserID:        userID,
			Bio:           req.Bio,
			Expertise:     req.Expertise,
			Status:        model.ApplicationPending,
		}
		if err := s.applicationRepo.Create(ctx, tx, app); err != nil {
			return err
		}
		created = app
		return nil
	})
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Error("Transaction failed for Apply", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "講師申請の作成に失敗しました。", "", err)
	}

	logger.Info("Instructor application submitted", "application_id", created.ApplicationID, "user_id", userID.String())
	return created, nil
}

// ListByStatus は管理者向けに申請一覧を返します
func (s *applicationService) ListByStatus(ctx context.Context, status model.ApplicationStatus, limit, offset int) ([]*model.InstructorApplication, error) {
	logger := middleware.GetLogger(ctx)

	if !status.Valid() {
		return nil, model.NewAppError("INVALID_STATUS", "ステータスの指定が不正です。", "status", model.ErrInvalidInput)
	}
	if limit <= 0 || limit > s.cfg.App.PageLimit {
		limit = s.cfg.App.PageLimit
	}
	if offset < 0 {
		offset = 0
	}

	apps, err := s.applicationRepo.FindByStatus(ctx, s.db, status, limit, offset)
	if err != nil {
		logger.Error("Error listing applications", "error", err, "status", string(status))
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return apps, nil
}

// Review は申請を承認または却下します。承認時は同一トランザクションで
// 申請者のロールを instructor に昇格し、コミット後に通知メールを送ります。
func (s *applicationService) Review(ctx context.Context, reviewerID, applicationID uuid.UUID, req *model.ReviewApplicationRequest) (*model.InstructorApplication, error) {
	logger := middleware.GetLogger(ctx)

	app, err := s.applicationRepo.FindByID(ctx, s.db, applicationID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("APPLICATION_NOT_FOUND", "申請が見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding application", "error", err, "application_id", applicationID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	if app.Status != model.ApplicationPending {
		logger.Warn("Application already reviewed", "application_id", applicationID.String(), "status", string(app.Status))
		return nil, model.NewAppError("ALREADY_REVIEWED", "この申請は審査済みです。", "", model.ErrConflict)
	}

	newStatus := model.ApplicationRejected
	if req.Action == "approve" {
		newStatus = model.ApplicationApproved
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.applicationRepo.Update(ctx, tx, applicationID, map[string]interface{}{
			"status":      newStatus,
			"reviewer_id": reviewerID,
			"reviewed_at": now,
			"updated_at":  now,
		}); err != nil {
			return err
		}
		if newStatus == model.ApplicationApproved {
			// ロール昇格は審査結果と同じトランザクションで確定させる
			if err := s.profileRepo.UpdateRole(ctx, tx, app.UserID, model.RoleInstructor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Transaction failed for Review", "error", err, "application_id", applicationID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "申請の審査に失敗しました。", "", err)
	}

	app.Status = newStatus
	app.ReviewerID = &reviewerID
	app.ReviewedAt = &now

	// 通知メールの失敗は審査結果を巻き戻さない。ログだけ残す。
	if app.Applicant != nil && app.Applicant.Email != "" {
		subject, body := applicationResultMail(app)
		if err := s.mailer.Send(ctx, app.Applicant.Email, subject, body); err != nil {
			logger.Warn("Failed to send application result mail", "error", err, "application_id", applicationID.String())
		}
	}

	logger.Info("Application reviewed", "application_id", applicationID.String(), "status", string(newStatus))
	return app, nil
}

func applicationResultMail(app *model.InstructorApplication) (subject, body string) {
	if app.Status == model.ApplicationApproved {
		subject = fmt.Sprintf("[%s] 講師申請が承認されました", config.AppName)
		body = fmt.Sprintf("%s様\n\n講師申請が承認されました。コースの作成が可能になりました。\n", app.Applicant.Name)
		return subject, body
	}
	subject = fmt.Sprintf("[%s] 講師申請の審査結果", config.AppName)
	body = fmt.Sprintf("%s様\n\n誠に残念ながら、今回の講師申請は承認されませんでした。\n", app.Applicant.Name)
	return subject, body
}
