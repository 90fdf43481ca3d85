package service

import (
	"context"
	"errors"
	"time"

	"go_lms_hub/internal/config"
	"go_lms_hub/internal/middleware"
	"go_lms_hub/internal/model"
	"go_lms_hub/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.Profile, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	GetProfile(ctx context.Context, profileID uuid.UUID) (*model.Profile, error)
	ListProfiles(ctx context.Context, limit, offset int) ([]*model.Profile, error)
}

type authService struct {
	db          *gorm.DB
	profileRepo repository.ProfileRepository
	cfg         *config.Config
}

func NewAuthService(db *gorm.DB, profileRepo repository.ProfileRepository, cfg *config.Config) AuthService {
	return &authService{
		db:          db,
		profileRepo: profileRepo,
		cfg:         cfg,
	}
}

// Register は新しいユーザーを受講者ロールで登録します
func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Profile, error) {
	logger := middleware.GetLogger(ctx)
	var newProfile *model.Profile

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Emailでの重複チェック
		_, err := s.profileRepo.FindByEmail(ctx, tx, req.Email)
		if err == nil {
			logger.Warn("Email already exists", "email", req.Email)
			return model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)
		}
		if !errors.Is(err, model.ErrNotFound) {
			logger.Error("Failed to check email existence", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("Failed to hash password", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "パスワードの処理中にエラーが発生しました。", "", err)
		}

		profile := &model.Profile{
			ProfileID:    uuid.New(),
			Name:         req.Name,
			Email:        req.Email,
			Role:         model.RoleStudent,
			PasswordHash: string(hashedPassword),
		}

		if err := s.profileRepo.Create(ctx, tx, profile); err != nil {
			// Create内で一意制約違反が検知された場合 (レースコンディション対策)
			if errors.Is(err, model.ErrConflict) {
				logger.Warn("Conflict during profile creation (race condition)", "error", err)
				return model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)
			}
			logger.Error("Failed to create profile in DB", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザーの作成に失敗しました。", "", err)
		}
		newProfile = profile
		return nil
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Profile registered", "profile_id", newProfile.ProfileID, "email", newProfile.Email)
	return newProfile, nil
}

// Login はメールアドレスとパスワードを検証し、アクセストークンを発行します
func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	logger := middleware.GetLogger(ctx).With("email", req.Email)

	profile, err := s.profileRepo.FindByEmail(ctx, s.db, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Login failed: user not found")
			return nil, model.NewAppError("AUTHENTICATION_FAILED", "メールアドレスまたはパスワードが正しくありません。", "", model.ErrUnauthorized)
		}
		logger.Error("Login failed: db error on FindByEmail", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password))
	if err != nil {
		logger.Warn("Login failed: password mismatch", "profile_id", profile.ProfileID)
		return nil, model.NewAppError("AUTHENTICATION_FAILED", "メールアドレスまたはパスワードが正しくありません。", "", model.ErrUnauthorized)
	}

	// ロールはクレームに含めない。権限判定は都度DBのプロフィールを参照する。
	claims := &jwt.RegisteredClaims{
		Issuer:    config.AppName,
		Subject:   profile.ProfileID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(s.cfg.JWT.ExpiryMinutes) * time.Minute)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		logger.Error("Failed to sign JWT", "error", err, "profile_id", profile.ProfileID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "トークンの生成に失敗しました。", "", err)
	}

	logger.Info("Login successful", "profile_id", profile.ProfileID)
	return &model.LoginResponse{AccessToken: signedToken}, nil
}

// GetProfile は指定されたIDのプロフィールを取得します
func (s *authService) GetProfile(ctx context.Context, profileID uuid.UUID) (*model.Profile, error) {
	logger := middleware.GetLogger(ctx)
	profile, err := s.profileRepo.FindByID(ctx, s.db, profileID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Profile not found", "profile_id", profileID.String())
			return nil, model.NewAppError("PROFILE_NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding profile by ID", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return profile, nil
}

// ListProfiles は管理者向けにユーザー一覧を返します
func (s *authService) ListProfiles(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
	logger := middleware.GetLogger(ctx)
	if limit <= 0 || limit > s.cfg.App.PageLimit {
		limit = s.cfg.App.PageLimit
	}
	if offset < 0 {
		offset = 0
	}
	profiles, err := s.profileRepo.List(ctx, s.db, limit, offset)
	if err != nil {
		logger.Error("Error listing profiles", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return profiles, nil
}
