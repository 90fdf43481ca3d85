//go:generate mockery --name ProfileRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_lms_hub/internal/logctx"
	"go_lms_hub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *model.Profile) error
	FindByID(ctx context.Context, db *gorm.DB, profileID uuid.UUID) (*model.Profile, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.Profile, error)
	UpdateRole(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, role model.Role) error
	List(ctx context.Context, db *gorm.DB, limit, offset int) ([]*model.Profile, error)
}

type gormProfileRepository struct{}

func NewGormProfileRepository() ProfileRepository {
	return &gormProfileRepository{}
}

func (r *gormProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *model.Profile) error {
	logger := logctx.GetLogger(ctx)

	result := db.WithContext(ctx).Create(profile)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			logger.Warn("Duplicate key error on create profile",
				"error", result.Error,
				"email", profile.Email,
			)
			return model.ErrConflict
		}
		logger.Error("Error creating profile in DB",
			"error", result.Error,
			"email", profile.Email,
		)
		return fmt.Errorf("gormProfileRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormProfileRepository) FindByID(ctx context.Context, db *gorm.DB, profileID uuid.UUID) (*model.Profile, error) {
	logger := logctx.GetLogger(ctx)
	var profile model.Profile

	result := db.WithContext(ctx).Where("profile_id = ?", profileID).First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding profile by ID in DB",
			"error", result.Error,
			"profile_id", profileID.String(),
		)
		return nil, fmt.Errorf("gormProfileRepository.FindByID: %w", result.Error)
	}
	return &profile, nil
}

func (r *gormProfileRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.Profile, error) {
	logger := logctx.GetLogger(ctx)
	var profile model.Profile

	result := db.WithContext(ctx).Where("email = ?", email).First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.Debug("Profile not found by email", "email", email)
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding profile by email in DB",
			"error", result.Error,
			"email", email,
		)
		return nil, fmt.Errorf("gormProfileRepository.FindByEmail: %w", result.Error)
	}
	return &profile, nil
}

func (r *gormProfileRepository) UpdateRole(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, role model.Role) error {
	logger := logctx.GetLogger(ctx)

	result := tx.WithContext(ctx).Model(&model.Profile{}).
		Where("profile_id = ?", profileID).
		Update("role", role)
	if result.Error != nil {
		logger.Error("Error updating profile role in DB",
			"error", result.Error,
			"profile_id", profileID.String(),
			"role", string(role),
		)
		return fmt.Errorf("gormProfileRepository.UpdateRole: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormProfileRepository) List(ctx context.Context, db *gorm.DB, limit, offset int) ([]*model.Profile, error) {
	logger := logctx.GetLogger(ctx)
	var profiles []*model.Profile

	result := db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&profiles)
	if result.Error != nil {
		logger.Error("Error listing profiles in DB", "error", result.Error)
		return nil, fmt.Errorf("gormProfileRepository.List: %w", result.Error)
	}
	return profiles, nil
}
