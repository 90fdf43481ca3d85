//go:generate mockery --name ApplicationRepository --output ./mocks --outpkg mocks --case=underscore
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

type ApplicationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, app *model.InstructorApplication) error
	FindByID(ctx context.Context, db *gorm.DB, applicationID uuid.UUID) (*model.InstructorApplication, error)
	FindPendingByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.InstructorApplication, error)
	FindByStatus(ctx context.Context, db *gorm.DB, status model.ApplicationStatus, limit, offset int) ([]*model.InstructorApplication, error)
	Update(ctx context.Context, tx *gorm.DB, applicationID uuid.UUID, updates map[string]interface{}) error
}

type gormApplicationRepository struct{}

func NewGormApplicationRepository() ApplicationRepository {
	return &gormApplicationRepository{}
}

func (r *gormApplicationRepository) Create(ctx context.Context, tx *gorm.DB, app *model.InstructorApplication) error {
	logger := logctx.GetLogger(ctx)

	result := tx.WithContext(ctx).Create(app)
	if result.Error != nil {
		logger.Error("Error creating instructor application in DB",
			"error", result.Error,
			"user_id", app.UserID.String(),
		)
		return fmt.Errorf("gormApplicationRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormApplicationRepository) FindByID(ctx context.Context, db *gorm.DB, applicationID uuid.UUID) (*model.InstructorApplication, error) {
	var app model.InstructorApplication
	result := db.WithContext(ctx).
		Preload("Applicant").
		Where("application_id = ?", applicationID).
		First(&app)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormApplicationRepository.FindByID: %w", result.Error)
	}
	return &app, nil
}

// FindPendingByUser は審査待ちの申請を1件返します。なければ ErrNotFound。
func (r *gormApplicationRepository) FindPendingByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.InstructorApplication, error) {
	var app model.InstructorApplication
	result := db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.ApplicationPending).
		First(&app)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormApplicationRepository.FindPendingByUser: %w", result.Error)
	}
	return &app, nil
}

func (r *gormApplicationRepository) FindByStatus(ctx context.Context, db *gorm.DB, status model.ApplicationStatus, limit, offset int) ([]*model.InstructorApplication, error) {
	var apps []*model.InstructorApplication
	result := db.WithContext(ctx).
		Preload("Applicant").
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&apps)
	if result.Error != nil {
		return nil, fmt.Errorf("gormApplicationRepository.FindByStatus: %w", result.Error)
	}
	return apps, nil
}

func (r *gormApplicationRepository) Update(ctx context.Context, tx *gorm.DB, applicationID uuid.UUID, updates map[string]interface{}) error {
	result := tx.WithContext(ctx).Model(&model.InstructorApplication{}).
		Where("application_id = ?", applicationID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("gormApplicationRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
