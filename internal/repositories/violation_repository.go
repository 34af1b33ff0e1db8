package repositories

import (
	"context"

	"intervuex/internal/models"

	"gorm.io/gorm"
)

// ViolationRepository is insert-only.
type ViolationRepository struct {
	DB *gorm.DB
}

func (r *ViolationRepository) Create(ctx context.Context, v *models.Violation) error {
	return r.DB.WithContext(ctx).Create(v).Error
}

func (r *ViolationRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Violation, error) {
	vs := []models.Violation{}
	err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Order("occurred_at ASC").Find(&vs).Error
	return vs, err
}
